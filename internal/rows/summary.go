package rows

import "github.com/notiongate/notiongate/internal/batch"

// BatchError is one per-item failure in a batch response
type BatchError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BatchSummary is the REST-facing reshaping of an executor result: counts
// by outcome plus itemized errors. Partial failure is an outcome here, not
// an error.
type BatchSummary struct {
	Total      int           `json:"total"`
	Succeeded  int           `json:"-"`
	Action     string        `json:"-"`
	Failed     int           `json:"failed"`
	Results    []interface{} `json:"results,omitempty"`
	Errors     []BatchError  `json:"errors,omitempty"`
	DurationMs int64         `json:"durationMs"`
}

// Counted renders the summary with the succeeded count keyed by the action
// name (created/updated/archived), the shape batch endpoints respond with.
func (s *BatchSummary) Counted() map[string]interface{} {
	out := map[string]interface{}{
		"total":      s.Total,
		s.Action:     s.Succeeded,
		"failed":     s.Failed,
		"durationMs": s.DurationMs,
	}
	if len(s.Results) > 0 {
		out["results"] = s.Results
	}
	if len(s.Errors) > 0 {
		out["errors"] = s.Errors
	}
	return out
}

// Summarize reshapes an executor result into the REST-facing summary
func Summarize[I, O any](r *batch.Result[I, O], action string) *BatchSummary {
	results := make([]interface{}, 0, len(r.Successful))
	for _, s := range r.Successful {
		results = append(results, s.Output)
	}
	errors := make([]BatchError, 0, len(r.Failed))
	for _, f := range r.Failed {
		errors = append(errors, BatchError{Index: f.Index, Error: f.Error})
	}
	return &BatchSummary{
		Total:      r.Total,
		Succeeded:  len(results),
		Action:     action,
		Failed:     len(errors),
		Results:    results,
		Errors:     errors,
		DurationMs: r.Duration.Milliseconds(),
	}
}
