// Package batch runs many independent upstream calls without letting one
// failure abort the rest and without unbounded concurrency. The upstream
// service enforces a rate limit; the chunked pacing here is resource
// protection, not a performance optimization.
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Options configures executor pacing
type Options struct {
	ChunkSize     int
	MaxParallel   int
	RetryAttempts int
	ChunkDelay    time.Duration
}

// DefaultOptions returns the standard pacing for the upstream rate limit
func DefaultOptions() Options {
	return Options{
		ChunkSize:     10,
		MaxParallel:   10,
		RetryAttempts: 1,
		ChunkDelay:    100 * time.Millisecond,
	}
}

func (o Options) normalized() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 10
	}
	if o.MaxParallel <= 0 {
		o.MaxParallel = o.ChunkSize
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	return o
}

// Success records one input that completed, keyed by its original index
type Success[I, O any] struct {
	Index  int `json:"index"`
	Input  I   `json:"input"`
	Output O   `json:"output"`
}

// Failure records one input that exhausted all attempts
type Failure[I any] struct {
	Index int    `json:"index"`
	Input I      `json:"input"`
	Error string `json:"error"`
}

// Result aggregates a full batch run. Every original index appears exactly
// once across Successful and Failed.
type Result[I, O any] struct {
	Successful []Success[I, O] `json:"successful"`
	Failed     []Failure[I]    `json:"failed"`
	Total      int             `json:"total"`
	Duration   time.Duration   `json:"-"`
}

type pending[I any] struct {
	index int
	input I
}

type outcome[I, O any] struct {
	index  int
	input  I
	output O
	err    error
}

// Run executes op for every item with chunked bounded concurrency, waits a
// fixed delay between chunks, retries each failed item through the same
// chunked path, and classifies every input as succeeded or failed. Item
// errors never propagate out of Run.
func Run[I, O any](ctx context.Context, items []I, op func(context.Context, I) (O, error), opts Options) *Result[I, O] {
	opts = opts.normalized()
	start := time.Now()

	result := &Result[I, O]{
		Successful: make([]Success[I, O], 0, len(items)),
		Failed:     make([]Failure[I], 0),
		Total:      len(items),
	}

	queue := make([]pending[I], len(items))
	for i, item := range items {
		queue[i] = pending[I]{index: i, input: item}
	}

	// Initial pass plus RetryAttempts recovery passes over the failures.
	for attempt := 0; attempt <= opts.RetryAttempts && len(queue) > 0; attempt++ {
		outcomes := runPass(ctx, queue, op, opts)

		queue = queue[:0]
		for _, oc := range outcomes {
			if oc.err == nil {
				result.Successful = append(result.Successful, Success[I, O]{
					Index:  oc.index,
					Input:  oc.input,
					Output: oc.output,
				})
				continue
			}
			if attempt < opts.RetryAttempts {
				queue = append(queue, pending[I]{index: oc.index, input: oc.input})
			} else {
				result.Failed = append(result.Failed, Failure[I]{
					Index: oc.index,
					Input: oc.input,
					Error: oc.err.Error(),
				})
			}
		}
	}

	result.Duration = time.Since(start)
	return result
}

// runPass runs one chunked pass over the queue. Chunks execute strictly in
// sequence; items within a chunk run concurrently and all settle before the
// next chunk starts.
func runPass[I, O any](ctx context.Context, queue []pending[I], op func(context.Context, I) (O, error), opts Options) []outcome[I, O] {
	outcomes := make([]outcome[I, O], len(queue))

	for offset := 0; offset < len(queue); offset += opts.ChunkSize {
		end := offset + opts.ChunkSize
		if end > len(queue) {
			end = len(queue)
		}
		chunk := queue[offset:end]

		g := &errgroup.Group{}
		g.SetLimit(opts.MaxParallel)

		for i, item := range chunk {
			slot := &outcomes[offset+i]
			slot.index = item.index
			slot.input = item.input

			input := item.input
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						slot.err = fmt.Errorf("panic: %v", r)
					}
				}()
				slot.output, slot.err = op(ctx, input)
				return nil
			})
		}

		// Item errors are captured in their slots, never returned.
		_ = g.Wait()

		if end < len(queue) && opts.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				for i := end; i < len(queue); i++ {
					outcomes[i] = outcome[I, O]{
						index: queue[i].index,
						input: queue[i].input,
						err:   ctx.Err(),
					}
				}
				return outcomes
			case <-time.After(opts.ChunkDelay):
			}
		}
	}

	return outcomes
}
