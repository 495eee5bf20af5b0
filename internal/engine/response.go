package engine

import (
	"encoding/json"
	"net/http"

	"github.com/notiongate/notiongate/pkg/apperrors"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	writeJSONResponse(w, statusCode, ErrorResponse{
		Success: false,
		Message: message,
		Details: details,
	})
}

// writeServiceError maps the gateway's error taxonomy onto HTTP statuses:
// validation 400, not found 404, upstream 502, everything else 500.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	message := fallback
	if apperrors.IsValidation(err) || apperrors.IsNotFound(err) {
		message = err.Error()
	}
	details := ""
	if message != err.Error() {
		details = err.Error()
	}
	writeErrorResponse(w, apperrors.HTTPStatus(err), message, details)
}

// batchStatus picks the response code for a batch outcome: created when
// everything succeeded, multi-status on partial failure
func batchStatus(failed int, allSuccess int) int {
	if failed == 0 {
		return allSuccess
	}
	return http.StatusMultiStatus
}
