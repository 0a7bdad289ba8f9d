package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type errorBody struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps an error to its status code and error code.
//
//	400 malformed input (bounds, kinds, amounts, limits, CSV)
//	404 unknown record or category
//	409 category already exists
//	422 stored data that cannot be interpreted
//	503 backend failure
func classify(err error) (int, string) {
	var (
		dataErr      *core.DataAccessError
		integrityErr *core.IntegrityError
		rangeErr     *core.InvalidRangeError
		importErr    *services.ImportError
		badReq       *badRequest
	)
	switch {
	case errors.As(err, &dataErr):
		return http.StatusServiceUnavailable, "data_access"
	case errors.As(err, &integrityErr):
		return http.StatusUnprocessableEntity, "data_integrity"
	case errors.As(err, &rangeErr):
		return http.StatusBadRequest, "invalid_range"
	case errors.As(err, &importErr), errors.Is(err, services.ErrMissingColumns):
		return http.StatusBadRequest, "invalid_import"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrCategoryExists):
		return http.StatusConflict, "category_exists"
	case errors.Is(err, aggregate.ErrInvalidLimit):
		return http.StatusBadRequest, "invalid_limit"
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyUsername),
		errors.Is(err, core.ErrDescriptionLimit),
		errors.As(err, &badReq):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError logs err and answers with its classified status. Backend and
// unexpected errors are not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	body := errorBody{Error: err.Error(), Code: code}

	var unknown *services.UnknownCategoryError
	if errors.As(err, &unknown) {
		body.Suggestion = unknown.Suggestion
	}

	logger := log.FromContext(r.Context())
	switch {
	case status >= 500:
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, code, r.Method+" "+r.URL.Path)
		if status == http.StatusServiceUnavailable {
			body.Error = "storage unavailable"
		} else {
			body.Error = "internal error"
		}
	case status == http.StatusUnprocessableEntity:
		logger.ErrorContext(r.Context(), "Stored data cannot be interpreted",
			log.FieldError, err, log.FieldErrorType, code)
	default:
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldErrorType, code)
	}

	writeJSON(w, status, body)
}
