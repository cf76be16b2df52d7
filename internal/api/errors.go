package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"sqlpp/internal/domain"
	"sqlpp/internal/middleware"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	Construct string `json:"construct,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var parse *domain.ParseError
	var unsupported *domain.UnsupportedConstructError
	var validation *domain.ValidationError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &parse):
		return http.StatusBadRequest
	case errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse builds the body for err. Unknown errors are not echoed.
func errorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Code: httpStatusFromDomainError(err), Message: err.Error()}

	var parse *domain.ParseError
	var unsupported *domain.UnsupportedConstructError
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &parse):
		resp.Kind = "parse_error"
		resp.Line = parse.Line
		resp.Column = parse.Column
	case errors.As(err, &unsupported):
		resp.Kind = "unsupported_construct"
		resp.Construct = unsupported.Construct
	case errors.As(err, &validation):
		resp.Kind = "validation_error"
	case resp.Code == http.StatusRequestEntityTooLarge:
		resp.Kind = "request_too_large"
	default:
		resp.Kind = "internal"
		resp.Message = "internal error"
	}
	return resp
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse(err)
	resp.RequestID = middleware.RequestIDFromContext(r.Context())
	writeJSON(w, resp.Code, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
