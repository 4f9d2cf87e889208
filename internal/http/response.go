// Package http serves the ledger API: balance and report queries, CRUD for
// transactions, customers, users and saved reports, and operational endpoints.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/log"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// JSONResponse builds a JSON response.
type JSONResponse struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse() *JSONResponse {
	return &JSONResponse{statusCode: http.StatusOK, headers: map[string]string{}}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

func (b *JSONResponse) Body(v any) *JSONResponse {
	b.body = v
	return b
}

// Write sends the response. A nil body writes no content.
func (b *JSONResponse) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindInvalidDate, core.KindInvalidRange, core.KindValidation:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	case core.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case core.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the client-facing text for err. Unclassified errors are
// not echoed back.
func errorMessage(err error) string {
	var e *core.Error
	if !errors.As(err, &e) {
		return "Internal server error"
	}
	switch {
	case e.Kind == core.KindValidation && e.Err != nil:
		return e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

// ErrorResponse builds the {message, error} body for err.
func ErrorResponse(err error) *JSONResponse {
	kind := core.KindOf(err)
	return NewJSONResponse().
		Status(statusFor(kind)).
		Body(ErrorBody{Message: errorMessage(err), Error: string(kind)})
}

// writeError logs server-side failures with their cause and writes the error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldErrorKind, string(core.KindOf(err)))
	}
	resp.Write(w)
}
