// Package httputil writes JSON responses and maps application errors onto
// HTTP status codes.
package httputil

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// ErrorBody is the error envelope returned to clients.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the stable error code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// WriteError maps err onto a status code and envelope. Errors that are not
// application errors are logged and reported as a generic internal error.
func WriteError(w http.ResponseWriter, log interfaces.Logger, err error) {
	status, body := Describe(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", interfaces.Error(err))
	}
	WriteJSON(w, status, body)
}

// Describe returns the status code and client-safe body for err.
func Describe(err error) (int, ErrorBody) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || appErr.Type == errors.ErrorTypeInternal {
		return http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{
			Code:    string(errors.CodeInternal),
			Message: "internal server error",
		}}
	}

	code := string(appErr.Code)
	if code == "" {
		code = string(appErr.Type)
	}
	return StatusOf(appErr.Type), ErrorBody{Error: ErrorDetail{Code: code, Message: appErr.Message}}
}

// StatusOf maps an error type onto an HTTP status.
func StatusOf(t errors.ErrorType) int {
	switch t {
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeBadRequest:
		return http.StatusBadRequest
	case errors.ErrorTypeConflict:
		return http.StatusConflict
	case errors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrorTypeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.BadRequest("invalid request body")
	}
	return nil
}

// QueryInt reads an integer query parameter. Missing values yield def;
// malformed values are a bad request.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.BadRequest(name + " must be an integer")
	}
	return v, nil
}
