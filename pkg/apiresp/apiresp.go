// Package apiresp provides the JSON response envelope shared by all API
// endpoints. Success responses carry data; failures carry exactly one error
// object whose HTTP status mirrors the failure taxonomy.
package apiresp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/creatorhub/insight/domain/query"
)

// ContentType is the media type of every API response.
const ContentType = "application/json; charset=utf-8"

// Document is the response envelope.
type Document struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error is the wire form of a failed request.
type Error struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Param  string `json:"param,omitempty"`
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Document{Data: data})
}

// WriteError writes an error envelope; the HTTP status comes from the error.
func WriteError(w http.ResponseWriter, e Error) {
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(Document{Error: &e})
}

// ErrInvalidParameter builds a 400 for a rejected query parameter.
func ErrInvalidParameter(param, detail string) Error {
	return Error{
		Status: http.StatusBadRequest,
		Code:   "invalid_parameter",
		Title:  "Invalid Parameter",
		Detail: detail,
		Param:  param,
	}
}

// ErrUnavailable builds a 503 for an unreachable data source.
func ErrUnavailable(detail string) Error {
	return Error{
		Status: http.StatusServiceUnavailable,
		Code:   "data_unavailable",
		Title:  "Data Unavailable",
		Detail: detail,
	}
}

// ErrNotFound builds a 404.
func ErrNotFound(detail string) Error {
	return Error{
		Status: http.StatusNotFound,
		Code:   "not_found",
		Title:  "Not Found",
		Detail: detail,
	}
}

// ErrInternal builds a 500. The detail is intentionally generic; the real
// cause belongs in the server log, not on the wire.
func ErrInternal() Error {
	return Error{
		Status: http.StatusInternalServerError,
		Code:   "internal",
		Title:  "Internal Server Error",
	}
}

// FromError maps a façade error onto the wire taxonomy.
func FromError(err error) Error {
	var ip *query.InvalidParameterError
	if errors.As(err, &ip) {
		return ErrInvalidParameter(ip.Param, ip.Error())
	}
	if query.IsDataUnavailable(err) {
		return ErrUnavailable(err.Error())
	}
	return ErrInternal()
}
