// Package response holds the envelope every service call returns.
package response

import (
	"net/http"

	"annotastore/internal/apperr"
)

type Envelope[T any] struct {
	Success    bool   `json:"success"`
	Data       T      `json:"data,omitzero"`
	Error      string `json:"error,omitempty"`
	ErrorCode  string `json:"errorCode,omitempty"`
	StatusCode int    `json:"statusCode"`
}

// None is the payload of operations that return no data.
type None struct{}

func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: data, StatusCode: http.StatusOK}
}

// Fail converts err into a failure envelope. The message is the public form
// of the error; backend detail stays in the logs.
func Fail[T any](err error) Envelope[T] {
	kind := apperr.KindOf(err)
	return Envelope[T]{
		Success:    false,
		Error:      apperr.Message(err),
		ErrorCode:  kind.Code(),
		StatusCode: statusFor(kind),
	}
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindToken, apperr.KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
