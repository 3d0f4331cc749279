// Package handler exposes the services over JSON HTTP. Every response body is
// a response.Envelope and the HTTP status mirrors its statusCode.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"annotastore/internal/apperr"
	"annotastore/internal/response"
	"annotastore/pkg/logger"
)

const defaultBodyLimit = 1 << 20

func writeEnvelope[T any](w http.ResponseWriter, env response.Envelope[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Sugar.Errorf("Handler: failed to encode response: %v", err)
	}
}

// decode reads a JSON body of at most limit bytes into v. On failure it has
// already written the error response.
func decode(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	if limit <= 0 {
		limit = defaultBodyLimit
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeEnvelope(w, response.Fail[response.None](apperr.Validation("request body exceeds %d bytes", tooLarge.Limit)))
			return false
		}
		writeEnvelope(w, response.Fail[response.None](apperr.Validation("invalid request body")))
		return false
	}
	return true
}
