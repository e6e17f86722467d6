package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "dayslot/pkg/errors"
)

// DecodeJSON strictly decodes a single JSON object from the request body.
// Unknown fields, trailing data and oversized bodies are all invalid input.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperrors.InvalidInput("request body is required")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperrors.InvalidInput("request body too large")
		case errors.Is(err, io.EOF):
			return apperrors.InvalidInput("request body is required")
		default:
			return apperrors.InvalidInput("invalid JSON body: " + err.Error())
		}
	}

	if dec.More() {
		return apperrors.InvalidInput("request body must contain a single JSON object")
	}

	return nil
}
