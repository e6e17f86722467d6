package errors

import (
	"encoding/json"
	"net/http"
)

func WriteError(w http.ResponseWriter, err error) error {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())

	// Caller logs the encode failure; nothing can be recovered after WriteHeader.
	return json.NewEncoder(w).Encode(appErr.Response())
}
