// Package request holds the parsing steps every handler repeats.
package request

import (
	"encoding/json"
	"net/http"
	"strconv"

	"nations-server/internal/shared/errors"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads a bounded JSON body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.WithUserMessage(
			errors.WrapValidation("invalid JSON in request body", err),
			"Invalid request format.",
		)
	}
	return nil
}

// PathID parses a positive integer path wildcard.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, errors.Validationf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.WithUserMessage(
			errors.WrapValidation("invalid "+name+" format", err),
			"Invalid ID. Please provide a positive number.",
		)
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter, returning zero when absent.
func QueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.WithUserMessage(
			errors.WrapValidation("invalid "+name+" parameter", err),
			"Invalid "+name+". Please provide a non-negative number.",
		)
	}
	return n, nil
}
