package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	ErrBodyRead    = errors.New("read request body")
	ErrInvalidJSON = errors.New("invalid JSON in request body")
)

// DecodeMessage returns the client-facing text for an error from the decode
// helpers.
func DecodeMessage(err error) string {
	switch {
	case errors.Is(err, ErrBodyRead):
		return "Failed to read request body"
	case errors.Is(err, ErrInvalidJSON):
		return "Invalid JSON in request body"
	default:
		return "Invalid request body"
	}
}

// DecodeFailed writes a 400 for an error from the decode helpers.
func DecodeFailed(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, DecodeMessage(err))
}

// ReadBody reads at most MaxBodyBytes from the request.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, ErrBodyRead
	}
	return body, nil
}

// DecodeJSON reads and unmarshals the request body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := ReadBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return ErrInvalidJSON
	}
	return nil
}

// DecodeObject reads the body as a generic JSON object, keeping numbers as
// json.Number so integer checks stay exact.
func DecodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body, err := ReadBody(w, r)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, ErrInvalidJSON
	}
	return obj, nil
}
