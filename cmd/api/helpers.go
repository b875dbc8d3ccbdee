package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"
)

// Define an envelope type for JSON object responses.
type envelope map[string]any

// maxBodyBytes caps the size of a request body.
const maxBodyBytes = 1_048_576

// Retrieve the "id" URL parameter from the current request context. Movie ids are opaque
// strings, so there is nothing to parse; an unknown id is simply not found by the store.
func (app *application) readIDParam(r *http.Request) string {
	params := httprouter.ParamsFromContext(r.Context())
	return params.ByName("id")
}

// writeJSON encodes data, appends a newline, adds any extra headers and writes the
// response with the given status code.
func (app *application) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

// readJSON decodes the request body into a JSON object keyed by field name. Field values
// are left raw so the schema can check each of them. Every error returned describes a
// problem with the client's body.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)

	var input map[string]json.RawMessage
	err := dec.Decode(&input)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		// The decoder can surface a truncated read as a plain EOF, so ask the body
		// itself whether the limit was hit before looking at anything else.
		case errors.As(err, &maxBytesError), strings.Contains(err.Error(), "request body too large"), bodyTooLarge(r.Body):
			return nil, fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)

		case errors.As(err, &syntaxError):
			return nil, fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, errors.New("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			return nil, errors.New("body must be a JSON object")

		case errors.Is(err, io.EOF):
			return nil, errors.New("body must not be empty")

		default:
			return nil, fmt.Errorf("body could not be decoded: %w", err)
		}
	}

	// A literal null decodes into a nil map.
	if input == nil {
		return nil, errors.New("body must be a JSON object")
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return nil, errors.New("body must only contain a single JSON value")
	}

	return input, nil
}

// bodyTooLarge reports whether body, wrapped by http.MaxBytesReader, has gone past its
// limit. The reader keeps returning the same error once the limit is reached.
func bodyTooLarge(body io.Reader) bool {
	var maxBytesError *http.MaxBytesError
	_, err := body.Read(make([]byte, 1))
	return errors.As(err, &maxBytesError)
}
