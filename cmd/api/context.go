package main

import (
	"context"
	"net/http"
)

// Define a custom contextKey type, with the underlying type string.
type contextKey string

// Convert the string "request_id" to a contextKey type and assign it to the
// requestIDContextKey constant. We use this constant as the key for getting and setting
// the request id in the request context.
const requestIDContextKey = contextKey("request_id")

// The contextSetRequestID() method returns a new copy of the request with the provided
// request id added to the context.
func (app *application) contextSetRequestID(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDContextKey, id)
	return r.WithContext(ctx)
}

// The contextGetRequestID() method retrieves the request id from the request context.
// Errors can be reported before assignRequestID has run (a panic in an outer middleware,
// for example), so a missing id yields the empty string.
func (app *application) contextGetRequestID(r *http.Request) string {
	id, ok := r.Context().Value(requestIDContextKey).(string)
	if !ok {
		return ""
	}
	return id
}
