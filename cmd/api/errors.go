package main

import (
	"fmt"
	"net/http"
)

// The logError() method is a generic helper for logging an error message along with the
// request method, URL and request id.
func (app *application) logError(r *http.Request, err error) {
	app.logger.PrintError(err, map[string]string{
		"request_method": r.Method,
		"request_url":    r.URL.String(),
		"request_id":     app.contextGetRequestID(r),
	})
}

// The errorResponse() method sends a JSON response of the form {"message": ...} with the
// given status code. If writing fails we log it and fall back to an empty 500 response.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	env := envelope{"message": message}

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// The serverErrorResponse() method is used when our application encounters an unexpected
// problem at runtime. It logs the detailed error, then sends a 500 response with a generic
// message to the client.
func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "the server encountered a problem and could not process your request"
	app.errorResponse(w, r, http.StatusInternalServerError, message)
}

// The notFoundResponse() method is used for routes that do not exist.
func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

// The movieNotFoundResponse() method is used when a movie id is not in the store.
func (app *application) movieNotFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "Movie not found")
}

// The methodNotAllowedResponse() method is used when the route exists but does not
// support the request method.
func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

// The failedValidationResponse() method writes a 400 Bad Request response whose "error"
// member maps each failing field to its reasons.
func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string][]string) {
	err := app.writeJSON(w, http.StatusBadRequest, envelope{"error": errors}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// The badRequestResponse() method reports a body that could not be decoded. It uses the
// same shape as a validation failure, keyed by "body".
func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.failedValidationResponse(w, r, map[string][]string{"body": {err.Error()}})
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	message := "rate limit exceeded"
	app.errorResponse(w, r, http.StatusTooManyRequests, message)
}
