package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mkdrx/rest-api-deploy/internal/data"
	"github.com/mkdrx/rest-api-deploy/internal/validator"
)

// listMoviesHandler serves "GET /movies". An optional genre query parameter narrows the
// list to the movies that have that genre, compared case-insensitively. The response is
// always a JSON array, possibly empty.
func (app *application) listMoviesHandler(w http.ResponseWriter, r *http.Request) {
	var movies []*data.Movie

	if genre := r.URL.Query().Get("genre"); genre != "" {
		movies = app.models.Movies.FilterByGenre(genre)
	} else {
		movies = app.models.Movies.GetAll()
	}

	err := app.writeJSON(w, http.StatusOK, movies, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showMovieHandler serves "GET /movies/:id".
func (app *application) showMovieHandler(w http.ResponseWriter, r *http.Request) {
	id := app.readIDParam(r)

	movie, err := app.models.Movies.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.movieNotFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, movie, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// createMovieHandler serves "POST /movies". The body must hold every movie field except
// the id, which the store generates.
func (app *application) createMovieHandler(w http.ResponseWriter, r *http.Request) {
	input, err := app.readJSON(w, r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	movie := data.ValidateMovie(v, input)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Movies.Insert(movie)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	// Include a Location header so the client knows where the new movie lives.
	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/movies/%s", movie.ID))

	err = app.writeJSON(w, http.StatusCreated, movie, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateMovieHandler serves "PATCH /movies/:id". The body is validated before the id is
// looked up, so an invalid body is reported even for an unknown id.
func (app *application) updateMovieHandler(w http.ResponseWriter, r *http.Request) {
	id := app.readIDParam(r)

	input, err := app.readJSON(w, r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	patch := data.ValidatePartialMovie(v, input)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	movie, err := app.models.Movies.Update(id, patch)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.movieNotFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, movie, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteMovieHandler serves "DELETE /movies/:id".
func (app *application) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	id := app.readIDParam(r)

	err := app.models.Movies.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.movieNotFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "Movie deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
