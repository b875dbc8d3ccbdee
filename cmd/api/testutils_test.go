package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/mkdrx/rest-api-deploy/internal/data"
	"github.com/mkdrx/rest-api-deploy/internal/jsonlog"
)

const (
	darkKnightID = "c8a7d63f-3b04-44d3-9d95-8782fd7dcfaf"
	amelieID     = "0b0c57b8-4f52-4b3e-9a5e-1a7d7b8f2c11"
	alienID      = "5f1d2f3a-8c3e-4a8d-b3f2-6f8e2a1b9c77"
)

func testMovies() []*data.Movie {
	return []*data.Movie{
		{
			ID: darkKnightID, Title: "The Dark Knight", Year: 2008, Director: "Christopher Nolan",
			Duration: 152, Poster: "https://example.com/dark-knight.jpg", Genre: []string{"Action", "Crime", "Drama"}, Rate: 9,
		},
		{
			ID: amelieID, Title: "Amélie", Year: 2001, Director: "Jean-Pierre Jeunet",
			Duration: 122, Poster: "https://example.com/amelie.jpg", Genre: []string{"Comedy", "Romance"}, Rate: 8.3,
		},
		{
			ID: alienID, Title: "Alien", Year: 1979, Director: "Ridley Scott",
			Duration: 117, Poster: "https://example.com/alien.jpg", Genre: []string{"Horror", "Sci-Fi"}, Rate: 8.5,
		},
	}
}

// newTestApplication returns an application with its own store, a silent logger and rate
// limiting switched off.
func newTestApplication(t *testing.T) *application {
	t.Helper()

	cfg := defaultConfig()
	cfg.Limiter.Enabled = false

	return &application{
		config: cfg,
		logger: jsonlog.New(io.Discard, jsonlog.LevelOff),
		models: data.NewModels(testMovies()),
	}
}

func do(t *testing.T, h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, r)
	for k, v := range header {
		req.Header[k] = v
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func movieIDs(movies []data.Movie) []string {
	ids := make([]string, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	return ids
}
