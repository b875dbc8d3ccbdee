package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdrx/rest-api-deploy/internal/jsonlog"
)

func TestRecoverPanic(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	app := newTestApplication(t)
	app.logger = jsonlog.New(&logs, jsonlog.LevelError)

	h := app.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := do(t, h, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
	assert.JSONEq(t, `{"message":"the server encountered a problem and could not process your request"}`, rec.Body.String())

	var entry struct {
		Message    string            `json:"message"`
		Properties map[string]string `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry), logs.String())

	id := rec.Header().Get("X-Request-Id")
	require.NotEmpty(t, id)
	assert.Equal(t, "boom", entry.Message)
	assert.Equal(t, id, entry.Properties["request_id"])
}

func TestAssignRequestID(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t)

	var seen string
	h := app.assignRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = app.contextGetRequestID(r)
	}))

	rec := do(t, h, http.MethodGet, "/", "", nil)
	id := rec.Header().Get("X-Request-Id")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, seen)

	supplied := uuid.NewString()
	rec = do(t, h, http.MethodGet, "/", "", http.Header{"X-Request-Id": {supplied}})
	assert.Equal(t, supplied, rec.Header().Get("X-Request-Id"))

	rec = do(t, h, http.MethodGet, "/", "", http.Header{"X-Request-Id": {"not-a-uuid"}})
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get("X-Request-Id"))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	newLimited := func(trustProxy bool) http.Handler {
		app := newTestApplication(t)
		app.config.Limiter.Enabled = true
		app.config.Limiter.RPS = 0.001
		app.config.Limiter.Burst = 1
		app.config.Limiter.TrustProxy = trustProxy
		return app.routes()
	}

	t.Run("connection address", func(t *testing.T) {
		t.Parallel()

		h := newLimited(false)

		rec := do(t, h, http.MethodGet, "/healthcheck", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, h, http.MethodGet, "/healthcheck", "", nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.JSONEq(t, `{"message":"rate limit exceeded"}`, rec.Body.String())

		// Forwarding headers are ignored, so rotating them does not reset the bucket.
		rec = do(t, h, http.MethodGet, "/healthcheck", "", http.Header{"X-Forwarded-For": {"198.51.100.9"}})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("behind a trusted proxy", func(t *testing.T) {
		t.Parallel()

		h := newLimited(true)

		rec := do(t, h, http.MethodGet, "/healthcheck", "", http.Header{"X-Real-Ip": {"203.0.113.7"}})
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, h, http.MethodGet, "/healthcheck", "", http.Header{"X-Real-Ip": {"203.0.113.7"}})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		// Another client has its own bucket.
		rec = do(t, h, http.MethodGet, "/healthcheck", "", http.Header{"X-Real-Ip": {"203.0.113.8"}})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestEnableCORS(t *testing.T) {
	t.Parallel()

	t.Run("any origin on simple requests", func(t *testing.T) {
		t.Parallel()

		app := newTestApplication(t)
		rec := do(t, app.routes(), http.MethodGet, "/movies", "", http.Header{"Origin": {"http://example.com"}})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	for _, method := range []string{http.MethodPatch, http.MethodDelete, http.MethodPut} {
		method := method
		t.Run("preflight "+method, func(t *testing.T) {
			t.Parallel()

			app := newTestApplication(t)
			rec := do(t, app.routes(), http.MethodOptions, "/movies/"+alienID, "", http.Header{
				"Origin":                        {"http://example.com"},
				"Access-Control-Request-Method": {method},
			})

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), method)
		})
	}

	t.Run("trusted origins only", func(t *testing.T) {
		t.Parallel()

		app := newTestApplication(t)
		app.config.CORS.TrustedOrigins = []string{"https://trusted.example"}
		h := app.routes()

		rec := do(t, h, http.MethodGet, "/movies", "", http.Header{"Origin": {"https://trusted.example"}})
		assert.Equal(t, "https://trusted.example", rec.Header().Get("Access-Control-Allow-Origin"))

		rec = do(t, h, http.MethodGet, "/movies", "", http.Header{"Origin": {"https://evil.example"}})
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestMetrics(t *testing.T) {
	app := newTestApplication(t)
	h := app.routes()

	before := totalRequestsReceived.Value()
	do(t, h, http.MethodGet, "/movies/missing", "", nil)
	assert.Equal(t, before+1, totalRequestsReceived.Value())
	assert.NotNil(t, totalResponsesSentByStatus.Get("404"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "total_requests_received")
	assert.Contains(t, rec.Body.String(), "total_processing_time_microseconds")
}
