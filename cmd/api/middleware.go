package main

import (
	"expvar"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/tomasen/realip"
	"golang.org/x/time/rate"
)

// The expvar counters are package level because expvar panics if the same name is
// published twice, and routes() is built once per test.
var (
	totalRequestsReceived           = expvar.NewInt("total_requests_received")
	totalResponsesSent              = expvar.NewInt("total_responses_sent")
	totalProcessingTimeMicroseconds = expvar.NewInt("total_processing_time_microseconds")
	totalResponsesSentByStatus      = expvar.NewMap("total_responses_sent_by_status")
)

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Create a deferred function (which will always be run in the event of a panic as
		// Go unwinds the stack).
		defer func() {
			// Use the built-in recover function to check if there has been a panic or not.
			if err := recover(); err != nil {
				// If there was a panic, set a "Connection: close" header on the response.
				// This makes Go's HTTP server close the current connection after the
				// response has been sent.
				w.Header().Set("Connection", "close")

				// The value returned by recover() has the type any, so we use fmt.Errorf()
				// to normalize it into an error and call our serverErrorResponse() helper.
				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// assignRequestID gives every request a UUID, echoed in the X-Request-Id response header
// and stored in the request context for error logs. A client-supplied id is reused.
func (app *application) assignRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, app.contextSetRequestID(r, id))
	})
}

func (app *application) rateLimit(next http.Handler) http.Handler {
	// Define a client struct to hold the rate limiter and last seen time for each client.
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	// Declare a mutex and a map to hold the clients' IP addresses and rate limiters.
	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	// Launch a background goroutine which removes old entries from the clients map once
	// every minute.
	if app.config.Limiter.Enabled {
		go func() {
			for {
				time.Sleep(time.Minute)

				// Lock the mutex to prevent any rate limiter checks from happening while
				// the cleanup is taking place.
				mu.Lock()

				// Delete the clients that haven't been seen within the last three minutes.
				for ip, client := range clients {
					if time.Since(client.lastSeen) > 3*time.Minute {
						delete(clients, ip)
					}
				}

				mu.Unlock()
			}
		}()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only carry out the check if rate limiting is enabled.
		if app.config.Limiter.Enabled {
			ip := app.clientIP(r)

			mu.Lock()

			// Create and add a new client struct to the map if it doesn't already exist,
			// using the requests-per-second and burst values from the config struct.
			if _, found := clients[ip]; !found {
				clients[ip] = &client{
					limiter: rate.NewLimiter(rate.Limit(app.config.Limiter.RPS), app.config.Limiter.Burst),
				}
			}

			clients[ip].lastSeen = time.Now()

			// If the request isn't allowed, unlock the mutex and send a 429 Too Many
			// Requests response.
			if !clients[ip].limiter.Allow() {
				mu.Unlock()
				app.rateLimitExceededResponse(w, r)
				return
			}

			// Unlock the mutex before calling the next handler in the chain. We don't use
			// defer, as that would keep the mutex locked until all the handlers downstream
			// of this middleware have also returned.
			mu.Unlock()
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the address the rate limiter keys on. Proxy headers are only honoured
// when the limiter is configured to trust them, since any client can set them.
func (app *application) clientIP(r *http.Request) string {
	if app.config.Limiter.TrustProxy {
		return realip.FromRequest(r)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// enableCORS permits cross-origin requests, including pre-flight, for every method the
// API serves. With no trusted origins configured any origin is allowed; otherwise only an
// exact match is.
func (app *application) enableCORS(next http.Handler) http.Handler {
	origins := app.config.CORS.TrustedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Location", "X-Request-Id"},
		MaxAge:         300,
	})(next)
}

func (app *application) metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		totalRequestsReceived.Add(1)

		// Call the httpsnoop.CaptureMetrics() function, passing in the next handler in the
		// chain along with the existing http.ResponseWriter and http.Request.
		metrics := httpsnoop.CaptureMetrics(next, w, r)

		totalResponsesSent.Add(1)

		// Get the request processing time in microseconds from httpsnoop and increment the
		// cumulative processing time.
		totalProcessingTimeMicroseconds.Add(metrics.Duration.Microseconds())

		// The expvar map is string-keyed, so we use strconv.Itoa() to convert the status
		// code to a string.
		totalResponsesSentByStatus.Add(strconv.Itoa(metrics.Code), 1)
	})
}
