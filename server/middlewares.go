package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Daskott/dispatch/colors"
)

const STORAGE_DEGRADED_HEADER = "X-Storage-Degraded"

type ResponseWriterWithStatus struct {
	http.ResponseWriter
	Status int
}

func (r *ResponseWriterWithStatus) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		responseWriter := &ResponseWriterWithStatus{
			ResponseWriter: w,
			Status:         200,
		}

		defer func() {
			logg.Info(
				r.Method, " ",
				r.RequestURI, " ",
				colors.Status(responseWriter.Status), " ",
				colors.Yellow(fmt.Sprintf("[%v]", time.Since(start))))
		}()

		next.ServeHTTP(responseWriter, r)
	})
}

// initialContextMiddleware sets the JSON content type and flags responses
// served from the in-memory fallback store.
func (app *App) initialContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if app.degraded {
			w.Header().Set(STORAGE_DEGRADED_HEADER, "true")
		}

		next.ServeHTTP(w, r)
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logg.Errorf(colors.Red("panic serving %v %v: %v"), r.Method, r.RequestURI, recovered)
				writeResponse(w, ResponsePayload{Errors: []string{"internal server error"}}, http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
