package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// numericSegment is a compiled regex that matches numeric path segments
// It's compiled once at package init time for efficiency
var numericSegment = regexp.MustCompile(`/(\d+)`)

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader captures the status code and writes it to the underlying ResponseWriter
func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
		r.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called before writing body
func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// Middleware returns an HTTP middleware that records Prometheus metrics for each request.
// It tracks:
// - Request count by method, path, and status code
// - Request duration (latency)
// - Panics are recorded as 500 status codes
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Wrap the response writer to capture the status code
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK, // default if not explicitly set
		}

		startTime := time.Now()

		// Recover from any panics to record metrics before re-panicking
		defer func() {
			duration := time.Since(startTime).Seconds()

			if rec := recover(); rec != nil {
				RecordRequest(r.Method, normalizePath(r.URL.Path), "500")
				RecordRequestDuration(r.Method, normalizePath(r.URL.Path), "500", duration)
				panic(rec)
			}

			status := strconv.Itoa(recorder.statusCode)
			path := normalizePath(r.URL.Path)
			RecordRequest(r.Method, path, status)
			RecordRequestDuration(r.Method, path, status, duration)
		}()

		next.ServeHTTP(recorder, r)
	})
}

// normalizePath replaces numeric path segments with :n so that per-build
// URLs like /builds/123 don't explode label cardinality.
func normalizePath(path string) string {
	return numericSegment.ReplaceAllString(path, "/:n")
}
