package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/kingxl111/search-engine/pkg/logger"
)

// Timeout cancels the request context after d and answers 504 with the same
// JSON error envelope the API handlers use. A handler that already started
// writing keeps the connection; otherwise its late writes are dropped so they
// cannot corrupt the timeout response.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	log := logger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			dw := &deadlineWriter{w: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !dw.abandon() {
					return
				}
				log.Warn("request timed out",
					"method", r.Method,
					"path", r.URL.Path,
					"limit", d,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				w.Write([]byte(`{"error":"request timed out"}` + "\n"))
			}
		})
	}
}

// deadlineWriter serializes the handler goroutine and the timeout path onto
// one ResponseWriter.
type deadlineWriter struct {
	w         http.ResponseWriter
	mu        sync.Mutex
	started   bool
	abandoned bool
}

func (d *deadlineWriter) Header() http.Header { return d.w.Header() }

func (d *deadlineWriter) WriteHeader(code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.abandoned {
		return
	}
	d.started = true
	d.w.WriteHeader(code)
}

func (d *deadlineWriter) Write(b []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.abandoned {
		return len(b), nil
	}
	d.started = true
	return d.w.Write(b)
}

// abandon hands the ResponseWriter to the timeout path. It reports false when
// the handler already produced output, in which case the response stands.
func (d *deadlineWriter) abandon() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return false
	}
	d.abandoned = true
	return true
}
