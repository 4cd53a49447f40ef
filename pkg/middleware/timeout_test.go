package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTimeoutFastHandlerPassesThrough(t *testing.T) {
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestTimeoutSlowHandlerGets504JSON(t *testing.T) {
	release := make(chan struct{})
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("late"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
	close(release)

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if !strings.Contains(rec.Body.String(), "request timed out") {
		t.Errorf("body = %q, want JSON timeout error", rec.Body.String())
	}
}

func TestTimeoutStartedResponseStands(t *testing.T) {
	// A handler that already wrote keeps the connection; the deadline path
	// must not stack a 504 on top of its output.
	started := make(chan struct{})
	release := make(chan struct{})
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("partial"))
		close(started)
		<-release
	}))

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
	}()
	<-started
	<-done
	close(release)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want the handler's 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "timed out") {
		t.Errorf("body = %q, timeout response leaked into a started reply", rec.Body.String())
	}
}

func TestDeadlineWriterDropsLateWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	dw := &deadlineWriter{w: rec}

	if !dw.abandon() {
		t.Fatal("abandon on an untouched writer must succeed")
	}
	dw.WriteHeader(http.StatusOK)
	if n, err := dw.Write([]byte("late")); err != nil || n != 4 {
		t.Errorf("late Write = (%d, %v), want silent drop", n, err)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("late write reached the client: %q", rec.Body.String())
	}
}
