package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/missing", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}

	fields := entries[0].ContextMap()
	if got := fields["method"]; got != http.MethodGet {
		t.Fatalf("method = %v, want %s", got, http.MethodGet)
	}
	if got := fields["path"]; got != "/api/invoices/missing" {
		t.Fatalf("path = %v, want /api/invoices/missing", got)
	}
	if got := fields["status"]; got != int64(http.StatusNotFound) {
		t.Fatalf("status field = %v, want %d", got, http.StatusNotFound)
	}
	if got := fields["size"]; got != int64(len("not found")) {
		t.Fatalf("size = %v, want %d", got, len("not found"))
	}
}
