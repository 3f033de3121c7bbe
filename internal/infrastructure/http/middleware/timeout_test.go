package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"constructoraicc/gopagos/internal/infrastructure/config"
)

func TestRequestTimeoutAcotaElContexto(t *testing.T) {
	cfg := config.HTTPSettings{RequestTimeout: 30 * time.Second}

	var deadline time.Time
	var ok bool
	handler := RequestTimeout(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/pagos/flujo", nil))

	if !ok {
		t.Fatal("expected a deadline on the request context")
	}
	resto := time.Until(deadline)
	if resto <= 0 || resto > 30*time.Second {
		t.Fatalf("unexpected remaining time %v", resto)
	}
}

func TestRequestTimeoutCancelaElContexto(t *testing.T) {
	cfg := config.HTTPSettings{RequestTimeout: 10 * time.Millisecond}

	var cancelado bool
	handler := RequestTimeout(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			cancelado = true
		case <-time.After(time.Second):
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/pagos/candidatos", nil))

	if !cancelado {
		t.Fatal("expected the context to be cancelled after the timeout")
	}
}
