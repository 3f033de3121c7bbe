package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 422, "validation failed", []string{"folio is required"}, nil)

	if rec.Code != 422 {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.Message != "validation failed" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if len(resp.Errors) != 1 || resp.Errors[0] != "folio is required" {
		t.Errorf("unexpected errors %v", resp.Errors)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 200, map[string]int{"total": 3}, nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp["total"] != 3 {
		t.Errorf("unexpected payload %v", resp)
	}
}
