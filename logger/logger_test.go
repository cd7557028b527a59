package logger

import (
	"net/http/httptest"
	"testing"
)

func TestWithRequest_AttachesRequestFields(t *testing.T) {
	log := New()

	req := httptest.NewRequest("POST", "/transcribe", nil)
	entry := log.WithRequest(req)

	if entry.Data["method"] != "POST" {
		t.Errorf("method = %v, want POST", entry.Data["method"])
	}
	if entry.Data["path"] != "/transcribe" {
		t.Errorf("path = %v, want /transcribe", entry.Data["path"])
	}
	if id, _ := entry.Data["req_id"].(string); id == "" {
		t.Error("req_id should be generated when the header is absent")
	}
}

func TestWithRequest_HonorsRequestIDHeader(t *testing.T) {
	log := New()

	req := httptest.NewRequest("GET", "/status", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	if got := log.WithRequest(req).Data["req_id"]; got != "abc-123" {
		t.Errorf("req_id = %v, want abc-123", got)
	}
}
