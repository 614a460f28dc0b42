package loki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPushEventJSON(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad push body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	raw := []byte(`{"eventType":"http_request","source":"server","role":"customer","createdAt":"2026-08-01T10:00:00Z"}`)
	if err := PushEventJSON(context.Background(), srv.URL, raw); err != nil {
		t.Fatalf("PushEventJSON() error = %v", err)
	}

	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(got.Streams))
	}
	labels := got.Streams[0].Stream
	if labels["job"] != "payment-portal" {
		t.Errorf("job label = %q", labels["job"])
	}
	if labels["event_type"] != "http_request" || labels["source"] != "server" || labels["role"] != "customer" {
		t.Errorf("labels = %v", labels)
	}
	values := got.Streams[0].Values
	if len(values) != 1 || len(values[0]) != 2 {
		t.Fatalf("values = %v", values)
	}
	wantTS, _ := time.Parse(time.RFC3339, "2026-08-01T10:00:00Z")
	if values[0][0] != fmt.Sprintf("%d", wantTS.UnixNano()) {
		t.Errorf("timestamp = %s, want %d", values[0][0], wantTS.UnixNano())
	}
	if values[0][1] != string(raw) {
		t.Errorf("line = %q", values[0][1])
	}
}

func TestPushEventRejections(t *testing.T) {
	if err := PushEvent(context.Background(), "", time.Now(), "line", nil); err == nil {
		t.Error("empty base URL must error")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ingestion disabled", http.StatusForbidden)
	}))
	defer srv.Close()
	if err := PushEvent(context.Background(), srv.URL, time.Now(), "line", nil); err == nil {
		t.Error("non-2xx must error")
	}
}
