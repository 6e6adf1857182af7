package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DriveKeeper/internal/config"
)

func TestDoJSON_SendsIdentity_And_ParsesBody(t *testing.T) {
	// test server проверяет заголовки идентичности и JSON
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User-ID") != "7" || r.Header.Get("X-Client-ID") != "laptop" {
			t.Fatalf("identity headers missing: %v", r.Header)
		}
		var m map[string]any
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			t.Fatalf("bad json: %v", err)
		}
		if m["x"] != float64(1) { // JSON number → float64
			t.Fatalf("unexpected payload: %#v", m)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c := New(&config.Config{ServerURL: ts.URL + "/", UserID: 7, ClientID: "laptop", RequestTimeout: time.Second})
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.DoJSON(context.Background(), http.MethodPost, "/api", map[string]any{"x": 1}, &out); err != nil {
		t.Fatalf("DoJSON err: %v", err)
	}
	if !out.OK {
		t.Fatalf("body not decoded")
	}
}

func TestDoJSON_Non2xxIsStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, UserID: 1}
	err := c.DoJSON(context.Background(), http.MethodGet, "/api/drives/x", nil, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusNotFound || !strings.Contains(se.Body, "not found") {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestDoJSON_BadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{"))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL}
	var out map[string]any
	if err := c.DoJSON(context.Background(), http.MethodGet, "/", nil, &out); err == nil {
		t.Fatalf("expected decode error")
	}
}
