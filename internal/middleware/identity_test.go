package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// Тест: заголовки X-User-ID и X-Client-ID попадают в контекст
func TestWithIdentity_HeadersSetContext(t *testing.T) {
	var (
		gotUser   int64
		gotClient string
	)
	h := WithIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := GetUserIDFromContext(r.Context())
		if !ok {
			t.Fatalf("user id must be set")
		}
		cid, ok := GetClientIDFromContext(r.Context())
		if !ok {
			t.Fatalf("client id must be set")
		}
		gotUser, gotClient = uid, cid
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "77")
	req.Header.Set(HeaderClientID, " laptop ")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotUser != 77 || gotClient != "laptop" {
		t.Fatalf("unexpected identity: %d/%q", gotUser, gotClient)
	}
}

// Тест: без заголовков контекст остаётся анонимным
func TestWithIdentity_NoHeadersLeavesAnonymous(t *testing.T) {
	h := WithIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); ok {
			t.Fatalf("user id must not be set without header")
		}
		if _, ok := GetClientIDFromContext(r.Context()); ok {
			t.Fatalf("client id must not be set without header")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

// Тест: нечисловой или неположительный user id игнорируется
func TestWithIdentity_InvalidUserID(t *testing.T) {
	for _, v := range []string{"abc", "0", "-3"} {
		h := WithIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetUserIDFromContext(r.Context()); ok {
				t.Fatalf("user id must not be set for %q", v)
			}
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderUserID, v)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	}
}
