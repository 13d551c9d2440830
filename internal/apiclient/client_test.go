package apiclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"lifeos/internal/apiclient"
	"lifeos/internal/apperrors"
	"lifeos/internal/tokenstore"
)

func newStore(t *testing.T, access, refresh string) *tokenstore.Store {
	t.Helper()
	s, err := tokenstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if access != "" {
		if err := s.Save(access, refresh); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	return s
}

// refreshServer answers /items with 200 only for the "fresh" token and
// rotates old→fresh on /refresh when refreshOK is set.
type refreshServer struct {
	refreshOK    bool
	alwaysDenied bool
	itemCalls    atomic.Int32
	refreshCalls atomic.Int32
}

func (rs *refreshServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		rs.itemCalls.Add(1)
		if rs.alwaysDenied || r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Could not validate credentials"}`)
			return
		}
		io.WriteString(w, `{"items":[1,2,3]}`)
	})
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		rs.refreshCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"refresh_token":"r-old"`) {
			t.Errorf("unexpected refresh body %s", body)
		}
		if !rs.refreshOK {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Invalid or expired refresh token"}`)
			return
		}
		io.WriteString(w, `{"access_token":"fresh","refresh_token":"r-new","token_type":"bearer"}`)
	})
	return mux
}

func TestRequest_InjectsBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, newStore(t, "tok", "r"))
	if _, err := c.Do(context.Background(), "/x", apiclient.Options{}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "Bearer tok" {
		t.Errorf("expected bearer header, got %q", got)
	}
}

func TestRequest_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("expected no Authorization header, got %q", h)
		}
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, newStore(t, "", ""))
	if _, err := c.Do(context.Background(), "/x", apiclient.Options{}); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestRequest_RefreshAndRetry(t *testing.T) {
	rs := &refreshServer{refreshOK: true}
	srv := httptest.NewServer(rs.handler(t))
	defer srv.Close()

	store := newStore(t, "stale", "r-old")
	c := apiclient.New(srv.URL, store)

	resp, err := c.Do(context.Background(), "/items", apiclient.Options{})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Status != http.StatusOK || string(resp.Body) != `{"items":[1,2,3]}` {
		t.Errorf("expected retried result, got %d %s", resp.Status, resp.Body)
	}
	if n := rs.itemCalls.Load(); n != 2 {
		t.Errorf("expected 2 item calls, got %d", n)
	}
	if n := rs.refreshCalls.Load(); n != 1 {
		t.Errorf("expected 1 refresh, got %d", n)
	}
	if s := store.Get(); s.AccessToken != "fresh" || s.RefreshToken != "r-new" {
		t.Errorf("expected rotated pair, got %+v", s)
	}
}

func TestRequest_RefreshFailureExpiresSession(t *testing.T) {
	rs := &refreshServer{refreshOK: false}
	srv := httptest.NewServer(rs.handler(t))
	defer srv.Close()

	store := newStore(t, "stale", "r-old")
	expired := 0
	c := apiclient.New(srv.URL, store, apiclient.WithSessionExpired(func() { expired++ }))

	_, err := c.Do(context.Background(), "/items", apiclient.Options{})
	if !errors.Is(err, apperrors.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if store.HasSession() || store.Get().RefreshToken != "" {
		t.Errorf("expected session cleared, got %+v", store.Get())
	}
	if expired != 1 {
		t.Errorf("expected hook once, got %d", expired)
	}
	if n := rs.itemCalls.Load(); n != 1 {
		t.Errorf("expected no retry after failed refresh, got %d calls", n)
	}
}

func TestRequest_SecondUnauthorizedIsBounded(t *testing.T) {
	rs := &refreshServer{refreshOK: true, alwaysDenied: true}
	srv := httptest.NewServer(rs.handler(t))
	defer srv.Close()

	store := newStore(t, "stale", "r-old")
	c := apiclient.New(srv.URL, store)

	_, err := c.Do(context.Background(), "/items", apiclient.Options{})
	if !errors.Is(err, apperrors.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if n := rs.itemCalls.Load(); n != 2 {
		t.Errorf("expected exactly one retry (2 calls), got %d", n)
	}
	if n := rs.refreshCalls.Load(); n != 1 {
		t.Errorf("expected exactly one refresh, got %d", n)
	}
	if store.HasSession() {
		t.Error("expected session cleared")
	}
}

func TestRequest_NoRetryWhenDisallowed(t *testing.T) {
	rs := &refreshServer{refreshOK: true}
	srv := httptest.NewServer(rs.handler(t))
	defer srv.Close()

	c := apiclient.New(srv.URL, newStore(t, "stale", "r-old"))
	_, err := c.Request(context.Background(), "/items", apiclient.Options{}, false)
	if !errors.Is(err, apperrors.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if n := rs.refreshCalls.Load(); n != 0 {
		t.Errorf("expected no refresh, got %d", n)
	}
}

func TestRequest_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, newStore(t, "tok", ""))
	resp, err := c.Do(context.Background(), "/x", apiclient.Options{Method: http.MethodDelete})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !resp.Empty() || resp.Body != nil {
		t.Errorf("expected empty body for 204, got %q", resp.Body)
	}
}

func TestRequest_NullBodyIsNotEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `null`)
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, newStore(t, "tok", ""))
	resp, err := c.Do(context.Background(), "/x", apiclient.Options{})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Empty() {
		t.Error("a JSON null body must be distinct from 204")
	}
}

func TestRequest_ServerErrorReturnedAsIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail":"Email already registered"}`)
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, newStore(t, "tok", ""))
	resp, err := c.Do(context.Background(), "/users/", apiclient.Options{Method: http.MethodPost, JSON: map[string]string{}})
	if err != nil {
		t.Fatalf("expected no error for 400, got %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.Status)
	}
	rerr := resp.Err()
	if !apperrors.IsStatus(rerr, http.StatusBadRequest) || rerr.Error() != "Email already registered" {
		t.Errorf("unexpected error %v", rerr)
	}
}

func TestRequest_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := apiclient.New(url, newStore(t, "tok", ""))
	_, err := c.Do(context.Background(), "/x", apiclient.Options{})
	if !apperrors.IsRequestFailed(err) {
		t.Fatalf("expected RequestFailed, got %v", err)
	}
}

func TestRequest_AnonymousSkipsAuth(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("anonymous request carried %q", h)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := newStore(t, "tok", "r")
	c := apiclient.New(srv.URL, store)
	resp, err := c.Do(context.Background(), "/login", apiclient.Options{Anonymous: true})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Status != http.StatusUnauthorized || calls != 1 {
		t.Errorf("expected single 401 passthrough, got %d after %d calls", resp.Status, calls)
	}
	if !store.HasSession() {
		t.Error("anonymous 401 must not clear the session")
	}
}

func TestRequest_HeaderOverridesContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "text/plain" {
			t.Errorf("expected override, got %q", ct)
		}
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, newStore(t, "", ""))
	_, err := c.Do(context.Background(), "/x", apiclient.Options{Header: http.Header{"Content-Type": {"text/plain"}}})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"Task not found"}`, "Task not found"},
		{`{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`, "email: value is not a valid email address"},
		{`{"error":"boom"}`, "boom"},
		{`not json`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		if got := apiclient.Detail([]byte(tt.body)); got != tt.want {
			t.Errorf("Detail(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
