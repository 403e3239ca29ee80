package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/user/gridlock/pkg/client"
)

func TestDoPassesMethodPathBody(t *testing.T) {
	var gotMethod, gotPath, gotCT string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"VERSION_CONFLICT"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	status, body, err := c.Do(context.Background(), "PUT", "/resources/task-1", []byte(`{"version":1}`))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if status != http.StatusConflict {
		t.Errorf("status = %d, want 409", status)
	}
	if gotMethod != "PUT" || gotPath != "/resources/task-1" {
		t.Errorf("server saw %s %s", gotMethod, gotPath)
	}
	if gotCT != "application/json" {
		t.Errorf("content type = %q", gotCT)
	}
	if string(gotBody) != `{"version":1}` {
		t.Errorf("server body = %s", gotBody)
	}
	if string(body) != `{"code":"VERSION_CONFLICT"}` {
		t.Errorf("client body = %s", body)
	}
}

func TestDoTransportError(t *testing.T) {
	c := client.New("http://127.0.0.1:1")
	status, _, err := c.Do(context.Background(), "GET", "/healthz", nil)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
}

func TestGetResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resources/task-3" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "task-3", "version": 4, "status": "in_progress"})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	st, err := c.GetResource(context.Background(), "task-3")
	if err != nil {
		t.Fatalf("GetResource: %v", err)
	}
	if st.ID != "task-3" || st.Version != 4 || st.Status != "in_progress" {
		t.Errorf("state = %+v", st)
	}

	if _, err := c.GetResource(context.Background(), "missing"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestHealth(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health on healthy server: %v", err)
	}
	healthy = false
	if err := c.Health(context.Background()); err == nil {
		t.Error("Health on unhealthy server should fail")
	}
}
