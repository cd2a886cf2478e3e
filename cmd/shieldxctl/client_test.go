package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDoGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()
	apiFlag = srv.URL

	data, err := doGet("/api/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"status":"ok"}` {
		t.Fatalf("unexpected body: %s", data)
	}

	if _, err := doGet("/nope"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestDoPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"SOS triggered successfully!"}`))
	}))
	defer srv.Close()
	apiFlag = srv.URL

	data, err := doPostJSON("/api/sos", map[string]string{"userId": "u"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected response body")
	}
}
