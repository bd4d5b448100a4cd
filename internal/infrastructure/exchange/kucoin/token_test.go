package kucoin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWsEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/bullet-public" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"data":{"token":"abc123","instanceServers":[{"endpoint":"wss://ws.example.test/endpoint"}]}}`))
	}))
	defer srv.Close()

	url, err := wsEndpoint(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("wsEndpoint failed: %v", err)
	}
	if !strings.HasPrefix(url, "wss://ws.example.test/endpoint?token=abc123&connectId=") {
		t.Errorf("url = %q", url)
	}
}

func TestWsEndpointErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"token":"","instanceServers":[]}}`))
	}))
	defer srv.Close()

	if _, err := wsEndpoint(context.Background(), srv.URL); err == nil {
		t.Error("expected error for empty instance server list")
	}
	if _, err := wsEndpoint(context.Background(), ""); err == nil {
		t.Error("expected error for empty api url")
	}
}
