package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/tinytelemetry/prognosticator/internal/httpserver"
	"github.com/tinytelemetry/prognosticator/internal/predict"
)

func TestServeUntilDone_StopsOnCancel(t *testing.T) {
	srv := httpserver.NewServer("127.0.0.1:0", predict.NewClient(""), nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("health before shutdown: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveUntilDone(ctx, srv) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serveUntilDone = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serveUntilDone did not return after cancel")
	}

	if _, err := http.Get("http://" + srv.Addr() + "/api/health"); err == nil {
		t.Fatal("server still accepting requests after shutdown")
	}
}
