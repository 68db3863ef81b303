package infra

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer l.Close()
	return fmt.Sprintf("%d", l.Addr().(*net.TCPAddr).Port)
}

func TestHTTPServerRunStopsOnContextCancel(t *testing.T) {
	cfg := &Config{
		Port:             freePort(t),
		HTTPReadTimeout:  5 * time.Second,
		HTTPWriteTimeout: 5 * time.Second,
		HTTPIdleTimeout:  time.Second,
	}
	srv := NewHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, zerolog.New(io.Discard))
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestHTTPServerRunReportsListenFailure(t *testing.T) {
	port := freePort(t)
	block, err := net.Listen("tcp", ":"+port)
	if err != nil {
		t.Skipf("cannot occupy port %s: %v", port, err)
	}
	defer block.Close()

	cfg := &Config{Port: port, HTTPIdleTimeout: time.Second}
	srv := NewHTTPServer(cfg, http.NewServeMux())

	if err := srv.Run(context.Background(), zerolog.New(io.Discard)); err == nil {
		t.Fatal("Run should fail when the port is taken")
	}
}
