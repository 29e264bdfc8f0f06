package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestServe_ReturnsListenerFailure(t *testing.T) {
	listenErr := errors.New("listen tcp :80: bind: permission denied")
	serverErr := make(chan error, 1)
	serverErr <- listenErr

	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), echo.New(), serverErr) }()

	select {
	case err := <-done:
		if !errors.Is(err, listenErr) {
			t.Fatalf("serve returned %v, want %v", err, listenErr)
		}
	case <-time.After(time.Second):
		t.Fatalf("serve did not return after the listener failed")
	}
}

func TestServe_ClosedServerIsNotAnError(t *testing.T) {
	serverErr := make(chan error, 1)
	serverErr <- http.ErrServerClosed
	if err := serve(context.Background(), echo.New(), serverErr); err != nil {
		t.Fatalf("serve returned %v, want nil", err)
	}
}

func TestServe_ShutsDownOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := serve(ctx, echo.New(), make(chan error)); err != nil {
		t.Fatalf("serve returned %v, want nil", err)
	}
}
