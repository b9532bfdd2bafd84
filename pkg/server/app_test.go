package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"LottoStats/internal/handler/ws"
	"LottoStats/pkg/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = time.Second
	return cfg
}

func TestAppStartShutdown(t *testing.T) {
	app := New(testConfig(), nil, nil, nil)
	hub := ws.NewHub(nil)
	app.SetHub(hub)

	var order []string
	app.AddCloser("first", func() error { order = append(order, "first"); return nil })
	app.AddCloser("second", func() error { order = append(order, "second"); return errors.New("already closed") })

	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	select {
	case <-app.hubDone:
	default:
		t.Fatal("hub still running after shutdown")
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("closers ran in wrong order: %v", order)
	}
}

func TestAppShutdownWithoutStart(t *testing.T) {
	app := New(testConfig(), nil, nil, nil)
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown of an idle app should succeed: %v", err)
	}
}
