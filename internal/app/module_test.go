package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/fx"

	"crafthub/internal/session"
)

// Boots the whole module against a stub backend and checks that startup
// acquires the profile lock, migrates the store and shuts down cleanly.
func TestModuleLifecycle(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("CRAFT_BASE_URL", srv.URL)

	var sessions *session.Store
	application := fx.New(
		Module(Params{ProfileName: "test"}),
		fx.Populate(&sessions),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := application.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if sessions == nil {
		t.Fatal("session store not populated")
	}
	if sessions.Authenticated() {
		t.Error("fresh profile reports an authenticated session")
	}

	if err := application.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}

// A second instance on the same profile must fail fast on the lock.
func TestModuleRejectsSecondInstance(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CRAFT_BASE_URL", "http://127.0.0.1:1")

	first := fx.New(Module(Params{ProfileName: "test"}), fx.NopLogger)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = first.Stop(ctx) }()

	second := fx.New(Module(Params{ProfileName: "test"}), fx.NopLogger)
	if err := second.Start(ctx); err == nil {
		_ = second.Stop(ctx)
		t.Fatal("second instance started over a held lock")
	}
}
