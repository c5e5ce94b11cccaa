package emby_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"nfodate/internal/config"
	"nfodate/internal/services"
	"nfodate/internal/services/emby"
)

func TestRefreshPostsWithToken(t *testing.T) {
	var gotMethod, gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotToken = r.Method, r.URL.Path, r.Header.Get("X-Emby-Token")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	svc := emby.NewHTTPService(srv.URL+"/", " secret ", srv.Client())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/Library/Refresh" || gotToken != "secret" {
		t.Fatalf("unexpected request %s %s token=%q", gotMethod, gotPath, gotToken)
	}
}

func TestRefreshReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := emby.NewHTTPService(srv.URL, "bad", srv.Client()).Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error for 401")
	}
	if !errors.Is(err, services.ErrIOFailure) {
		t.Fatalf("expected io failure marker, got %v", err)
	}
}

func TestNewConfiguredServiceDisabled(t *testing.T) {
	cfg := config.Default()
	svc := emby.NewConfiguredService(&cfg)
	if svc.Enabled() {
		t.Fatal("expected disabled service")
	}
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("noop refresh returned %v", err)
	}

	cfg.Emby.Enabled = true
	cfg.Emby.APIKey = ""
	if emby.NewConfiguredService(&cfg).Enabled() {
		t.Fatal("expected noop service without api key")
	}

	cfg.Emby.APIKey = "key"
	if emby.NewConfiguredService(&cfg).Enabled() {
		t.Fatal("expected noop service without url")
	}

	cfg.Emby.URL = "http://emby.local"
	if !emby.NewConfiguredService(&cfg).Enabled() {
		t.Fatal("expected http service when configured")
	}
}
