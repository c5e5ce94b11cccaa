package services_test

import (
	"context"
	"testing"

	"nfodate/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithDirectory(ctx, "/library/Alien (1979)")
	ctx = services.WithMode(ctx, "apply")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if dir, ok := services.DirectoryFromContext(ctx); !ok || dir != "/library/Alien (1979)" {
		t.Fatalf("unexpected directory: %v %v", dir, ok)
	}
	if mode, ok := services.ModeFromContext(ctx); !ok || mode != "apply" {
		t.Fatalf("unexpected mode: %v %v", mode, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithDirectory(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.DirectoryFromContext(ctx); ok {
		t.Fatal("expected no directory value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
