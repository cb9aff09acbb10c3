package services_test

import (
	"context"
	"testing"

	"subclip/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCreator(ctx, "somechannel")
	ctx = services.WithVideoID(ctx, "abc123")
	ctx = services.WithRunID(ctx, "run-1")

	if creator, ok := services.CreatorFromContext(ctx); !ok || creator != "somechannel" {
		t.Fatalf("unexpected creator: %v %v", creator, ok)
	}
	if id, ok := services.VideoIDFromContext(ctx); !ok || id != "abc123" {
		t.Fatalf("unexpected video id: %v %v", id, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-1" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithVideoID(ctx, "")
	ctx = services.WithCreator(ctx, "")
	if _, ok := services.VideoIDFromContext(ctx); ok {
		t.Fatal("expected no video id value")
	}
	if _, ok := services.CreatorFromContext(ctx); ok {
		t.Fatal("expected no creator value")
	}
}
