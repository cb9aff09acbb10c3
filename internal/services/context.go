package services

import "context"

type contextKey string

const (
	creatorKey contextKey = "creator"
	videoIDKey contextKey = "video_id"
	runIDKey   contextKey = "run_id"
)

// WithCreator annotates context with the creator (channel) being harvested.
func WithCreator(ctx context.Context, creator string) context.Context {
	if creator == "" {
		return ctx
	}
	return context.WithValue(ctx, creatorKey, creator)
}

// CreatorFromContext returns the creator if present.
func CreatorFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(creatorKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithVideoID annotates context with the video identifier being processed.
func WithVideoID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, videoIDKey, id)
}

// VideoIDFromContext returns the video identifier if present.
func VideoIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(videoIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the harvest run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the harvest run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
