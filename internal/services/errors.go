package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAgeRestricted    = errors.New("age restricted")
	ErrNoSubtitles      = errors.New("no subtitles")
	ErrRetrieval        = errors.New("retrieval error")
	ErrMalformedName    = errors.New("malformed clip name")
	ErrEmptyText        = errors.New("empty subtitles")
	ErrBelowMinDuration = errors.New("duration below threshold")
	ErrExternalTool     = errors.New("external tool error")
	ErrConfiguration    = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later outcome classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrRetrieval
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Marker returns the taxonomy sentinel carried by err, or nil when err is not
// tagged with one.
func Marker(err error) error {
	if err == nil {
		return nil
	}
	for _, marker := range []error{
		ErrAgeRestricted,
		ErrNoSubtitles,
		ErrMalformedName,
		ErrEmptyText,
		ErrBelowMinDuration,
		ErrConfiguration,
		ErrExternalTool,
		ErrRetrieval,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "harvest failure"
	}
	return strings.Join(parts, ": ")
}
