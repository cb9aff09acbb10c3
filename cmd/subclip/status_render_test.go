package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	tests := []struct {
		kind    statusKind
		message string
		want    string
	}{
		{statusOK, "ready", "[OK] ready"},
		{statusWarn, "", "[WARN]"},
		{statusError, "missing", "[ERROR] missing"},
		{statusInfo, "note", "[INFO] note"},
	}
	for _, tc := range tests {
		line := renderStatusLine("yt-dlp", tc.kind, tc.message, false)
		if !strings.HasPrefix(line, "  yt-dlp:") || !strings.HasSuffix(line, tc.want) {
			t.Fatalf("renderStatusLine(%v) = %q", tc.kind, line)
		}
	}

	colored := renderStatusLine("ffmpeg", statusError, "missing", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected colored line, got %q", colored)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never colorized")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  short  ", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Fatalf("truncate = %q", got)
	}
}
