package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "exit 0")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("unexpected status for present binary: %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for blank command: %#v", results[2])
	}
}

func TestCheckWithVersions(t *testing.T) {
	dir := t.TempDir()
	good := writeStub(t, dir, "yt-dlp", "echo\necho 2025.10.22")
	bad := writeStub(t, dir, "ffmpeg", "exit 3")

	results := CheckWithVersions(context.Background(), []Requirement{
		{Name: "yt-dlp", Command: good, VersionArgs: []string{"--version"}},
		{Name: "ffmpeg", Command: bad, VersionArgs: []string{"-version"}},
	})
	if !results[0].Available || results[0].Version != "2025.10.22" {
		t.Fatalf("unexpected yt-dlp status: %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected failing version probe to mark unavailable: %#v", results[1])
	}
}

func TestMissingIgnoresOptional(t *testing.T) {
	statuses := []Status{
		{Name: "a", Available: true},
		{Name: "b", Optional: true},
		{Name: "c"},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "c" {
		t.Fatalf("missing = %#v", missing)
	}
}
