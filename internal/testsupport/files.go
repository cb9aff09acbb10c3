package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteFile fills path with size bytes of a repeating pattern. A size <= 0
// writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	WriteText(t, path, strings.Repeat("B", int(size)))
}

// WriteClip creates a clip directory under videoDir with the given text and a
// placeholder audio file.
func WriteClip(t testing.TB, videoDir, name, text string) string {
	t.Helper()

	dir := filepath.Join(videoDir, name)
	WriteText(t, filepath.Join(dir, "subtitles.txt"), text)
	WriteFile(t, filepath.Join(dir, "audio.wav"), 44)
	return dir
}

// ReadText returns the content of path or fails the test.
func ReadText(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
