package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"subclip/internal/audio"
	"subclip/internal/fileutil"
)

// WriteClip creates dir and stores the clip text and audio in it. It fails if
// dir already exists so clips are never rewritten in place. The audio file is
// renamed into place last; a clip without it is incomplete.
func WriteClip(dir, text string, samples []float32, sampleRate int) error {
	if err := os.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("create clip dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ClipTextFile), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write clip text: %w", err)
	}
	partial := filepath.Join(dir, ClipAudioFile+".part")
	if err := audio.WriteWAV(partial, samples, sampleRate); err != nil {
		_ = os.Remove(partial)
		return err
	}
	if err := os.Rename(partial, filepath.Join(dir, ClipAudioFile)); err != nil {
		return fmt.Errorf("finalize clip audio: %w", err)
	}
	return nil
}

// Salvage tidies a video directory left by an earlier attempt. Downloads and
// clip directories without a finished audio file are removed; complete clips
// are returned and left untouched. A missing directory yields no clips.
func Salvage(videoDir string) ([]string, error) {
	if err := RemoveTransient(videoDir); err != nil {
		return nil, err
	}
	dirs, err := ClipDirs(videoDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list video dir: %w", err)
	}
	var complete []string
	for _, dir := range dirs {
		info, err := os.Stat(filepath.Join(dir, ClipAudioFile))
		if err == nil && info.Mode().IsRegular() {
			complete = append(complete, dir)
			continue
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("inspect clip %s: %w", filepath.Base(dir), err)
		}
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("remove incomplete clip %s: %w", filepath.Base(dir), err)
		}
	}
	return complete, nil
}

// RemoveTransient deletes the downloaded subtitle and audio files of a video,
// leaving its clips in place.
func RemoveTransient(videoDir string) error {
	entries, err := os.ReadDir(videoDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("list video dir: %w", err)
	}
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == SubtitleFile || strings.HasPrefix(name, audioBase+".") || strings.HasSuffix(name, ".part") {
			if err := fileutil.RemoveIfExists(filepath.Join(videoDir, name)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ClipDirs lists the clip directories of a video in lexical order.
func ClipDirs(videoDir string) ([]string, error) {
	entries, err := os.ReadDir(videoDir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(videoDir, entry.Name()))
		}
	}
	return dirs, nil
}
