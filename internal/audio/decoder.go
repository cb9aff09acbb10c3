package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"subclip/internal/services"
)

// Decoder produces a mono signal at sampleRate from an audio file.
type Decoder interface {
	Decode(ctx context.Context, path string, sampleRate int) (Signal, error)
}

// Executor runs an external command and returns its standard output.
type Executor interface {
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, detail)
	}
	return stdout.Bytes(), nil
}

// FFmpegDecoder decodes through an ffmpeg subprocess emitting raw
// little-endian float32 mono samples on stdout.
type FFmpegDecoder struct {
	Binary string
	Exec   Executor
}

// NewFFmpegDecoder returns a decoder invoking binary (default "ffmpeg").
func NewFFmpegDecoder(binary string) *FFmpegDecoder {
	return &FFmpegDecoder{Binary: binary}
}

// Args returns the ffmpeg arguments used to decode path.
func (d *FFmpegDecoder) Args(path string, sampleRate int) []string {
	return []string{
		"-nostdin", "-hide_banner", "-v", "error",
		"-i", path,
		"-vn", "-ac", "1", "-ar", strconv.Itoa(sampleRate),
		"-f", "f32le", "-acodec", "pcm_f32le",
		"pipe:1",
	}
}

// Decode implements Decoder.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string, sampleRate int) (Signal, error) {
	if sampleRate <= 0 {
		return Signal{}, fmt.Errorf("decode %s: invalid sample rate %d", path, sampleRate)
	}
	binaryName := strings.TrimSpace(d.Binary)
	if binaryName == "" {
		binaryName = "ffmpeg"
	}
	runner := d.Exec
	if runner == nil {
		runner = commandExecutor{}
	}
	raw, err := runner.Output(ctx, binaryName, d.Args(path, sampleRate))
	if err != nil {
		return Signal{}, services.Wrap(services.ErrExternalTool, "decode", "ffmpeg", "ffmpeg failed to decode audio", err)
	}
	samples, err := decodeFloat32LE(raw)
	if err != nil {
		return Signal{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return Signal{Samples: samples, SampleRate: sampleRate}, nil
}

func decodeFloat32LE(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("truncated pcm stream (%d bytes)", len(raw))
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples, nil
}

// AutoDecoder routes .mp3 files to MP3 and everything else to FFmpeg.
type AutoDecoder struct {
	FFmpeg Decoder
	MP3    Decoder
}

// Decode implements Decoder.
func (d AutoDecoder) Decode(ctx context.Context, path string, sampleRate int) (Signal, error) {
	if strings.EqualFold(filepath.Ext(path), ".mp3") && d.MP3 != nil {
		return d.MP3.Decode(ctx, path, sampleRate)
	}
	if d.FFmpeg == nil {
		return Signal{}, errors.New("no decoder configured for " + filepath.Base(path))
	}
	return d.FFmpeg.Decode(ctx, path, sampleRate)
}
