package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MP3 files without external tools.
type MP3Decoder struct{}

// Decode implements Decoder. go-mp3 always yields interleaved 16-bit stereo;
// channels are averaged and the result linearly resampled to sampleRate.
func (MP3Decoder) Decode(ctx context.Context, path string, sampleRate int) (Signal, error) {
	if sampleRate <= 0 {
		return Signal{}, fmt.Errorf("decode %s: invalid sample rate %d", path, sampleRate)
	}
	file, err := os.Open(path)
	if err != nil {
		return Signal{}, fmt.Errorf("open mp3: %w", err)
	}
	defer file.Close()

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		return Signal{}, fmt.Errorf("create mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Signal{}, fmt.Errorf("read mp3 pcm: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Signal{}, err
	}

	frames := len(pcm) / 4
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		mono[i] = (float32(left) + float32(right)) / 2 / 32768
	}

	return Signal{
		Samples:    resampleLinear(mono, decoder.SampleRate(), sampleRate),
		SampleRate: sampleRate,
	}, nil
}

func resampleLinear(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || srcRate <= 0 || len(samples) == 0 {
		return samples
	}
	ratio := float64(srcRate) / float64(dstRate)
	out := make([]float32, int(float64(len(samples))/ratio))
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := float32(pos - float64(idx))
		switch {
		case idx+1 < len(samples):
			out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
		case idx < len(samples):
			out[i] = samples[idx]
		}
	}
	return out
}
