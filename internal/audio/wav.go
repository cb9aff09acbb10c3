package audio

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// WriteWAV writes samples as a mono 16-bit PCM WAV file, clipping values
// outside [-1, 1].
func WriteWAV(path string, samples []float32, sampleRate int) (err error) {
	if sampleRate <= 0 {
		return fmt.Errorf("write wav %s: invalid sample rate %d", path, sampleRate)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close wav: %w", closeErr)
		}
	}()

	data := make([]int, len(samples))
	for i, sample := range samples {
		data[i] = toPCM16(sample)
	}

	encoder := wav.NewEncoder(file, sampleRate, wavBitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// ReadWAV loads a mono WAV written by WriteWAV.
func ReadWAV(path string) (Signal, error) {
	file, err := os.Open(path)
	if err != nil {
		return Signal{}, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return Signal{}, fmt.Errorf("read wav %s: not a valid wav file", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Signal{}, fmt.Errorf("read wav %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels != 1 {
		return Signal{}, fmt.Errorf("read wav %s: expected mono audio", path)
	}
	samples := make([]float32, len(buf.Data))
	scale := float32(math.Pow(2, float64(decoder.BitDepth)-1))
	for i, v := range buf.Data {
		samples[i] = float32(v) / scale
	}
	return Signal{Samples: samples, SampleRate: int(decoder.SampleRate)}, nil
}

func toPCM16(sample float32) int {
	switch {
	case sample >= 1:
		return math.MaxInt16
	case sample <= -1:
		return math.MinInt16
	default:
		return int(sample * 32767)
	}
}
