package audio

import "time"

// Signal is a mono sample buffer. Samples are nominally in [-1, 1].
type Signal struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback length of the signal.
func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(s.Samples)) * time.Second / time.Duration(s.SampleRate)
}

// SampleIndex maps a millisecond offset to a sample index, rounding down.
func SampleIndex(ms int64, rate int) int {
	if ms <= 0 || rate <= 0 {
		return 0
	}
	return int(ms * int64(rate) / 1000)
}

// Slice returns the samples from startMs through endMs inclusive of the end
// sample, clamped to the buffer. The result aliases s.Samples. An empty slice
// is returned when the range starts past the end or is inverted.
func (s Signal) Slice(startMs, endMs int64) []float32 {
	start := SampleIndex(startMs, s.SampleRate)
	end := SampleIndex(endMs, s.SampleRate) + 1
	if start >= len(s.Samples) || end <= start {
		return s.Samples[:0:0]
	}
	if end > len(s.Samples) {
		end = len(s.Samples)
	}
	return s.Samples[start:end]
}
