package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Metric is the persisted per-channel summary.
type Metric struct {
	// Download counts attempted videos, successful or not.
	Download int `json:"download"`
	// Success counts videos that produced a full pass.
	Success   int     `json:"success"`
	Samples   int     `json:"samples"`
	TotalTime int     `json:"total_time"`
	AvgTime   float64 `json:"avg_time"`
}

// Delta is an additive update to a Metric.
type Delta struct {
	Download  int
	Success   int
	Samples   int
	TotalTime int
}

// Add returns m with d applied and AvgTime recomputed.
func (m Metric) Add(d Delta) Metric {
	out := Metric{
		Download:  m.Download + d.Download,
		Success:   m.Success + d.Success,
		Samples:   m.Samples + d.Samples,
		TotalTime: m.TotalTime + d.TotalTime,
	}
	if out.Samples > 0 {
		out.AvgTime = float64(out.TotalTime) / float64(out.Samples)
	}
	return out
}

// Bytes renders the historical layout: fixed key order, ", " and ": "
// separators, and avg_time as an integer 0 when there are no samples.
// encoding/json would compact the separators, so callers write these bytes
// directly.
func (m Metric) Bytes() []byte {
	avg := "0"
	if m.Samples > 0 {
		avg = formatPythonFloat(m.AvgTime)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"download": %d, "success": %d, "samples": %d, "total_time": %d, "avg_time": %s}`,
		m.Download, m.Success, m.Samples, m.TotalTime, avg)
	return buf.Bytes()
}

type metricFile struct {
	Download  *int     `json:"download"`
	Success   *int     `json:"success"`
	Samples   *int     `json:"samples"`
	TotalTime *int     `json:"total_time"`
	AvgTime   *float64 `json:"avg_time"`
	// Files written before the download counter existed only tracked
	// successful videos.
	Videos *int `json:"videos"`
}

// UnmarshalJSON accepts both the current layout and the older one keyed by
// "videos".
func (m *Metric) UnmarshalJSON(data []byte) error {
	var raw metricFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Metric{
		Download:  deref(raw.Download),
		Success:   deref(raw.Success),
		Samples:   deref(raw.Samples),
		TotalTime: deref(raw.TotalTime),
	}
	if raw.Download == nil && raw.Videos != nil {
		m.Download = *raw.Videos
		m.Success = *raw.Videos
	}
	if raw.AvgTime != nil {
		m.AvgTime = *raw.AvgTime
	} else if m.Samples > 0 {
		m.AvgTime = float64(m.TotalTime) / float64(m.Samples)
	}
	return nil
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// formatPythonFloat mirrors Python's float repr: shortest round-trip digits,
// always a fractional part or exponent.
func formatPythonFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
