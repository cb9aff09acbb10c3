package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

// Timestamp is a subtitle time position with millisecond resolution.
type Timestamp struct {
	Hour        int
	Minute      int
	Second      int
	Millisecond int
}

// Milliseconds converts the timestamp to an absolute offset.
func (t Timestamp) Milliseconds() int64 {
	return ((int64(t.Hour)*60+int64(t.Minute))*60+int64(t.Second))*1000 + int64(t.Millisecond)
}

// String renders the SRT form HH:MM:SS,mmm, which is also the form used in
// clip directory names.
func (t Timestamp) String() string {
	return fmt.Sprintf("%02d:%02d:%02d,%03d", t.Hour, t.Minute, t.Second, t.Millisecond)
}

// Compare returns -1, 0 or 1 when t is before, equal to or after other.
func (t Timestamp) Compare(other Timestamp) int {
	a, b := t.Milliseconds(), other.Milliseconds()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// TimestampFromMillis splits a millisecond offset into its components.
// Negative offsets clamp to zero.
func TimestampFromMillis(ms int64) Timestamp {
	if ms < 0 {
		ms = 0
	}
	return Timestamp{
		Hour:        int(ms / 3_600_000),
		Minute:      int(ms / 60_000 % 60),
		Second:      int(ms / 1000 % 60),
		Millisecond: int(ms % 1000),
	}
}

// ParseTimestamp reads H:M:S,mmm or H:M:S.mmm. Fractions finer than a
// millisecond are truncated; a missing fraction means zero.
func ParseTimestamp(value string) (Timestamp, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Timestamp{}, fmt.Errorf("empty timestamp")
	}
	clock, frac, hasFrac := strings.Cut(strings.ReplaceAll(value, ".", ","), ",")
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q", value)
	}
	var parts [3]int
	for i, field := range hms {
		if !isDigits(field) {
			return Timestamp{}, fmt.Errorf("invalid timestamp %q", value)
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return Timestamp{}, fmt.Errorf("invalid timestamp %q", value)
		}
		parts[i] = n
	}
	if parts[1] > 59 || parts[2] > 59 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q", value)
	}
	millis := 0
	if hasFrac {
		if !isDigits(frac) {
			return Timestamp{}, fmt.Errorf("invalid timestamp %q", value)
		}
		for len(frac) < 3 {
			frac += "0"
		}
		millis, _ = strconv.Atoi(frac[:3])
	}
	return Timestamp{Hour: parts[0], Minute: parts[1], Second: parts[2], Millisecond: millis}, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
