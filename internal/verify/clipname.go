package verify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"subclip/internal/services"
)

var clipTimePattern = regexp.MustCompile(`^(\d+):(\d+):(\d+)(?:,(\d+))?$`)

// ClipTime is one side of a clip directory name. Only whole seconds take part
// in duration checks; the fraction is kept as written.
type ClipTime struct {
	Hours    int
	Minutes  int
	Seconds  int
	Fraction string
}

// TotalSeconds returns the whole-second offset, ignoring the fraction.
func (c ClipTime) TotalSeconds() int {
	return c.Hours*3600 + c.Minutes*60 + c.Seconds
}

// ParseClipName splits "<start>-<end>" into its two times.
func ParseClipName(name string) (ClipTime, ClipTime, error) {
	parts := strings.Split(name, "-")
	if len(parts) != 2 {
		return ClipTime{}, ClipTime{}, malformed(name)
	}
	start, ok := parseClipTime(parts[0])
	if !ok {
		return ClipTime{}, ClipTime{}, malformed(name)
	}
	end, ok := parseClipTime(parts[1])
	if !ok {
		return ClipTime{}, ClipTime{}, malformed(name)
	}
	return start, end, nil
}

func parseClipTime(value string) (ClipTime, bool) {
	m := clipTimePattern.FindStringSubmatch(value)
	if m == nil {
		return ClipTime{}, false
	}
	var fields [3]int
	for i := range fields {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return ClipTime{}, false
		}
		fields[i] = n
	}
	return ClipTime{Hours: fields[0], Minutes: fields[1], Seconds: fields[2], Fraction: m[4]}, true
}

func malformed(name string) error {
	return fmt.Errorf("%w: %q", services.ErrMalformedName, name)
}
