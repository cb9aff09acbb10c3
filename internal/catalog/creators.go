package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Creator is one channel entry of youtubers/<lang>.txt.
type Creator struct {
	// Channel is the handle without the leading "@".
	Channel string
	// DateAfter, when set, is a YYYYMMDD cut-off; older uploads are ignored.
	DateAfter string
}

func (c Creator) String() string {
	if c.DateAfter == "" {
		return c.Channel
	}
	return c.Channel + ":" + c.DateAfter
}

// LoadCreators parses the creator list at path.
func LoadCreators(path string) ([]Creator, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open creator list: %w", err)
	}
	defer file.Close()
	creators, err := ParseCreators(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return creators, nil
}

// ParseCreators reads "channel[:YYYYMMDD]" lines. Blank lines and lines
// starting with "#" are skipped; duplicate channels keep their first entry.
func ParseCreators(r io.Reader) ([]Creator, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	var creators []Creator
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		channel, date, hasDate := strings.Cut(line, ":")
		channel = strings.TrimPrefix(strings.TrimSpace(channel), "@")
		if channel == "" || strings.ContainsAny(channel, "/ \t") {
			return nil, fmt.Errorf("line %d: invalid channel %q", lineNo, line)
		}
		creator := Creator{Channel: channel}
		if hasDate {
			date = strings.TrimSpace(date)
			if !validDate(date) {
				return nil, fmt.Errorf("line %d: invalid date %q (want YYYYMMDD)", lineNo, date)
			}
			creator.DateAfter = date
		}
		if _, dup := seen[channel]; dup {
			continue
		}
		seen[channel] = struct{}{}
		creators = append(creators, creator)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read creator list: %w", err)
	}
	return creators, nil
}

func validDate(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
