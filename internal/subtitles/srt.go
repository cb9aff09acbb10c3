package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Cue is one subtitle entry.
type Cue struct {
	Index int
	Start Timestamp
	End   Timestamp
	// Text holds the cue lines joined with "\n".
	Text string
}

// DurationMillis returns End minus Start.
func (c Cue) DurationMillis() int64 {
	return c.End.Milliseconds() - c.Start.Milliseconds()
}

// ParseIssue describes a block the parser skipped.
type ParseIssue struct {
	Block  int
	Reason string
}

func (p ParseIssue) String() string {
	return fmt.Sprintf("block %d: %s", p.Block, p.Reason)
}

// ReadSRTFile parses the SRT file at path.
func ReadSRTFile(path string) ([]Cue, []ParseIssue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open srt: %w", err)
	}
	defer file.Close()
	return ParseSRT(file)
}

// ParseSRT reads SubRip content. Blocks are separated by blank lines; the
// numeric index line is optional. Blocks without a usable timing line are
// skipped and reported as issues. Only read failures return an error.
func ParseSRT(r io.Reader) ([]Cue, []ParseIssue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cues   []Cue
		issues []ParseIssue
		block  []string
		blocks int
		first  = true
	)

	flush := func() {
		if len(block) == 0 {
			return
		}
		blocks++
		cue, reason := parseBlock(block)
		block = block[:0]
		if reason != "" {
			issues = append(issues, ParseIssue{Block: blocks, Reason: reason})
			return
		}
		if cue.Index == 0 {
			cue.Index = len(cues) + 1
		}
		cues = append(cues, cue)
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read srt: %w", err)
	}
	flush()
	return cues, issues, nil
}

func parseBlock(lines []string) (Cue, string) {
	var cue Cue
	timing := 0
	if !strings.Contains(lines[0], "-->") {
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return Cue{}, "missing timing line"
		}
		cue.Index = index
		timing = 1
	}
	if timing >= len(lines) || !strings.Contains(lines[timing], "-->") {
		return Cue{}, "missing timing line"
	}
	startText, endText, _ := strings.Cut(lines[timing], "-->")
	start, err := ParseTimestamp(startText)
	if err != nil {
		return Cue{}, err.Error()
	}
	// Position hints such as "X1:40 X2:600" may follow the end timestamp.
	endFields := strings.Fields(endText)
	if len(endFields) == 0 {
		return Cue{}, "missing end timestamp"
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil {
		return Cue{}, err.Error()
	}
	if end.Compare(start) < 0 {
		return Cue{}, fmt.Sprintf("end %s before start %s", end, start)
	}
	cue.Start = start
	cue.End = end
	cue.Text = strings.Join(lines[timing+1:], "\n")
	return cue, ""
}

// Format renders cues as SubRip text, renumbering from 1.
func Format(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", i+1, cue.Start, cue.End, cue.Text)
	}
	return b.String()
}
