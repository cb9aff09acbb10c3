package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"subclip/internal/fileutil"
)

// UnknownDate is what the lister prints when an upload date is unavailable.
const UnknownDate = "NA"

// VideoRef is one "upload_date:id" line of a channel listing.
type VideoRef struct {
	UploadDate string
	ID         string
}

func (v VideoRef) String() string {
	return v.UploadDate + ":" + v.ID
}

// ParseVideoList reads lister output. Lines without a separator or id are
// rejected; blank lines are skipped.
func ParseVideoList(r io.Reader) ([]VideoRef, error) {
	scanner := bufio.NewScanner(r)
	var refs []VideoRef
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		date, id, ok := strings.Cut(line, ":")
		date = strings.TrimSpace(date)
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("line %d: malformed video entry %q", lineNo, line)
		}
		if date == "" {
			date = UnknownDate
		}
		refs = append(refs, VideoRef{UploadDate: date, ID: id})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read video list: %w", err)
	}
	return refs, nil
}

// FilterAfter keeps videos uploaded on or after the YYYYMMDD date. Entries
// with an unknown date are kept. An empty date keeps everything.
func FilterAfter(refs []VideoRef, after string) []VideoRef {
	if after == "" {
		return slices.Clone(refs)
	}
	out := make([]VideoRef, 0, len(refs))
	for _, ref := range refs {
		if ref.UploadDate == UnknownDate || !validDate(ref.UploadDate) || ref.UploadDate >= after {
			out = append(out, ref)
		}
	}
	return out
}

// OldestFirst reverses the newest-first order of a channel listing so indexes
// stay stable as new uploads appear.
func OldestFirst(refs []VideoRef) []VideoRef {
	out := slices.Clone(refs)
	slices.Reverse(out)
	return out
}

// Window returns refs[from : from+n] clamped to the slice.
func Window(refs []VideoRef, from, n int) []VideoRef {
	if from < 0 {
		from = 0
	}
	if from >= len(refs) || n <= 0 {
		return nil
	}
	end := from + n
	if end > len(refs) {
		end = len(refs)
	}
	return refs[from:end]
}

// WriteCache stores refs, one per line, in lister order.
func WriteCache(path string, refs []VideoRef) error {
	var b strings.Builder
	for _, ref := range refs {
		b.WriteString(ref.String())
		b.WriteByte('\n')
	}
	return fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644)
}

// ReadCache loads a listing written by WriteCache.
func ReadCache(path string) ([]VideoRef, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open video cache: %w", err)
	}
	defer file.Close()
	return ParseVideoList(file)
}
