package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 10 * time.Second

// CheckWithVersions behaves like CheckBinaries and additionally runs each
// available binary with its VersionArgs to record the first line of output.
// A binary that resolves but fails to report a version is marked unavailable.
func CheckWithVersions(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := resolve(req)
		if status.Available && len(req.VersionArgs) > 0 {
			version, err := probeVersion(ctx, status.Path, req.VersionArgs)
			if err != nil {
				status.Available = false
				status.Detail = "version check failed: " + err.Error()
			} else {
				status.Version = version
			}
		}
		results = append(results, status)
	}
	return results
}

func probeVersion(ctx context.Context, path string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, args...).Output() //nolint:gosec
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", nil
}
