package testutil

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	durationPattern = regexp.MustCompile(`\b\d+(\.\d+)?(ns|µs|us|ms|s)\b`)
	uuidPattern     = regexp.MustCompile(`\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	timePattern     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z\b`)
)

// Normalize replaces output that varies between runs: the root directory
// becomes $ROOT, durations become <dur>, UUIDs <id> and timestamps <time>.
func Normalize(out []byte, root string) []byte {
	s := string(out)
	if root != "" {
		s = strings.ReplaceAll(s, root, "$ROOT")
		s = strings.ReplaceAll(s, filepath.ToSlash(root), "$ROOT")
	}
	s = timePattern.ReplaceAllString(s, "<time>")
	s = uuidPattern.ReplaceAllString(s, "<id>")
	s = durationPattern.ReplaceAllString(s, "<dur>")
	return []byte(s)
}
