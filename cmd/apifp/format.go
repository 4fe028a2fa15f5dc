package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"apifp/internal/fingerprint"
	"apifp/internal/surface"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatHuman OutputFormat = "human"
	FormatJSON  OutputFormat = "json"
	FormatJSONL OutputFormat = "jsonl"
)

// parseFormat validates a --format value against the formats a command supports
func parseFormat(s string, allowed ...OutputFormat) (OutputFormat, error) {
	for _, f := range allowed {
		if OutputFormat(s) == f {
			return f, nil
		}
	}
	names := make([]string, len(allowed))
	for i, f := range allowed {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unsupported format %q (want %s)", s, strings.Join(names, ", "))
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// fingerprintText renders f as hex, or in .NET GUID layout
func fingerprintText(f fingerprint.Fingerprint, guid bool) string {
	if guid {
		return f.GUID()
	}
	return f.String()
}

// entryJSON is one surface entry in JSON output
type entryJSON struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
}

func entriesJSON(entries []surface.Entry, guid bool) []entryJSON {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON{ID: e.ID, Fingerprint: fingerprintText(e.Fingerprint, guid)})
	}
	return out
}

func writeEntriesHuman(w io.Writer, entries []surface.Entry, guid bool) {
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %s\n", fingerprintText(e.Fingerprint, guid), e.ID)
	}
}
