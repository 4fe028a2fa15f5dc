package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"apifp/internal/backends"
	apierrors "apifp/internal/errors"
	"apifp/internal/query"
	"apifp/internal/surface"
)

const dbPrefix = "db:"

func newCompareCmd(a *app) *cobra.Command {
	var format, backend string
	var guid bool
	cmd := &cobra.Command{
		Use:   "compare <baseline> <candidate>",
		Short: "Compare two API surfaces",
		Long: `Compare two surfaces and list the identifiers added and removed. Each side
is a source any backend reads, a snapshot file written by "surface --out", or
db:<name> for a stored snapshot.

Exits 1 when the candidate removed entries from the baseline.

Examples:
  apifp compare db:v1.2 src/
  apifp compare widgets.apfp index.scip --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, FormatHuman, FormatJSON)
			if err != nil {
				return err
			}
			return a.runCompare(cmd, args[0], args[1], f, backends.BackendID(backend), guid)
		},
	}
	cmd.Flags().StringVar(&format, "format", "human", "Output format (human, json)")
	cmd.Flags().StringVar(&backend, "backend", "", "Backend for source inputs (default: chosen from each input)")
	cmd.Flags().BoolVar(&guid, "guid", false, "Print fingerprints in .NET GUID layout")
	return cmd
}

// compareJSON is the --format json document
type compareJSON struct {
	Baseline  string      `json:"baseline"`
	Candidate string      `json:"candidate"`
	Added     []entryJSON `json:"added"`
	Removed   []entryJSON `json:"removed"`
	Breaking  bool        `json:"breaking"`
}

func (a *app) runCompare(cmd *cobra.Command, baseline, candidate string, format OutputFormat, backend backends.BackendID, guid bool) error {
	engine, err := a.engine()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	base, err := a.loadSide(ctx, engine, baseline, backend)
	if err != nil {
		return err
	}
	cand, err := a.loadSide(ctx, engine, candidate, backend)
	if err != nil {
		return err
	}
	if err := a.writeMetrics(engine); err != nil {
		return err
	}

	delta := base.Diff(cand)
	w := cmd.OutOrStdout()
	if format == FormatJSON {
		err = writeJSON(w, compareJSON{
			Baseline:  baseline,
			Candidate: candidate,
			Added:     entriesJSON(delta.Added, guid),
			Removed:   entriesJSON(delta.Removed, guid),
			Breaking:  delta.Breaking(),
		})
	} else {
		for _, e := range delta.Removed {
			fmt.Fprintf(w, "- %s\n", e.ID)
		}
		for _, e := range delta.Added {
			fmt.Fprintf(w, "+ %s\n", e.ID)
		}
		if delta.Empty() {
			fmt.Fprintln(w, "Surfaces are identical")
		} else {
			fmt.Fprintf(w, "%d added, %d removed\n", len(delta.Added), len(delta.Removed))
		}
	}
	if err != nil {
		return err
	}
	if delta.Breaking() {
		return &exitCodeError{code: exitBreaking}
	}
	return nil
}

// loadSide resolves one compare argument to a surface
func (a *app) loadSide(ctx context.Context, engine *query.Engine, arg string, backend backends.BackendID) (*surface.Surface, error) {
	if name, ok := strings.CutPrefix(arg, dbPrefix); ok {
		db, err := a.openDB()
		if err != nil {
			return nil, err
		}
		defer db.Close()
		_, s, err := db.LoadSnapshot(ctx, name)
		return s, err
	}

	if backend == "" && fileExists(arg) {
		if _, err := engine.Registry().ForPath(arg); apierrors.HasCode(err, apierrors.BackendNotFound) {
			return surface.ReadFile(arg)
		}
	}
	res, err := engine.Build(ctx, backend, arg, query.BuildOptions{})
	if err != nil {
		return nil, err
	}
	return res.Surface, nil
}
