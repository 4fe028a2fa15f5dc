package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apifp/internal/backends"
	"apifp/internal/query"
	"apifp/internal/surface"
)

type surfaceOptions struct {
	format           string
	backend          string
	algorithm        string
	includeSynthetic bool
	out              string
	compress         bool
	guid             bool
	workers          int
	onUnsupported    string
}

func newSurfaceCmd(a *app) *cobra.Command {
	var opts surfaceOptions
	cmd := &cobra.Command{
		Use:   "surface <path>",
		Short: "Build and print the API surface of a source",
		Long: `Build the API surface of a manifest, C# source tree, SCIP index or XML
documentation file and print every identifier with its fingerprint.

Examples:
  apifp surface api.yaml
  apifp surface src/ --backend csharp --format json
  apifp surface index.scip --out widgets.apfp --compress`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSurface(cmd, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.format, "format", "human", "Output format (human, json, jsonl)")
	f.StringVar(&opts.backend, "backend", "", "Backend to read the source with (default: chosen from the input)")
	f.StringVar(&opts.algorithm, "algorithm", "", "Fingerprint algorithm (xxh3-128, md5, blake2b-128)")
	f.BoolVar(&opts.includeSynthetic, "include-synthetic", false, "Keep compiler-injected elements")
	f.StringVar(&opts.out, "out", "", "Also save the surface as a snapshot file (.apfp binary or .jsonl)")
	f.BoolVar(&opts.compress, "compress", false, "zstd-compress the --out file")
	f.BoolVar(&opts.guid, "guid", false, "Print fingerprints in .NET GUID layout")
	f.IntVar(&opts.workers, "workers", 0, "Render and hash on this many goroutines (-1 for one per CPU)")
	f.StringVar(&opts.onUnsupported, "on-unsupported", "", "What to do with unrenderable elements (skip, abort)")
	return cmd
}

// surfaceJSON is the --format json document
type surfaceJSON struct {
	*query.BuildResult
	Algorithm string      `json:"algorithm"`
	Digest    string      `json:"digest"`
	Entries   []entryJSON `json:"entries"`
}

func (a *app) runSurface(cmd *cobra.Command, path string, opts surfaceOptions) error {
	format, err := parseFormat(opts.format, FormatHuman, FormatJSON, FormatJSONL)
	if err != nil {
		return err
	}
	if opts.algorithm != "" {
		a.cfg.Algorithm = opts.algorithm
	}
	if opts.includeSynthetic {
		a.cfg.Denylist.IncludeSynthetic = true
	}
	var policy query.Policy
	if opts.onUnsupported != "" {
		if policy, err = query.ParsePolicy(opts.onUnsupported); err != nil {
			return err
		}
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}
	res, err := engine.Build(cmd.Context(), backends.BackendID(opts.backend), path, query.BuildOptions{
		Workers:       opts.workers,
		OnUnsupported: policy,
	})
	if err != nil {
		return err
	}

	if opts.out != "" {
		if err := surface.WriteFile(opts.out, res.Surface, surface.FormatForPath(opts.out), opts.compress); err != nil {
			return err
		}
		a.logger.Info("Wrote snapshot", "path", opts.out, "entries", res.Surface.Len())
	}
	if err := a.writeMetrics(engine); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch format {
	case FormatJSONL:
		return surface.WriteJSONL(w, res.Surface)
	case FormatJSON:
		return writeJSON(w, surfaceJSON{
			BuildResult: res,
			Algorithm:   string(res.Surface.Algorithm()),
			Digest:      res.Surface.Digest().String(),
			Entries:     entriesJSON(res.Surface.Entries(), opts.guid),
		})
	default:
		fmt.Fprintf(w, "Surface of %s (%s, %s)\n", res.Source, res.Backend, res.Surface.Algorithm())
		writeEntriesHuman(w, res.Surface.Entries(), opts.guid)
		fmt.Fprintf(w, "%d entries, digest %s\n", res.Surface.Len(), res.Surface.Digest())
		if res.Stats.Synthetic > 0 || res.Unsupported > 0 {
			fmt.Fprintf(w, "%d synthetic excluded, %d unsupported skipped\n", res.Stats.Synthetic, res.Unsupported)
		}
		return nil
	}
}
