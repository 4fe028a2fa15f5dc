package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"apifp/internal/backends"
	"apifp/internal/query"
	"apifp/internal/storage"
	"apifp/internal/surface"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored surface snapshots",
		Long:  "Save, list, show and delete surfaces stored in .apifp/apifp.db",
	}
	cmd.AddCommand(
		newSnapshotSaveCmd(a),
		newSnapshotListCmd(a),
		newSnapshotShowCmd(a),
		newSnapshotDeleteCmd(a),
	)
	return cmd
}

func newSnapshotSaveCmd(a *app) *cobra.Command {
	var name, backend string
	cmd := &cobra.Command{
		Use:   "save <path>",
		Short: "Build a surface and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			res, err := engine.Build(cmd.Context(), backends.BackendID(backend), args[0], query.BuildOptions{})
			if err != nil {
				return err
			}
			if err := a.writeMetrics(engine); err != nil {
				return err
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			snap, err := db.SaveSnapshot(cmd.Context(), storage.SnapshotMeta{
				Name:    name,
				Backend: string(res.Backend),
				Source:  res.Source,
			}, res.Surface)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s as %s (%d entries)\n", snap.Name, snap.ID, snap.EntryCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Snapshot name (default: the source's base name)")
	cmd.Flags().StringVar(&backend, "backend", "", "Backend to read the source with (default: chosen from the input)")
	return cmd
}

func newSnapshotListCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, FormatHuman, FormatJSON)
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			snaps, err := db.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}

			if f == FormatJSON {
				if snaps == nil {
					snaps = []storage.Snapshot{}
				}
				return writeJSON(cmd.OutOrStdout(), snaps)
			}
			if len(snaps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tID\tBACKEND\tENTRIES\tALGORITHM\tCREATED")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					s.Name, s.ID, s.Backend, s.EntryCount, s.Algorithm, s.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&format, "format", "human", "Output format (human, json)")
	return cmd
}

func newSnapshotShowCmd(a *app) *cobra.Command {
	var format string
	var guid bool
	cmd := &cobra.Command{
		Use:   "show <id-or-name>",
		Short: "Print a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, FormatHuman, FormatJSON, FormatJSONL)
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			snap, s, err := db.LoadSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch f {
			case FormatJSONL:
				return surface.WriteJSONL(w, s)
			case FormatJSON:
				return writeJSON(w, struct {
					*storage.Snapshot
					Entries []entryJSON `json:"entries"`
				}{snap, entriesJSON(s.Entries(), guid)})
			default:
				fmt.Fprintf(w, "Snapshot %s (%s)\n", snap.Name, snap.ID)
				fmt.Fprintf(w, "Source: %s via %s, %s\n", snap.Source, snap.Backend, snap.Algorithm)
				writeEntriesHuman(w, s.Entries(), guid)
				fmt.Fprintf(w, "%d entries, digest %s\n", snap.EntryCount, snap.Digest)
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "human", "Output format (human, json, jsonl)")
	cmd.Flags().BoolVar(&guid, "guid", false, "Print fingerprints in .NET GUID layout")
	return cmd
}

func newSnapshotDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id-or-name>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			snap, err := db.DeleteSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", snap.Name, snap.ID)
			return nil
		},
	}
}
