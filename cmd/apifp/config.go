package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apifp/internal/config"
	apierrors "apifp/internal/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage .apifp/config.json",
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(a.root)
			if fileExists(path) && !force {
				return apierrors.Newf(apierrors.InputInvalid, "%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().Save(a.root); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after defaults, the config file and APIFP_* environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, FormatHuman, FormatJSON)
			if err != nil {
				return err
			}
			if f == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), a.cfg)
			}

			c := a.cfg
			w := cmd.OutOrStdout()
			source := config.Path(a.root)
			if !fileExists(source) {
				source += " (not present, using defaults)"
			}
			fmt.Fprintf(w, "Config:      %s\n", source)
			fmt.Fprintf(w, "Algorithm:   %s\n", c.Algorithm)
			fmt.Fprintf(w, "Visibility:  %s\n", c.Visibility)
			fmt.Fprintf(w, "Backend:     %s\n", orDefault(c.Backends.Default, "auto"))
			fmt.Fprintf(w, "Workers:     %d\n", c.Build.Workers)
			fmt.Fprintf(w, "Unsupported: %s\n", c.Build.OnUnsupported)
			fmt.Fprintf(w, "Synthetic:   %t\n", c.Denylist.IncludeSynthetic)
			fmt.Fprintf(w, "Denylist:    %s\n", orDefault(c.Denylist.File, "built-in"))
			fmt.Fprintf(w, "Storage:     %s\n", c.Storage.Path)
			fmt.Fprintf(w, "Logging:     %s, %s\n", c.Logging.Format, c.Logging.Level)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "human", "Output format (human, json)")
	return cmd
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
