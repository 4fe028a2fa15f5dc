package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"apifp/internal/backends"
)

func newBackendsCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List registered backends in preference order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, FormatHuman, FormatJSON)
			if err != nil {
				return err
			}
			engine, err := a.engine()
			if err != nil {
				return err
			}
			infos := make([]backends.Info, 0)
			for _, b := range engine.Registry().List() {
				infos = append(infos, backends.Describe(b))
			}

			if f == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), infos)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BACKEND\tAVAILABLE\tPRIORITY\tEXTENSIONS")
			for _, info := range infos {
				avail := "yes"
				if !info.Available {
					avail = "no"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", info.ID, avail, info.Priority, strings.Join(info.Extensions, " "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&format, "format", "human", "Output format (human, json)")
	return cmd
}
