package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	apierrors "apifp/internal/errors"
	"apifp/internal/identity"
)

func newIDCmd(a *app) *cobra.Command {
	var explain, guid bool
	var format string
	cmd := &cobra.Command{
		Use:   "id <identifier>...",
		Short: "Fingerprint documentation-comment identifiers",
		Long: `Parse each identifier, check that it is in canonical form and print its
fingerprint. With --explain the parsed element shape is shown as well.

Examples:
  apifp id "T:Contoso.Widgets.Widget"
  apifp id --explain "M:Contoso.Widgets.Widget.Find`+"``"+`1(System.String)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, FormatHuman, FormatJSON)
			if err != nil {
				return err
			}
			return a.runID(cmd, args, f, explain, guid)
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "Show the parsed element shape")
	cmd.Flags().BoolVar(&guid, "guid", false, "Print fingerprints in .NET GUID layout")
	cmd.Flags().StringVar(&format, "format", "human", "Output format (human, json)")
	return cmd
}

// idResult is one fingerprinted identifier
type idResult struct {
	ID          string            `json:"id"`
	Fingerprint string            `json:"fingerprint"`
	Synthetic   bool              `json:"synthetic,omitempty"`
	Element     *identity.Element `json:"element,omitempty"`
}

func (a *app) runID(cmd *cobra.Command, ids []string, format OutputFormat, explain, guid bool) error {
	engine, err := a.engine()
	if err != nil {
		return err
	}

	results := make([]idResult, 0, len(ids))
	for _, id := range ids {
		el, err := identity.ParseIdentifier(id)
		if err != nil {
			return err
		}
		fp, ok, err := engine.FingerprintOf(el)
		if err != nil {
			return err
		}
		if !ok {
			return apierrors.Newf(apierrors.InputInvalid, "%q names an element without an identifier", id)
		}
		if canonical := el.String(); canonical != id {
			return apierrors.Newf(apierrors.InputInvalid, "%q is not canonical; the canonical form is %q", id, canonical)
		}
		r := idResult{
			ID:          id,
			Fingerprint: fingerprintText(fp, guid),
			Synthetic:   engine.Denylist().IsSynthetic(id),
		}
		if explain {
			el := el
			r.Element = &el
		}
		results = append(results, r)
	}

	w := cmd.OutOrStdout()
	if format == FormatJSON {
		return writeJSON(w, results)
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s  %s\n", r.Fingerprint, r.ID)
		if r.Element != nil {
			writeExplain(w, r)
		}
	}
	return nil
}

func writeExplain(w io.Writer, r idResult) {
	el := r.Element
	scope := make([]string, 0, len(el.Scope))
	for _, s := range el.Scope {
		if s.Arity > 0 {
			scope = append(scope, fmt.Sprintf("%s`%d", s.Name, s.Arity))
		} else {
			scope = append(scope, s.Name)
		}
	}
	fmt.Fprintf(w, "    kind:       %s\n", el.Kind)
	fmt.Fprintf(w, "    scope:      %s\n", strings.Join(scope, "."))
	if el.Name != "" {
		fmt.Fprintf(w, "    name:       %s\n", el.Name)
	}
	if el.Arity > 0 {
		fmt.Fprintf(w, "    arity:      %d\n", el.Arity)
	}
	for i, p := range el.Parameters {
		fmt.Fprintf(w, "    param %d:    %s\n", i, p)
	}
	if el.Returns != nil {
		fmt.Fprintf(w, "    returns:    %s\n", el.Returns)
	}
	if el.Accessor != nil {
		fmt.Fprintf(w, "    accessor:   %s of %s\n", el.Accessor.Role, el.Accessor.Of)
	}
	if el.Static {
		fmt.Fprintf(w, "    static:     true\n")
	}
	if r.Synthetic {
		fmt.Fprintf(w, "    synthetic:  excluded from surfaces\n")
	}
}
