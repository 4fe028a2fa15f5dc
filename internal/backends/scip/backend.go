package scip

import (
	"context"
	"log/slog"

	"apifp/internal/backends"
	"apifp/internal/decl"
)

// Backend reads scip-dotnet indexes
type Backend struct {
	opts   Options
	logger *slog.Logger
}

// NewBackend creates a SCIP backend
func NewBackend(opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{opts: opts, logger: opts.Logger}
}

func (b *Backend) ID() backends.BackendID { return backends.BackendSCIP }
func (b *Backend) IsAvailable() bool      { return true }
func (b *Backend) Extensions() []string   { return []string{".scip"} }
func (b *Backend) Priority() int          { return 2 }

// Walk loads each index under path and reports its definitions, types before members
func (b *Backend) Walk(ctx context.Context, path string, visit backends.Visitor) error {
	files, err := backends.InputFiles(ctx, b, path)
	if err != nil {
		return err
	}
	for _, file := range files {
		idx, err := LoadIndex(file)
		if err != nil {
			return err
		}
		namespaces, err := Declarations(idx, b.opts)
		if err != nil {
			return err
		}
		types := 0
		for _, ns := range namespaces {
			types += ns.Count()
			if err := decl.Emit(ctx, ns, decl.TypeFirst, visit); err != nil {
				return err
			}
		}
		tool := ""
		if idx.Metadata != nil && idx.Metadata.ToolInfo != nil {
			tool = idx.Metadata.ToolInfo.Name
		}
		b.logger.Debug("Walked SCIP index", "file", file, "documents", len(idx.Documents), "types", types, "tool", tool)
	}
	return nil
}
