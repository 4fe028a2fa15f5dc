package csharp

import (
	"context"
	"log/slog"
	"os"

	"apifp/internal/backends"
	"apifp/internal/decl"
	"apifp/internal/errors"
)

// Backend parses C# source trees
type Backend struct {
	opts   Options
	logger *slog.Logger
}

// NewBackend creates a C# source backend
func NewBackend(opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{opts: opts, logger: opts.Logger}
}

func (b *Backend) ID() backends.BackendID { return backends.BackendCSharp }
func (b *Backend) IsAvailable() bool      { return available }
func (b *Backend) Extensions() []string   { return []string{".cs"} }
func (b *Backend) Priority() int          { return 4 }

// Walk parses every source file under path as one compilation and reports
// its declarations, each type after its members and nested types
func (b *Backend) Walk(ctx context.Context, path string, visit backends.Visitor) error {
	if !available {
		return errors.NewWithFixes(errors.BackendUnavailable, "C# backend requires a cgo build", nil)
	}
	paths, err := backends.InputFiles(ctx, b, path)
	if err != nil {
		return err
	}

	p := newParser()
	files := make([]*sourceFile, 0, len(paths))
	for _, file := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(file)
		if err != nil {
			return errors.New(errors.InputInvalid, "failed to read "+file, err)
		}
		f, broken, err := p.parse(ctx, file, src)
		if err != nil {
			return errors.New(errors.InputInvalid, "failed to parse "+file, err)
		}
		if broken {
			b.logger.Warn("Source has syntax errors, declarations may be incomplete", "file", file)
		}
		files = append(files, f)
	}

	namespaces, err := declarations(files, b.opts)
	if err != nil {
		return err
	}
	types := 0
	for _, ns := range namespaces {
		types += ns.Count()
		if err := decl.Emit(ctx, ns, decl.TypeLast, visit); err != nil {
			return err
		}
	}
	b.logger.Debug("Walked C# sources", "path", path, "files", len(files), "types", types)
	return nil
}
