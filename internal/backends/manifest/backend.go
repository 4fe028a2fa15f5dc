package manifest

import (
	"context"
	"log/slog"

	"apifp/internal/backends"
	"apifp/internal/decl"
)

// Backend walks manifest files
type Backend struct {
	logger *slog.Logger
}

// New creates a manifest backend
func New(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{logger: logger}
}

func (b *Backend) ID() backends.BackendID { return backends.BackendManifest }
func (b *Backend) IsAvailable() bool      { return true }
func (b *Backend) Priority() int          { return 1 }

func (b *Backend) Extensions() []string {
	return []string{".yaml", ".yml", ".json", ".toml"}
}

// Walk reports each type before its members, then its nested types
func (b *Backend) Walk(ctx context.Context, path string, visit backends.Visitor) error {
	files, err := backends.InputFiles(ctx, b, path)
	if err != nil {
		return err
	}
	for _, file := range files {
		doc, err := ParseFile(file)
		if err != nil {
			return err
		}
		namespaces, err := doc.Declarations()
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
		b.logger.Debug("Walked manifest", "file", file, "types", types)
	}
	return nil
}
