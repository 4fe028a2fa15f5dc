package query

import (
	"log/slog"

	"apifp/internal/backends"
	"apifp/internal/backends/csharp"
	"apifp/internal/backends/manifest"
	"apifp/internal/backends/scip"
	"apifp/internal/backends/xmldoc"
	"apifp/internal/config"
	"apifp/internal/cstype"
	"apifp/internal/decl"
)

func manifestBackend(logger *slog.Logger) backends.Backend {
	return manifest.New(logger)
}

func xmldocBackend(logger *slog.Logger) backends.Backend {
	return xmldoc.NewBackend(logger)
}

func scipBackend(cfg *config.Config, visibility decl.Visibility, logger *slog.Logger) backends.Backend {
	usings := []string{}
	if cfg.Backends.Scip.ImplicitUsings {
		usings = cstype.ImplicitUsings
	}
	return scip.NewBackend(scip.Options{
		Visibility: visibility,
		Usings:     usings,
		Strict:     cfg.Backends.Scip.Strict,
		Logger:     logger,
	})
}

func csharpBackend(cfg *config.Config, visibility decl.Visibility, logger *slog.Logger) backends.Backend {
	return csharp.NewBackend(csharp.Options{
		Visibility:       visibility,
		NoImplicitUsings: !cfg.Backends.CSharp.ImplicitUsings,
		Strict:           cfg.Backends.CSharp.Strict,
		Logger:           logger,
	})
}
