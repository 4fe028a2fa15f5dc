// Package query is the engine that turns backend walks into API surfaces.
package query

import (
	"log/slog"

	"apifp/internal/backends"
	"apifp/internal/config"
	"apifp/internal/decl"
	"apifp/internal/errors"
	"apifp/internal/exclusion"
	"apifp/internal/fingerprint"
	"apifp/internal/identity"
	"apifp/internal/telemetry"
)

// Engine builds surfaces with one configuration
type Engine struct {
	config   *config.Config
	registry *backends.Registry
	hasher   fingerprint.Hasher
	denylist *exclusion.Denylist
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// NewEngine creates an engine. A nil registry uses DefaultRegistry.
func NewEngine(cfg *config.Config, registry *backends.Registry, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.InputInvalid, "invalid configuration", err)
	}
	if registry == nil {
		var err error
		if registry, err = DefaultRegistry(cfg, logger); err != nil {
			return nil, err
		}
	}

	alg, _ := fingerprint.ParseAlgorithm(cfg.Algorithm) // validated above
	hasher, err := fingerprint.NewHasher(alg)
	if err != nil {
		return nil, err
	}

	denylist := exclusion.DefaultDenylist()
	if cfg.Denylist.File != "" {
		if denylist, err = exclusion.LoadFile(cfg.Denylist.File, denylist); err != nil {
			return nil, err
		}
	}
	if cfg.Denylist.IncludeSynthetic {
		denylist = nil
	}

	return &Engine{
		config:   cfg,
		registry: registry,
		hasher:   hasher,
		denylist: denylist,
		metrics:  telemetry.New(),
		logger:   logger,
	}, nil
}

// Registry returns the backends the engine builds with
func (e *Engine) Registry() *backends.Registry {
	return e.registry
}

// Hasher returns the configured fingerprint hasher
func (e *Engine) Hasher() fingerprint.Hasher {
	return e.hasher
}

// Denylist returns the synthetic element list, nil when synthetic elements are kept
func (e *Engine) Denylist() *exclusion.Denylist {
	return e.denylist
}

// Metrics returns the counters of every build run by this engine
func (e *Engine) Metrics() *telemetry.Metrics {
	return e.metrics
}

// FingerprintOf fingerprints one element with the configured algorithm
func (e *Engine) FingerprintOf(el identity.Element) (fingerprint.Fingerprint, bool, error) {
	return FingerprintOf(e.hasher, el)
}

// FingerprintOf renders el and fingerprints its identifier. It reports false
// only when the element has no identifier; synthetic elements still get a
// fingerprint. Identifiers up to 256 bytes render into a stack buffer.
func FingerprintOf(h fingerprint.Hasher, el identity.Element) (fingerprint.Fingerprint, bool, error) {
	var buf [256]byte
	id, ok, err := identity.Append(buf[:0], el)
	if err != nil || !ok {
		return fingerprint.Fingerprint{}, false, err
	}
	return h.SumBytes(id), true, nil
}

// DefaultRegistry registers every backend this build knows about
func DefaultRegistry(cfg *config.Config, logger *slog.Logger) (*backends.Registry, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	visibility, err := decl.ParseVisibility(cfg.Visibility)
	if err != nil {
		return nil, err
	}

	r := backends.NewRegistry(logger)
	r.RegisterBackend(manifestBackend(logger))
	r.RegisterBackend(scipBackend(cfg, visibility, logger))
	r.RegisterBackend(xmldocBackend(logger))
	r.RegisterBackend(csharpBackend(cfg, visibility, logger))
	return r, nil
}
