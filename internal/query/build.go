package query

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"apifp/internal/backends"
	"apifp/internal/errors"
	"apifp/internal/fingerprint"
	"apifp/internal/identity"
	"apifp/internal/surface"
)

// Policy decides what happens to elements the identifier grammar cannot render
type Policy string

const (
	// PolicySkip logs a warning, counts the element and carries on
	PolicySkip Policy = "skip"
	// PolicyAbort fails the build on the first unsupported element
	PolicyAbort Policy = "abort"
)

// ParsePolicy parses skip (the default) or abort
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", errors.Newf(errors.InputInvalid, "unknown unsupported-shape policy %q (want skip or abort)", s)
	}
}

// BuildOptions tunes one build. Zero values fall back to the engine configuration.
type BuildOptions struct {
	// Workers > 1 renders and hashes on that many goroutines; -1 uses GOMAXPROCS
	Workers       int
	OnUnsupported Policy
}

// BuildResult is a built surface and what it took to build it
type BuildResult struct {
	Surface     *surface.Surface   `json:"-"`
	Backend     backends.BackendID `json:"backend"`
	Source      string             `json:"source"`
	Visited     int                `json:"visited"`
	Unsupported int                `json:"unsupported"`
	Stats       surface.Stats      `json:"stats"`
	Duration    time.Duration      `json:"duration"`
}

// Build walks path with a backend and aggregates the elements into a surface.
// An empty backendID picks the backend from the input's file suffixes.
func (e *Engine) Build(ctx context.Context, backendID backends.BackendID, path string, opts BuildOptions) (*BuildResult, error) {
	if backendID == "" {
		backendID = backends.BackendID(e.config.Backends.Default)
	}
	var b backends.Backend
	var err error
	if backendID == "" {
		b, err = e.registry.ForPath(path)
	} else {
		b, err = e.registry.Get(backendID)
	}
	if err != nil {
		return nil, err
	}

	if opts.OnUnsupported == "" {
		if opts.OnUnsupported, err = ParsePolicy(e.config.Build.OnUnsupported); err != nil {
			return nil, err
		}
	}
	if opts.Workers == 0 {
		opts.Workers = e.config.Build.Workers
	}
	if opts.Workers < 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	agg := surface.NewAggregator(e.hasher, e.denylist)
	res := &BuildResult{Backend: b.ID(), Source: path}
	if opts.Workers > 1 {
		err = e.buildParallel(ctx, b, path, opts, agg, res)
	} else {
		err = b.Walk(ctx, path, func(el identity.Element) error {
			res.Visited++
			return e.unsupported(agg.Add(el), el, opts.OnUnsupported, res)
		})
	}
	if err != nil {
		return nil, err
	}

	res.Surface = agg.Surface()
	res.Stats = agg.Stats()
	res.Duration = time.Since(start)
	e.metrics.ObserveBuild(string(b.ID()), res.Visited, res.Unsupported, res.Stats, res.Surface.Len(), res.Duration)
	e.logger.Info("Built surface",
		"backend", b.ID(),
		"source", path,
		"entries", res.Surface.Len(),
		"visited", res.Visited,
		"synthetic", res.Stats.Synthetic,
		"unsupported", res.Unsupported,
		"duration", res.Duration,
	)
	return res, nil
}

// unsupported applies the policy to an aggregation error. Only unsupported
// shapes are subject to it; anything else is returned.
func (e *Engine) unsupported(err error, el identity.Element, policy Policy, res *BuildResult) error {
	if err == nil || !errors.HasCode(err, errors.UnsupportedShape) || policy == PolicyAbort {
		return err
	}
	res.Unsupported++
	e.logger.Warn("Skipping element with unsupported shape",
		"kind", el.Kind,
		"name", el.Name,
		"error", err,
	)
	return nil
}

type rendered struct {
	id string
	fp fingerprint.Fingerprint
	ok bool
}

// buildParallel fans rendering and hashing out to workers. The backend walk
// feeds a channel; inserts into the aggregator are serialized.
func (e *Engine) buildParallel(ctx context.Context, b backends.Backend, path string, opts BuildOptions, agg *surface.Aggregator, res *BuildResult) error {
	g, gctx := errgroup.WithContext(ctx)
	elements := make(chan identity.Element, opts.Workers*64)

	g.Go(func() error {
		defer close(elements)
		return b.Walk(gctx, path, func(el identity.Element) error {
			select {
			case elements <- el:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var mu sync.Mutex
	for i := 0; i < opts.Workers; i++ {
		g.Go(func() error {
			buf := make([]byte, 0, 256)
			for el := range elements {
				r, err := render(e.hasher, buf[:0], el)
				mu.Lock()
				res.Visited++
				switch {
				case err != nil:
					err = e.unsupported(err, el, opts.OnUnsupported, res)
				case r.ok:
					agg.Insert(r.id, r.fp)
				default:
					agg.Skip()
				}
				mu.Unlock()
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func render(h fingerprint.Hasher, buf []byte, el identity.Element) (rendered, error) {
	id, ok, err := identity.Append(buf, el)
	if err != nil || !ok {
		return rendered{}, err
	}
	return rendered{id: string(id), fp: h.SumBytes(id), ok: true}, nil
}
