//go:build !cgo

package csharp

import (
	"context"

	"apifp/internal/errors"
)

// available reports whether source parsing is compiled in
const available = false

type parser struct{}

func newParser() *parser { return &parser{} }

func (p *parser) parse(ctx context.Context, path string, src []byte) (*sourceFile, bool, error) {
	return nil, false, errors.NewWithFixes(errors.BackendUnavailable, "C# parsing requires a cgo build", nil)
}
