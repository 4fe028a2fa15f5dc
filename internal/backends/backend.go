package backends

import (
	"context"

	"apifp/internal/identity"
)

// BackendID uniquely identifies a backend type
type BackendID string

const (
	// BackendManifest reads declarative YAML, JSON or TOML surface manifests
	BackendManifest BackendID = "manifest"
	// BackendCSharp parses C# source with tree-sitter
	BackendCSharp BackendID = "csharp"
	// BackendSCIP reads a SCIP index produced by scip-dotnet
	BackendSCIP BackendID = "scip"
	// BackendXMLDoc reads compiler-generated XML documentation files
	BackendXMLDoc BackendID = "xmldoc"
)

// Visitor receives each element discovered by a backend. Returning an error
// stops the walk and the error is returned from Walk unchanged.
type Visitor func(identity.Element) error

// Backend is the interface that all element sources implement
type Backend interface {
	// ID returns the unique identifier for this backend
	ID() BackendID

	// IsAvailable reports whether this backend can run in the current build
	IsAvailable() bool

	// Extensions lists the file suffixes this backend claims, lowercase with the dot
	Extensions() []string

	// Priority orders backends when several claim the same input (lower = preferred)
	// manifest=1, scip=2, xmldoc=3, csharp=4
	Priority() int

	// Walk visits every type (nested types included) and every direct member
	// of each type found under path exactly once. path is a file or a directory.
	Walk(ctx context.Context, path string, visit Visitor) error
}

// Info describes a registered backend for listings
type Info struct {
	ID         BackendID `json:"id"`
	Available  bool      `json:"available"`
	Priority   int       `json:"priority"`
	Extensions []string  `json:"extensions"`
}

// Describe returns the listing record for b
func Describe(b Backend) Info {
	return Info{
		ID:         b.ID(),
		Available:  b.IsAvailable(),
		Priority:   b.Priority(),
		Extensions: b.Extensions(),
	}
}
