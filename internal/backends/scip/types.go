package scip

import (
	"time"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
)

// Index is a loaded SCIP index reduced to the symbol definitions a surface needs
type Index struct {
	// Metadata contains index metadata
	Metadata *Metadata

	// Documents are all indexed documents
	Documents []*Document

	// Symbols maps symbol strings to their information, first definition wins
	Symbols map[string]*SymbolInformation

	// LoadedAt is when the index was loaded
	LoadedAt time.Time
}

// Metadata represents SCIP index metadata
type Metadata struct {
	// Version is the SCIP protocol version
	Version string

	// ToolInfo contains information about the indexing tool
	ToolInfo *ToolInfo

	// ProjectRoot is the root directory of the project
	ProjectRoot string
}

// ToolInfo contains information about the indexing tool
type ToolInfo struct {
	Name      string
	Version   string
	Arguments []string
}

// Document represents a source document in the SCIP index
type Document struct {
	// RelativePath is the path relative to the project root
	RelativePath string

	// Language is the programming language
	Language string

	// Symbols are symbol definitions in this document, in index order
	Symbols []*SymbolInformation
}

// SymbolInformation contains the parts of a SCIP symbol used for identifiers
type SymbolInformation struct {
	// Symbol is the SCIP symbol string
	Symbol string

	// Kind is the symbol kind reported by the indexer
	Kind scippb.SymbolInformation_Kind

	// DisplayName is the human-readable name
	DisplayName string

	// Signature is the text of the signature documentation, e.g. "public void M(int x)"
	Signature string

	// EnclosingSymbol is the containing symbol for locals and synthetic symbols
	EnclosingSymbol string

	// References are the symbols the indexer bound names in the signature text to
	References []string
}
