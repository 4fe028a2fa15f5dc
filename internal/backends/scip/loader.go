package scip

import (
	"fmt"
	"os"
	"time"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"apifp/internal/errors"
)

// LoadIndex loads a SCIP index from the specified path
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.InputInvalid, fmt.Sprintf("SCIP index not found at %s", path), err)
		}
		return nil, errors.New(errors.InternalError, fmt.Sprintf("failed to read SCIP index from %s", path), err)
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		e := errors.New(errors.InputInvalid, fmt.Sprintf("failed to parse SCIP index from %s", path), err)
		e.SuggestedFixes = []errors.FixAction{{
			Type:        errors.RunCommand,
			Command:     "scip print --index=" + path,
			Safe:        true,
			Description: "Verify SCIP index is valid",
		}}
		return nil, e
	}
	return FromProto(&index), nil
}

// FromProto converts a decoded SCIP index
func FromProto(index *scippb.Index) *Index {
	idx := &Index{
		Metadata:  convertMetadata(index.Metadata),
		Documents: make([]*Document, 0, len(index.Documents)),
		Symbols:   make(map[string]*SymbolInformation),
		LoadedAt:  time.Now(),
	}
	for _, doc := range index.Documents {
		d := convertDocument(doc)
		idx.Documents = append(idx.Documents, d)
		for _, sym := range d.Symbols {
			if _, ok := idx.Symbols[sym.Symbol]; !ok {
				idx.Symbols[sym.Symbol] = sym
			}
		}
	}
	return idx
}

// convertMetadata converts protobuf metadata to internal representation
func convertMetadata(meta *scippb.Metadata) *Metadata {
	if meta == nil {
		return nil
	}

	var toolInfo *ToolInfo
	if meta.ToolInfo != nil {
		toolInfo = &ToolInfo{
			Name:      meta.ToolInfo.Name,
			Version:   meta.ToolInfo.Version,
			Arguments: meta.ToolInfo.Arguments,
		}
	}

	return &Metadata{
		Version:     fmt.Sprintf("%d", meta.Version),
		ToolInfo:    toolInfo,
		ProjectRoot: meta.ProjectRoot,
	}
}

// convertDocument converts a single protobuf document
func convertDocument(doc *scippb.Document) *Document {
	symbols := make([]*SymbolInformation, len(doc.Symbols))
	for i, sym := range doc.Symbols {
		symbols[i] = convertSymbolInformation(sym)
	}

	return &Document{
		RelativePath: doc.RelativePath,
		Language:     doc.Language,
		Symbols:      symbols,
	}
}

// convertSymbolInformation converts protobuf symbol information
func convertSymbolInformation(sym *scippb.SymbolInformation) *SymbolInformation {
	var signature string
	var refs []string
	if doc := sym.SignatureDocumentation; doc != nil {
		signature = doc.Text
		for _, occ := range doc.Occurrences {
			if occ.Symbol != "" && !IsLocal(occ.Symbol) {
				refs = append(refs, occ.Symbol)
			}
		}
	}
	return &SymbolInformation{
		Symbol:          sym.Symbol,
		Kind:            sym.Kind,
		DisplayName:     sym.DisplayName,
		Signature:       signature,
		EnclosingSymbol: sym.EnclosingSymbol,
		References:      refs,
	}
}
