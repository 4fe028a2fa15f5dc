// Package xmldoc reads the XML documentation files C# compilers emit next to assemblies.
//
// Compilers write an entry only for members that carry a documentation
// comment. Accessors and implicit constructors never appear, so a surface
// built from compiler output is the documented subset of the API rather than
// all of it. A file listing every member, as an export tool can produce,
// yields the full surface.
package xmldoc

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"apifp/internal/backends"
	"apifp/internal/errors"
	"apifp/internal/identity"
)

// Backend reads <doc><members><member name="..."/></members></doc> files
type Backend struct {
	logger *slog.Logger
}

// NewBackend creates an XML documentation backend
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{logger: logger}
}

func (b *Backend) ID() backends.BackendID { return backends.BackendXMLDoc }
func (b *Backend) IsAvailable() bool      { return true }
func (b *Backend) Extensions() []string   { return []string{".xml"} }
func (b *Backend) Priority() int          { return 3 }

// Walk reports the element named by every member entry in the files under path
func (b *Backend) Walk(ctx context.Context, path string, visit backends.Visitor) error {
	files, err := backends.InputFiles(ctx, b, path)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := b.walkFile(ctx, file, visit); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) walkFile(ctx context.Context, file string, visit backends.Visitor) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.New(errors.InputInvalid, "failed to open "+file, err)
	}
	defer f.Close()

	var assembly string
	seen, skipped := 0, 0
	err = ReadMembers(f, func(m Member) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.Assembly != "" {
			assembly = m.Assembly
			return nil
		}
		switch {
		case strings.HasPrefix(m.Name, "N:"):
			// namespace documentation has no element
			skipped++
			return nil
		case strings.HasPrefix(m.Name, "!:"):
			b.logger.Warn("Skipping unresolved documentation reference", "file", file, "line", m.Line, "name", m.Name)
			skipped++
			return nil
		}
		e, err := identity.ParseIdentifier(m.Name)
		if err != nil {
			return errors.New(errors.InputInvalid, fmt.Sprintf("%s: member at line %d", file, m.Line), err)
		}
		seen++
		return visit(e)
	})
	if err != nil {
		return err
	}
	b.logger.Debug("Walked XML documentation", "file", file, "assembly", assembly, "members", seen, "skipped", skipped)
	return nil
}

// Member is one <member> entry, or the <assembly><name> header when Assembly is set
type Member struct {
	Name     string
	Assembly string
	Line     int
}

// ReadMembers streams the member names of a documentation file to fn without
// retaining the documentation bodies
func ReadMembers(r io.Reader, fn func(Member) error) error {
	d := xml.NewDecoder(r)
	var stack []string
	root := false
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.New(errors.InputInvalid, "malformed documentation XML", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			line, _ := d.InputPos()
			switch {
			case len(stack) == 1:
				if t.Name.Local != "doc" {
					return errors.Newf(errors.InputInvalid, "root element is <%s>, want <doc>", t.Name.Local)
				}
				root = true
			case len(stack) == 3 && stack[1] == "members" && t.Name.Local == "member":
				name := attr(t, "name")
				if name == "" {
					return errors.Newf(errors.InputInvalid, "member without name at line %d", line)
				}
				if err := fn(Member{Name: strings.TrimSpace(name), Line: line}); err != nil {
					return err
				}
			case len(stack) == 3 && stack[1] == "assembly" && t.Name.Local == "name":
				var name string
				if err := d.DecodeElement(&name, &t); err != nil {
					return errors.New(errors.InputInvalid, "malformed assembly name", err)
				}
				stack = stack[:len(stack)-1]
				if err := fn(Member{Assembly: strings.TrimSpace(name), Line: line}); err != nil {
					return err
				}
			}
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if !root {
		return errors.Newf(errors.InputInvalid, "empty documentation file")
	}
	return nil
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
