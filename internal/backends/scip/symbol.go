package scip

import (
	"strings"

	"apifp/internal/errors"
)

// Suffix is the syntactic role of a descriptor
type Suffix byte

const (
	SuffixNamespace     Suffix = '/'
	SuffixType          Suffix = '#'
	SuffixTerm          Suffix = '.'
	SuffixMethod        Suffix = '('
	SuffixTypeParameter Suffix = '['
	SuffixParameter     Suffix = ')'
	SuffixMeta          Suffix = ':'
	SuffixMacro         Suffix = '!'
)

// Descriptor is one step of a symbol path
type Descriptor struct {
	Name          string
	Disambiguator string // methods only
	Suffix        Suffix
}

// Symbol is a parsed SCIP symbol string
// SCIP format: <scheme> <manager> <package> <version> <descriptor>+
// Example: scip-dotnet nuget Contoso.Widgets 1.0.0 Contoso/Widgets/Widget#Render().
type Symbol struct {
	Scheme      string
	Manager     string
	Package     string
	Version     string
	Descriptors []Descriptor
}

// IsLocal reports whether s names a document-local symbol
func IsLocal(s string) bool {
	return strings.HasPrefix(s, "local ")
}

// ParseSymbol parses a global SCIP symbol. Package fields escape spaces as
// double spaces; descriptor names may be backtick-quoted.
func ParseSymbol(s string) (*Symbol, error) {
	if s == "" {
		return nil, errors.Newf(errors.InputInvalid, "empty SCIP symbol")
	}
	if IsLocal(s) {
		return nil, errors.Newf(errors.InputInvalid, "local SCIP symbol %q has no global path", s)
	}
	p := &symbolParser{s: s}
	var fields [4]string
	for i := range fields {
		f, ok := p.field()
		if !ok {
			return nil, errors.Newf(errors.InputInvalid, "invalid SCIP symbol format: %s", s)
		}
		fields[i] = f
	}
	sym := &Symbol{Scheme: fields[0], Manager: fields[1], Package: fields[2], Version: fields[3]}
	for p.i < len(p.s) {
		d, err := p.descriptor()
		if err != nil {
			return nil, err
		}
		sym.Descriptors = append(sym.Descriptors, d)
	}
	if len(sym.Descriptors) == 0 {
		return nil, errors.Newf(errors.InputInvalid, "SCIP symbol %q has no descriptors", s)
	}
	return sym, nil
}

type symbolParser struct {
	s string
	i int
}

// field reads one space-terminated package field, unescaping double spaces
func (p *symbolParser) field() (string, bool) {
	var b strings.Builder
	for p.i < len(p.s) {
		c := p.s[p.i]
		if c == ' ' {
			if p.i+1 < len(p.s) && p.s[p.i+1] == ' ' {
				b.WriteByte(' ')
				p.i += 2
				continue
			}
			p.i++
			out := b.String()
			if out == "." {
				out = ""
			}
			return out, true
		}
		b.WriteByte(c)
		p.i++
	}
	return "", false
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '+' || c == '-' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *symbolParser) name() (string, error) {
	if p.i < len(p.s) && p.s[p.i] == '`' {
		var b strings.Builder
		p.i++
		for p.i < len(p.s) {
			c := p.s[p.i]
			if c == '`' {
				if p.i+1 < len(p.s) && p.s[p.i+1] == '`' {
					b.WriteByte('`')
					p.i += 2
					continue
				}
				p.i++
				return b.String(), nil
			}
			b.WriteByte(c)
			p.i++
		}
		return "", errors.Newf(errors.InputInvalid, "unterminated escaped name in SCIP symbol %q", p.s)
	}
	start := p.i
	for p.i < len(p.s) && isIdentChar(p.s[p.i]) {
		p.i++
	}
	if start == p.i {
		return "", errors.Newf(errors.InputInvalid, "expected name at offset %d in SCIP symbol %q", p.i, p.s)
	}
	return p.s[start:p.i], nil
}

func (p *symbolParser) expect(c byte) error {
	if p.i >= len(p.s) || p.s[p.i] != c {
		return errors.Newf(errors.InputInvalid, "expected %q at offset %d in SCIP symbol %q", c, p.i, p.s)
	}
	p.i++
	return nil
}

func (p *symbolParser) descriptor() (Descriptor, error) {
	switch p.s[p.i] {
	case '[', '(':
		open := p.s[p.i]
		p.i++
		n, err := p.name()
		if err != nil {
			return Descriptor{}, err
		}
		if open == '[' {
			return Descriptor{Name: n, Suffix: SuffixTypeParameter}, p.expect(']')
		}
		return Descriptor{Name: n, Suffix: SuffixParameter}, p.expect(')')
	}

	n, err := p.name()
	if err != nil {
		return Descriptor{}, err
	}
	if p.i >= len(p.s) {
		return Descriptor{}, errors.Newf(errors.InputInvalid, "descriptor %q in SCIP symbol %q has no suffix", n, p.s)
	}
	c := p.s[p.i]
	p.i++
	switch c {
	case '/', '#', '.', ':', '!':
		return Descriptor{Name: n, Suffix: Suffix(c)}, nil
	case '(':
		start := p.i
		for p.i < len(p.s) && p.s[p.i] != ')' {
			p.i++
		}
		d := Descriptor{Name: n, Disambiguator: p.s[start:p.i], Suffix: SuffixMethod}
		if err := p.expect(')'); err != nil {
			return d, err
		}
		return d, p.expect('.')
	default:
		return Descriptor{}, errors.Newf(errors.InputInvalid, "unknown descriptor suffix %q in SCIP symbol %q", c, p.s)
	}
}

// Owner returns the symbol string of the descriptor path without its last step
func (s *Symbol) Owner() string {
	if len(s.Descriptors) <= 1 {
		return ""
	}
	return s.format(s.Descriptors[:len(s.Descriptors)-1])
}

// Last returns the final descriptor
func (s *Symbol) Last() Descriptor {
	return s.Descriptors[len(s.Descriptors)-1]
}

func (s *Symbol) String() string {
	return s.format(s.Descriptors)
}

func (s *Symbol) format(ds []Descriptor) string {
	var b strings.Builder
	for _, f := range []string{s.Scheme, s.Manager, s.Package, s.Version} {
		if f == "" {
			f = "."
		}
		b.WriteString(strings.ReplaceAll(f, " ", "  "))
		b.WriteByte(' ')
	}
	for _, d := range ds {
		writeDescriptor(&b, d)
	}
	return b.String()
}

func writeName(b *strings.Builder, n string) {
	simple := n != ""
	for i := 0; i < len(n); i++ {
		if !isIdentChar(n[i]) {
			simple = false
			break
		}
	}
	if simple {
		b.WriteString(n)
		return
	}
	b.WriteByte('`')
	b.WriteString(strings.ReplaceAll(n, "`", "``"))
	b.WriteByte('`')
}

func writeDescriptor(b *strings.Builder, d Descriptor) {
	switch d.Suffix {
	case SuffixTypeParameter:
		b.WriteByte('[')
		writeName(b, d.Name)
		b.WriteByte(']')
	case SuffixParameter:
		b.WriteByte('(')
		writeName(b, d.Name)
		b.WriteByte(')')
	case SuffixMethod:
		writeName(b, d.Name)
		b.WriteByte('(')
		b.WriteString(d.Disambiguator)
		b.WriteString(").")
	default:
		writeName(b, d.Name)
		b.WriteByte(byte(d.Suffix))
	}
}
