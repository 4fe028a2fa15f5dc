package scip

import (
	"strings"

	"apifp/internal/cstype"
)

// declaration words that precede the type or name in signature text
var modifierWords = map[string]bool{
	"public": true, "protected": true, "internal": true, "private": true, "file": true,
	"static": true, "virtual": true, "override": true, "abstract": true, "sealed": true,
	"readonly": true, "const": true, "new": true, "extern": true, "unsafe": true,
	"volatile": true, "required": true, "async": true, "partial": true,
	"implicit": true, "explicit": true, "event": true, "delegate": true, "ref": true,
	"class": true, "struct": true, "interface": true, "enum": true, "record": true,
}

// signature is C# declaration text split into its parts, e.g.
// "public static T Find<T>(List<T> items) where T : class"
type signature struct {
	modifiers  []string
	words      []string // head after modifiers: type and name words
	params     string   // "(...)" or "[...]" including delimiters
	typeParams []string // generic parameters written after the name
	accessors  []accessorDecl
	arrow      bool // expression body
}

type accessorDecl struct {
	keyword   string // get, set, init, add, remove
	modifiers []string
}

func parseSignature(text string) signature {
	var sig signature
	text = neutralizeOperator(strings.TrimSpace(cstype.StripAttributes(text)))

	if i := topLevelIndex(text, "{"); i >= 0 {
		sig.accessors = parseAccessors(text[i:])
		text = text[:i]
	}
	if i := topLevelIndex(text, "=>"); i >= 0 {
		sig.arrow = true
		text = text[:i]
	}
	if i := topLevelIndex(text, " where "); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return sig
	}

	if last := text[len(text)-1]; last == ')' || last == ']' {
		if open := matchingOpen(text, len(text)-1); open > 0 {
			sig.params = text[open:]
			text = strings.TrimSpace(text[:open])
		}
	}
	if strings.HasSuffix(text, ">") {
		if open := matchingOpen(text, len(text)-1); open > 0 {
			for _, p := range cstype.SplitParameters(text[open+1 : len(text)-1]) {
				fields := strings.Fields(p)
				if len(fields) > 0 {
					// variance annotations such as "out T"
					sig.typeParams = append(sig.typeParams, fields[len(fields)-1])
				}
			}
			text = strings.TrimSpace(text[:open])
		}
	}

	words := topLevelWords(text)
	i := 0
	for i < len(words) && modifierWords[words[i]] {
		i++
	}
	sig.modifiers = words[:i]
	sig.words = words[i:]
	return sig
}

// neutralizeOperator replaces an operator token such as "<" or ">>" so it
// cannot unbalance bracket matching; conversion operators are left alone
func neutralizeOperator(text string) string {
	i := strings.Index(text, "operator")
	if i < 0 {
		return text
	}
	rest := text[i+len("operator"):]
	j := strings.IndexByte(rest, '(')
	if j < 0 {
		return text
	}
	token := strings.TrimSpace(rest[:j])
	if token == "" || strings.IndexFunc(token, func(r rune) bool {
		return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
	}) >= 0 {
		return text
	}
	return text[:i] + "operator op" + rest[j:]
}

func (s signature) has(mod string) bool {
	for _, m := range s.modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// typeText returns the declared type: every head word before the name
func (s signature) typeText() string {
	if len(s.words) < 2 {
		return ""
	}
	return strings.Join(s.words[:len(s.words)-1], " ")
}

// conversionTarget returns the type a conversion operator converts to, the
// words after "operator"
func (s signature) conversionTarget() string {
	for i, w := range s.words {
		if w == "operator" {
			return strings.Join(s.words[i+1:], " ")
		}
	}
	return ""
}

// accessor finds a declared accessor by keyword
func (s signature) accessor(keyword string) (accessorDecl, bool) {
	for _, a := range s.accessors {
		if a.keyword == keyword || (keyword == "set" && a.keyword == "init") {
			return a, true
		}
	}
	return accessorDecl{}, false
}

var accessorKeywords = map[string]bool{"get": true, "set": true, "init": true, "add": true, "remove": true}

func parseAccessors(block string) []accessorDecl {
	block = strings.TrimSpace(block)
	block = strings.TrimPrefix(block, "{")
	block = strings.TrimSuffix(block, "}")
	var out []accessorDecl
	for _, part := range strings.Split(block, ";") {
		words := strings.Fields(part)
		for i, w := range words {
			if accessorKeywords[w] {
				out = append(out, accessorDecl{keyword: w, modifiers: words[:i]})
				break
			}
		}
	}
	return out
}

// topLevelIndex finds sub outside brackets, or -1
func topLevelIndex(s, sub string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>':
			if i > 0 && s[i-1] == '=' {
				break
			}
			depth--
		case ')', ']':
			depth--
		}
		if depth == 0 && strings.HasPrefix(s[i:], sub) {
			return i
		}
	}
	return -1
}

// matchingOpen returns the index of the bracket opening the one that closes at end
func matchingOpen(s string, end int) int {
	closeCh := s[end]
	openCh := map[byte]byte{')': '(', ']': '[', '>': '<'}[closeCh]
	depth := 0
	for i := end; i >= 0; i-- {
		switch s[i] {
		case closeCh:
			depth++
		case openCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// topLevelWords splits on spaces outside brackets
func topLevelWords(s string) []string {
	var out []string
	depth, start := 0, -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		}
		if c == ' ' && depth == 0 {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}
