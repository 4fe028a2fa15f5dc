// Package exclusion classifies identifiers of compiler-injected elements.
package exclusion

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
)

// DefaultVersion identifies the built-in denylist contents
const DefaultVersion = "2"

const compilerServices = "System.Runtime.CompilerServices."

// defaultIDs are the identifiers compilers inject into assemblies without the author declaring them
var defaultIDs = []string{
	"T:<Module>",
	"T:<PrivateImplementationDetails>",

	"T:Microsoft.CodeAnalysis.EmbeddedAttribute",
	"M:Microsoft.CodeAnalysis.EmbeddedAttribute.#ctor",

	"T:" + compilerServices + "RefSafetyRulesAttribute",
	"M:" + compilerServices + "RefSafetyRulesAttribute.#ctor(System.Int32)",
	"F:" + compilerServices + "RefSafetyRulesAttribute.Version",

	"T:" + compilerServices + "NullableAttribute",
	"M:" + compilerServices + "NullableAttribute.#ctor(System.Byte)",
	"M:" + compilerServices + "NullableAttribute.#ctor(System.Byte[])",
	"F:" + compilerServices + "NullableAttribute.NullableFlags",

	"T:" + compilerServices + "NullableContextAttribute",
	"M:" + compilerServices + "NullableContextAttribute.#ctor(System.Byte)",
	"F:" + compilerServices + "NullableContextAttribute.Flag",

	"T:" + compilerServices + "NullablePublicOnlyAttribute",
	"M:" + compilerServices + "NullablePublicOnlyAttribute.#ctor(System.Boolean)",
	"F:" + compilerServices + "NullablePublicOnlyAttribute.IncludesInternals",

	"T:" + compilerServices + "IsReadOnlyAttribute",
	"M:" + compilerServices + "IsReadOnlyAttribute.#ctor",

	"T:" + compilerServices + "IsByRefLikeAttribute",
	"M:" + compilerServices + "IsByRefLikeAttribute.#ctor",

	"T:" + compilerServices + "IsUnmanagedAttribute",
	"M:" + compilerServices + "IsUnmanagedAttribute.#ctor",
}

// Denylist is an immutable, versioned set of synthetic identifiers. A nil
// *Denylist excludes nothing.
type Denylist struct {
	version string
	ids     map[string]struct{}
}

var (
	defaultOnce sync.Once
	defaultList *Denylist
)

// DefaultDenylist returns the shared built-in list
func DefaultDenylist() *Denylist {
	defaultOnce.Do(func() {
		defaultList = New(DefaultVersion, defaultIDs...)
	})
	return defaultList
}

// New builds a denylist from explicit identifiers
func New(version string, ids ...string) *Denylist {
	d := &Denylist{version: version, ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		d.ids[id] = struct{}{}
	}
	return d
}

// Empty returns a denylist that excludes nothing
func Empty() *Denylist {
	return New("empty")
}

// Version identifies the list contents; derived lists extend their base's version
func (d *Denylist) Version() string {
	if d == nil {
		return "none"
	}
	return d.version
}

// IsSynthetic reports whether id names a compiler-injected element
func (d *Denylist) IsSynthetic(id string) bool {
	if d == nil {
		return false
	}
	_, ok := d.ids[id]
	return ok
}

// Len returns the number of identifiers in the list
func (d *Denylist) Len() int {
	if d == nil {
		return 0
	}
	return len(d.ids)
}

// IDs returns the identifiers in ordinal order
func (d *Denylist) IDs() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.ids))
	for id := range d.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// With returns a new list containing d's identifiers plus ids
func (d *Denylist) With(ids ...string) *Denylist {
	out := d.clone(fmt.Sprintf("%s+%d", d.Version(), len(ids)))
	for _, id := range ids {
		out.ids[id] = struct{}{}
	}
	return out
}

// Without returns a new list containing d's identifiers minus ids
func (d *Denylist) Without(ids ...string) *Denylist {
	out := d.clone(fmt.Sprintf("%s-%d", d.Version(), len(ids)))
	for _, id := range ids {
		delete(out.ids, id)
	}
	return out
}

func (d *Denylist) clone(version string) *Denylist {
	out := &Denylist{version: version, ids: make(map[string]struct{}, d.Len())}
	if d != nil {
		for id := range d.ids {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

// Overlay is the on-disk TOML form of a denylist adjustment
type Overlay struct {
	Version string   `toml:"version"`
	Replace bool     `toml:"replace"`
	Add     []string `toml:"add"`
	Remove  []string `toml:"remove"`
}

// Apply derives a new list from base. With Replace the base contents are dropped first.
func (o Overlay) Apply(base *Denylist) *Denylist {
	out := base
	if o.Replace {
		out = Empty()
	}
	out = out.With(o.Add...).Without(o.Remove...)
	if o.Version != "" {
		out.version = o.Version
	}
	return out
}

// LoadFile reads a TOML overlay and applies it to base
func LoadFile(path string, base *Denylist) (*Denylist, error) {
	var o Overlay
	if _, err := toml.DecodeFile(path, &o); err != nil {
		return nil, fmt.Errorf("failed to parse denylist %s: %w", path, err)
	}
	return o.Apply(base), nil
}

// WriteFile saves an overlay that reproduces d exactly
func (d *Denylist) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create denylist file: %w", err)
	}
	defer f.Close()

	o := Overlay{Version: d.Version(), Replace: true, Add: d.IDs()}
	if err := toml.NewEncoder(f).Encode(o); err != nil {
		return fmt.Errorf("failed to encode denylist: %w", err)
	}
	return nil
}
