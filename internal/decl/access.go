package decl

import (
	"strings"

	"apifp/internal/errors"
)

// Access is the declared accessibility of a type or member
type Access int

const (
	AccessPrivate Access = iota
	AccessPrivateProtected
	AccessInternal
	AccessProtected
	AccessProtectedInternal
	AccessPublic
)

// AccessOf reads accessibility from declaration modifiers, falling back to
// dflt when none is written
func AccessOf(modifiers []string, dflt Access) Access {
	var public, protected, internal, private bool
	for _, m := range modifiers {
		switch m {
		case "public":
			public = true
		case "protected":
			protected = true
		case "internal":
			internal = true
		case "private":
			private = true
		}
	}
	switch {
	case public:
		return AccessPublic
	case protected && internal:
		return AccessProtectedInternal
	case protected && private:
		return AccessPrivateProtected
	case protected:
		return AccessProtected
	case internal:
		return AccessInternal
	case private:
		return AccessPrivate
	default:
		return dflt
	}
}

// Visibility selects which accessibilities belong to the surface
type Visibility int

const (
	// VisibilityPublic keeps what other assemblies can see or derive from
	VisibilityPublic Visibility = iota
	// VisibilityAll keeps every declaration
	VisibilityAll
)

// ParseVisibility parses "public" (the default) or "all"
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return VisibilityPublic, nil
	case "all":
		return VisibilityAll, nil
	default:
		return 0, errors.Newf(errors.InputInvalid, "unknown visibility %q (want public or all)", s)
	}
}

func (v Visibility) String() string {
	if v == VisibilityAll {
		return "all"
	}
	return "public"
}

// Includes reports whether a declaration with accessibility a is kept
func (v Visibility) Includes(a Access) bool {
	if v == VisibilityAll {
		return true
	}
	return a == AccessPublic || a == AccessProtected || a == AccessProtectedInternal
}
