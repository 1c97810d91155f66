// Package effects implements the hierarchical namespace assigned to
// every structural position of a compiled contract, and the lookup
// service that supplies externally provided arguments keyed by such
// positions.
package effects

import (
	"strconv"

	"github.com/Georgantas/sapio/errors"
)

// ErrBadFragment is returned when a user-chosen fragment name is empty,
// contains characters outside [A-Za-z0-9_-], is all digits, or collides
// with a reserved structural tag.
var ErrBadFragment = errors.New("invalid path fragment name")

type fragKind int

const (
	kindTag fragKind = iota
	kindBranch
	kindNamed
)

// Fragment is one segment of a Path: a structural tag,
// a numeric branch index, or a user-chosen name.
type Fragment struct {
	kind   fragKind
	branch uint64
	name   string
}

// Structural tags. One of these is appended to the path at each
// fixed position the compiler derives.
var (
	Root          = Fragment{kind: kindTag, name: "root"}
	ThenFn        = Fragment{kind: kindTag, name: "thenfn"}
	FinishFn      = Fragment{kind: kindTag, name: "finishfn"}
	FinishOrFn    = Fragment{kind: kindTag, name: "finishorfn"}
	CondCompIf    = Fragment{kind: kindTag, name: "condcompif"}
	Guard         = Fragment{kind: kindTag, name: "guard"}
	NextTx        = Fragment{kind: kindTag, name: "nexttx"}
	Suggested     = Fragment{kind: kindTag, name: "suggested"}
	Effects       = Fragment{kind: kindTag, name: "effects"}
	DefaultEffect = Fragment{kind: kindTag, name: "defaulteffect"}
)

var reservedTags = map[string]Fragment{
	"root":          Root,
	"thenfn":        ThenFn,
	"finishfn":      FinishFn,
	"finishorfn":    FinishOrFn,
	"condcompif":    CondCompIf,
	"guard":         Guard,
	"nexttx":        NextTx,
	"suggested":     Suggested,
	"effects":       Effects,
	"defaulteffect": DefaultEffect,
}

// Branch returns the numeric fragment for index n.
func Branch(n uint64) Fragment {
	return Fragment{kind: kindBranch, branch: n}
}

// Named returns a fragment for a user-chosen name, such as the name of
// a transition function. The name must be non-empty, drawn from
// [A-Za-z0-9_-], not all digits (those parse as branch fragments),
// and must not collide with a reserved structural tag.
func Named(name string) (Fragment, error) {
	if name == "" {
		return Fragment{}, errors.Wrap(ErrBadFragment, "empty name")
	}
	digits := true
	for _, c := range name {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '-':
			digits = false
		default:
			return Fragment{}, errors.Wrapf(ErrBadFragment, "name %q", name)
		}
	}
	if digits {
		return Fragment{}, errors.Wrapf(ErrBadFragment, "name %q is all digits", name)
	}
	if _, ok := reservedTags[name]; ok {
		return Fragment{}, errors.Wrapf(ErrBadFragment, "name %q is reserved", name)
	}
	return Fragment{kind: kindNamed, name: name}, nil
}

// MustNamed is like Named but panics on an invalid name.
// Intended for statically known names.
func MustNamed(name string) Fragment {
	f, err := Named(name)
	if err != nil {
		panic(err)
	}
	return f
}

// String returns the serialized form of the fragment.
// Fragments round-trip through ParseFragment.
func (f Fragment) String() string {
	if f.kind == kindBranch {
		return strconv.FormatUint(f.branch, 10)
	}
	return f.name
}

// ParseFragment decodes the serialized form of a fragment: all-digit
// strings are branch indexes, reserved tags are structural tags, and
// anything else must be a valid user-chosen name.
func ParseFragment(s string) (Fragment, error) {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Branch(n), nil
	}
	if tag, ok := reservedTags[s]; ok {
		return tag, nil
	}
	return Named(s)
}
