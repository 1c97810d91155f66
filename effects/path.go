package effects

import (
	"strings"

	"github.com/Georgantas/sapio/errors"
)

// ErrEmptyPath is returned when reconstructing a Path from an empty
// fragment sequence or an empty string.
var ErrEmptyPath = errors.New("path must have at least one fragment")

// Path is an immutable, reference-shared sequence of fragments naming
// one structural position in a compiled contract tree.
//
// Internally a Path is a singly linked list from child to root, so
// sibling derivations share their parent's storage. Equality is
// defined by the full fragment sequence, never by pointer identity.
type Path struct {
	parent *Path
	frag   Fragment
}

// New returns a single-fragment Path.
func New(frag Fragment) *Path {
	return &Path{frag: frag}
}

// Push returns a new Path extending p by one fragment.
// p is shared, not copied.
func (p *Path) Push(frag Fragment) *Path {
	return &Path{parent: p, frag: frag}
}

// Fragments returns the fragments of p in logical (root-to-leaf)
// order. The internal iteration runs leaf-to-root and is reversed.
func (p *Path) Fragments() []Fragment {
	var frags []Fragment
	for q := p; q != nil; q = q.parent {
		frags = append(frags, q.frag)
	}
	for i, j := 0, len(frags)-1; i < j; i, j = i+1, j-1 {
		frags[i], frags[j] = frags[j], frags[i]
	}
	return frags
}

// Equal reports whether p and q name the same fragment sequence.
func (p *Path) Equal(q *Path) bool {
	for p != nil && q != nil {
		if p == q {
			// Shared suffix; in a compilation all siblings share
			// their prefix storage.
			return true
		}
		if p.frag != q.frag {
			return false
		}
		p, q = p.parent, q.parent
	}
	return p == nil && q == nil
}

// String returns the fragments of p in logical order, joined by "/".
func (p *Path) String() string {
	frags := p.Fragments()
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.String()
	}
	return strings.Join(parts, "/")
}

// FromFragments reconstructs a Path from a logical-order fragment
// sequence. It fails on an empty sequence.
func FromFragments(frags []Fragment) (*Path, error) {
	if len(frags) == 0 {
		return nil, errors.Wrap(ErrEmptyPath, "from fragments")
	}
	p := New(frags[0])
	for _, f := range frags[1:] {
		p = p.Push(f)
	}
	return p, nil
}

// Parse reconstructs a Path from its string form.
func Parse(s string) (*Path, error) {
	if s == "" {
		return nil, errors.Wrap(ErrEmptyPath, "parse")
	}
	parts := strings.Split(s, "/")
	frags := make([]Fragment, 0, len(parts))
	for _, part := range parts {
		f, err := ParseFragment(part)
		if err != nil {
			return nil, errors.Wrapf(err, "parse path %q", s)
		}
		frags = append(frags, f)
	}
	return FromFragments(frags)
}
