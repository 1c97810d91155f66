package contract

import (
	"github.com/Georgantas/sapio/errors"
	"github.com/Georgantas/sapio/policy"
)

// guardCache memoizes compiled guard clauses for one compilation.
// A guard's condition depends only on which function it is, not on
// where in the tree it is referenced, so each named guard runs at
// most once. The cache is the only mutable state shared across the
// recursive compile pass; it has a single logical writer and rejects
// reentrant computation of an entry instead of looping.
type guardCache struct {
	cached     map[string]policy.Clause
	inProgress map[string]bool
}

func newGuardCache() *guardCache {
	return &guardCache{
		cached:     make(map[string]policy.Clause),
		inProgress: make(map[string]bool),
	}
}

// get returns the memoized clause for g, computing it on first use.
// A nil clause means the guard is not applicable and is itself
// memoized.
func (gc *guardCache) get(g Guard, ctx *Context) (policy.Clause, error) {
	if g.Name == "" {
		return nil, errors.Wrapf(ErrUnnamedGuard, "at %s", ctx.Path())
	}
	if clause, ok := gc.cached[g.Name]; ok {
		return clause, nil
	}
	if gc.inProgress[g.Name] {
		return nil, errors.Wrapf(ErrGuardReentrancy, "guard %q", g.Name)
	}
	gc.inProgress[g.Name] = true
	var clause policy.Clause
	if g.F != nil {
		clause = g.F(ctx)
	}
	delete(gc.inProgress, g.Name)
	gc.cached[g.Name] = clause
	return clause, nil
}

// conjoin combines a transition's guards into one clause via the
// cache. No guards, or only inapplicable ones, yields Trivial.
func (gc *guardCache) conjoin(guards []Guard, ctx *Context) (policy.Clause, error) {
	var subs []policy.Clause
	for _, g := range guards {
		clause, err := gc.get(g, ctx)
		if err != nil {
			return nil, err
		}
		if clause != nil {
			subs = append(subs, clause)
		}
	}
	return policy.Conjoin(subs...), nil
}
