// Package contract implements the compilation engine: it turns a
// declarative multi-step contract into a single taproot output plus
// the full set of pre-committed transaction templates and spending
// conditions realizing every execution path.
package contract

import (
	"encoding/json"

	"github.com/Georgantas/sapio/effects"
	"github.com/Georgantas/sapio/policy"
)

// Contract is the capability set the engine consumes: three ordered
// manifests of transition functions. Implementations return the same
// manifests on every call within one compilation.
type Contract interface {
	// ThenFuncs lists commitment-gated transitions: each produces the
	// templates of enforced next transactions.
	ThenFuncs() []ThenFunc
	// FinishFuncs lists terminal spending conditions. A finish guard's
	// clause is the spending condition; there is no next transaction.
	FinishFuncs() []Guard
	// FinishOrFuncs lists argument-driven transitions with external
	// continuation: their templates are suggested, not enforced.
	FinishOrFuncs() []FinishOrFunc
}

// Base is a Contract with no transitions, for embedding.
type Base struct{}

func (Base) ThenFuncs() []ThenFunc         { return nil }
func (Base) FinishFuncs() []Guard          { return nil }
func (Base) FinishOrFuncs() []FinishOrFunc { return nil }

// Guard produces a spending condition, or nil when not applicable.
// Guards are memoized by Name within one compilation: however many
// transitions reference a guard, its function body runs at most once.
type Guard struct {
	Name string
	F    func(ctx *Context) policy.Clause
}

// CondKind is the decision of a conditional-compile predicate.
type CondKind int

const (
	// CondNoConstraint includes the transition; zero or more templates
	// are fine.
	CondNoConstraint CondKind = iota
	// CondRequired includes the transition; zero templates is an error.
	CondRequired
	// CondNullable includes the transition; zero templates prunes the
	// branch silently.
	CondNullable
	// CondSkippable excludes the transition from this compilation.
	CondSkippable
	// CondNever excludes the transition unconditionally.
	CondNever
	// CondFail discards the transition's templates and surfaces the
	// collected diagnostics if the branch turns out non-empty.
	CondFail
)

// CondResult is a conditional-compile decision with diagnostics for
// the CondFail case.
type CondResult struct {
	Kind   CondKind
	Errors []string
}

// CompileIf evaluates whether a transition participates in this
// compilation, against a dedicated derived context.
type CompileIf func(ctx *Context) CondResult

// Fixed decisions for manifests that do not depend on the context.
func Required() CondResult     { return CondResult{Kind: CondRequired} }
func NoConstraint() CondResult { return CondResult{Kind: CondNoConstraint} }
func Nullable() CondResult     { return CondResult{Kind: CondNullable} }
func Skippable() CondResult    { return CondResult{Kind: CondSkippable} }
func Never() CondResult        { return CondResult{Kind: CondNever} }
func FailWith(msgs ...string) CondResult {
	return CondResult{Kind: CondFail, Errors: msgs}
}

// mergeCond combines the decisions of a transition's predicates.
// Exclusion dominates everything; failure dominates inclusion flavors;
// required beats nullable.
func mergeCond(results []CondResult) CondResult {
	merged := CondResult{Kind: CondNoConstraint}
	for _, r := range results {
		switch r.Kind {
		case CondNever:
			return CondResult{Kind: CondNever}
		case CondSkippable:
			merged.Kind = CondSkippable
		case CondFail:
			if merged.Kind != CondSkippable {
				merged.Kind = CondFail
			}
			merged.Errors = append(merged.Errors, r.Errors...)
		case CondRequired:
			if merged.Kind == CondNoConstraint || merged.Kind == CondNullable {
				merged.Kind = CondRequired
			}
		case CondNullable:
			if merged.Kind == CondNoConstraint {
				merged.Kind = CondNullable
			}
		}
	}
	return merged
}

// ThenFunc is a commitment-gated transition: its templates become
// enforced next transactions, gated by the commitment condition and
// the conjunction of its guards.
type ThenFunc struct {
	Name      string
	CompileIf []CompileIf
	Guards    []Guard
	F         func(ctx *Context) ([]*Template, error)
}

// FinishOrFunc is an argument-driven transition with external
// continuation. The engine always computes the default expansion
// (arg == nil) and one expansion per externally supplied argument
// found under the transition's derived path.
type FinishOrFunc struct {
	Name      string
	CompileIf []CompileIf
	Guards    []Guard
	// Schema describes the argument accepted by F, exposed in the
	// artifact's continuation table.
	Schema json.RawMessage
	F      func(ctx *Context, arg json.RawMessage) ([]*Template, error)
}

// ContinuationPoint marks an extension point where an external actor
// may later supply arguments to resume compilation along a path.
type ContinuationPoint struct {
	Schema json.RawMessage
	Path   *effects.Path
}
