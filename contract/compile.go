package contract

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Georgantas/sapio/effects"
	"github.com/Georgantas/sapio/errors"
	"github.com/Georgantas/sapio/math/checked"
	"github.com/Georgantas/sapio/policy"
)

// Compile runs one full compilation of c under ctx and returns the
// finished artifact. Compilation is atomic: any failure in any branch
// aborts the whole run with no partial artifact, and recompiling the
// same contract under an equivalent context yields an identical
// artifact.
func Compile(ctx *Context, c Contract) (*Compiled, error) {
	comp := &compilation{
		ctx:           ctx,
		guards:        newGuardCache(),
		ctvToTx:       make(map[chainhash.Hash]*Template),
		suggested:     make(map[chainhash.Hash]*Template),
		continuations: make(map[string]ContinuationPoint),
		amounts:       NewAmountRange(),
	}

	finishClauses, err := comp.finishClauses(c.FinishFuncs())
	if err != nil {
		return nil, err
	}
	if err := comp.processThenFuncs(c.ThenFuncs()); err != nil {
		return nil, err
	}
	if err := comp.processFinishOrFuncs(c.FinishOrFuncs()); err != nil {
		return nil, err
	}

	// Terminal conditions lead the leaf order, then transition
	// clauses in manifest order.
	clauses := append(finishClauses, comp.clauses...)

	tree, err := newScriptTree(clauses)
	if err != nil {
		return nil, err
	}
	if err := comp.checkFeeRates(tree); err != nil {
		return nil, err
	}
	addr, err := tree.address(ctx.Network())
	if err != nil {
		return nil, errors.Wrap(err, "contract address")
	}

	return &Compiled{
		Address:            addr,
		Descriptor:         tree.descriptor(),
		CTVToTx:            comp.ctvToTx,
		SuggestedTxs:       comp.suggested,
		ContinuationPoints: comp.continuations,
		AmountRange:        comp.amounts,
		RootPath:           ctx.Path(),
	}, nil
}

// compilation is the per-run working state of one Compile call.
type compilation struct {
	ctx    *Context
	guards *guardCache

	clauses       []policy.Clause
	ctvToTx       map[chainhash.Hash]*Template
	suggested     map[chainhash.Hash]*Template
	continuations map[string]ContinuationPoint
	amounts       AmountRange
}

// finishClauses compiles the terminal spending conditions. Guards
// that report not-applicable or statically unsatisfiable contribute
// no leaf.
func (comp *compilation) finishClauses(guards []Guard) ([]policy.Clause, error) {
	base := comp.ctx.child(effects.FinishFn)
	var clauses []policy.Clause
	for i, g := range guards {
		gctx := base.child(effects.Branch(uint64(i)))
		clause, err := comp.guards.get(g, gctx)
		if err != nil {
			return nil, err
		}
		if clause == nil || policy.IsUnsatisfiable(clause) {
			continue
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

func (comp *compilation) processThenFuncs(fns []ThenFunc) error {
	base := comp.ctx.child(effects.ThenFn)
	for _, fn := range fns {
		fctx, err := base.DeriveNamed(fn.Name)
		if err != nil {
			return err
		}

		cond := comp.evalCond(fn.CompileIf, fctx)
		switch cond.Kind {
		case CondNever, CondSkippable:
			continue
		case CondFail:
			tmpls, err := fn.F(fctx.child(effects.NextTx))
			if err != nil || len(tmpls) > 0 {
				return errors.Wrapf(ErrCondCompileFailed, "transition %q: %s", fn.Name, strings.Join(cond.Errors, "; "))
			}
			continue
		}

		guard, err := comp.guards.conjoin(fn.Guards, fctx.child(effects.Guard))
		if err != nil {
			return err
		}
		tmpls, err := fn.F(fctx.child(effects.NextTx))
		if err != nil {
			return errors.Wrapf(err, "transition %q", fn.Name)
		}

		var branch []policy.Clause
		for _, t := range tmpls {
			clause, err := comp.recordGated(t)
			if err != nil {
				return errors.Wrapf(err, "transition %q", fn.Name)
			}
			branch = append(branch, clause)
		}

		switch {
		case len(branch) == 0 && cond.Kind == CondNullable:
			// Pruned: an allowed-empty branch vanishes.
		case len(branch) == 0 && cond.Kind == CondRequired:
			return errors.Wrapf(ErrMissingTemplates, "transition %q", fn.Name)
		case len(branch) > 0 && policy.IsUnsatisfiable(guard):
			return errors.Wrapf(ErrUnsatisfiableGuard, "transition %q", fn.Name)
		case policy.IsTrivial(guard):
			comp.clauses = append(comp.clauses, branch...)
		default:
			for _, clause := range branch {
				comp.clauses = append(comp.clauses, policy.And{Subs: []policy.Clause{guard, clause}})
			}
		}
	}
	return nil
}

func (comp *compilation) processFinishOrFuncs(fns []FinishOrFunc) error {
	base := comp.ctx.child(effects.FinishOrFn).child(effects.Suggested)
	for _, fn := range fns {
		fctx, err := base.DeriveNamed(fn.Name)
		if err != nil {
			return err
		}

		cond := comp.evalCond(fn.CompileIf, fctx)
		if cond.Kind == CondNever || cond.Kind == CondSkippable {
			continue
		}

		// Every continuation that is not excluded outright stays
		// addressable for later recompilations, even when this run
		// rejects or prunes it.
		comp.continuations[fctx.Path().String()] = ContinuationPoint{
			Schema: fn.Schema,
			Path:   fctx.Path(),
		}

		if cond.Kind == CondFail {
			// Emptiness is judged on the default expansion; external
			// arguments cannot rescue a rejected transition.
			tmpls, err := comp.defaultExpansion(fn, fctx)
			if err != nil || len(tmpls) > 0 {
				return errors.Wrapf(ErrCondCompileFailed, "continuation %q: %s", fn.Name, strings.Join(cond.Errors, "; "))
			}
			continue
		}

		guard, err := comp.guards.conjoin(fn.Guards, fctx.child(effects.Guard))
		if err != nil {
			return err
		}

		recorded := 0
		tmpls, err := comp.defaultExpansion(fn, fctx)
		if err != nil {
			return errors.Wrapf(err, "continuation %q", fn.Name)
		}
		for _, t := range tmpls {
			if err := comp.recordSuggested(t); err != nil {
				return errors.Wrapf(err, "continuation %q", fn.Name)
			}
			recorded++
		}

		n, err := comp.effectExpansions(fn, fctx)
		if err != nil {
			return err
		}
		recorded += n

		if policy.IsUnsatisfiable(guard) {
			if recorded > 0 {
				return errors.Wrapf(ErrUnsatisfiableGuard, "continuation %q", fn.Name)
			}
			continue
		}
		// A guard-less continuation contributes no spending path of
		// its own; anyone-can-spend is never implied. Terminal
		// conditions belong to the finish guards.
		if policy.IsTrivial(guard) {
			continue
		}
		comp.clauses = append(comp.clauses, guard)
	}
	return nil
}

// defaultExpansion runs fn with no external argument under the
// transition's default-effect branch.
func (comp *compilation) defaultExpansion(fn FinishOrFunc, fctx *Context) ([]*Template, error) {
	dctx, err := fctx.Derive(effects.DefaultEffect)
	if err != nil {
		return nil, err
	}
	return fn.F(dctx, nil)
}

// effectExpansions runs fn once per externally supplied argument
// stored under the transition's path, recording every suggested
// template. It returns how many templates were recorded.
func (comp *compilation) effectExpansions(fn FinishOrFunc, fctx *Context) (int, error) {
	entries, err := comp.ctx.effects.Get(fctx.Path())
	if err != nil {
		return 0, errors.Wrapf(ErrEffectLookup, "continuation %q at %s: %s", fn.Name, fctx.Path(), err)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	ectx, err := fctx.Derive(effects.Effects)
	if err != nil {
		return 0, err
	}
	recorded := 0
	for _, e := range entries {
		actx, err := ectx.DeriveNamed(e.Key)
		if err != nil {
			return 0, errors.Wrapf(err, "continuation %q effect %q", fn.Name, e.Key)
		}
		tmpls, err := fn.F(actx, e.Value)
		if err != nil {
			return 0, errors.Wrapf(err, "continuation %q effect %q", fn.Name, e.Key)
		}
		for _, t := range tmpls {
			if err := comp.recordSuggested(t); err != nil {
				return 0, errors.Wrapf(err, "continuation %q effect %q", fn.Name, e.Key)
			}
			recorded++
		}
	}
	return recorded, nil
}

// evalCond runs a transition's predicates against a dedicated derived
// branch and merges their decisions.
func (comp *compilation) evalCond(preds []CompileIf, fctx *Context) CondResult {
	if len(preds) == 0 {
		return NoConstraint()
	}
	cctx := fctx.child(effects.CondCompIf)
	results := make([]CondResult, 0, len(preds))
	for _, p := range preds {
		results = append(results, p(cctx))
	}
	return mergeCond(results)
}

// recordGated registers an enforced template and returns its spending
// clause: the template's own guards conjoined with the commitment
// condition from the emulator. Duplicate hashes keep the first
// recorded template.
func (comp *compilation) recordGated(t *Template) (policy.Clause, error) {
	h := t.Hash()
	first, seen := comp.ctvToTx[h]
	if !seen {
		comp.ctvToTx[h] = t
		first = t
		total, err := t.Total()
		if err != nil {
			return nil, err
		}
		comp.amounts.Update(total)
	}
	cond, err := comp.ctx.emulator.ConditionFor(h)
	if err != nil {
		return nil, errors.Wrapf(ErrEmulator, "template %s: %s", h, err)
	}
	subs := append([]policy.Clause{}, first.Guards...)
	subs = append(subs, cond)
	return policy.Conjoin(subs...), nil
}

// recordSuggested registers a suggested template. Suggested templates
// are spendable through their transition's guards alone, so a
// template-level guard has nothing to attach to and is rejected.
func (comp *compilation) recordSuggested(t *Template) error {
	if len(t.Guards) > 0 {
		return errors.Wrapf(ErrGuardDisagreement, "template %q", t.Label)
	}
	h := t.Hash()
	if _, seen := comp.suggested[h]; seen {
		return nil
	}
	comp.suggested[h] = t
	total, err := t.Total()
	if err != nil {
		return err
	}
	comp.amounts.Update(total)
	return nil
}

// checkFeeRates verifies, against the finished script tree, that each
// commitment-gated template leaves enough unallocated funds to pay its
// declared minimum fee rate at the estimated spend size. Suggested
// templates are not enforced and are not checked.
func (comp *compilation) checkFeeRates(tree *scriptTree) error {
	satWeight := tree.maxSatisfactionWeight()
	for _, t := range comp.ctvToTx {
		if t.MinFeeRate == 0 {
			continue
		}
		total, err := t.Total()
		if err != nil {
			return err
		}
		fees := int64(comp.ctx.Funds()) - int64(total)
		weight, ok := checked.AddInt64(int64(t.Weight()), int64(satWeight))
		if !ok {
			return errors.Wrapf(ErrAmountOverflow, "template %q weight", t.Label)
		}
		vsize := (weight + 3) / 4
		need, ok := checked.MulInt64(int64(t.MinFeeRate), vsize)
		if !ok {
			return errors.Wrapf(ErrAmountOverflow, "template %q fee", t.Label)
		}
		if fees < need {
			return errors.Wrapf(ErrMinFeerate, "template %q: %v available, %v needed at %d sat/vb",
				t.Label, btcutil.Amount(fees), btcutil.Amount(need), int64(t.MinFeeRate))
		}
	}
	return nil
}
