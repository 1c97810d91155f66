// Package policy defines the algebraic spending-condition language
// produced by contract guards, and lowers it to tapscript fragments.
package policy

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Clause is a spending-condition expression. The set of
// implementations is fixed; connectives compose but no new atoms can
// be defined outside this package.
type Clause interface {
	clause()
}

// Key requires a signature from the holder of Pk.
// Keys are interpreted as x-only in tapscript.
type Key struct {
	Pk *btcec.PublicKey
}

// Threshold requires any K of its subexpressions to be satisfied.
type Threshold struct {
	K  int
	Of []Clause
}

// And requires every subexpression to be satisfied.
type And struct {
	Subs []Clause
}

// Or requires at least one subexpression to be satisfied.
type Or struct {
	Subs []Clause
}

// Older requires the spending input to have aged past a relative
// timelock. N uses the BIP-68 sequence encoding.
type Older struct {
	N uint32
}

// After requires the spending transaction's locktime to be at or past
// an absolute height or time N, per BIP-65.
type After struct {
	N uint32
}

// Trivial is satisfiable by anyone without conditions.
type Trivial struct{}

// Unsatisfiable can never be satisfied.
type Unsatisfiable struct{}

// TxTemplate requires the spending transaction to match the committed
// template hash. It is the condition form of the commitment-hash
// mechanism, produced by the emulator collaborator.
type TxTemplate struct {
	Hash chainhash.Hash
}

func (Key) clause()           {}
func (Threshold) clause()     {}
func (And) clause()           {}
func (Or) clause()            {}
func (Older) clause()         {}
func (After) clause()         {}
func (Trivial) clause()       {}
func (Unsatisfiable) clause() {}
func (TxTemplate) clause()    {}

// IsTrivial reports whether c is the literal Trivial clause.
// Like the accumulator that consumes it, this is a shallow test;
// it does not try to prove equivalent compound forms trivial.
func IsTrivial(c Clause) bool {
	_, ok := c.(Trivial)
	return ok
}

// IsUnsatisfiable reports whether c is the literal Unsatisfiable
// clause. Shallow, like IsTrivial.
func IsUnsatisfiable(c Clause) bool {
	_, ok := c.(Unsatisfiable)
	return ok
}

// Conjoin combines zero or more clauses into their conjunction,
// avoiding a redundant And wrapper for the common small cases.
func Conjoin(subs ...Clause) Clause {
	switch len(subs) {
	case 0:
		return Trivial{}
	case 1:
		return subs[0]
	default:
		return And{Subs: subs}
	}
}
