package policy

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"

	"github.com/Georgantas/sapio/errors"
)

// Limits of the target script system. Exceeding either is a
// policy-compilation failure.
const (
	maxScriptSize = 10000
	maxDepth      = 100
)

var (
	ErrTooDeep        = errors.New("policy nesting too deep")
	ErrScriptTooLarge = errors.New("compiled script exceeds size limit")
	ErrBadThreshold   = errors.New("threshold out of range")
	ErrThresholdSubs  = errors.New("threshold over non-key subexpressions")
)

// OP_NOP4 is reserved for OP_CHECKTEMPLATEVERIFY by BIP-119.
const opCheckTemplateVerify = txscript.OP_NOP4

// Compile lowers a clause to a tapscript fragment. The script is a
// boolean program: it leaves a single truthy element on success.
func Compile(c Clause) ([]byte, error) {
	b := txscript.NewScriptBuilder()
	err := emit(b, c, false, 0)
	if err != nil {
		return nil, err
	}
	script, err := b.Script()
	if err != nil {
		return nil, errors.Wrap(err, "assembling script")
	}
	if len(script) > maxScriptSize {
		return nil, errors.Wrapf(ErrScriptTooLarge, "%d bytes", len(script))
	}
	return script, nil
}

// emit writes the script form of c. In verify mode the fragment aborts
// the script on failure and leaves nothing; otherwise it leaves a
// boolean (or other truthy element) on the stack.
func emit(b *txscript.ScriptBuilder, c Clause, verify bool, depth int) error {
	if depth > maxDepth {
		return ErrTooDeep
	}
	switch c := c.(type) {
	case Key:
		b.AddData(schnorr.SerializePubKey(c.Pk))
		if verify {
			b.AddOp(txscript.OP_CHECKSIGVERIFY)
		} else {
			b.AddOp(txscript.OP_CHECKSIG)
		}

	case Threshold:
		return emitThreshold(b, c, verify, depth)

	case And:
		if len(c.Subs) == 0 {
			return emit(b, Trivial{}, verify, depth+1)
		}
		for _, sub := range c.Subs[:len(c.Subs)-1] {
			err := emit(b, sub, true, depth+1)
			if err != nil {
				return err
			}
		}
		return emit(b, c.Subs[len(c.Subs)-1], verify, depth+1)

	case Or:
		switch len(c.Subs) {
		case 0:
			return emit(b, Unsatisfiable{}, verify, depth+1)
		case 1:
			return emit(b, c.Subs[0], verify, depth+1)
		}
		err := emitOr(b, c.Subs, depth+1)
		if err != nil {
			return err
		}
		if verify {
			b.AddOp(txscript.OP_VERIFY)
		}

	case Older:
		b.AddInt64(int64(c.N))
		b.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
		b.AddOp(txscript.OP_DROP)
		if !verify {
			b.AddOp(txscript.OP_1)
		}

	case After:
		b.AddInt64(int64(c.N))
		b.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)
		b.AddOp(txscript.OP_DROP)
		if !verify {
			b.AddOp(txscript.OP_1)
		}

	case TxTemplate:
		b.AddData(c.Hash[:])
		b.AddOp(opCheckTemplateVerify)
		// CTV leaves the committed hash on the stack, which is truthy,
		// so only verify mode needs to clean up.
		if verify {
			b.AddOp(txscript.OP_DROP)
		}

	case Trivial:
		if !verify {
			b.AddOp(txscript.OP_1)
		}

	case Unsatisfiable:
		if verify {
			b.AddOp(txscript.OP_RETURN)
		} else {
			b.AddOp(txscript.OP_0)
		}
	}
	return nil
}

// emitThreshold lowers K-of-N. Thresholds over bare keys lower to a
// CHECKSIGADD accumulator. Other subexpressions are only expressible
// at the degenerate corners (K=N conjunction, K=1 disjunction).
func emitThreshold(b *txscript.ScriptBuilder, c Threshold, verify bool, depth int) error {
	if c.K < 1 || c.K > len(c.Of) {
		return errors.Wrapf(ErrBadThreshold, "%d of %d", c.K, len(c.Of))
	}
	allKeys := true
	for _, sub := range c.Of {
		if _, ok := sub.(Key); !ok {
			allKeys = false
			break
		}
	}
	if !allKeys {
		switch c.K {
		case len(c.Of):
			return emit(b, And{Subs: c.Of}, verify, depth+1)
		case 1:
			return emit(b, Or{Subs: c.Of}, verify, depth+1)
		}
		return errors.Wrapf(ErrThresholdSubs, "%d of %d", c.K, len(c.Of))
	}

	for i, sub := range c.Of {
		b.AddData(schnorr.SerializePubKey(sub.(Key).Pk))
		if i == 0 {
			b.AddOp(txscript.OP_CHECKSIG)
		} else {
			b.AddOp(txscript.OP_CHECKSIGADD)
		}
	}
	b.AddInt64(int64(c.K))
	if verify {
		b.AddOp(txscript.OP_NUMEQUALVERIFY)
	} else {
		b.AddOp(txscript.OP_NUMEQUAL)
	}
	return nil
}

// emitOr writes a witness-selected branch chain:
// IF subs[0] ELSE (rest) ENDIF.
func emitOr(b *txscript.ScriptBuilder, subs []Clause, depth int) error {
	if depth > maxDepth {
		return ErrTooDeep
	}
	b.AddOp(txscript.OP_IF)
	err := emit(b, subs[0], false, depth+1)
	if err != nil {
		return err
	}
	b.AddOp(txscript.OP_ELSE)
	if len(subs) == 2 {
		err = emit(b, subs[1], false, depth+1)
	} else {
		err = emitOr(b, subs[1:], depth+1)
	}
	if err != nil {
		return err
	}
	b.AddOp(txscript.OP_ENDIF)
	return nil
}
