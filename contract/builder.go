package contract

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/Georgantas/sapio/effects"
	"github.com/Georgantas/sapio/errors"
	"github.com/Georgantas/sapio/math/checked"
	"github.com/Georgantas/sapio/policy"
)

// TemplateBuilder assembles one committed next transaction inside a
// transition function. Calls chain; the first failure sticks and
// surfaces from Build, so transition bodies stay linear.
type TemplateBuilder struct {
	ctx   *Context
	tmpl  Template
	spent int64
	err   error
}

// AddOutput compiles dest under a per-output branch of the builder's
// context, narrowed to amount, and appends the resulting output. The
// running total may not exceed the context's funds.
func (b *TemplateBuilder) AddOutput(amount btcutil.Amount, dest Compilable) *TemplateBuilder {
	if b.err != nil {
		return b
	}
	spent, ok := checked.AddInt64(b.spent, int64(amount))
	if !ok {
		b.err = errors.Wrap(ErrAmountOverflow, "template output total")
		return b
	}
	if spent > int64(b.ctx.Funds()) {
		b.err = errors.Wrapf(ErrOutOfFunds, "spending %v of %v at %s", btcutil.Amount(spent), b.ctx.Funds(), b.ctx.Path())
		return b
	}
	sub := b.ctx.child(effects.Branch(uint64(len(b.tmpl.Outputs)))).withFunds(amount)
	compiled, err := dest.Compile(sub)
	if err != nil {
		b.err = errors.Wrapf(err, "output %d at %s", len(b.tmpl.Outputs), b.ctx.Path())
		return b
	}
	script, err := compiled.ScriptPubKey()
	if err != nil {
		b.err = errors.Wrapf(err, "output %d script", len(b.tmpl.Outputs))
		return b
	}
	b.spent = spent
	b.tmpl.Outputs = append(b.tmpl.Outputs, Output{
		Amount:   amount,
		Script:   script,
		Receiver: compiled,
	})
	return b
}

// SetSequence sets the sequence number of input i, growing the input
// list as needed. Inputs added by growth default to final sequences.
func (b *TemplateBuilder) SetSequence(i int, seq uint32) *TemplateBuilder {
	if b.err != nil {
		return b
	}
	for len(b.tmpl.Sequences) <= i {
		b.tmpl.Sequences = append(b.tmpl.Sequences, wire.MaxTxInSequenceNum)
	}
	b.tmpl.Sequences[i] = seq
	return b
}

// SetLockTime sets the committed transaction's absolute locktime.
func (b *TemplateBuilder) SetLockTime(lt uint32) *TemplateBuilder {
	if b.err == nil {
		b.tmpl.LockTime = lt
	}
	return b
}

// SetMinFeeRate declares the minimum fee rate, in satoshis per vbyte,
// the template must be able to pay out of unallocated funds.
func (b *TemplateBuilder) SetMinFeeRate(rate btcutil.Amount) *TemplateBuilder {
	if b.err == nil {
		b.tmpl.MinFeeRate = rate
	}
	return b
}

// AddGuard attaches an extra spending condition to the template,
// merged with the commitment condition when the script tree is built.
func (b *TemplateBuilder) AddGuard(c policy.Clause) *TemplateBuilder {
	if b.err == nil {
		b.tmpl.Guards = append(b.tmpl.Guards, c)
	}
	return b
}

// SetLabel names the template for diagnostics.
func (b *TemplateBuilder) SetLabel(label string) *TemplateBuilder {
	if b.err == nil {
		b.tmpl.Label = label
	}
	return b
}

// Build finalizes the template or reports the first chained failure.
func (b *TemplateBuilder) Build() (*Template, error) {
	if b.err != nil {
		return nil, b.err
	}
	t := b.tmpl
	return &t, nil
}

// Templates is Build wrapped as a single-template transition result.
func (b *TemplateBuilder) Templates() ([]*Template, error) {
	t, err := b.Build()
	if err != nil {
		return nil, err
	}
	return []*Template{t}, nil
}
