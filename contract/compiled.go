package contract

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"github.com/Georgantas/sapio/effects"
	"github.com/Georgantas/sapio/errors"
)

// Compilable is anything the engine can turn into a Compiled
// artifact. The set is fixed: contract instances (through Compile or
// AsCompilable), already-finalized artifacts, and raw spendable keys.
type Compilable interface {
	Compile(ctx *Context) (*Compiled, error)
}

// Compiled is the final artifact of one compilation: a deployable
// address, the committed templates behind it, and the lookup tables
// downstream binding needs. It is immutable once returned.
type Compiled struct {
	Address    btcutil.Address
	Descriptor string

	// CTVToTx maps each commitment hash to its enforced template.
	CTVToTx map[chainhash.Hash]*Template
	// SuggestedTxs maps hashes of ungated, suggested templates.
	SuggestedTxs map[chainhash.Hash]*Template
	// ContinuationPoints maps derived path strings to the extension
	// points where external arguments may resume compilation.
	ContinuationPoints map[string]ContinuationPoint

	AmountRange AmountRange
	RootPath    *effects.Path
}

// Compile returns the artifact itself: an already-compiled contract
// embeds as-is.
func (c *Compiled) Compile(*Context) (*Compiled, error) {
	return c, nil
}

// ScriptPubKey returns the output script paying to the artifact.
func (c *Compiled) ScriptPubKey() ([]byte, error) {
	return txscript.PayToAddrScript(c.Address)
}

// FromAddress wraps a plain address as an artifact, for paying out of
// a contract to a destination that is not itself compiled.
func FromAddress(addr btcutil.Address, amt AmountRange) *Compiled {
	return &Compiled{Address: addr, AmountRange: amt}
}

// KeySpend compiles a bare public key to a key-path-only taproot
// output holding the context's funds.
type KeySpend struct {
	Key *btcec.PublicKey
}

func (k KeySpend) Compile(ctx *Context) (*Compiled, error) {
	outputKey := txscript.ComputeTaprootKeyNoScript(k.Key)
	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), ctx.Network())
	if err != nil {
		return nil, errors.Wrap(err, "key spend address")
	}
	amt := NewAmountRange()
	amt.Update(ctx.Funds())
	return &Compiled{
		Address:     addr,
		Descriptor:  fmt.Sprintf("tr(%s)", hex.EncodeToString(schnorr.SerializePubKey(k.Key))),
		AmountRange: amt,
		RootPath:    ctx.Path(),
	}, nil
}

// AsCompilable adapts a contract instance for use as an output
// destination.
func AsCompilable(c Contract) Compilable {
	return compilableContract{c}
}

type compilableContract struct {
	c Contract
}

func (cc compilableContract) Compile(ctx *Context) (*Compiled, error) {
	return Compile(ctx, cc.c)
}
