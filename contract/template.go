package contract

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/Georgantas/sapio/errors"
	"github.com/Georgantas/sapio/math/checked"
	"github.com/Georgantas/sapio/policy"
)

// ErrAmountOverflow is returned when output amounts do not sum within
// the satoshi range.
var ErrAmountOverflow = errors.New("output amounts overflow")

// Output is one pre-committed transaction output: an amount, the
// scriptPubKey of the receiving contract or address, and, when the
// destination was itself compiled, its artifact, retained so that
// downstream binding can walk nested contracts.
type Output struct {
	Amount   btcutil.Amount
	Script   []byte
	Receiver *Compiled
}

// Template is a pre-committed next transaction. Two templates with the
// same commitment hash are the same logical transaction.
//
// Guards carries extra spending conditions attached by the transition
// that produced the template; the clause accumulator merges them with
// the commitment condition.
type Template struct {
	Version   int32
	LockTime  uint32
	Sequences []uint32 // sequence number per input, in input order
	Outputs   []Output
	// MinFeeRate is a declared minimum fee rate in satoshis per vbyte.
	// Zero means unconstrained.
	MinFeeRate btcutil.Amount
	Guards     []policy.Clause
	Label      string
}

// Tx assembles the committed transaction. Inputs have empty outpoints
// and scripts; only their count and sequence numbers are committed.
func (t *Template) Tx() *wire.MsgTx {
	version := t.Version
	if version == 0 {
		version = 2
	}
	tx := wire.NewMsgTx(version)
	tx.LockTime = t.LockTime
	seqs := t.Sequences
	if len(seqs) == 0 {
		seqs = []uint32{wire.MaxTxInSequenceNum}
	}
	for _, seq := range seqs {
		tx.AddTxIn(&wire.TxIn{Sequence: seq})
	}
	for _, out := range t.Outputs {
		tx.AddTxOut(wire.NewTxOut(int64(out.Amount), out.Script))
	}
	return tx
}

// Hash computes the BIP-119 default template hash of the committed
// transaction at spending input index 0. It is the commitment value
// and the deduplication key for templates.
func (t *Template) Hash() chainhash.Hash {
	tx := t.Tx()

	var seqBuf bytes.Buffer
	for _, in := range tx.TxIn {
		binary.Write(&seqBuf, binary.LittleEndian, in.Sequence)
	}
	seqHash := sha256.Sum256(seqBuf.Bytes())

	var outBuf bytes.Buffer
	for _, out := range tx.TxOut {
		wire.WriteTxOut(&outBuf, 0, tx.Version, out)
	}
	outHash := sha256.Sum256(outBuf.Bytes())

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, tx.Version)
	binary.Write(&buf, binary.LittleEndian, tx.LockTime)
	// No input carries a scriptSig, so the optional scriptSig hash
	// field is omitted per BIP-119.
	binary.Write(&buf, binary.LittleEndian, uint32(len(tx.TxIn)))
	buf.Write(seqHash[:])
	binary.Write(&buf, binary.LittleEndian, uint32(len(tx.TxOut)))
	buf.Write(outHash[:])
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // input index

	return chainhash.Hash(sha256.Sum256(buf.Bytes()))
}

// Total returns the sum of the committed output amounts.
func (t *Template) Total() (btcutil.Amount, error) {
	var sum int64
	for _, out := range t.Outputs {
		var ok bool
		sum, ok = checked.AddInt64(sum, int64(out.Amount))
		if !ok {
			return 0, errors.Wrapf(ErrAmountOverflow, "template %q", t.Label)
		}
	}
	return btcutil.Amount(sum), nil
}

// Weight returns the weight of the committed transaction, excluding
// witness data (the satisfaction weight is estimated separately
// against the finished script tree).
func (t *Template) Weight() int {
	return 4 * t.Tx().SerializeSizeStripped()
}
