package policy

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"github.com/Georgantas/sapio/errors"
	"github.com/Georgantas/sapio/testutil"
)

func TestCompileKey(t *testing.T) {
	keys := testutil.TestKeys(1)
	got, err := Compile(Key{Pk: keys[0]})
	if err != nil {
		testutil.FatalErr(t, err)
	}
	want, err := txscript.NewScriptBuilder().
		AddData(schnorr.SerializePubKey(keys[0])).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		t.Fatal(err)
	}
	testutil.ExpectScriptEqual(t, got, want, "single key")
}

func TestCompileThreshold(t *testing.T) {
	keys := testutil.TestKeys(3)
	var subs []Clause
	for _, k := range keys {
		subs = append(subs, Key{Pk: k})
	}
	got, err := Compile(Threshold{K: 2, Of: subs})
	if err != nil {
		testutil.FatalErr(t, err)
	}
	want, err := txscript.NewScriptBuilder().
		AddData(schnorr.SerializePubKey(keys[0])).
		AddOp(txscript.OP_CHECKSIG).
		AddData(schnorr.SerializePubKey(keys[1])).
		AddOp(txscript.OP_CHECKSIGADD).
		AddData(schnorr.SerializePubKey(keys[2])).
		AddOp(txscript.OP_CHECKSIGADD).
		AddInt64(2).
		AddOp(txscript.OP_NUMEQUAL).
		Script()
	if err != nil {
		t.Fatal(err)
	}
	testutil.ExpectScriptEqual(t, got, want, "2 of 3 keys")
}

func TestCompileAndTimelock(t *testing.T) {
	keys := testutil.TestKeys(1)
	got, err := Compile(And{Subs: []Clause{Older{N: 6}, Key{Pk: keys[0]}}})
	if err != nil {
		testutil.FatalErr(t, err)
	}
	want, err := txscript.NewScriptBuilder().
		AddInt64(6).
		AddOp(txscript.OP_CHECKSEQUENCEVERIFY).
		AddOp(txscript.OP_DROP).
		AddData(schnorr.SerializePubKey(keys[0])).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		t.Fatal(err)
	}
	testutil.ExpectScriptEqual(t, got, want, "csv then key")
}

func TestCompileOr(t *testing.T) {
	keys := testutil.TestKeys(2)
	got, err := Compile(Or{Subs: []Clause{Key{Pk: keys[0]}, Key{Pk: keys[1]}}})
	if err != nil {
		testutil.FatalErr(t, err)
	}
	want, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_IF).
		AddData(schnorr.SerializePubKey(keys[0])).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_ELSE).
		AddData(schnorr.SerializePubKey(keys[1])).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_ENDIF).
		Script()
	if err != nil {
		t.Fatal(err)
	}
	testutil.ExpectScriptEqual(t, got, want, "two-key disjunction")
}

func TestCompileTemplateHash(t *testing.T) {
	var h chainhash.Hash
	for i := range h {
		h[i] = byte(i)
	}
	got, err := Compile(TxTemplate{Hash: h})
	if err != nil {
		testutil.FatalErr(t, err)
	}
	want, err := txscript.NewScriptBuilder().
		AddData(h[:]).
		AddOp(txscript.OP_NOP4).
		Script()
	if err != nil {
		t.Fatal(err)
	}
	testutil.ExpectScriptEqual(t, got, want, "commitment condition")

	// In a conjunction the committed hash must be dropped mid-script.
	keys := testutil.TestKeys(1)
	got, err = Compile(And{Subs: []Clause{TxTemplate{Hash: h}, Key{Pk: keys[0]}}})
	if err != nil {
		testutil.FatalErr(t, err)
	}
	if !bytes.Contains(got, []byte{txscript.OP_NOP4, txscript.OP_DROP}) {
		s, _ := txscript.DisasmString(got)
		t.Errorf("conjunction with commitment should drop the hash: %s", s)
	}
}

func TestCompileConstants(t *testing.T) {
	got, err := Compile(Trivial{})
	if err != nil {
		testutil.FatalErr(t, err)
	}
	testutil.ExpectScriptEqual(t, got, []byte{txscript.OP_1}, "trivial")

	got, err = Compile(Unsatisfiable{})
	if err != nil {
		testutil.FatalErr(t, err)
	}
	testutil.ExpectScriptEqual(t, got, []byte{txscript.OP_0}, "unsatisfiable")
}

func TestCompileThresholdErrors(t *testing.T) {
	keys := testutil.TestKeys(2)
	subs := []Clause{Key{Pk: keys[0]}, Key{Pk: keys[1]}}

	cases := []struct {
		c    Clause
		want error
	}{
		{Threshold{K: 0, Of: subs}, ErrBadThreshold},
		{Threshold{K: 3, Of: subs}, ErrBadThreshold},
		{Threshold{K: 2, Of: []Clause{Key{Pk: keys[0]}, Older{N: 5}, Older{N: 7}}}, ErrThresholdSubs},
	}
	for _, c := range cases {
		if _, err := Compile(c.c); errors.Root(err) != c.want {
			t.Errorf("Compile(%#v) err = %v want %v", c.c, err, c.want)
		}
	}

	// Degenerate corners of a non-key threshold stay expressible.
	if _, err := Compile(Threshold{K: 2, Of: []Clause{Key{Pk: keys[0]}, Older{N: 5}}}); err != nil {
		t.Errorf("k=n threshold over mixed subexpressions: %v", err)
	}
	if _, err := Compile(Threshold{K: 1, Of: []Clause{Key{Pk: keys[0]}, Older{N: 5}}}); err != nil {
		t.Errorf("k=1 threshold over mixed subexpressions: %v", err)
	}
}

func TestCompileTooDeep(t *testing.T) {
	keys := testutil.TestKeys(1)
	c := Clause(Key{Pk: keys[0]})
	for i := 0; i < maxDepth+2; i++ {
		c = Or{Subs: []Clause{c, Trivial{}}}
	}
	if _, err := Compile(c); errors.Root(err) != ErrTooDeep {
		t.Errorf("deeply nested clause err = %v want ErrTooDeep", err)
	}
}

func TestMaxWitnessSize(t *testing.T) {
	keys := testutil.TestKeys(3)
	var subs []Clause
	for _, k := range keys {
		subs = append(subs, Key{Pk: k})
	}
	cases := []struct {
		c    Clause
		want int
	}{
		{Key{Pk: keys[0]}, sigWitnessWeight},
		{Threshold{K: 2, Of: subs}, 2*sigWitnessWeight + 1},
		{And{Subs: []Clause{Older{N: 6}, Key{Pk: keys[0]}}}, sigWitnessWeight},
		{Or{Subs: subs[:2]}, sigWitnessWeight + branchSelectWeight},
		{Trivial{}, 0},
		{Unsatisfiable{}, 0},
		{TxTemplate{}, 0},
	}
	for _, c := range cases {
		if got := MaxWitnessSize(c.c); got != c.want {
			t.Errorf("MaxWitnessSize(%#v) = %d want %d", c.c, got, c.want)
		}
	}
}

func TestIsTrivialUnsatisfiable(t *testing.T) {
	if !IsTrivial(Trivial{}) || IsTrivial(Unsatisfiable{}) || IsTrivial(And{}) {
		t.Error("IsTrivial misclassifies")
	}
	if !IsUnsatisfiable(Unsatisfiable{}) || IsUnsatisfiable(Trivial{}) || IsUnsatisfiable(Or{}) {
		t.Error("IsUnsatisfiable misclassifies")
	}
}

func TestConjoin(t *testing.T) {
	keys := testutil.TestKeys(2)
	if !IsTrivial(Conjoin()) {
		t.Error("empty conjunction should be trivial")
	}
	if _, ok := Conjoin(Key{Pk: keys[0]}).(Key); !ok {
		t.Error("single-clause conjunction should be the clause itself")
	}
	and, ok := Conjoin(Key{Pk: keys[0]}, Key{Pk: keys[1]}).(And)
	if !ok || len(and.Subs) != 2 {
		t.Errorf("Conjoin(2 clauses) = %#v want And of 2", and)
	}
}
