package contract

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
)

func testScript(t *testing.T) []byte {
	t.Helper()
	s, err := txscript.NewScriptBuilder().AddOp(txscript.OP_1).Script()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestHashDeterministic(t *testing.T) {
	mk := func() *Template {
		return &Template{
			Sequences: []uint32{6},
			Outputs:   []Output{{Amount: 100000, Script: testScript(t)}},
		}
	}
	a, b := mk(), mk()
	if a.Hash() != b.Hash() {
		t.Error("identical templates must share a commitment hash")
	}
}

func TestHashCommitsToFields(t *testing.T) {
	base := Template{
		Sequences: []uint32{6},
		Outputs:   []Output{{Amount: 100000, Script: testScript(t)}},
	}

	seq := base
	seq.Sequences = []uint32{7}

	amt := base
	amt.Outputs = []Output{{Amount: 100001, Script: testScript(t)}}

	lock := base
	lock.LockTime = 500

	h := base.Hash()
	for i, other := range []Template{seq, amt, lock} {
		if other.Hash() == h {
			t.Errorf("variant %d should change the commitment hash", i)
		}
	}
}

func TestHashIgnoresGuardsAndLabel(t *testing.T) {
	base := Template{
		Sequences: []uint32{6},
		Outputs:   []Output{{Amount: 100000, Script: testScript(t)}},
	}
	labeled := base
	labeled.Label = "escape hatch"
	labeled.MinFeeRate = 2
	if base.Hash() != labeled.Hash() {
		t.Error("label and fee rate are not part of the committed transaction")
	}
}

func TestDefaultInput(t *testing.T) {
	tmpl := Template{Outputs: []Output{{Amount: 1, Script: testScript(t)}}}
	tx := tmpl.Tx()
	if len(tx.TxIn) != 1 {
		t.Fatalf("default template should commit to one input, got %d", len(tx.TxIn))
	}
	if tx.Version != 2 {
		t.Errorf("default version = %d want 2", tx.Version)
	}
}

func TestTotal(t *testing.T) {
	tmpl := Template{Outputs: []Output{
		{Amount: 70000, Script: testScript(t)},
		{Amount: 30000, Script: testScript(t)},
	}}
	total, err := tmpl.Total()
	if err != nil {
		t.Fatal(err)
	}
	if total != 100000 {
		t.Errorf("Total = %d want 100000", total)
	}
}

func TestWeight(t *testing.T) {
	tmpl := Template{Outputs: []Output{{Amount: 1, Script: testScript(t)}}}
	if w := tmpl.Weight(); w <= 0 {
		t.Errorf("Weight = %d want > 0", w)
	}
}

func TestAmountRange(t *testing.T) {
	r := NewAmountRange()
	if r.Min() != 0 || r.Max() != 0 {
		t.Errorf("empty range = [%d, %d] want [0, 0]", r.Min(), r.Max())
	}
	r.Update(5000)
	r.Update(btcutil.Amount(100))
	r.Update(70)
	if r.Min() != 70 || r.Max() != 5000 {
		t.Errorf("range = [%d, %d] want [70, 5000]", r.Min(), r.Max())
	}
}
