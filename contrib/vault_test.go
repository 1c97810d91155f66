package contrib

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/Georgantas/sapio/contract"
	"github.com/Georgantas/sapio/testutil"
)

func TestVaultCompiles(t *testing.T) {
	keys := testutil.TestKeys(2)
	v := Vault{Hot: keys[0], Cold: keys[1], Delay: 144}

	ctx := contract.NewContext(&chaincfg.RegressionNetParams, 1000000, nil, nil, nil)
	compiled, err := contract.Compile(ctx, v)
	testutil.FatalErr(t, err)

	testutil.ExpectEqual(t, len(compiled.CTVToTx), 2, "first-step templates")

	var begin *contract.Template
	for _, tmpl := range compiled.CTVToTx {
		if tmpl.Label == "begin withdrawal" {
			begin = tmpl
		}
	}
	if begin == nil {
		t.Fatal("begin-withdrawal template not recorded")
	}

	inner := begin.Outputs[0].Receiver
	if inner == nil {
		t.Fatal("unvaulting artifact not retained")
	}
	testutil.ExpectEqual(t, len(inner.CTVToTx), 1, "unvaulting templates")
	testutil.ExpectEqual(t, int64(inner.AmountRange.Max()), int64(1000000), "funds flow through")
}

func TestVaultDeterministic(t *testing.T) {
	keys := testutil.TestKeys(2)
	v := Vault{Hot: keys[0], Cold: keys[1], Delay: 144}

	build := func() *contract.Compiled {
		ctx := contract.NewContext(&chaincfg.RegressionNetParams, 1000000, nil, nil, nil)
		compiled, err := contract.Compile(ctx, v)
		testutil.FatalErr(t, err)
		return compiled
	}
	a, b := build(), build()
	testutil.ExpectEqual(t, a.Address.String(), b.Address.String(), "address")
	testutil.ExpectEqual(t, a.Descriptor, b.Descriptor, "descriptor")
}
