package contrib

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/Georgantas/sapio/contract"
	"github.com/Georgantas/sapio/effects"
	"github.com/Georgantas/sapio/testutil"
)

func testPegIn(t *testing.T) FederatedPegIn {
	t.Helper()
	keys := testutil.TestKeys(5)
	return FederatedPegIn{
		Federation:        keys[:3],
		Threshold:         2,
		Recovery:          keys[3:],
		RecoveryThreshold: 2,
		EmergencyDelay:    4032,
	}
}

func TestPegInNoProposals(t *testing.T) {
	p := testPegIn(t)
	ctx := contract.NewContext(&chaincfg.RegressionNetParams, 5000000, nil, nil, nil)
	compiled, err := contract.Compile(ctx, p)
	testutil.FatalErr(t, err)

	testutil.ExpectEqual(t, len(compiled.CTVToTx), 0, "gated templates")
	testutil.ExpectEqual(t, len(compiled.SuggestedTxs), 0, "suggested templates")
	if _, ok := compiled.ContinuationPoints["root/finishorfn/suggested/propose-withdrawal"]; !ok {
		t.Fatal("withdrawal continuation not exposed")
	}
}

func TestPegInProposedWithdrawal(t *testing.T) {
	p := testPegIn(t)

	destKey := testutil.TestKeys(6)[5]
	dest, err := btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(txscript.ComputeTaprootKeyNoScript(destKey)),
		&chaincfg.RegressionNetParams)
	testutil.FatalErr(t, err)

	db := effects.NewMapDB()
	db.Set("root/finishorfn/suggested/propose-withdrawal", "w1",
		json.RawMessage(fmt.Sprintf(`{"address": %q, "amount": 1500000}`, dest.String())))

	ctx := contract.NewContext(&chaincfg.RegressionNetParams, 5000000, nil, nil, db)
	compiled, err := contract.Compile(ctx, p)
	testutil.FatalErr(t, err)

	testutil.ExpectEqual(t, len(compiled.SuggestedTxs), 1, "suggested templates")
	for _, tmpl := range compiled.SuggestedTxs {
		testutil.ExpectEqual(t, len(tmpl.Outputs), 2, "withdrawal plus change")
		testutil.ExpectEqual(t, int64(tmpl.Outputs[0].Amount), int64(1500000), "withdrawal amount")
		testutil.ExpectEqual(t, int64(tmpl.Outputs[1].Amount), int64(3500000), "change amount")
		if tmpl.Outputs[1].Receiver == nil {
			t.Fatal("change does not recurse into the peg")
		}
	}
}

func TestPegInBadWithdrawalAddress(t *testing.T) {
	p := testPegIn(t)
	db := effects.NewMapDB()
	db.Set("root/finishorfn/suggested/propose-withdrawal", "w1",
		json.RawMessage(`{"address": "notanaddress", "amount": 1}`))

	ctx := contract.NewContext(&chaincfg.RegressionNetParams, 5000000, nil, nil, db)
	if _, err := contract.Compile(ctx, p); err == nil {
		t.Fatal("compilation accepted a malformed withdrawal address")
	}
}
