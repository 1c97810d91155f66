package contract

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/Georgantas/sapio/effects"
	"github.com/Georgantas/sapio/testutil"
)

func testContext(funds btcutil.Amount) *Context {
	return NewContext(&chaincfg.RegressionNetParams, funds, nil, nil, nil)
}

func TestContextDefaults(t *testing.T) {
	ctx := testContext(100000)
	testutil.ExpectEqual(t, ctx.Path().String(), "root", "default path")
	if ctx.emulator == nil {
		t.Fatal("no default emulator")
	}
	if ctx.effects == nil {
		t.Fatal("no default effect db")
	}
}

func TestDeriveConflict(t *testing.T) {
	ctx := testContext(0)
	child, err := ctx.Derive(effects.ThenFn)
	testutil.FatalErr(t, err)
	testutil.ExpectEqual(t, child.Path().String(), "root/thenfn", "derived path")

	testutil.ExpectError(t, ErrDerivationConflict, "re-deriving sibling", func() error {
		_, err := ctx.Derive(effects.ThenFn)
		return err
	})

	// A fresh child scope starts clean.
	_, err = child.Derive(effects.ThenFn)
	testutil.FatalErr(t, err)
}

func TestDeriveNamedValidation(t *testing.T) {
	ctx := testContext(0)
	testutil.ExpectError(t, effects.ErrBadFragment, "reserved name", func() error {
		_, err := ctx.DeriveNamed("thenfn")
		return err
	})
	testutil.ExpectError(t, effects.ErrBadFragment, "empty name", func() error {
		_, err := ctx.DeriveNamed("")
		return err
	})
	child, err := ctx.DeriveNamed("escrow")
	testutil.FatalErr(t, err)
	testutil.ExpectEqual(t, child.Path().String(), "root/escrow", "named path")
}

func TestChildSkipsTracking(t *testing.T) {
	ctx := testContext(0)
	a := ctx.child(effects.Branch(0))
	b := ctx.child(effects.Branch(0))
	testutil.ExpectEqual(t, a.Path().String(), b.Path().String(), "untracked siblings")
}

func TestWithFunds(t *testing.T) {
	ctx := testContext(5000)
	narrowed := ctx.withFunds(1200)
	testutil.ExpectEqual(t, int64(narrowed.Funds()), int64(1200), "narrowed funds")
	testutil.ExpectEqual(t, int64(ctx.Funds()), int64(5000), "original funds")
}
