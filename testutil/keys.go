package testutil

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Deterministic seed so that tests (and the scripts and addresses they
// derive) are reproducible across runs.
var testSeed = []byte{
	0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c,
	0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c,
	0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c,
	0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c, 0x2c,
}

var (
	TestXPrv *hdkeychain.ExtendedKey
	TestXPub *hdkeychain.ExtendedKey
)

func init() {
	var err error
	TestXPrv, err = hdkeychain.NewMaster(testSeed, &chaincfg.RegressionNetParams)
	if err != nil {
		panic(err)
	}
	TestXPub, err = TestXPrv.Neuter()
	if err != nil {
		panic(err)
	}
}

// TestKeys derives n deterministic public keys from the test master key.
func TestKeys(n int) []*btcec.PublicKey {
	keys := make([]*btcec.PublicKey, 0, n)
	for i := 0; i < n; i++ {
		child, err := TestXPrv.Derive(uint32(i))
		if err != nil {
			panic(err)
		}
		pub, err := child.ECPubKey()
		if err != nil {
			panic(err)
		}
		keys = append(keys, pub)
	}
	return keys
}
