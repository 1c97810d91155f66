package emulator

import (
	"context"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Georgantas/sapio/errors"
	"github.com/Georgantas/sapio/log"
	"github.com/Georgantas/sapio/policy"
)

var (
	ErrBadFederation    = errors.New("bad federation parameters")
	ErrOracleDerivation = errors.New("oracle key derivation failed")
)

// Federated emulates the commitment mechanism with a federation of
// oracles. Each oracle holds an extended key; for a given template
// hash every oracle derives a dedicated child key and signs only the
// exact committed transaction with it. The resulting spending
// condition is a threshold over those per-template keys.
type Federated struct {
	threshold int
	roots     []*hdkeychain.ExtendedKey
}

// NewFederated returns a Federated emulator requiring threshold of the
// given oracle extended public keys.
func NewFederated(threshold int, roots []*hdkeychain.ExtendedKey) (*Federated, error) {
	if threshold < 1 || threshold > len(roots) {
		return nil, errors.Wrapf(ErrBadFederation, "threshold %d of %d oracles", threshold, len(roots))
	}
	return &Federated{threshold: threshold, roots: roots}, nil
}

func (f *Federated) ConditionFor(h chainhash.Hash) (policy.Clause, error) {
	path := hashToChildIndexes(h)
	subs := make([]policy.Clause, 0, len(f.roots))
	for i, root := range f.roots {
		key := root
		for _, idx := range path {
			var err error
			key, err = key.Derive(idx)
			if err != nil {
				err = errors.Wrapf(ErrOracleDerivation, "oracle %d: %s", i, err)
				log.Error(context.Background(), err, "emulating commitment condition")
				return nil, err
			}
		}
		pub, err := key.ECPubKey()
		if err != nil {
			return nil, errors.Wrapf(ErrOracleDerivation, "oracle %d: %s", i, err)
		}
		subs = append(subs, policy.Key{Pk: pub})
	}
	if f.threshold == len(subs) && len(subs) == 1 {
		return subs[0], nil
	}
	return policy.Threshold{K: f.threshold, Of: subs}, nil
}

// hashToChildIndexes splits a 32-byte hash into eight 31-bit
// non-hardened derivation indexes, so xpub-only oracle clients can
// derive the same per-template keys.
func hashToChildIndexes(h chainhash.Hash) []uint32 {
	idx := make([]uint32, 8)
	for i := range idx {
		idx[i] = binary.BigEndian.Uint32(h[i*4:]) & 0x7fffffff
	}
	return idx
}
