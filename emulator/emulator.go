// Package emulator provides the collaborators that turn a commitment
// hash into a concrete on-chain spending condition. Where the target
// network enforces CHECKTEMPLATEVERIFY directly, the condition is the
// raw commitment; elsewhere a federation of oracles co-signs exact
// transactions, and the condition is a threshold over per-template
// oracle keys.
package emulator

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Georgantas/sapio/policy"
)

// CTVEmulator converts a commitment hash into the spending condition
// that enforces it. Implementations may call out of process; failures
// surface to the caller and are never retried here.
type CTVEmulator interface {
	ConditionFor(h chainhash.Hash) (policy.Clause, error)
}

// CTVAvailable is the emulator for networks where the commitment
// opcode itself is available.
type CTVAvailable struct{}

func (CTVAvailable) ConditionFor(h chainhash.Hash) (policy.Clause, error) {
	return policy.TxTemplate{Hash: h}, nil
}
