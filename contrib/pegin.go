package contrib

import (
	"encoding/json"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/Georgantas/sapio/contract"
	"github.com/Georgantas/sapio/errors"
	"github.com/Georgantas/sapio/policy"
)

// FederatedPegIn locks funds under a federation quorum. Members can
// spend cooperatively at any time, a separate recovery quorum can
// claim after an emergency delay, and withdrawal transactions proposed
// out of band are compiled in as suggested templates.
type FederatedPegIn struct {
	contract.Base

	Federation []*btcec.PublicKey
	Threshold  int

	Recovery          []*btcec.PublicKey
	RecoveryThreshold int
	// EmergencyDelay is the relative timelock before the recovery
	// quorum may act.
	EmergencyDelay uint32
}

// WithdrawalSchema describes the argument accepted by the
// propose-withdrawal continuation.
var WithdrawalSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"address": {"type": "string"},
		"amount": {"type": "integer", "minimum": 0}
	},
	"required": ["address", "amount"]
}`)

type withdrawalArg struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

func (p FederatedPegIn) federationClause() policy.Clause {
	subs := make([]policy.Clause, 0, len(p.Federation))
	for _, k := range p.Federation {
		subs = append(subs, policy.Key{Pk: k})
	}
	return policy.Threshold{K: p.Threshold, Of: subs}
}

func (p FederatedPegIn) FinishFuncs() []contract.Guard {
	return []contract.Guard{
		{Name: "federation", F: func(*contract.Context) policy.Clause {
			return p.federationClause()
		}},
		{Name: "recovery", F: func(*contract.Context) policy.Clause {
			if len(p.Recovery) == 0 {
				return nil
			}
			subs := make([]policy.Clause, 0, len(p.Recovery))
			for _, k := range p.Recovery {
				subs = append(subs, policy.Key{Pk: k})
			}
			return policy.And{Subs: []policy.Clause{
				policy.Threshold{K: p.RecoveryThreshold, Of: subs},
				policy.Older{N: p.EmergencyDelay},
			}}
		}},
	}
}

func (p FederatedPegIn) FinishOrFuncs() []contract.FinishOrFunc {
	return []contract.FinishOrFunc{{
		Name: "propose-withdrawal",
		Guards: []contract.Guard{{Name: "federation", F: func(*contract.Context) policy.Clause {
			return p.federationClause()
		}}},
		Schema: WithdrawalSchema,
		F: func(ctx *contract.Context, arg json.RawMessage) ([]*contract.Template, error) {
			if arg == nil {
				// Nothing proposed yet.
				return nil, nil
			}
			var w withdrawalArg
			if err := json.Unmarshal(arg, &w); err != nil {
				return nil, errors.Wrap(err, "withdrawal argument")
			}
			addr, err := btcutil.DecodeAddress(w.Address, ctx.Network())
			if err != nil {
				return nil, errors.Wrapf(err, "withdrawal address %q", w.Address)
			}
			amt := btcutil.Amount(w.Amount)
			rng := contract.NewAmountRange()
			rng.Update(amt)
			b := ctx.Template().
				SetLabel("withdrawal to " + w.Address).
				AddOutput(amt, contract.FromAddress(addr, rng))
			if change := ctx.Funds() - amt; change > 0 {
				b.AddOutput(change, contract.AsCompilable(p))
			}
			return b.Templates()
		},
	}}
}
