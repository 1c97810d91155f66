// Package contrib holds ready-made contracts built on the compilation
// engine. They double as usage references for writing new contracts.
package contrib

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/Georgantas/sapio/contract"
	"github.com/Georgantas/sapio/policy"
)

// Vault is a two-phase custody contract. Funds can always be swept to
// cold storage in one step; paying the hot key requires first moving
// through a committed unvaulting step and then waiting out a relative
// delay, leaving a window to sweep an unauthorized withdrawal.
type Vault struct {
	contract.Base

	Hot  *btcec.PublicKey
	Cold *btcec.PublicKey
	// Delay is the BIP-68 relative timelock between unvaulting and
	// the hot key's claim.
	Delay uint32
}

func (v Vault) ThenFuncs() []contract.ThenFunc {
	return []contract.ThenFunc{
		{
			Name: "begin-withdrawal",
			F: func(ctx *contract.Context) ([]*contract.Template, error) {
				next := unvaulting{hot: v.Hot, cold: v.Cold, delay: v.Delay}
				return ctx.Template().
					SetLabel("begin withdrawal").
					AddOutput(ctx.Funds(), contract.AsCompilable(next)).
					Templates()
			},
		},
		{
			Name: "to-cold",
			F: func(ctx *contract.Context) ([]*contract.Template, error) {
				return ctx.Template().
					SetLabel("sweep to cold").
					AddOutput(ctx.Funds(), contract.KeySpend{Key: v.Cold}).
					Templates()
			},
		},
	}
}

// unvaulting is the intermediate step: the hot key claims after the
// delay, or the cold key sweeps immediately.
type unvaulting struct {
	contract.Base

	hot   *btcec.PublicKey
	cold  *btcec.PublicKey
	delay uint32
}

func (u unvaulting) FinishFuncs() []contract.Guard {
	return []contract.Guard{
		{Name: "claim-hot", F: func(*contract.Context) policy.Clause {
			return policy.And{Subs: []policy.Clause{
				policy.Key{Pk: u.hot},
				policy.Older{N: u.delay},
			}}
		}},
	}
}

func (u unvaulting) ThenFuncs() []contract.ThenFunc {
	return []contract.ThenFunc{{
		Name: "abort-to-cold",
		F: func(ctx *contract.Context) ([]*contract.Template, error) {
			return ctx.Template().
				SetLabel("abort to cold").
				AddOutput(ctx.Funds(), contract.KeySpend{Key: u.cold}).
				Templates()
		},
	}}
}
