package contract

import "github.com/btcsuite/btcd/btcutil"

// AmountRange tracks the minimum and maximum funds a compiled contract
// output may hold, updated with each template's committed total.
type AmountRange struct {
	min btcutil.Amount
	max btcutil.Amount
}

// NewAmountRange returns an empty range: any update narrows it.
func NewAmountRange() AmountRange {
	return AmountRange{min: btcutil.MaxSatoshi, max: 0}
}

// Update widens the range to include a.
func (r *AmountRange) Update(a btcutil.Amount) {
	if a < r.min {
		r.min = a
	}
	if a > r.max {
		r.max = a
	}
}

// Min returns the smallest recorded amount, or 0 for an empty range.
func (r AmountRange) Min() btcutil.Amount {
	if r.min > r.max {
		return 0
	}
	return r.min
}

// Max returns the largest recorded amount, or 0 for an empty range.
func (r AmountRange) Max() btcutil.Amount {
	if r.min > r.max {
		return 0
	}
	return r.max
}
