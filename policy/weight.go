package policy

// Witness weight constants. A schnorr signature is 64 or 65 bytes
// (with an optional sighash byte) plus its compact-size length prefix.
const (
	sigWitnessWeight   = 66
	emptyWitnessWeight = 1
	branchSelectWeight = 2
)

// MaxWitnessSize estimates the worst-case witness weight, in weight
// units, needed to satisfy c. It is an upper bound used for fee-safety
// estimation, not an exact satisfaction cost.
func MaxWitnessSize(c Clause) int {
	switch c := c.(type) {
	case Key:
		return sigWitnessWeight
	case Threshold:
		allKeys := true
		for _, sub := range c.Of {
			if _, ok := sub.(Key); !ok {
				allKeys = false
				break
			}
		}
		if allKeys {
			// K signatures plus an empty push per unused key.
			return c.K*sigWitnessWeight + (len(c.Of)-c.K)*emptyWitnessWeight
		}
		switch c.K {
		case len(c.Of):
			return MaxWitnessSize(And{Subs: c.Of})
		case 1:
			return MaxWitnessSize(Or{Subs: c.Of})
		}
		return 0
	case And:
		n := 0
		for _, sub := range c.Subs {
			n += MaxWitnessSize(sub)
		}
		return n
	case Or:
		max := 0
		for _, sub := range c.Subs {
			if w := MaxWitnessSize(sub); w > max {
				max = w
			}
		}
		if len(c.Subs) < 2 {
			return max
		}
		// One selector push per branch point.
		return max + (len(c.Subs)-1)*branchSelectWeight
	default:
		// Timelocks, templates, and constants need no witness data.
		return 0
	}
}
