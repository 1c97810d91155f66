package contract

import "github.com/Georgantas/sapio/errors"

// Compilation error kinds. Compilation aborts atomically on the first
// of these; no partial artifact is ever returned.
var (
	// ErrDerivationConflict is returned when a sibling path fragment
	// is derived twice under the same parent, e.g. two transitions
	// sharing a name.
	ErrDerivationConflict = errors.New("duplicate sibling path derivation")

	// ErrCondCompileFailed is returned when a conditional-compile
	// predicate rejected a transition that turned out non-empty.
	ErrCondCompileFailed = errors.New("conditional compilation failed")

	// ErrMissingTemplates is returned when a required transition
	// produced zero templates.
	ErrMissingTemplates = errors.New("required transition produced no templates")

	// ErrUnsatisfiableGuard is returned when a transition produced
	// templates behind a statically unsatisfiable guard; pruning is
	// the job of the conditional-compile predicate, so this signals
	// a modeling mistake.
	ErrUnsatisfiableGuard = errors.New("unsatisfiable guard with templates present")

	// ErrGuardDisagreement is returned when a suggested template
	// would need guards beyond those first recorded for its hash.
	ErrGuardDisagreement = errors.New("suggested template guards disagree")

	// ErrGuardReentrancy is returned when a guard function requests
	// its own cache entry while it is being computed.
	ErrGuardReentrancy = errors.New("reentrant guard evaluation")

	// ErrUnnamedGuard is returned for a guard record with no name;
	// names key the per-compilation guard cache.
	ErrUnnamedGuard = errors.New("guard has no name")

	// ErrMinFeerate is returned when a gated template declares a
	// minimum fee rate that available fees cannot satisfy at the
	// estimated spend size.
	ErrMinFeerate = errors.New("insufficient fees for declared minimum fee rate")

	// ErrOutOfFunds is returned when a template's outputs exceed the
	// funds available in its context.
	ErrOutOfFunds = errors.New("template outputs exceed available funds")

	// ErrEmulator wraps a failed emulator round trip.
	ErrEmulator = errors.New("emulator call failed")

	// ErrEffectLookup wraps a failed effect-lookup call.
	ErrEffectLookup = errors.New("effect lookup failed")
)
