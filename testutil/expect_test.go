package testutil

import (
	"testing"

	"github.com/Georgantas/sapio/errors"
)

// FatalErr is routinely called on the result of an operation that is
// expected to succeed, so a nil error must be a no-op.
func TestFatalErrNil(t *testing.T) {
	FatalErr(t, nil)
}

func TestExpectErrorRoot(t *testing.T) {
	base := errors.New("base")
	ExpectError(t, base, "wrapped error", func() error {
		return errors.Wrap(base, "context")
	})
}
