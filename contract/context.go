package contract

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/Georgantas/sapio/effects"
	"github.com/Georgantas/sapio/emulator"
	"github.com/Georgantas/sapio/errors"
)

// Context is the derivation scope for one structural position of a
// compilation: the target network, the funds the position may spend,
// its path, and shared handles to the emulator and effect-lookup
// collaborators. Deriving a child yields a new Context with an
// extended path; the handles are shared, never copied.
type Context struct {
	network  *chaincfg.Params
	funds    btcutil.Amount
	path     *effects.Path
	emulator emulator.CTVEmulator
	effects  effects.DB

	// Sibling fragments derived so far under this position. Deriving
	// the same fragment twice is a configuration error.
	derived map[effects.Fragment]bool
}

// NewContext returns the entry Context for one compilation.
// A nil emulator defaults to CTVAvailable; a nil effect DB is empty;
// a nil path starts at the root fragment.
func NewContext(network *chaincfg.Params, funds btcutil.Amount, emu emulator.CTVEmulator, path *effects.Path, db effects.DB) *Context {
	if emu == nil {
		emu = emulator.CTVAvailable{}
	}
	if db == nil {
		db = effects.EmptyDB{}
	}
	if path == nil {
		path = effects.New(effects.Root)
	}
	return &Context{
		network:  network,
		funds:    funds,
		path:     path,
		emulator: emu,
		effects:  db,
		derived:  make(map[effects.Fragment]bool),
	}
}

func (c *Context) Network() *chaincfg.Params { return c.network }
func (c *Context) Funds() btcutil.Amount     { return c.funds }
func (c *Context) Path() *effects.Path       { return c.path }

// Derive returns a child Context whose path extends c's by frag.
// Re-deriving a fragment already used under c is reported, not
// silently overwritten.
func (c *Context) Derive(frag effects.Fragment) (*Context, error) {
	if c.derived[frag] {
		return nil, errors.Wrapf(ErrDerivationConflict, "%s under %s", frag, c.path)
	}
	c.derived[frag] = true
	return c.child(frag), nil
}

// DeriveNamed derives a child under a user-chosen name, validating the
// name as a path fragment.
func (c *Context) DeriveNamed(name string) (*Context, error) {
	frag, err := effects.Named(name)
	if err != nil {
		return nil, err
	}
	return c.Derive(frag)
}

// child extends the path without conflict tracking. Used where the
// same structural position is legitimately revisited, such as output
// branches of sibling templates from one transition.
func (c *Context) child(frag effects.Fragment) *Context {
	return &Context{
		network:  c.network,
		funds:    c.funds,
		path:     c.path.Push(frag),
		emulator: c.emulator,
		effects:  c.effects,
		derived:  make(map[effects.Fragment]bool),
	}
}

// withFunds returns a copy of c whose funds are narrowed to a,
// for compiling an embedded output destination.
func (c *Context) withFunds(a btcutil.Amount) *Context {
	d := *c
	d.funds = a
	d.derived = make(map[effects.Fragment]bool)
	return &d
}

// Template starts a template builder drawing on c's funds.
func (c *Context) Template() *TemplateBuilder {
	return &TemplateBuilder{ctx: c}
}
