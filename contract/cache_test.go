package contract

import (
	"testing"

	"github.com/Georgantas/sapio/errors"
	"github.com/Georgantas/sapio/policy"
	"github.com/Georgantas/sapio/testutil"
)

func TestGuardMemoized(t *testing.T) {
	key := testutil.TestKeys(1)[0]
	runs := 0
	g := Guard{Name: "owner", F: func(*Context) policy.Clause {
		runs++
		return policy.Key{Pk: key}
	}}

	gc := newGuardCache()
	ctx := testContext(0)
	for i := 0; i < 3; i++ {
		clause, err := gc.get(g, ctx)
		testutil.FatalErr(t, err)
		testutil.ExpectEqual(t, clause, policy.Clause(policy.Key{Pk: key}), "memoized clause")
	}
	testutil.ExpectEqual(t, runs, 1, "guard body runs")
}

func TestGuardNilMemoized(t *testing.T) {
	runs := 0
	g := Guard{Name: "inactive", F: func(*Context) policy.Clause {
		runs++
		return nil
	}}

	gc := newGuardCache()
	ctx := testContext(0)
	for i := 0; i < 2; i++ {
		clause, err := gc.get(g, ctx)
		testutil.FatalErr(t, err)
		if clause != nil {
			t.Fatalf("got %v, want nil clause", clause)
		}
	}
	testutil.ExpectEqual(t, runs, 1, "guard body runs")
}

func TestGuardUnnamed(t *testing.T) {
	gc := newGuardCache()
	ctx := testContext(0)
	testutil.ExpectError(t, ErrUnnamedGuard, "unnamed guard", func() error {
		_, err := gc.get(Guard{F: func(*Context) policy.Clause { return policy.Trivial{} }}, ctx)
		return err
	})
}

func TestGuardReentrancy(t *testing.T) {
	gc := newGuardCache()
	ctx := testContext(0)

	var inner error
	var g Guard
	g = Guard{Name: "self", F: func(c *Context) policy.Clause {
		_, inner = gc.get(g, c)
		return policy.Trivial{}
	}}

	_, err := gc.get(g, ctx)
	testutil.FatalErr(t, err)
	testutil.ExpectEqual(t, errors.Root(inner), ErrGuardReentrancy, "inner error")
}

func TestConjoinGuards(t *testing.T) {
	keys := testutil.TestKeys(2)
	gc := newGuardCache()
	ctx := testContext(0)

	guards := []Guard{
		{Name: "a", F: func(*Context) policy.Clause { return policy.Key{Pk: keys[0]} }},
		{Name: "skip", F: func(*Context) policy.Clause { return nil }},
		{Name: "b", F: func(*Context) policy.Clause { return policy.Key{Pk: keys[1]} }},
	}
	clause, err := gc.conjoin(guards, ctx)
	testutil.FatalErr(t, err)
	want := policy.Clause(policy.And{Subs: []policy.Clause{
		policy.Key{Pk: keys[0]},
		policy.Key{Pk: keys[1]},
	}})
	testutil.ExpectEqual(t, clause, want, "conjoined guards")

	empty, err := gc.conjoin(nil, ctx)
	testutil.FatalErr(t, err)
	testutil.ExpectEqual(t, empty, policy.Clause(policy.Trivial{}), "no guards")
}
