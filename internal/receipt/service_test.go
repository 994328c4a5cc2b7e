package receipt

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ *MemStore }

var errStoreDown = errors.New("store down")

func (failingStore) Put(context.Context, string, int) error { return errStoreDown }

func TestProcessor_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor(NewStore(), nil)

	for _, r := range []Receipt{targetReceipt(), cornerMarketReceipt()} {
		id, b, err := p.Process(ctx, r)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		require.Equal(t, CalculatePoints(r), b.Total())

		got, err := p.Points(ctx, id)
		require.NoError(t, err)
		require.Equal(t, CalculatePoints(r), got)
	}
}

func TestProcessor_IDsAreUnique(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor(NewStore(), nil)

	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		id, _, err := p.Process(ctx, targetReceipt())
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestProcessor_UnknownIDIsNotFound(t *testing.T) {
	p := NewProcessor(NewStore(), nil)

	points, err := p.Points(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, points)
}

func TestProcessor_ValidationFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	p := NewProcessor(store, nil)

	r := targetReceipt()
	r.Retailer = ""
	r.Items = nil

	id, _, err := p.Process(ctx, r)
	require.Empty(t, id)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []FieldProblem{
		{Field: "retailer", Rule: "required"},
		{Field: "items", Rule: "required"},
	}, verr.Problems)

	n, _ := store.Len(ctx)
	require.Zero(t, n)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(targetReceipt()))

	empty := targetReceipt()
	empty.Items = []Item{}
	require.NoError(t, Validate(empty), "present but empty items are allowed")

	blank := targetReceipt()
	blank.Items = []Item{{ShortDescription: "   ", Price: "1.00"}}
	require.NoError(t, Validate(blank), "whitespace descriptions are scored, not rejected")

	missingPrice := targetReceipt()
	missingPrice.Items[2].Price = ""
	err := Validate(missingPrice)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []FieldProblem{{Field: "items[2].price", Rule: "required"}}, verr.Problems)
	require.Contains(t, err.Error(), "items[2].price required")
}

func TestProcessor_StoreErrorPropagates(t *testing.T) {
	p := NewProcessor(&failingStore{MemStore: NewMemStore()}, nil)

	_, _, err := p.Process(context.Background(), targetReceipt())
	require.ErrorIs(t, err, errStoreDown)
}

func TestProcessor_Metrics(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics(prometheus.NewRegistry())
	p := NewProcessor(NewStore(), m)
	p.NewID = func() string { return "fixed" }

	_, _, err := p.Process(ctx, cornerMarketReceipt())
	require.NoError(t, err)
	_, _, err = p.Process(ctx, Receipt{})
	require.Error(t, err)
	_, _ = p.Points(ctx, "fixed")
	_, _ = p.Points(ctx, "nope")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Processed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("not_found")))
}
