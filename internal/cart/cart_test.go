package cart

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

var (
	iphone = models.Product{ID: "1", Name: "iPhone 15 Pro Max", Price: 15000, Category: models.CategoryElectronics}
	vacuum = models.Product{ID: "2", Name: "Smart Robot Vacuum", Price: 3500, Category: models.CategoryHome}
)

func TestAddToCart_SameProductIncrementsQuantity(t *testing.T) {
	e := NewEngine()

	e.AddToCart(iphone)
	e.AddToCart(iphone)

	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "1", lines[0].ID)
	assert.Equal(t, 15000.0, lines[0].Price)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 30000.0, e.Total())
}

func TestAddToCart_KeepsFirstAddedOrder(t *testing.T) {
	e := NewEngine()

	e.AddToCart(vacuum)
	e.AddToCart(iphone)
	e.AddToCart(vacuum)

	lines := e.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "2", lines[0].ID)
	assert.Equal(t, "1", lines[1].ID)
	assert.Equal(t, 3, e.ItemCount())
	assert.Equal(t, 2, e.Len())
}

func TestAddToCart_SnapshotsProductByValue(t *testing.T) {
	e := NewEngine()
	p := iphone

	e.AddToCart(p)
	p.Price = 1
	p.Name = "renamed"

	lines := e.Lines()
	assert.Equal(t, 15000.0, lines[0].Price)
	assert.Equal(t, "iPhone 15 Pro Max", lines[0].Name)
}

func TestUpdateQuantity(t *testing.T) {
	e := NewEngine()
	e.AddToCart(iphone)

	e.UpdateQuantity("1", 4)
	assert.Equal(t, 4, e.Lines()[0].Quantity)
	assert.Equal(t, 60000.0, e.Total())

	e.UpdateQuantity("missing", 3)
	assert.Equal(t, 1, e.Len())
}

func TestUpdateQuantity_NonPositiveRemovesLine(t *testing.T) {
	for _, qty := range []int{0, -1} {
		e := NewEngine()
		e.AddToCart(iphone)
		e.AddToCart(vacuum)

		e.UpdateQuantity("1", qty)

		lines := e.Lines()
		require.Len(t, lines, 1, "quantity %d", qty)
		assert.Equal(t, "2", lines[0].ID)
	}
}

func TestRemoveFromCart(t *testing.T) {
	e := NewEngine()
	e.AddToCart(iphone)
	e.AddToCart(vacuum)

	e.RemoveFromCart("1")
	e.RemoveFromCart("missing")

	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "2", lines[0].ID)
	assert.Equal(t, 3500.0, e.Total())
}

func TestClearCart(t *testing.T) {
	e := NewEngine()
	e.AddToCart(iphone)

	e.ClearCart()

	assert.Empty(t, e.Lines())
	assert.Zero(t, e.Total())
	assert.Zero(t, e.ItemCount())
}

func TestLines_ReturnsIndependentCopy(t *testing.T) {
	e := NewEngine()
	e.AddToCart(iphone)

	lines := e.Lines()
	lines[0].Quantity = 50

	assert.Equal(t, 1, e.Lines()[0].Quantity)
}

func TestSnapshot_EmptyCartHasNonNilLines(t *testing.T) {
	snap := NewEngine().Snapshot()

	assert.NotNil(t, snap.Lines)
	assert.Empty(t, snap.Lines)
	assert.Zero(t, snap.Total)
}

func TestTotal_DecimalSum(t *testing.T) {
	lines := []models.CartLine{
		{Product: models.Product{ID: "a", Price: 0.1}, Quantity: 1},
		{Product: models.Product{ID: "b", Price: 0.2}, Quantity: 1},
	}

	assert.Equal(t, 0.3, Total(lines))
}

// Random add/update/remove sequences must always leave Total equal to
// the sum over the current lines.
func TestTotal_NeverDrifts(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	catalog := []models.Product{
		iphone,
		vacuum,
		{ID: "3", Price: 250},
		{ID: "4", Price: 19.99},
		{ID: "5", Price: 0.07},
	}

	e := NewEngine()
	for step := 0; step < 2000; step++ {
		p := catalog[rng.Intn(len(catalog))]
		switch rng.Intn(4) {
		case 0, 1:
			e.AddToCart(p)
		case 2:
			e.UpdateQuantity(p.ID, rng.Intn(6)-1)
		case 3:
			e.RemoveFromCart(p.ID)
		}

		lines := e.Lines()
		want := decimal.Zero
		seen := map[string]bool{}
		for _, l := range lines {
			require.GreaterOrEqual(t, l.Quantity, 1)
			require.False(t, seen[l.ID], "duplicate line for %s", l.ID)
			seen[l.ID] = true
			want = want.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		require.Equal(t, want.InexactFloat64(), e.Total(), "step %d", step)
	}
}

func TestSubscribe_NotifiedOnChanges(t *testing.T) {
	e := NewEngine()

	var got []Snapshot
	unsubscribe := e.Subscribe(func(s Snapshot) { got = append(got, s) })

	e.AddToCart(iphone)
	e.AddToCart(iphone)
	e.UpdateQuantity("1", 5)
	e.RemoveFromCart("1")

	require.Len(t, got, 4)
	assert.Equal(t, 15000.0, got[0].Total)
	assert.Equal(t, 2, got[1].ItemCount)
	assert.Equal(t, 75000.0, got[2].Total)
	assert.Empty(t, got[3].Lines)

	unsubscribe()
	e.AddToCart(vacuum)
	assert.Len(t, got, 4)
}

func TestSubscribe_NoOpMutationsDoNotNotify(t *testing.T) {
	e := NewEngine()
	e.AddToCart(iphone)

	calls := 0
	e.Subscribe(func(Snapshot) { calls++ })

	e.RemoveFromCart("missing")
	e.UpdateQuantity("missing", 2)
	e.UpdateQuantity("1", 1)
	assert.Zero(t, calls)

	e.ClearCart()
	e.ClearCart()
	assert.Equal(t, 1, calls)
}

func TestSubscribe_ObserverMayReadEngine(t *testing.T) {
	e := NewEngine()

	var count int
	e.Subscribe(func(Snapshot) { count = e.ItemCount() })

	e.AddToCart(iphone)
	assert.Equal(t, 1, count)
}

func TestSubscribe_ObserverCannotMutateCart(t *testing.T) {
	e := NewEngine()
	e.Subscribe(func(s Snapshot) {
		if len(s.Lines) > 0 {
			s.Lines[0].Quantity = 100
		}
	})

	e.AddToCart(iphone)
	assert.Equal(t, 1, e.Lines()[0].Quantity)
}

func TestEngine_ConcurrentMutations(t *testing.T) {
	e := NewEngine()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.AddToCart(iphone)
		}()
	}
	wg.Wait()

	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 50, lines[0].Quantity)
	assert.Equal(t, 750000.0, e.Total())
}

func TestDrain_ClearsOnSuccess(t *testing.T) {
	e := NewEngine()
	e.AddToCart(iphone)
	e.AddToCart(vacuum)

	var notified []Snapshot
	e.Subscribe(func(s Snapshot) { notified = append(notified, s) })

	var got []models.CartLine
	err := e.Drain(func(lines []models.CartLine) error {
		got = lines
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Zero(t, e.Len())
	require.Len(t, notified, 1)
	assert.Empty(t, notified[0].Lines)
}

func TestDrain_ErrorKeepsCart(t *testing.T) {
	e := NewEngine()
	e.AddToCart(iphone)

	notified := 0
	e.Subscribe(func(Snapshot) { notified++ })

	boom := errors.New("boom")
	err := e.Drain(func(lines []models.CartLine) error {
		lines[0].Quantity = 99
		return boom
	})

	assert.ErrorIs(t, err, boom)
	require.Len(t, e.Lines(), 1)
	assert.Equal(t, 1, e.Lines()[0].Quantity)
	assert.Zero(t, notified)
}

func TestDrain_EmptyCartDoesNotNotify(t *testing.T) {
	e := NewEngine()

	notified := 0
	e.Subscribe(func(Snapshot) { notified++ })

	err := e.Drain(func(lines []models.CartLine) error {
		assert.NotNil(t, lines)
		assert.Empty(t, lines)
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, notified)
}

func TestDrain_ConcurrentAddsLandInExactlyOnePlace(t *testing.T) {
	e := NewEngine()

	const adds = 500
	var (
		wg      sync.WaitGroup
		drained int
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range adds {
			e.AddToCart(vacuum)
		}
	}()
	go func() {
		defer wg.Done()
		for range 100 {
			_ = e.Drain(func(lines []models.CartLine) error {
				drained += ItemCount(lines)
				return nil
			})
		}
	}()
	wg.Wait()

	assert.Equal(t, adds, drained+e.ItemCount())
}
