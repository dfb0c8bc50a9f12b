package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/storage"
)

var (
	iphone  = models.Product{ID: "1", Name: "iPhone 15 Pro Max", Price: 15000, Category: models.CategoryElectronics}
	charger = models.Product{ID: "3", Name: "Fast Car Charger", Price: 250, Category: models.CategoryCars}
	ahmed   = models.CustomerDetails{FullName: "Ahmed", City: "Casablanca", Phone: "0600000000"}
	fixedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (s *recordingSink) Track(_ context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

type fixture struct {
	ledger *Ledger
	repo   repository.OrderRepository
	store  *storage.Memory
	sink   *recordingSink
	engine *cart.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemory()
	repo := repository.NewOrderRepository(context.Background(), store)
	sink := &recordingSink{}
	return &fixture{
		ledger: NewLedger(repo, sink, WithClock(func() time.Time { return fixedAt })),
		repo:   repo,
		store:  store,
		sink:   sink,
		engine: cart.NewEngine(),
	}
}

func (f *fixture) orders(t *testing.T) []models.Order {
	t.Helper()
	orders, err := f.ledger.Orders(context.Background())
	require.NoError(t, err)
	return orders
}

func TestSubmitOrder_RecordsPendingOrder(t *testing.T) {
	f := newFixture(t)
	f.engine.AddToCart(iphone)
	f.engine.AddToCart(iphone)
	lines := f.engine.Lines()

	order, err := f.ledger.SubmitOrder(context.Background(), ahmed, lines)
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, ahmed, order.Customer)
	assert.Equal(t, lines, order.Items)
	assert.Equal(t, 30000.0, order.Total)
	assert.Equal(t, fixedAt, order.Date)

	orders := f.orders(t)
	require.Len(t, orders, 1)
	assert.Equal(t, *order, orders[0])

	persisted := storage.Load(context.Background(), f.store, storage.KeyOrders, []models.Order(nil))
	assert.Equal(t, orders, persisted)
}

func TestSubmitOrder_PrependsMostRecentFirst(t *testing.T) {
	f := newFixture(t)
	lines := []models.CartLine{{Product: charger, Quantity: 1}}

	first, err := f.ledger.SubmitOrder(context.Background(), ahmed, lines)
	require.NoError(t, err)
	second, err := f.ledger.SubmitOrder(context.Background(), ahmed, lines)
	require.NoError(t, err)

	orders := f.orders(t)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmitOrder_ValidationLeavesOrdersUnchanged(t *testing.T) {
	lines := []models.CartLine{{Product: iphone, Quantity: 1}}

	tests := []struct {
		name    string
		details models.CustomerDetails
		lines   []models.CartLine
		wantMsg string
	}{
		{name: "empty cart", details: ahmed, lines: nil, wantMsg: "cart is empty"},
		{name: "missing full name", details: models.CustomerDetails{City: "Rabat", Phone: "06"}, lines: lines, wantMsg: "fullName is required"},
		{name: "missing city", details: models.CustomerDetails{FullName: "A", Phone: "06"}, lines: lines, wantMsg: "city is required"},
		{name: "missing phone", details: models.CustomerDetails{FullName: "A", City: "Rabat"}, lines: lines, wantMsg: "phone is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			order, err := f.ledger.SubmitOrder(context.Background(), tt.details, tt.lines)

			assert.Nil(t, order)
			assert.ErrorIs(t, err, repository.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Empty(t, f.orders(t))
			assert.Empty(t, f.sink.events)

			_, getErr := f.store.Get(context.Background(), storage.KeyOrders)
			assert.ErrorIs(t, getErr, storage.ErrNotFound, "nothing may be persisted")
		})
	}
}

func TestSubmitOrder_EmptyCartIsErrEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.SubmitOrder(context.Background(), ahmed, []models.CartLine{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestSubmitOrder_DecoupledFromInput(t *testing.T) {
	f := newFixture(t)
	lines := []models.CartLine{{Product: iphone, Quantity: 1}}

	order, err := f.ledger.SubmitOrder(context.Background(), ahmed, lines)
	require.NoError(t, err)

	lines[0].Quantity = 7
	lines[0].Price = 1

	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.Equal(t, 15000.0, order.Items[0].Price)

	stored, err := f.ledger.Order(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Items[0].Quantity)
	assert.Equal(t, 15000.0, stored.Total)
}

func TestSubmitOrder_TracksPurchase(t *testing.T) {
	f := newFixture(t)
	lines := []models.CartLine{
		{Product: iphone, Quantity: 2},
		{Product: charger, Quantity: 1},
	}

	_, err := f.ledger.SubmitOrder(context.Background(), ahmed, lines)
	require.NoError(t, err)

	require.Len(t, f.sink.events, 1)
	event := f.sink.events[0]
	assert.Equal(t, "Purchase", event.Name)
	assert.Equal(t, 30250.0, event.Data["value"])
	assert.Equal(t, "MAD", event.Data["currency"])
	assert.Equal(t, []string{"1", "3"}, event.Data["content_ids"])
	assert.Equal(t, 2, event.Data["num_items"])
}

func TestSubmitOrder_SinkFailureDoesNotAffectOrder(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("pixel down")

	order, err := f.ledger.SubmitOrder(context.Background(), ahmed, []models.CartLine{{Product: iphone, Quantity: 1}})
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Len(t, f.orders(t), 1)
}

func TestSubmitOrder_NilSink(t *testing.T) {
	store := storage.NewMemory()
	ledger := NewLedger(repository.NewOrderRepository(context.Background(), store), nil)

	order, err := ledger.SubmitOrder(context.Background(), ahmed, []models.CartLine{{Product: iphone, Quantity: 1}})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), order.Date, time.Minute)
}

func TestCheckout_ClearsCartAndRecordsOrder(t *testing.T) {
	f := newFixture(t)
	f.engine.AddToCart(iphone)
	f.engine.AddToCart(charger)
	want := f.engine.Lines()

	order, err := f.ledger.Checkout(context.Background(), f.engine, ahmed)
	require.NoError(t, err)

	assert.Zero(t, f.engine.Len())
	assert.Equal(t, want, order.Items)
	assert.Equal(t, 15250.0, order.Total)

	orders := f.orders(t)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestCheckout_LaterCartChangesDoNotAlterOrder(t *testing.T) {
	f := newFixture(t)
	f.engine.AddToCart(iphone)

	order, err := f.ledger.Checkout(context.Background(), f.engine, ahmed)
	require.NoError(t, err)

	f.engine.AddToCart(iphone)
	f.engine.UpdateQuantity(iphone.ID, 9)
	f.engine.AddToCart(charger)

	stored, err := f.ledger.Order(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 1, stored.Items[0].Quantity)
	assert.Equal(t, 15000.0, stored.Total)
}

func TestCheckout_ValidationFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.engine.AddToCart(iphone)

	_, err := f.ledger.Checkout(context.Background(), f.engine, models.CustomerDetails{FullName: "Ahmed"})
	require.ErrorIs(t, err, repository.ErrInvalidInput)

	assert.Equal(t, 1, f.engine.Len())
	assert.Empty(t, f.orders(t))
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Checkout(context.Background(), f.engine, ahmed)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_NotifiesCartSubscribersOnce(t *testing.T) {
	f := newFixture(t)
	f.engine.AddToCart(iphone)

	var snaps []cart.Snapshot
	f.engine.Subscribe(func(s cart.Snapshot) { snaps = append(snaps, s) })

	_, err := f.ledger.Checkout(context.Background(), f.engine, ahmed)
	require.NoError(t, err)

	require.Len(t, snaps, 1)
	assert.Empty(t, snaps[0].Lines)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	order, err := f.ledger.SubmitOrder(context.Background(), ahmed, []models.CartLine{{Product: iphone, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, f.ledger.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled))

	stored, err := f.ledger.Order(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Equal(t, 15000.0, stored.Total)

	assert.ErrorIs(t, f.ledger.UpdateStatus(context.Background(), "missing", models.OrderStatusCompleted), repository.ErrNotFound)
}

func TestSubmitOrder_RejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -2} {
		f := newFixture(t)
		lines := []models.CartLine{
			{Product: iphone, Quantity: 1},
			{Product: charger, Quantity: qty},
		}

		order, err := f.ledger.SubmitOrder(context.Background(), ahmed, lines)

		assert.Nil(t, order)
		assert.ErrorIs(t, err, repository.ErrInvalidInput)
		assert.ErrorContains(t, err, "must be at least 1")
		assert.Empty(t, f.orders(t))
		assert.Empty(t, f.sink.events)
	}
}

func TestCheckout_ConcurrentCheckoutsRecordOneOrder(t *testing.T) {
	f := newFixture(t)
	f.engine.AddToCart(iphone)
	f.engine.AddToCart(charger)

	const n = 20
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		placed int
		empty  int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Checkout(context.Background(), f.engine, ahmed)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, ErrEmptyCart):
				empty++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, placed)
	assert.Equal(t, n-1, empty)
	assert.Len(t, f.orders(t), 1)
	assert.Zero(t, f.engine.Len())
}

func TestCheckout_ConcurrentAddsAreNeverLost(t *testing.T) {
	f := newFixture(t)

	const adds = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range adds {
			f.engine.AddToCart(charger)
		}
	}()
	go func() {
		defer wg.Done()
		for range 50 {
			_, _ = f.ledger.Checkout(context.Background(), f.engine, ahmed)
		}
	}()
	wg.Wait()

	ordered := 0
	for _, o := range f.orders(t) {
		for _, item := range o.Items {
			ordered += item.Quantity
		}
	}
	assert.Equal(t, adds, ordered+f.engine.ItemCount())
}

// hookSink runs fn on the first event it receives.
type hookSink struct {
	once sync.Once
	fn   func()
}

func (s *hookSink) Track(context.Context, models.Event) error {
	s.once.Do(s.fn)
	return nil
}

func TestCheckout_CartChangesAfterRecordingStayInCart(t *testing.T) {
	store := storage.NewMemory()
	repo := repository.NewOrderRepository(context.Background(), store)
	engine := cart.NewEngine()
	engine.AddToCart(iphone)

	sink := &hookSink{}
	ledger := NewLedger(repo, sink)

	var again error
	sink.fn = func() {
		engine.AddToCart(charger)
		_, again = ledger.Checkout(context.Background(), engine, models.CustomerDetails{})
	}

	order, err := ledger.Checkout(context.Background(), engine, ahmed)
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, iphone.ID, order.Items[0].ID)

	lines := engine.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, charger.ID, lines[0].ID)

	assert.ErrorIs(t, again, repository.ErrInvalidInput)
	orders, err := ledger.Orders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCheckout_RepeatedCheckoutFindsEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.engine.AddToCart(iphone)

	_, err := f.ledger.Checkout(context.Background(), f.engine, ahmed)
	require.NoError(t, err)

	_, err = f.ledger.Checkout(context.Background(), f.engine, ahmed)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Len(t, f.orders(t), 1)
	assert.Len(t, f.sink.events, 1)
}
