// Package orders turns cart contents into immutable order records.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"storefront/internal/analytics"
	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/repository"
)

const Currency = "MAD"

var ErrEmptyCart = fmt.Errorf("%w: cart is empty", repository.ErrInvalidInput)

type Ledger struct {
	repo repository.OrderRepository
	sink analytics.Sink
	now  func() time.Time
}

type Option func(*Ledger)

// WithClock overrides time.Now for order dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(repo repository.OrderRepository, sink analytics.Sink, opts ...Option) *Ledger {
	l := &Ledger{
		repo: repo,
		sink: sink,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SubmitOrder validates details and lines, then records a pending order
// holding its own copy of lines. Nothing is recorded when validation
// fails. A Purchase event is sent to the analytics sink; its outcome
// does not affect the order.
func (l *Ledger) SubmitOrder(ctx context.Context, details models.CustomerDetails, lines []models.CartLine) (*models.Order, error) {
	order, err := l.record(ctx, details, lines)
	if err != nil {
		return nil, err
	}

	l.trackPurchase(ctx, order)

	return order, nil
}

// Checkout records an order for the engine's contents and empties the cart
// in one step: concurrent cart changes land either in the order or in the
// cart afterwards, and a repeated checkout finds the cart empty. The cart
// is left untouched on failure.
func (l *Ledger) Checkout(ctx context.Context, engine *cart.Engine, details models.CustomerDetails) (*models.Order, error) {
	var order *models.Order

	err := engine.Drain(func(lines []models.CartLine) error {
		var err error
		order, err = l.record(ctx, details, lines)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.trackPurchase(ctx, order)

	return order, nil
}

func (l *Ledger) record(ctx context.Context, details models.CustomerDetails, lines []models.CartLine) (*models.Order, error) {
	if err := repository.Validate(details); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity of %q must be at least 1, got %d",
				repository.ErrInvalidInput, line.ID, line.Quantity)
		}
	}

	items := make([]models.CartLine, len(lines))
	copy(items, lines)

	order := &models.Order{
		ID:       uuid.NewString(),
		Customer: details,
		Items:    items,
		Total:    cart.Total(items),
		Date:     l.now(),
		Status:   models.OrderStatusPending,
	}

	if err := l.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to record order: %w", err)
	}

	return order, nil
}

func (l *Ledger) trackPurchase(ctx context.Context, order *models.Order) {
	if l.sink == nil {
		return
	}

	ids := make([]string, len(order.Items))
	for i, item := range order.Items {
		ids[i] = item.ID
	}

	event := models.Event{
		Name: analytics.EventPurchase,
		Data: map[string]any{
			"value":       order.Total,
			"currency":    Currency,
			"content_ids": ids,
			"num_items":   len(order.Items),
		},
	}

	if err := l.sink.Track(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to track purchase", "order_id", order.ID, "error", err)
	}
}

func (l *Ledger) Orders(ctx context.Context) ([]models.Order, error) {
	return l.repo.GetAll(ctx)
}

func (l *Ledger) Order(ctx context.Context, id string) (*models.Order, error) {
	return l.repo.GetByID(ctx, id)
}

func (l *Ledger) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	return l.repo.UpdateStatus(ctx, id, status)
}
