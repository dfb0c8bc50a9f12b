package repository

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"storefront/internal/models"
	"storefront/internal/storage"
)

// orderRepo keeps orders most recent first and rewrites the orders
// document on every change.
type orderRepo struct {
	mu     sync.RWMutex
	store  storage.Backend
	orders []models.Order
}

func NewOrderRepository(ctx context.Context, store storage.Backend) OrderRepository {
	return &orderRepo{
		store:  store,
		orders: storage.Load(ctx, store, storage.KeyOrders, []models.Order{}),
	}
}

func cloneOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func (r *orderRepo) persist(ctx context.Context) {
	if err := storage.Save(ctx, r.store, storage.KeyOrders, r.orders); err != nil {
		slog.WarnContext(ctx, "failed to persist orders", "error", err)
	}
}

func (r *orderRepo) indexOf(id string) int {
	return slices.IndexFunc(r.orders, func(o models.Order) bool {
		return o.ID == id
	})
}

// Create prepends order. The repository keeps its own copy of the items.
func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order cannot be nil", ErrInvalidInput)
	}
	if order.ID == "" {
		return fmt.Errorf("%w: ID cannot be empty", ErrInvalidInput)
	}
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}
	if !order.Status.Valid() {
		return fmt.Errorf("%w: invalid status '%s'", ErrInvalidInput, order.Status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders = slices.Insert(r.orders, 0, cloneOrder(*order))
	r.persist(ctx)

	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*models.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: order ID cannot be empty", ErrInvalidInput)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	order := cloneOrder(r.orders[i])
	return &order, nil
}

func (r *orderRepo) GetAll(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, len(r.orders))
	for i, o := range r.orders {
		orders[i] = cloneOrder(o)
	}
	return orders, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	if status == "" {
		return fmt.Errorf("%w: Status cannot be empty", ErrInvalidInput)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: invalid status '%s'", ErrInvalidInput, status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	r.orders[i].Status = status
	r.persist(ctx)

	return nil
}
