package repository

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/storage"
)

// productRepo is the catalog. The in-memory list is authoritative for the
// process; every mutation rewrites the products document.
type productRepo struct {
	mu       sync.RWMutex
	store    storage.Backend
	products []models.Product
}

// NewProductRepository loads the products document, falling back to seed
// when it is missing or unreadable.
func NewProductRepository(ctx context.Context, store storage.Backend, seed []models.Product) ProductRepository {
	return &productRepo{
		store:    store,
		products: storage.Load(ctx, store, storage.KeyProducts, slices.Clone(seed)),
	}
}

func (r *productRepo) persist(ctx context.Context) {
	if err := storage.Save(ctx, r.store, storage.KeyProducts, r.products); err != nil {
		slog.WarnContext(ctx, "failed to persist products", "error", err)
	}
}

func (r *productRepo) indexOf(id string) int {
	return slices.IndexFunc(r.products, func(p models.Product) bool {
		return p.ID == id
	})
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	if p == nil {
		return fmt.Errorf("%w: product cannot be nil", ErrInvalidInput)
	}
	if err := Validate(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = uuid.NewString()
	r.products = append(r.products, *p)
	r.persist(ctx)

	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*models.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: ID cannot be empty", ErrInvalidInput)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	product := r.products[i]
	return &product, nil
}

func (r *productRepo) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.products), nil
}

func (r *productRepo) Update(ctx context.Context, p *models.Product) error {
	if p == nil {
		return fmt.Errorf("%w: product cannot be nil", ErrInvalidInput)
	}
	if p.ID == "" {
		return fmt.Errorf("%w: ID cannot be empty", ErrInvalidInput)
	}
	if err := Validate(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(p.ID)
	if i < 0 {
		return ErrNotFound
	}

	r.products[i] = *p
	r.persist(ctx)

	return nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: ID cannot be empty", ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	r.products = slices.Delete(r.products, i, i+1)
	r.persist(ctx)

	return nil
}

func (r *productRepo) GetByCategory(_ context.Context, category models.Category) ([]models.Product, error) {
	if !category.Valid() {
		return nil, errUnknownCategory(string(category))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := []models.Product{}
	for _, p := range r.products {
		if p.Category == category {
			products = append(products, p)
		}
	}
	return products, nil
}

func errUnknownCategory(category string) error {
	return fmt.Errorf("%w: unknown category %q, must be one of %v", ErrInvalidInput, category, models.Categories())
}

// Search filters the catalog the way the storefront home page does: an
// empty or "all" category matches everything, and term is matched as a
// case-insensitive substring of the product name.
func (r *productRepo) Search(_ context.Context, category, term string) ([]models.Product, error) {
	if category != "" && category != "all" && !models.Category(category).Valid() {
		return nil, errUnknownCategory(category)
	}
	term = strings.ToLower(term)

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := []models.Product{}
	for _, p := range r.products {
		if category != "" && category != "all" && string(p.Category) != category {
			continue
		}
		if !strings.Contains(strings.ToLower(p.Name), term) {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}
