package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/storage"
)

// Smoke driver: runs the catalog, cart and checkout flow against whatever
// backend STORE_BACKEND selects, e.g. a live postgres.
func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal("failed to start storefront: ", err)
	}
	defer a.Close()

	fmt.Printf("Backend: '%s'\n", cfg.StoreBackend)

	testStore(ctx, a.Store)
	testCatalog(ctx, a.Products)
	testCheckout(ctx, a)

	fmt.Println("\n🎉 All smoke tests passed")
}

func testStore(ctx context.Context, store storage.Backend) {
	fmt.Println("\n=== Testing storage backend ===")

	type probe struct {
		Value string `json:"value"`
	}

	if err := storage.Save(ctx, store, "smoke", probe{Value: "ok"}); err != nil {
		log.Fatal("❌ Save failed:", err)
	}
	got := storage.Load(ctx, store, "smoke", probe{})
	if got.Value != "ok" {
		log.Fatalf("❌ Load returned %+v", got)
	}
	fmt.Println("✅ Save/Load round trip works")

	_, err := store.Get(ctx, "smoke-missing")
	if !errors.Is(err, storage.ErrNotFound) {
		log.Fatal("❌ Get should return ErrNotFound for a missing key, got: ", err)
	}
	fmt.Println("✅ Missing key returns ErrNotFound")
}

func testCatalog(ctx context.Context, products repository.ProductRepository) {
	fmt.Println("\n=== Testing catalog ===")

	all, err := products.GetAll(ctx)
	if err != nil {
		log.Fatal("❌ GetAll failed:", err)
	}
	fmt.Printf("✅ Catalog has %d products\n", len(all))

	p := &models.Product{
		Name:     "Smoke Test Lamp",
		Price:    99.5,
		Category: models.CategoryHome,
	}
	if err := products.Create(ctx, p); err != nil {
		log.Fatal("❌ Create failed:", err)
	}
	fmt.Printf("✅ Created product ID: %s\n", p.ID)

	found, err := products.Search(ctx, string(models.CategoryHome), "smoke test")
	if err != nil || len(found) == 0 {
		log.Fatal("❌ Search should find the new product")
	}
	fmt.Println("✅ Search finds the new product")

	err = products.Create(ctx, &models.Product{Name: "", Price: -1, Category: "Toys"})
	if !errors.Is(err, repository.ErrInvalidInput) {
		log.Fatal("❌ Create should validate input")
	}
	fmt.Println("✅ Create validates input correctly")

	if err := products.Delete(ctx, p.ID); err != nil {
		log.Fatal("❌ Delete failed:", err)
	}
	if _, err := products.GetByID(ctx, p.ID); !errors.Is(err, repository.ErrNotFound) {
		log.Fatal("❌ Deleted product should be gone")
	}
	fmt.Println("✅ Delete removes the product")
}

func testCheckout(ctx context.Context, a *app.App) {
	fmt.Println("\n=== Testing checkout ===")

	phone, err := a.Products.GetByID(ctx, "1")
	if err != nil {
		log.Fatal("❌ seed product 1 missing:", err)
	}
	charger, err := a.Products.GetByID(ctx, "3")
	if err != nil {
		log.Fatal("❌ seed product 3 missing:", err)
	}

	a.Cart.AddToCart(*phone)
	a.Cart.AddToCart(*phone)
	a.Cart.AddToCart(*charger)
	fmt.Printf("✅ Cart has %d items, total %.2f\n", a.Cart.ItemCount(), a.Cart.Total())

	_, err = a.Checkout(ctx, models.CustomerDetails{FullName: "Ahmed"})
	if !errors.Is(err, repository.ErrInvalidInput) {
		log.Fatal("❌ Checkout should reject incomplete details")
	}
	if a.Cart.Len() != 2 {
		log.Fatal("❌ Failed checkout must keep the cart")
	}
	fmt.Println("✅ Checkout validates customer details")

	order, err := a.Checkout(ctx, models.CustomerDetails{
		FullName: "Ahmed",
		City:     "Casablanca",
		Phone:    "0600000000",
	})
	if err != nil {
		log.Fatal("❌ Checkout failed:", err)
	}
	if a.Cart.Len() != 0 {
		log.Fatal("❌ Cart should be empty after checkout")
	}
	fmt.Printf("✅ Order %s placed, total %.2f, status %s\n", order.ID, order.Total, order.Status)

	if err := a.Ledger.UpdateStatus(ctx, order.ID, models.OrderStatusCompleted); err != nil {
		log.Fatal("❌ UpdateStatus failed:", err)
	}
	stored, err := a.Ledger.Order(ctx, order.ID)
	if err != nil || stored.Status != models.OrderStatusCompleted {
		log.Fatal("❌ Status didn't change to 'completed'")
	}
	fmt.Println("✅ UpdateStatus changed status to 'completed'")

	list, err := a.Ledger.Orders(ctx)
	if err != nil || len(list) == 0 || list[0].ID != order.ID {
		log.Fatal("❌ Newest order should come first")
	}
	fmt.Println("✅ Orders are newest first")
}
