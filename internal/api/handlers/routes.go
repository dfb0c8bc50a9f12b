package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"storefront/internal/assistant"
	"storefront/internal/cart"
	"storefront/internal/orders"
	"storefront/internal/repository"
)

type Deps struct {
	Products  repository.ProductRepository
	Cart      *cart.Engine
	Ledger    *orders.Ledger
	Assistant *assistant.Assistant
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	products := NewProductHandler(d.Products)
	carts := NewCartHandler(d.Cart, d.Products)
	orderHandler := NewOrderHandler(d.Ledger, d.Cart)
	routes := NewRouteHandler(d.Products)
	ai := NewAssistantHandler(d.Assistant, d.Products)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", products.List)
		r.Post("/", products.Create)
		r.Get("/{id}", products.GetByID)
		r.Put("/{id}", products.Update)
		r.Delete("/{id}", products.Delete)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", carts.Get)
		r.Delete("/", carts.Clear)
		r.Post("/items", carts.AddItem)
		r.Put("/items/{id}", carts.UpdateItem)
		r.Delete("/items/{id}", carts.RemoveItem)
	})

	r.Post("/checkout", orderHandler.Checkout)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", orderHandler.List)
		r.Get("/{id}", orderHandler.GetByID)
		r.Put("/{id}/status", orderHandler.UpdateStatus)
	})

	r.Get("/route", routes.Resolve)

	r.Route("/assistant", func(r chi.Router) {
		r.Post("/description", ai.Describe)
		r.Post("/ask", ai.Ask)
	})

	return r
}
