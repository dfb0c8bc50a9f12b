package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/cart"
	"storefront/internal/repository"
)

type CartHandler struct {
	engine   *cart.Engine
	products repository.ProductRepository
}

func NewCartHandler(engine *cart.Engine, products repository.ProductRepository) *CartHandler {
	return &CartHandler{engine: engine, products: products}
}

type AddToCartRequest struct {
	ProductID string `json:"productId"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// AddItem looks the product up in the catalog and adds it to the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	product, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		writeRepoError(w, r, err, "product not found", "failed to add product to cart")
		return
	}

	h.engine.AddToCart(*product)
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	h.engine.UpdateQuantity(chi.URLParam(r, "id"), req.Quantity)
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.engine.RemoveFromCart(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearCart()
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}
