package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/orders"
)

type OrderHandler struct {
	ledger *orders.Ledger
	engine *cart.Engine
}

func NewOrderHandler(ledger *orders.Ledger, engine *cart.Engine) *OrderHandler {
	return &OrderHandler{ledger: ledger, engine: engine}
}

type StatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var details models.CustomerDetails
	if ok := decodeJSON(w, r, &details); !ok {
		return
	}

	order, err := h.ledger.Checkout(r.Context(), h.engine, details)
	if err != nil {
		writeRepoError(w, r, err, "", "failed to place order")
		return
	}

	w.Header().Set("Location", "/orders/"+order.ID)
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.ledger.Orders(r.Context())
	if err != nil {
		writeRepoError(w, r, err, "", "failed to get orders")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	order, err := h.ledger.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, r, err, "order not found", "failed to get order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.ledger.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeRepoError(w, r, err, "order not found", "failed to update order status")
		return
	}

	order, err := h.ledger.Order(r.Context(), id)
	if err != nil {
		writeRepoError(w, r, err, "order not found", "failed to get order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}
