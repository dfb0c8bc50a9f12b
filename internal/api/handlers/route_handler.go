package handlers

import (
	"net/http"

	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/router"
)

type RouteHandler struct {
	products repository.ProductRepository
}

func NewRouteHandler(products repository.ProductRepository) *RouteHandler {
	return &RouteHandler{products: products}
}

type routeResponse struct {
	router.Route
	Product  *models.Product `json:"product,omitempty"`
	NotFound bool            `json:"notFound,omitempty"`
}

// Resolve reports which view ?path= maps to. Product routes carry the
// product, or notFound when the id is not in the catalog.
func (h *RouteHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	route := router.Resolve(r.URL.Query().Get("path"))
	resp := routeResponse{Route: route}

	if route.View == router.ViewProduct {
		product, ok := router.ProductView(r.Context(), route, h.products)
		resp.Product = product
		resp.NotFound = !ok
	}

	writeJSON(w, http.StatusOK, resp)
}
