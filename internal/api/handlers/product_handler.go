package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type ProductHandler struct {
	repo repository.ProductRepository
}

func NewProductHandler(repo repository.ProductRepository) *ProductHandler {
	return &ProductHandler{repo: repo}
}

type ProductRequest struct {
	Name        string          `json:"name"`
	Price       float64         `json:"price"`
	Category    models.Category `json:"category"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

func (req ProductRequest) product(id string) models.Product {
	return models.Product{
		ID:          id,
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Description: req.Description,
	}
}

// List serves the catalog, optionally filtered by ?category= and a
// name search ?q=.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	category, term := query.Get("category"), query.Get("q")

	var (
		products []models.Product
		err      error
	)
	if term == "" && category != "" && category != "all" {
		products, err = h.repo.GetByCategory(r.Context(), models.Category(category))
	} else {
		products, err = h.repo.Search(r.Context(), category, term)
	}
	if err != nil {
		writeRepoError(w, r, err, "", "failed to get products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, r, err, "product not found", "failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p := req.product("")
	if err := h.repo.Create(r.Context(), &p); err != nil {
		writeRepoError(w, r, err, "", "failed to create product")
		return
	}

	w.Header().Set("Location", "/products/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p := req.product(chi.URLParam(r, "id"))
	if err := h.repo.Update(r.Context(), &p); err != nil {
		writeRepoError(w, r, err, "product not found", "failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Delete removes a product from the catalog. Carts and orders that
// already hold it keep their copy.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRepoError(w, r, err, "product not found", "failed to delete product")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
