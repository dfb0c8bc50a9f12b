package handlers

import (
	"net/http"
	"strings"

	"storefront/internal/assistant"
	"storefront/internal/models"
	"storefront/internal/repository"
)

type AssistantHandler struct {
	assistant *assistant.Assistant
	products  repository.ProductRepository
}

func NewAssistantHandler(a *assistant.Assistant, products repository.ProductRepository) *AssistantHandler {
	return &AssistantHandler{assistant: a, products: products}
}

type DescriptionRequest struct {
	Name     string          `json:"name"`
	Category models.Category `json:"category"`
}

type AskRequest struct {
	Field     string `json:"field"`
	ProductID string `json:"productId"`
	Question  string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
	Stale  bool   `json:"stale"`
}

func (h *AssistantHandler) Describe(w http.ResponseWriter, r *http.Request) {
	var req DescriptionRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "product name is required", nil)
		return
	}

	description := h.assistant.DescribeProduct(r.Context(), req.Name, req.Category)
	writeJSON(w, http.StatusOK, map[string]string{"description": description})
}

// Ask answers a question about a product. Answers are fenced per field
// (defaulting to the product id); a stale answer is returned with
// stale=true so the client can drop it.
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "question is required", nil)
		return
	}

	product, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		writeRepoError(w, r, err, "product not found", "failed to get product")
		return
	}

	field := req.Field
	if field == "" {
		field = "product:" + product.ID
	}

	answer, current := h.assistant.AskFenced(r.Context(), field, req.Question, assistant.ProductContext(*product))
	writeJSON(w, http.StatusOK, AskResponse{Answer: answer, Stale: !current})
}
