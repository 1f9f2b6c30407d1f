package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/varnwear/storefront/internal/domain"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	search := r.URL.Query().Get("q")

	products, err := h.repo.List(r.Context(), category, search)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeFail(w, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeFail(w, http.StatusNotFound, "Product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if product.Name == "" || product.Category == "" {
		h.writeFail(w, http.StatusBadRequest, "name and category are required")
		return
	}
	if product.Price < 0 || product.Stock < 0 {
		h.writeFail(w, http.StatusBadRequest, "price and stock must be non-negative")
		return
	}

	product.ID = ""
	if err := h.repo.Create(r.Context(), &product); err != nil {
		h.logger.Error("failed to create product", "error", err)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "name", product.Name)
	h.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "product": product})
}

// HandleUpdate merges the request body over the stored product, so partial
// updates leave unmentioned fields untouched.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeFail(w, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeFail(w, http.StatusNotFound, "Product not found")
		return
	}

	if err := json.NewDecoder(r.Body).Decode(product); err != nil {
		h.writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product.ID = id

	if product.Price < 0 || product.Stock < 0 {
		h.writeFail(w, http.StatusBadRequest, "price and stock must be non-negative")
		return
	}

	if err := h.repo.Update(r.Context(), product); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			h.writeFail(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("failed to update product", "error", err, "product_id", id)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product updated", "product_id", id)
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": product})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeFail(w, http.StatusBadRequest, "missing product id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			h.writeFail(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("failed to delete product", "error", err, "product_id", id)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product deleted", "product_id", id)
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeFail(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"success": false, "message": message})
}
