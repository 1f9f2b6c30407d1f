package reviews

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/varnwear/storefront/internal/accounts"
	"github.com/varnwear/storefront/internal/domain"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	productID := r.PathValue("id")
	if productID == "" {
		h.writeFail(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		h.writeFail(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	if len(strings.TrimSpace(req.Comment)) < 10 {
		h.writeFail(w, http.StatusBadRequest, "Review must be at least 10 characters")
		return
	}

	review := domain.Review{
		ProductID: productID,
		UserID:    identity.UserID,
		UserName:  identity.Name,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := h.repo.Create(r.Context(), &review); err != nil {
		h.logger.Error("failed to create review", "error", err, "product_id", productID)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "review": review})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		h.writeFail(w, http.StatusBadRequest, "missing product id")
		return
	}

	list, err := h.repo.ListByProduct(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err, "product_id", productID)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	avg, err := h.repo.AverageRating(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to compute average rating", "error", err, "product_id", productID)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"reviews":       list,
		"averageRating": avg,
	})
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
