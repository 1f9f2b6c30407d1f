package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/varnwear/storefront/internal/accounts"
	"github.com/varnwear/storefront/internal/catalog"
)

type Handler struct {
	service  *Service
	wishlist *Wishlist
	logger   *slog.Logger
}

func NewHandler(service *Service, wishlist *Wishlist, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		wishlist: wishlist,
		logger:   logger,
	}
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	items, err := h.service.GetCartWithDetails(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to get cart", "error", err, "user_id", identity.UserID)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var subtotal int64
	count := 0
	for _, item := range items {
		subtotal += item.Product.Price * int64(item.Quantity)
		count += item.Quantity
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"items":    items,
		"subtotal": subtotal,
		"count":    count,
	})
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	err := h.service.Add(r.Context(), identity.UserID, req.ProductID, req.Quantity, req.Size)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			h.writeFail(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, catalog.ErrInsufficientStock):
			h.writeFail(w, http.StatusConflict, "Insufficient stock")
		case errors.Is(err, ErrStockExceeded):
			h.writeFail(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidSize):
			h.writeFail(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to add to cart", "error", err, "user_id", identity.UserID)
			h.writeFail(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type updateCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	var req updateCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.service.UpdateQuantity(r.Context(), identity.UserID, req.ProductID, req.Quantity, req.Size)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			h.writeFail(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, ErrStockExceeded):
			h.writeFail(w, http.StatusConflict, "Cannot exceed available stock")
		case errors.Is(err, ErrLineNotFound):
			h.writeFail(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("failed to update cart", "error", err, "user_id", identity.UserID)
			h.writeFail(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeFail(w, http.StatusBadRequest, "missing product id")
		return
	}
	size := r.URL.Query().Get("size")

	if err := h.service.Remove(r.Context(), identity.UserID, productID, size); err != nil {
		h.logger.Error("failed to remove from cart", "error", err, "user_id", identity.UserID)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	if err := h.service.Clear(r.Context(), identity.UserID); err != nil {
		h.logger.Error("failed to clear cart", "error", err, "user_id", identity.UserID)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) HandleGetWishlist(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	products, err := h.wishlist.WithDetails(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to get wishlist", "error", err, "user_id", identity.UserID)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	var req struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	added, err := h.wishlist.Add(r.Context(), identity.UserID, req.ProductID)
	if err != nil {
		h.logger.Error("failed to add to wishlist", "error", err, "user_id", identity.UserID)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "added": added})
}

func (h *Handler) HandleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeFail(w, http.StatusBadRequest, "missing product id")
		return
	}

	if err := h.wishlist.Remove(r.Context(), identity.UserID, productID); err != nil {
		h.logger.Error("failed to remove from wishlist", "error", err, "user_id", identity.UserID)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

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
