package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/varnwear/storefront/internal/accounts"
	"github.com/varnwear/storefront/internal/catalog"
	"github.com/varnwear/storefront/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type createOrderRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	PaymentMethod   string `json:"paymentMethod"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ShippingAddress == "" {
		h.writeFail(w, http.StatusBadRequest, "Shipping address is required")
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cod"
	}

	order, err := h.service.CreateOrder(r.Context(), identity, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			h.writeFail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, catalog.ErrInsufficientStock):
			h.writeFail(w, http.StatusConflict, "Insufficient stock")
		case errors.Is(err, catalog.ErrProductNotFound):
			h.writeFail(w, http.StatusConflict, "Product no longer available")
		default:
			h.logger.Error("failed to create order", "error", err, "user_id", identity.UserID)
			h.writeFail(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "order": order})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	list, err := h.service.ListOrders(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", identity.UserID)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	id := r.PathValue("id")
	if id == "" {
		h.writeFail(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.service.GetOrder(r.Context(), identity.UserID, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeFail(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	identity, _ := accounts.IdentityFrom(r.Context())

	id := r.PathValue("id")
	if id == "" {
		h.writeFail(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.service.CancelOrder(r.Context(), identity, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			h.writeFail(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidStatusTransition):
			h.writeFail(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("failed to cancel order", "error", err, "order_id", id)
			h.writeFail(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

func (h *Handler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !validStatus(status) {
		h.writeFail(w, http.StatusBadRequest, "Invalid status")
		return
	}

	list, err := h.service.ListAllOrders(r.Context(), status)
	if err != nil {
		h.logger.Error("failed to list all orders", "error", err)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleAdminGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeFail(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.service.AdminGetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeFail(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeFail(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validStatus(req.Status) {
		h.writeFail(w, http.StatusBadRequest, "Invalid status")
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeFail(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to update order status", "error", err, "order_id", id)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

type confirmDeliveryRequest struct {
	DeliveryDate        string `json:"deliveryDate"`
	ConfirmationMessage string `json:"confirmationMessage"`
}

func (h *Handler) HandleConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeFail(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req confirmDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date := time.Now().UTC()
	if req.DeliveryDate != "" {
		parsed, err := parseDate(req.DeliveryDate)
		if err != nil {
			h.writeFail(w, http.StatusBadRequest, "Invalid delivery date")
			return
		}
		date = parsed
	}
	message := req.ConfirmationMessage
	if message == "" {
		message = "Your order has been delivered"
	}

	order, err := h.service.ConfirmDelivery(r.Context(), id, date, message)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeFail(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to confirm delivery", "error", err, "order_id", id)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute order stats", "error", err)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// HandleRevenue reports non-cancelled revenue over an inclusive date range
// given as ?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")
	if startParam == "" || endParam == "" {
		h.writeFail(w, http.StatusBadRequest, "start and end are required")
		return
	}

	start, err := parseDate(startParam)
	if err != nil {
		h.writeFail(w, http.StatusBadRequest, "Invalid start date")
		return
	}
	end, err := parseDate(endParam)
	if err != nil {
		h.writeFail(w, http.StatusBadRequest, "Invalid end date")
		return
	}
	// a bare end date covers the whole day
	if len(endParam) == len(time.DateOnly) {
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	revenue, err := h.service.RevenueBetween(r.Context(), start, end)
	if err != nil {
		h.logger.Error("failed to compute revenue", "error", err)
		h.writeFail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"start":   startParam,
		"end":     endParam,
		"revenue": revenue,
	})
}

func validStatus(status domain.OrderStatus) bool {
	switch status {
	case domain.OrderStatusPending, domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled:
		return true
	}
	return false
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
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
