package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem is an immutable snapshot of a cart line taken at order-creation
// time. Price and name are copied, never re-read, so later catalog changes
// do not affect a placed order.
type OrderItem struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	ProductImage string `json:"productImage,omitempty"`
	Quantity     int    `json:"quantity"`
	Size         string `json:"size,omitempty"`
	Price        int64  `json:"price"`
}

type Order struct {
	ID                  string      `json:"id"`
	UserID              string      `json:"userId"`
	Items               []OrderItem `json:"items"`
	ShippingAddress     string      `json:"shippingAddress"`
	PaymentMethod       string      `json:"paymentMethod"`
	Subtotal            int64       `json:"subtotal"`
	Shipping            int64       `json:"shipping"`
	Total               int64       `json:"total"`
	Status              OrderStatus `json:"status"`
	DeliveryDate        *time.Time  `json:"deliveryDate,omitempty"`
	ConfirmationMessage string      `json:"confirmationMessage,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// OrderStats is recomputed from stored orders on every call; revenue
// excludes cancelled orders.
type OrderStats struct {
	Total        int   `json:"total"`
	Pending      int   `json:"pending"`
	Shipped      int   `json:"shipped"`
	Delivered    int   `json:"delivered"`
	Cancelled    int   `json:"cancelled"`
	TotalRevenue int64 `json:"totalRevenue"`
}
