package domain

import "time"

type OrderCreatedEvent struct {
	OrderID   string      `json:"orderId"`
	UserID    string      `json:"userId"`
	Email     string      `json:"email"`
	Items     []OrderItem `json:"items"`
	Total     int64       `json:"total"`
	Timestamp time.Time   `json:"timestamp"`
}

type OrderCancelledEvent struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Total     int64     `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}
