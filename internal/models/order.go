package models

import "time"

// CartLine is a product snapshot taken when it was first added to the
// cart, plus the quantity ordered. Quantity is always at least 1.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

type CustomerDetails struct {
	FullName string `json:"fullName" validate:"required"`
	City     string `json:"city" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID       string          `json:"id"`
	Customer CustomerDetails `json:"customer"`
	Items    []CartLine      `json:"items"`
	Total    float64         `json:"total"`
	Date     time.Time       `json:"date"`
	Status   OrderStatus     `json:"status"`
}

type Event struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}
