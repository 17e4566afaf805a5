package domain

import "time"

// RentalOrderStatusPending is the status of a newly placed rental order.
const RentalOrderStatusPending = "pending"

// RentalOrder is a request to rent a product at its current rental price.
type RentalOrder struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Price     int64     `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
