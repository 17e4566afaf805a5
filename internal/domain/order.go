package domain

import "time"

// Order status constants. Processing is the initial state, Delivered is
// terminal.
const (
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
)

// Order represents a customer order. Prices are in minor currency units and
// are fixed when the order is created.
type Order struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	Items         []OrderItem  `json:"order_items"`
	Status        string       `json:"order_status"`
	ShippingInfo  ShippingInfo `json:"shipping_info"`
	PaymentInfo   PaymentInfo  `json:"payment_info"`
	ItemsPrice    int64        `json:"items_price"`
	TaxPrice      int64        `json:"tax_price"`
	ShippingPrice int64        `json:"shipping_price"`
	TotalPrice    int64        `json:"total_price"`

	// ShippedStockApplied is set in the same write that moves the order to
	// Shipped and never cleared; stock is reconciled only while it is false.
	ShippedStockApplied bool `json:"shipped_stock_applied"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ShippingInfo is the delivery address captured at checkout.
type ShippingInfo struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	PinCode string `json:"pin_code"`
	PhoneNo string `json:"phone_no"`
}

// PaymentInfo references the payment processor's record for the order.
type PaymentInfo struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ValidStatuses returns all valid order statuses in lifecycle order.
func ValidStatuses() []string {
	return []string{
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusProcessing: {OrderStatusShipped},
		OrderStatusShipped:    {OrderStatusDelivered},
		OrderStatusDelivered:  {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	for _, s := range AllowedTransitions()[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order accepts no further status changes.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered
}

// NeedsStockReconciliation reports whether moving to target must decrement
// product stock for every line.
func (o *Order) NeedsStockReconciliation(target string) bool {
	return target == OrderStatusShipped && !o.ShippedStockApplied
}

// MarkShipped records the Shipped transition after stock was reconciled.
func (o *Order) MarkShipped(now time.Time) {
	o.Status = OrderStatusShipped
	o.ShippedStockApplied = true
	if o.ShippedAt == nil {
		o.ShippedAt = &now
	}
	o.UpdatedAt = now
}

// MarkDelivered records the Delivered transition. DeliveredAt keeps its
// first value.
func (o *Order) MarkDelivered(now time.Time) {
	o.Status = OrderStatusDelivered
	if o.DeliveredAt == nil {
		o.DeliveredAt = &now
	}
	o.UpdatedAt = now
}

// ItemsTotal sums the line totals.
func (o *Order) ItemsTotal() int64 {
	var total int64
	for i := range o.Items {
		total += o.Items[i].LineTotal()
	}
	return total
}
