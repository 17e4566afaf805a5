package domain

import "time"

// OrderSummary aggregates a set of orders. Pending counts orders that are
// Processing or Shipped.
type OrderSummary struct {
	TotalAmount     int64 `json:"total_amount"`
	TotalOrders     int   `json:"total_orders"`
	PendingOrders   int   `json:"pending_orders"`
	DeliveredOrders int   `json:"delivered_orders"`
}

// Add folds o into the summary.
func (s *OrderSummary) Add(o *Order) {
	s.TotalAmount += o.TotalPrice
	s.TotalOrders++
	switch o.Status {
	case OrderStatusProcessing, OrderStatusShipped:
		s.PendingOrders++
	case OrderStatusDelivered:
		s.DeliveredOrders++
	}
}

// Summarize aggregates orders.
func Summarize(orders []Order) OrderSummary {
	var s OrderSummary
	for i := range orders {
		s.Add(&orders[i])
	}
	return s
}

// AnalyticsFilter narrows the orders an analytics query covers. The zero
// value matches every order. From is inclusive, To exclusive.
type AnalyticsFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
}

// Matches reports whether o falls within the filter.
func (f AnalyticsFilter) Matches(o *Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.From != nil && o.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !o.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}
