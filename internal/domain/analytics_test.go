package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixtureOrders() []Order {
	day := func(d int) time.Time { return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC) }
	return []Order{
		{ID: "o1", Status: OrderStatusProcessing, TotalPrice: 1000, CreatedAt: day(1)},
		{ID: "o2", Status: OrderStatusProcessing, TotalPrice: 2000, CreatedAt: day(2)},
		{ID: "o3", Status: OrderStatusShipped, TotalPrice: 500, CreatedAt: day(3)},
		{ID: "o4", Status: OrderStatusDelivered, TotalPrice: 700, CreatedAt: day(4)},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixtureOrders())

	assert.Equal(t, OrderSummary{
		TotalAmount:     4200,
		TotalOrders:     4,
		PendingOrders:   3,
		DeliveredOrders: 1,
	}, s)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, OrderSummary{}, Summarize(nil))
}

func TestAnalyticsFilter_Matches(t *testing.T) {
	orders := fixtureOrders()
	from := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)

	var matched []string
	f := AnalyticsFilter{From: &from, To: &to}
	for i := range orders {
		if f.Matches(&orders[i]) {
			matched = append(matched, orders[i].ID)
		}
	}
	assert.Equal(t, []string{"o2", "o3"}, matched)

	assert.True(t, AnalyticsFilter{}.Matches(&orders[3]))
	assert.False(t, AnalyticsFilter{Status: OrderStatusShipped}.Matches(&orders[0]))
}
