package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderengine_order_transitions_total",
			Help: "Committed order status transitions",
		},
		[]string{"from", "to"},
	)

	stockDecrementsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderengine_stock_decrements_total",
			Help: "Product stock decrements applied",
		},
	)

	negativeStockTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderengine_negative_stock_total",
			Help: "Stock decrements that left a product below zero",
		},
	)

	reviewWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderengine_review_writes_total",
			Help: "Committed review writes by action",
		},
		[]string{"action"},
	)

	reviewConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderengine_review_conflicts_total",
			Help: "Review writes that lost a version compare-and-swap",
		},
	)
)
