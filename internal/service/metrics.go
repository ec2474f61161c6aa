package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	salesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloompos_sales_total",
			Help: "Sale attempts by outcome and payment method.",
		},
		[]string{"outcome", "payment_method"},
	)

	salesAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloompos_sales_amount_total",
			Help: "Value of completed sales by payment method.",
		},
		[]string{"payment_method"},
	)

	sessionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bloompos_session_conflicts_total",
			Help: "Checkout session saves rejected by the version check.",
		},
	)

	suggestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloompos_suggestions_total",
			Help: "Arrangement suggestion requests by result.",
		},
		[]string{"result"},
	)

	suggestionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bloompos_suggestion_duration_seconds",
			Help:    "Latency of arrangement suggestion provider calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
	)
)
