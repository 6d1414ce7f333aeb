package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celengan_transactions_posted_total",
		Help: "Number of committed postings by kind.",
	}, []string{"kind"})

	transactionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celengan_transactions_rejected_total",
		Help: "Number of postings refused before commit, by reason.",
	}, []string{"reason"})
)

const (
	reasonValidation        = "validation"
	reasonNotFound          = "not_found"
	reasonInsufficientFunds = "insufficient_funds"
	reasonError             = "error"
)
