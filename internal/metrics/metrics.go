// README: Prometheus counters for the quote and booking pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quote building metrics
	QuoteBuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipquote_quote_builds_total",
		Help: "Total number of quote sessions built",
	})
	QuoteCandidatesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipquote_quote_candidates_dropped_total",
		Help: "Candidates dropped during quote building, by reason",
	}, []string{"reason"})

	// Booking resolver metrics
	BookingAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipquote_booking_attempts_total",
		Help: "Carrier booking attempts, by carrier",
	}, []string{"carrier"})
	BookingSuccessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipquote_booking_success_total",
		Help: "Successful carrier bookings, by carrier",
	}, []string{"carrier"})
	BookingFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipquote_booking_failures_total",
		Help: "Failed carrier booking attempts, by carrier and error code",
	}, []string{"carrier", "code"})
	BookingFallbackUsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipquote_booking_fallback_used_total",
		Help: "Bookings that succeeded only after falling back to a lower-ranked option",
	})
	BookingExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipquote_booking_exhausted_total",
		Help: "Booking calls that ran out of ranked options without success",
	})
	BookingNonRecoverableTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipquote_booking_nonrecoverable_total",
		Help: "Bookings stopped by a post-AWB failure, by carrier",
	}, []string{"carrier"})
)
