// README: Booking resolver: sequential fallback walk over ranked options.
package booking

import (
	"context"
	"fmt"
	"time"

	"shipquote/internal/log"
	"shipquote/internal/metrics"
	"shipquote/internal/modules/quote"
	"shipquote/internal/types"
)

// SessionStore reads sessions and consumes them on success.
type SessionStore interface {
	Get(ctx context.Context, id types.ID) (*quote.Session, error)
	MarkBooked(ctx context.Context, id types.ID) (bool, error)
}

// Locker serializes booking calls per session.
type Locker interface {
	Acquire(ctx context.Context, sessionID types.ID) (bool, error)
	Release(ctx context.Context, sessionID types.ID) error
}

// ShipmentRecorder persists the confirmed booking.
type ShipmentRecorder interface {
	RecordShipment(ctx context.Context, res *Result, sess *quote.Session) error
}

// AdapterSource resolves the adapter for a carrier.
type AdapterSource interface {
	Lookup(carrier string) (Adapter, bool)
}

type Resolver struct {
	sessions       SessionStore
	locks          Locker
	shipments      ShipmentRecorder
	adapters       AdapterSource
	attemptTimeout time.Duration
}

func NewResolver(sessions SessionStore, locks Locker, shipments ShipmentRecorder, adapters AdapterSource, attemptTimeout time.Duration) *Resolver {
	return &Resolver{
		sessions:       sessions,
		locks:          locks,
		shipments:      shipments,
		adapters:       adapters,
		attemptTimeout: attemptTimeout,
	}
}

// Book attempts the selected option, then walks down the ranked options on
// recoverable failures. The walk starts at the caller's choice, never at
// rank one: options ranked above the selection are not retried. A failure
// after the carrier issued an AWB stops the walk immediately.
func (r *Resolver) Book(ctx context.Context, cmd Command) (*Result, error) {
	sessionID := cmd.SessionID
	acquired, err := r.locks.Acquire(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("acquire booking lock: %w", err)
	}
	if !acquired {
		return nil, ErrBookingInProgress
	}
	defer func() {
		if err := r.locks.Release(ctx, sessionID); err != nil {
			log.Warn(ctx, "booking lock release failed",
				log.String("session_id", string(sessionID)), log.Cause(err))
		}
	}()

	sess, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == quote.StatusBooked {
		return nil, quote.ErrSessionUsed
	}
	if sess.Expired(time.Now()) {
		return nil, quote.ErrSessionExpired
	}

	start, ok := sess.OptionIndex(cmd.OptionID)
	if !ok {
		return nil, fmt.Errorf("session %s option %s: %w", sessionID, cmd.OptionID, quote.ErrOptionNotFound)
	}

	var (
		attempts  []Attempt
		attemptNo int
	)
	for i := start; i < len(sess.Options); i++ {
		opt := sess.Options[i]
		attemptNo++
		key := fmt.Sprintf("%s-%s-a%d", sessionID, opt.ID, attemptNo)

		adapter, ok := r.adapters.Lookup(opt.Carrier)
		if !ok {
			attempts = append(attempts, Attempt{
				OptionID:       opt.ID,
				Carrier:        opt.Carrier,
				IdempotencyKey: key,
				Code:           CodeNoAdapter,
				Message:        ErrNoAdapter.Error(),
				Recoverable:    true,
				At:             time.Now(),
			})
			metrics.BookingFailuresTotal.WithLabelValues(opt.Carrier, CodeNoAdapter).Inc()
			continue
		}

		metrics.BookingAttemptsTotal.WithLabelValues(opt.Carrier).Inc()
		conf, err := r.attempt(ctx, adapter, Request{
			SessionID: sessionID,
			TenantID:  sess.TenantID,
			SellerID:  sess.SellerID,
			Option:    opt,
			Params:    sess.Params,
		}, key)
		if err == nil {
			return r.confirm(ctx, cmd, sess, opt, conf, attemptNo, i > start, attempts)
		}

		c := classify(err)
		attempts = append(attempts, Attempt{
			OptionID:       opt.ID,
			Carrier:        opt.Carrier,
			IdempotencyKey: key,
			Code:           c.code,
			Message:        c.message,
			Recoverable:    c.recoverable,
			At:             time.Now(),
		})
		metrics.BookingFailuresTotal.WithLabelValues(opt.Carrier, c.code).Inc()
		log.Warn(ctx, "booking attempt failed",
			log.String("session_id", string(sessionID)),
			log.String("option_id", string(opt.ID)),
			log.String("carrier", opt.Carrier),
			log.String("code", c.code),
			log.Bool("recoverable", c.recoverable),
			log.Cause(err))

		if !c.recoverable {
			if c.postAwb {
				metrics.BookingNonRecoverableTotal.WithLabelValues(opt.Carrier).Inc()
			}
			return nil, &NonRecoverableError{
				OptionID:       opt.ID,
				Carrier:        opt.Carrier,
				Code:           c.code,
				Message:        c.message,
				TrackingNumber: c.tracking,
				Attempts:       attempts,
			}
		}
	}

	metrics.BookingExhaustedTotal.Inc()
	return nil, &ExhaustedError{SessionID: sessionID, Attempts: attempts}
}

func (r *Resolver) attempt(ctx context.Context, adapter Adapter, req Request, key string) (*Confirmation, error) {
	actx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
	defer cancel()
	return adapter.CreateBooking(actx, req, key)
}

func (r *Resolver) confirm(ctx context.Context, cmd Command, sess *quote.Session, opt quote.Option, conf *Confirmation, attemptNo int, fellBack bool, attempts []Attempt) (*Result, error) {
	booked, err := r.sessions.MarkBooked(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("mark session booked: %w", err)
	}
	if !booked {
		// The session was consumed or expired between Get and the carrier
		// call. The carrier shipment exists; surface it for reconciliation.
		return nil, &NonRecoverableError{
			OptionID:       opt.ID,
			Carrier:        opt.Carrier,
			Code:           CodeUnclassified,
			Message:        "session no longer bookable after carrier confirmed",
			TrackingNumber: conf.TrackingNumber,
			Attempts:       attempts,
		}
	}

	res := &Result{
		SessionID:      sess.ID,
		OrderID:        cmd.OrderID,
		OptionID:       opt.ID,
		Carrier:        opt.Carrier,
		Service:        opt.Service,
		TrackingNumber: conf.TrackingNumber,
		Amount:         opt.SellAmount,
		AttemptCount:   attemptNo,
		FallbackUsed:   fellBack,
		Attempts:       attempts,
	}

	metrics.BookingSuccessTotal.WithLabelValues(opt.Carrier).Inc()
	if fellBack {
		metrics.BookingFallbackUsedTotal.Inc()
	}

	if err := r.shipments.RecordShipment(ctx, res, sess); err != nil {
		// The carrier booking is real even if our own write failed; keep
		// the result so the tracking number is not lost.
		log.Error(ctx, "shipment record write failed",
			log.String("session_id", string(sess.ID)),
			log.String("tracking_number", res.TrackingNumber),
			log.Cause(err))
	}

	log.Info(ctx, "booking confirmed",
		log.String("session_id", string(sess.ID)),
		log.String("option_id", string(opt.ID)),
		log.String("carrier", opt.Carrier),
		log.String("tracking_number", res.TrackingNumber),
		log.Int("attempt_count", attemptNo),
		log.Bool("fallback_used", fellBack))
	return res, nil
}
