// README: Rate card selector; fixed-priority resolution of the applicable card.
package ratecard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shipquote/internal/log"
	"shipquote/internal/types"
)

type SelectionReason string

const (
	ReasonCustomerOverride SelectionReason = "customer_override"
	ReasonGroupOverride    SelectionReason = "group_override"
	ReasonTimeBound        SelectionReason = "time_bound"
	ReasonDefault          SelectionReason = "default"
)

// CardSource is the store slice the selector needs. Lookups return
// ErrNoRateCard when a tier has no match.
type CardSource interface {
	FindCustomerOverride(ctx context.Context, tenantID, customerID types.ID, at time.Time) (*RateCard, error)
	FindGroupOverride(ctx context.Context, tenantID, groupID types.ID, at time.Time) (*RateCard, error)
	FindPromotion(ctx context.Context, tenantID types.ID, at time.Time) (*RateCard, error)
	GetByID(ctx context.Context, id types.ID) (*RateCard, error)
}

// DefaultCardProvider exposes the tenant's configured default rate card id.
type DefaultCardProvider interface {
	DefaultRateCardID(ctx context.Context, tenantID types.ID) (types.ID, bool, error)
}

type Query struct {
	TenantID        types.ID
	CustomerID      *types.ID
	CustomerGroupID *types.ID
	At              time.Time
}

type Selection struct {
	Card   *RateCard
	Reason SelectionReason
}

type Selector struct {
	cards   CardSource
	tenants DefaultCardProvider
}

func NewSelector(cards CardSource, tenants DefaultCardProvider) *Selector {
	return &Selector{cards: cards, tenants: tenants}
}

// Select resolves the applicable rate card, first match wins:
// customer override, group override, active promotion, tenant default.
// A tier that finds nothing falls through without error; if every tier is
// empty the operation fails with ErrNoRateCard, since pricing cannot
// proceed without a card.
func (s *Selector) Select(ctx context.Context, q Query) (Selection, error) {
	at := q.At
	if at.IsZero() {
		at = time.Now()
	}

	if q.CustomerID != nil {
		card, err := s.cards.FindCustomerOverride(ctx, q.TenantID, *q.CustomerID, at)
		if err == nil {
			return Selection{Card: card, Reason: ReasonCustomerOverride}, nil
		}
		if !errors.Is(err, ErrNoRateCard) {
			return Selection{}, err
		}
	}

	if q.CustomerGroupID != nil {
		card, err := s.cards.FindGroupOverride(ctx, q.TenantID, *q.CustomerGroupID, at)
		if err == nil {
			return Selection{Card: card, Reason: ReasonGroupOverride}, nil
		}
		if !errors.Is(err, ErrNoRateCard) {
			return Selection{}, err
		}
	}

	card, err := s.cards.FindPromotion(ctx, q.TenantID, at)
	if err == nil {
		return Selection{Card: card, Reason: ReasonTimeBound}, nil
	}
	if !errors.Is(err, ErrNoRateCard) {
		return Selection{}, err
	}

	defaultID, ok, err := s.tenants.DefaultRateCardID(ctx, q.TenantID)
	if err != nil {
		return Selection{}, err
	}
	if ok {
		card, err := s.cards.GetByID(ctx, defaultID)
		if err != nil && !errors.Is(err, ErrCardNotFound) {
			return Selection{}, err
		}
		if err == nil {
			if !card.Usable(at) {
				// A configured default pointing at an archived or deleted
				// card is an operator mistake worth surfacing in logs.
				log.Warn(ctx, "tenant default rate card is not usable",
					log.String("tenant_id", string(q.TenantID)),
					log.String("rate_card_id", string(defaultID)))
			} else {
				return Selection{Card: card, Reason: ReasonDefault}, nil
			}
		}
	}

	return Selection{}, fmt.Errorf("tenant %s: %w", q.TenantID, ErrNoRateCard)
}
