// README: Pricing orchestrator; composes zone, rate card, and tariff.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"shipquote/internal/log"
	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/tariff"
	"shipquote/internal/modules/zone"
)

// ZoneResolver classifies an origin/destination pincode pair.
type ZoneResolver interface {
	Resolve(ctx context.Context, origin, dest, carrier string) (zone.Zone, error)
}

// CardSelector resolves the applicable sell-side rate card.
type CardSelector interface {
	Select(ctx context.Context, q ratecard.Query) (ratecard.Selection, error)
}

// CostCardSource resolves the platform's buy-side card for a carrier.
type CostCardSource interface {
	FindCostCard(ctx context.Context, carrierID string, at time.Time) (*ratecard.RateCard, error)
}

type Service struct {
	zones      ZoneResolver
	selector   CardSelector
	costCards  CostCardSource
	gstPercent decimal.Decimal
}

func NewService(zones ZoneResolver, selector CardSelector, costCards CostCardSource, gstPercent float64) *Service {
	return &Service{
		zones:      zones,
		selector:   selector,
		costCards:  costCards,
		gstPercent: decimal.NewFromFloat(gstPercent),
	}
}

// Evaluate prices one candidate: resolve zone, resolve rate card, evaluate
// the tariff, and attach cost-side pricing when the carrier has a cost
// card. Rate-card resolution failure is a domain error, never a silent
// zero; callers building a multi-option quote drop the candidate instead
// of aborting the whole quote.
func (s *Service) Evaluate(ctx context.Context, q Query) (*Quote, error) {
	z, err := s.zones.Resolve(ctx, q.Params.OriginPincode, q.Params.DestPincode, q.Candidate.Carrier)
	if err != nil {
		return nil, fmt.Errorf("resolve zone: %w", err)
	}

	at := q.At
	if at.IsZero() {
		at = time.Now()
	}

	selection, err := s.selector.Select(ctx, ratecard.Query{
		TenantID:        q.TenantID,
		CustomerID:      q.CustomerID,
		CustomerGroupID: q.CustomerGroupID,
		At:              at,
	})
	if err != nil {
		return nil, fmt.Errorf("select rate card: %w", err)
	}

	gst := s.gstPercent
	if q.GSTPercent != nil {
		gst = decimal.NewFromFloat(*q.GSTPercent)
	}
	in := tariff.Input{
		Zone:           z,
		ActualWeightKg: q.Params.ActualWeightKg,
		Dims:           q.Params.Dims,
		PaymentMode:    q.Params.PaymentMode,
		Direction:      q.Params.Direction,
		DeclaredValue:  q.Params.DeclaredValue,
		CODAmount:      q.Params.CODAmount,
		GSTPercent:     gst,
	}

	sell, err := tariff.Evaluate(selection.Card, in)
	if err != nil {
		return nil, fmt.Errorf("evaluate tariff for card %s: %w", selection.Card.ID, err)
	}

	quote := &Quote{
		Candidate:       q.Candidate,
		Zone:            z,
		RateCardID:      selection.Card.ID,
		SelectionReason: selection.Reason,
		Sell:            sell,
		Source:          SourceComputed,
		Confidence:      ConfidenceLow,
	}

	cost, err := s.evaluateCost(ctx, q.Candidate.Carrier, at, in)
	if err != nil {
		return nil, err
	}
	if cost != nil {
		quote.Cost = cost
		quote.Source = SourceTable
		quote.Confidence = ConfidenceHigh
	}

	return quote, nil
}

// evaluateCost prices the carrier's cost card when one exists. A missing
// cost card is not an error: the quote simply carries computed confidence.
func (s *Service) evaluateCost(ctx context.Context, carrier string, at time.Time, in tariff.Input) (*tariff.Breakdown, error) {
	card, err := s.costCards.FindCostCard(ctx, carrier, at)
	if errors.Is(err, ratecard.ErrNoRateCard) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cost card for %s: %w", carrier, err)
	}

	cost, err := tariff.Evaluate(card, in)
	if err != nil {
		// A misconfigured cost card should not block selling; log and
		// degrade to computed confidence.
		log.Warn(ctx, "cost card evaluation failed",
			log.String("carrier", carrier),
			log.String("rate_card_id", string(card.ID)),
			log.Cause(err))
		return nil, nil
	}
	return cost, nil
}
