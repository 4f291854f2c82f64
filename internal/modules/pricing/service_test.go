// README: Pricing orchestrator tests with fake collaborators.
package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/zone"
	"shipquote/internal/types"
)

type fakeZones struct {
	zone zone.Zone
	err  error
}

func (f fakeZones) Resolve(context.Context, string, string, string) (zone.Zone, error) {
	return f.zone, f.err
}

type fakeSelector struct {
	card *ratecard.RateCard
	err  error
}

func (f fakeSelector) Select(context.Context, ratecard.Query) (ratecard.Selection, error) {
	if f.err != nil {
		return ratecard.Selection{}, f.err
	}
	return ratecard.Selection{Card: f.card, Reason: ratecard.ReasonDefault}, nil
}

type fakeCostCards struct {
	card *ratecard.RateCard
}

func (f fakeCostCards) FindCostCard(context.Context, string, time.Time) (*ratecard.RateCard, error) {
	if f.card == nil {
		return nil, ratecard.ErrNoRateCard
	}
	return f.card, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func flatCard(id string, charge string) *ratecard.RateCard {
	return &ratecard.RateCard{
		ID:       types.ID("card-" + id),
		Status:   ratecard.StatusActive,
		Currency: "INR",
		ZoneRules: []ratecard.ZoneRule{{
			Zone:  zone.ZoneAll,
			Slabs: []ratecard.Slab{{MinKg: 0, MaxKg: 100, Charge: dec(charge)}},
		}},
	}
}

func baseQuery() Query {
	return Query{
		TenantID:  "t1",
		Candidate: Candidate{Carrier: "bluedart", Service: "surface"},
		Params: ShipmentParams{
			OriginPincode:  "110001",
			DestPincode:    "400001",
			ActualWeightKg: 1,
		},
	}
}

func TestEvaluateWithCostCard(t *testing.T) {
	svc := NewService(
		fakeZones{zone: zone.ZoneNational},
		fakeSelector{card: flatCard("sell", "120")},
		fakeCostCards{card: flatCard("cost", "90")},
		18,
	)

	q, err := svc.Evaluate(context.Background(), baseQuery())
	require.NoError(t, err)

	require.Equal(t, zone.ZoneNational, q.Zone)
	require.Equal(t, ratecard.ReasonDefault, q.SelectionReason)
	require.Equal(t, SourceTable, q.Source)
	require.Equal(t, ConfidenceHigh, q.Confidence)
	require.EqualValues(t, 14160, q.Sell.Total.Amount) // 120 + 18% GST
	require.EqualValues(t, 10620, q.Cost.Total.Amount) // 90 + 18% GST
	require.EqualValues(t, 3540, q.Margin().Amount)
	require.True(t, q.MarginPercent().Equal(dec("25")))
}

func TestEvaluateWithoutCostCard(t *testing.T) {
	svc := NewService(
		fakeZones{zone: zone.ZoneNational},
		fakeSelector{card: flatCard("sell", "120")},
		fakeCostCards{},
		18,
	)

	q, err := svc.Evaluate(context.Background(), baseQuery())
	require.NoError(t, err)

	require.Nil(t, q.Cost)
	require.Equal(t, SourceComputed, q.Source)
	require.Equal(t, ConfidenceLow, q.Confidence)
	require.EqualValues(t, 0, q.Margin().Amount)
	require.True(t, q.MarginPercent().IsZero())
}

func TestEvaluateNoRateCardFailsLoudly(t *testing.T) {
	svc := NewService(
		fakeZones{zone: zone.ZoneNational},
		fakeSelector{err: ratecard.ErrNoRateCard},
		fakeCostCards{},
		18,
	)

	_, err := svc.Evaluate(context.Background(), baseQuery())
	require.ErrorIs(t, err, ratecard.ErrNoRateCard)
}

func TestEvaluateZoneErrorPropagates(t *testing.T) {
	svc := NewService(
		fakeZones{err: zone.ErrBadPincode},
		fakeSelector{card: flatCard("sell", "120")},
		fakeCostCards{},
		18,
	)

	q := baseQuery()
	q.Params.OriginPincode = "12"
	_, err := svc.Evaluate(context.Background(), q)
	require.True(t, errors.Is(err, zone.ErrBadPincode))
}
