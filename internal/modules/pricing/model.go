// README: Pricing orchestrator types: candidates, shipment params, quotes.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/tariff"
	"shipquote/internal/modules/zone"
	"shipquote/internal/types"
)

// Candidate is one carrier/service combination eligible to price.
type Candidate struct {
	Carrier string `json:"carrier"`
	Service string `json:"service"`
}

// ShipmentParams are the shopping inputs shared by every candidate.
type ShipmentParams struct {
	OriginPincode  string             `json:"originPincode"`
	DestPincode    string             `json:"destPincode"`
	ActualWeightKg float64            `json:"actualWeightKg"`
	Dims           tariff.Dimensions  `json:"dims"`
	PaymentMode    tariff.PaymentMode `json:"paymentMode"`
	Direction      tariff.Direction   `json:"direction"`
	DeclaredValue  decimal.Decimal    `json:"declaredValue"`
	CODAmount      decimal.Decimal    `json:"codAmount"`
}

// Source records how the cost side of a quote was obtained: from a carrier
// cost card ("table") or derived without one ("computed").
type Source string

const (
	SourceTable    Source = "table"
	SourceComputed Source = "computed"
)

type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

type Query struct {
	TenantID        types.ID
	CustomerID      *types.ID
	CustomerGroupID *types.ID
	Candidate       Candidate
	Params          ShipmentParams
	At              time.Time
	// GSTPercent overrides the platform-wide rate when the tenant has one
	// configured.
	GSTPercent *float64
}

// Quote is the priced result for one candidate, carrying the zone and rate
// card identifiers used so the selection is auditable.
type Quote struct {
	Candidate       Candidate
	Zone            zone.Zone
	RateCardID      types.ID
	SelectionReason ratecard.SelectionReason
	Sell            *tariff.Breakdown
	Cost            *tariff.Breakdown
	Source          Source
	Confidence      Confidence
}

// Margin returns sell minus cost in minor units. Zero-margin quotes are
// reported as such rather than hidden.
func (q *Quote) Margin() types.Money {
	if q.Cost == nil {
		return types.Money{Amount: 0, Currency: q.Sell.Total.Currency}
	}
	return types.Money{
		Amount:   q.Sell.Total.Amount - q.Cost.Total.Amount,
		Currency: q.Sell.Total.Currency,
	}
}

// MarginPercent returns the margin as a percentage of the sell total.
func (q *Quote) MarginPercent() decimal.Decimal {
	if q.Cost == nil || q.Sell.Total.Amount == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(q.Margin().Amount).
		Div(decimal.NewFromInt(q.Sell.Total.Amount)).
		Mul(decimal.NewFromInt(100))
}
