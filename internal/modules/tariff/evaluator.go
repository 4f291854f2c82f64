// README: Tariff evaluator; layered price computation over a rate card.
package tariff

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/zone"
	"shipquote/internal/types"
)

type PaymentMode string

const (
	PaymentPrepaid PaymentMode = "prepaid"
	PaymentCOD     PaymentMode = "cod"
)

type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
)

const (
	DefaultDimDivisor      = 5000.0
	DefaultWeightRoundUnit = 0.5
)

var (
	ErrNoZoneRule    = errors.New("rate card has no rule for zone and no ALL wildcard")
	ErrInvalidWeight = errors.New("weight must be positive")
)

// Dimensions in centimetres.
type Dimensions struct {
	LengthCm float64
	WidthCm  float64
	HeightCm float64
}

type Input struct {
	Zone           zone.Zone
	ActualWeightKg float64
	Dims           Dimensions
	PaymentMode    PaymentMode
	Direction      Direction
	DeclaredValue  decimal.Decimal
	CODAmount      decimal.Decimal
	GSTPercent     decimal.Decimal
}

// Breakdown is the priced result with every named component. Components
// stay unrounded decimals; Total is the single point of monetary rounding.
type Breakdown struct {
	Zone                   zone.Zone
	ChargeableWeightKg     float64
	BaseCharge             decimal.Decimal
	AdditionalWeightCharge decimal.Decimal
	ZoneSurcharge          decimal.Decimal
	FuelSurcharge          decimal.Decimal
	CODFee                 decimal.Decimal
	MinimumAdjustment      decimal.Decimal
	Subtotal               decimal.Decimal
	Tax                    decimal.Decimal
	Total                  types.Money
}

// ChargeableWeight computes max(actual, volumetric) rounded up to the
// rounding unit. divisor and roundUnit fall back to carrier-convention
// defaults when the card leaves them unset.
func ChargeableWeight(actualKg float64, dims Dimensions, divisor, roundUnit float64) float64 {
	if divisor <= 0 {
		divisor = DefaultDimDivisor
	}
	if roundUnit <= 0 {
		roundUnit = DefaultWeightRoundUnit
	}
	volumetric := dims.LengthCm * dims.WidthCm * dims.HeightCm / divisor
	w := math.Max(actualKg, volumetric)
	return math.Ceil(w/roundUnit) * roundUnit
}

// Evaluate prices one shipment against a resolved card and zone:
// slab lookup, overweight per-kg charge, zone surcharge, fuel surcharge on
// the configured basis, COD/RTO fee, minimum-charge floor, then GST.
func Evaluate(card *ratecard.RateCard, in Input) (*Breakdown, error) {
	if in.ActualWeightKg <= 0 {
		return nil, ErrInvalidWeight
	}

	rule, ok := card.RuleForZone(in.Zone)
	if !ok {
		return nil, fmt.Errorf("card %s zone %s: %w", card.ID, in.Zone, ErrNoZoneRule)
	}

	cw := ChargeableWeight(in.ActualWeightKg, in.Dims, card.DimDivisor, card.WeightRoundUnit)
	base, additional := weightCharge(rule, cw)
	freight := base.Add(additional)

	fuelBase := freight
	if card.FuelBasis == ratecard.FuelBasisFreightZone {
		fuelBase = fuelBase.Add(rule.ZoneSurcharge)
	}
	fuel := fuelBase.Mul(card.FuelSurchargePct).Div(decimal.NewFromInt(100))

	fee := feeFor(rule, in, freight, cw)

	subtotal := freight.Add(rule.ZoneSurcharge).Add(fuel).Add(fee)

	// The floor replaces the subtotal; it never stacks on top of it.
	var adjustment decimal.Decimal
	if card.MinimumCharge.IsPositive() && subtotal.LessThan(card.MinimumCharge) {
		adjustment = card.MinimumCharge.Sub(subtotal)
		subtotal = card.MinimumCharge
	}

	tax := subtotal.Mul(in.GSTPercent).Div(decimal.NewFromInt(100))

	return &Breakdown{
		Zone:                   in.Zone,
		ChargeableWeightKg:     cw,
		BaseCharge:             base,
		AdditionalWeightCharge: additional,
		ZoneSurcharge:          rule.ZoneSurcharge,
		FuelSurcharge:          fuel,
		CODFee:                 fee,
		MinimumAdjustment:      adjustment,
		Subtotal:               subtotal,
		Tax:                    tax,
		Total:                  types.MoneyFromDecimal(subtotal.Add(tax), card.Currency),
	}, nil
}

// weightCharge walks the ordered slabs. Chargeable weights land on slab
// boundaries after rounding, so a boundary weight belongs to the lower
// slab; weight beyond the last slab pays its charge plus the per-kg rate
// on the excess.
func weightCharge(rule *ratecard.ZoneRule, cw float64) (base, additional decimal.Decimal) {
	if len(rule.Slabs) == 0 {
		return decimal.Zero, decimal.Zero
	}

	w := decimal.NewFromFloat(cw)
	for _, slab := range rule.Slabs {
		if w.GreaterThan(decimal.NewFromFloat(slab.MinKg)) &&
			w.LessThanOrEqual(decimal.NewFromFloat(slab.MaxKg)) {
			return slab.Charge, decimal.Zero
		}
	}

	last := rule.Slabs[len(rule.Slabs)-1]
	excess := w.Sub(decimal.NewFromFloat(last.MaxKg))
	if excess.IsNegative() {
		// Below the first slab's minimum; charge the first slab.
		return rule.Slabs[0].Charge, decimal.Zero
	}
	return last.Charge, rule.AdditionalPerKg.Mul(excess)
}

func feeFor(rule *ratecard.ZoneRule, in Input, freight decimal.Decimal, cw float64) decimal.Decimal {
	var fee *ratecard.FeeRule
	switch {
	case in.Direction == DirectionReverse:
		fee = rule.RTORule
	case in.PaymentMode == PaymentCOD:
		fee = rule.CODRule
	}
	if fee == nil {
		return decimal.Zero
	}
	return fee.Evaluate(map[ratecard.FeeBasis]decimal.Decimal{
		ratecard.BasisCODAmount:  in.CODAmount,
		ratecard.BasisOrderValue: in.DeclaredValue,
		ratecard.BasisFreight:    freight,
		ratecard.BasisWeight:     decimal.NewFromFloat(cw),
	})
}
