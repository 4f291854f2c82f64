// README: COD/RTO fee rule variants (flat, percentage, banded slab).
package ratecard

import (
	"github.com/shopspring/decimal"
)

type FeeKind string

const (
	FeeFlat    FeeKind = "flat"
	FeePercent FeeKind = "percent"
	FeeSlab    FeeKind = "slab"
)

// FeeBasis selects the amount a percentage or band table keys on.
type FeeBasis string

const (
	BasisCODAmount  FeeBasis = "cod_amount"
	BasisOrderValue FeeBasis = "order_value"
	BasisFreight    FeeBasis = "freight"
	BasisWeight     FeeBasis = "weight"
)

// FeeBand is one row of a banded fee table: basis value up to (and
// including) UpTo costs Amount. Bands are ordered ascending; a basis value
// beyond the last band pays the last band's amount.
type FeeBand struct {
	UpTo   decimal.Decimal `json:"upTo"`
	Amount decimal.Decimal `json:"amount"`
}

// FeeRule is a tagged union: exactly one variant is populated, selected by
// Kind. The three shapes are mutually exclusive per rule instance.
type FeeRule struct {
	Kind    FeeKind         `json:"kind"`
	Flat    decimal.Decimal `json:"flat,omitempty"`
	Percent decimal.Decimal `json:"percent,omitempty"`
	Basis   FeeBasis        `json:"basis,omitempty"`
	Bands   []FeeBand       `json:"bands,omitempty"`
}

// Validate rejects rules constructed with fields from two variants at once.
func (r *FeeRule) Validate() error {
	switch r.Kind {
	case FeeFlat:
		if !r.Percent.IsZero() || len(r.Bands) > 0 {
			return ErrAmbiguousRule
		}
	case FeePercent:
		if !r.Flat.IsZero() || len(r.Bands) > 0 {
			return ErrAmbiguousRule
		}
		if r.Basis == "" {
			return ErrEmptyRule
		}
	case FeeSlab:
		if !r.Flat.IsZero() || !r.Percent.IsZero() {
			return ErrAmbiguousRule
		}
		if len(r.Bands) == 0 || r.Basis == "" {
			return ErrEmptyRule
		}
	default:
		return ErrEmptyRule
	}
	return nil
}

// Evaluate computes the fee for the given basis amounts. bases maps each
// FeeBasis to its value for the shipment being priced (weight expressed in
// kilograms as a decimal).
func (r *FeeRule) Evaluate(bases map[FeeBasis]decimal.Decimal) decimal.Decimal {
	switch r.Kind {
	case FeeFlat:
		return r.Flat
	case FeePercent:
		return bases[r.Basis].Mul(r.Percent).Div(decimal.NewFromInt(100))
	case FeeSlab:
		v := bases[r.Basis]
		for _, band := range r.Bands {
			if v.LessThanOrEqual(band.UpTo) {
				return band.Amount
			}
		}
		return r.Bands[len(r.Bands)-1].Amount
	}
	return decimal.Zero
}

// LegacyFeeRule is the loosely-typed payload older rate cards carry: no
// kind tag, every field optional. NormalizeLegacyFeeRule is the explicit
// migration from that shape into the tagged union.
type LegacyFeeRule struct {
	Flat    *decimal.Decimal `json:"flat,omitempty"`
	Percent *decimal.Decimal `json:"percent,omitempty"`
	Basis   FeeBasis         `json:"basis,omitempty"`
	Bands   []FeeBand        `json:"bands,omitempty"`
}

// NormalizeLegacyFeeRule converts an untagged legacy payload into a tagged
// FeeRule. A payload populating more than one variant is rejected rather
// than silently coerced.
func NormalizeLegacyFeeRule(legacy LegacyFeeRule) (FeeRule, error) {
	populated := 0
	if legacy.Flat != nil && !legacy.Flat.IsZero() {
		populated++
	}
	if legacy.Percent != nil && !legacy.Percent.IsZero() {
		populated++
	}
	if len(legacy.Bands) > 0 {
		populated++
	}
	if populated == 0 {
		return FeeRule{}, ErrEmptyRule
	}
	if populated > 1 {
		return FeeRule{}, ErrAmbiguousRule
	}

	switch {
	case legacy.Flat != nil && !legacy.Flat.IsZero():
		return FeeRule{Kind: FeeFlat, Flat: *legacy.Flat}, nil
	case legacy.Percent != nil && !legacy.Percent.IsZero():
		basis := legacy.Basis
		if basis == "" {
			// Legacy percentage rules implicitly applied to the COD amount.
			basis = BasisCODAmount
		}
		return FeeRule{Kind: FeePercent, Percent: *legacy.Percent, Basis: basis}, nil
	default:
		basis := legacy.Basis
		if basis == "" {
			basis = BasisWeight
		}
		return FeeRule{Kind: FeeSlab, Bands: legacy.Bands, Basis: basis}, nil
	}
}
