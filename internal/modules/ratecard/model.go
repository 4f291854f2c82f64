// README: Rate card aggregate: zone rules, weight slabs, and fee rules.
package ratecard

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"shipquote/internal/modules/zone"
	"shipquote/internal/types"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// FuelBasis selects what the fuel surcharge percentage applies to.
type FuelBasis string

const (
	FuelBasisFreight     FuelBasis = "freight"
	FuelBasisFreightZone FuelBasis = "freight_zone"
)

var (
	ErrNoRateCard     = errors.New("no applicable rate card")
	ErrCardNotFound   = errors.New("rate card not found")
	ErrAmbiguousRule  = errors.New("fee rule mixes mutually exclusive shapes")
	ErrEmptyRule      = errors.New("fee rule has no variant populated")
	ErrUnorderedSlabs = errors.New("weight slabs must be ordered and non-overlapping")
)

// RateCard is a versioned pricing contract. Cards are soft-deleted only, so
// shipments priced against an old card keep their audit trail.
type RateCard struct {
	ID                 types.ID        `json:"id"`
	TenantID           types.ID        `json:"tenantId"`
	CustomerID         *types.ID       `json:"customerId,omitempty"`
	CustomerGroupID    *types.ID       `json:"customerGroupId,omitempty"`
	CarrierID          string          `json:"carrierId,omitempty"`
	Name               string          `json:"name"`
	Priority           int             `json:"priority"`
	IsSpecialPromotion bool            `json:"isSpecialPromotion"`
	Status             Status          `json:"status"`
	Currency           string          `json:"currency"`
	EffectiveFrom      time.Time       `json:"effectiveFrom"`
	EffectiveTo        *time.Time      `json:"effectiveTo,omitempty"`
	FuelSurchargePct   decimal.Decimal `json:"fuelSurchargePct"`
	FuelBasis          FuelBasis       `json:"fuelBasis"`
	MinimumCharge      decimal.Decimal `json:"minimumCharge"`
	WeightRoundUnit    float64         `json:"weightRoundUnit"`
	DimDivisor         float64         `json:"dimDivisor"`
	ZoneRules          []ZoneRule      `json:"zoneRules"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	DeletedAt          *time.Time      `json:"-"`
}

// Slab is one weight band at a flat charge. Chargeable weights land on
// band boundaries after rounding; a weight equal to MaxKg belongs here.
type Slab struct {
	MinKg  float64         `json:"minKg"`
	MaxKg  float64         `json:"maxKg"`
	Charge decimal.Decimal `json:"charge"`
}

// ZoneRule prices one zone (or the "ALL" wildcard) on a card.
type ZoneRule struct {
	Zone            zone.Zone       `json:"zone"`
	Slabs           []Slab          `json:"slabs"`
	AdditionalPerKg decimal.Decimal `json:"additionalPerKg"`
	ZoneSurcharge   decimal.Decimal `json:"zoneSurcharge"`
	CODRule         *FeeRule        `json:"codRule,omitempty"`
	RTORule         *FeeRule        `json:"rtoRule,omitempty"`
}

// EffectiveAt reports whether the card's effective window covers t.
func (c *RateCard) EffectiveAt(t time.Time) bool {
	if t.Before(c.EffectiveFrom) {
		return false
	}
	if c.EffectiveTo != nil && t.After(*c.EffectiveTo) {
		return false
	}
	return true
}

// Usable reports whether the card may price shipments at t.
func (c *RateCard) Usable(t time.Time) bool {
	return c.Status == StatusActive && c.DeletedAt == nil && c.EffectiveAt(t)
}

// RuleForZone returns the rule for z, falling back to the "ALL" wildcard.
func (c *RateCard) RuleForZone(z zone.Zone) (*ZoneRule, bool) {
	var wildcard *ZoneRule
	for i := range c.ZoneRules {
		switch c.ZoneRules[i].Zone {
		case z:
			return &c.ZoneRules[i], true
		case zone.ZoneAll:
			wildcard = &c.ZoneRules[i]
		}
	}
	if wildcard != nil {
		return wildcard, true
	}
	return nil, false
}

// Validate checks structural invariants before a card is persisted.
func (c *RateCard) Validate() error {
	if c.Currency == "" {
		return errors.New("currency is required")
	}
	for _, zr := range c.ZoneRules {
		if err := validateSlabs(zr.Slabs); err != nil {
			return fmt.Errorf("zone %s: %w", zr.Zone, err)
		}
		if zr.CODRule != nil {
			if err := zr.CODRule.Validate(); err != nil {
				return fmt.Errorf("zone %s cod rule: %w", zr.Zone, err)
			}
		}
		if zr.RTORule != nil {
			if err := zr.RTORule.Validate(); err != nil {
				return fmt.Errorf("zone %s rto rule: %w", zr.Zone, err)
			}
		}
	}
	return nil
}

func validateSlabs(slabs []Slab) error {
	for i, s := range slabs {
		if s.MaxKg <= s.MinKg {
			return ErrUnorderedSlabs
		}
		if i > 0 && s.MinKg < slabs[i-1].MaxKg {
			return ErrUnorderedSlabs
		}
	}
	return nil
}
