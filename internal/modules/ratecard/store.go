// README: Rate card store backed by PostgreSQL (zone rules as jsonb).
package ratecard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shipquote/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const cardColumns = `
	id, tenant_id, customer_id, customer_group_id, carrier_id, name,
	priority, is_special_promotion, status, currency,
	effective_from, effective_to,
	fuel_surcharge_pct, fuel_basis, minimum_charge,
	weight_round_unit, dim_divisor, zone_rules,
	created_at, updated_at, deleted_at`

func (s *Store) Create(ctx context.Context, c *RateCard) error {
	if err := c.Validate(); err != nil {
		return err
	}
	rules, err := json.Marshal(c.ZoneRules)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO rate_cards (
			id, tenant_id, customer_id, customer_group_id, carrier_id, name,
			priority, is_special_promotion, status, currency,
			effective_from, effective_to,
			fuel_surcharge_pct, fuel_basis, minimum_charge,
			weight_round_unit, dim_divisor, zone_rules,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12,
			$13, $14, $15,
			$16, $17, $18,
			NOW(), NOW()
		)`,
		string(c.ID), nullID(c.TenantID), toStringPtr(c.CustomerID), toStringPtr(c.CustomerGroupID),
		nullString(c.CarrierID), c.Name,
		c.Priority, c.IsSpecialPromotion, string(c.Status), c.Currency,
		c.EffectiveFrom, c.EffectiveTo,
		c.FuelSurchargePct, string(c.FuelBasis), c.MinimumCharge,
		c.WeightRoundUnit, c.DimDivisor, rules,
	)
	return err
}

func (s *Store) GetByID(ctx context.Context, id types.ID) (*RateCard, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+cardColumns+`
		FROM rate_cards
		WHERE id = $1`, string(id),
	)
	return scanCard(row)
}

// FindCustomerOverride returns the winning customer-scoped card, or
// ErrNoRateCard when the tier is empty.
func (s *Store) FindCustomerOverride(ctx context.Context, tenantID, customerID types.ID, at time.Time) (*RateCard, error) {
	return s.findOne(ctx, `
		SELECT `+cardColumns+`
		FROM rate_cards
		WHERE tenant_id = $1 AND customer_id = $2
		  AND status = 'active' AND deleted_at IS NULL
		  AND effective_from <= $3
		  AND (effective_to IS NULL OR effective_to >= $3)
		ORDER BY priority DESC, effective_from DESC
		LIMIT 1`, string(tenantID), string(customerID), at)
}

// FindGroupOverride returns the winning customer-group-scoped card.
func (s *Store) FindGroupOverride(ctx context.Context, tenantID, groupID types.ID, at time.Time) (*RateCard, error) {
	return s.findOne(ctx, `
		SELECT `+cardColumns+`
		FROM rate_cards
		WHERE tenant_id = $1 AND customer_group_id = $2 AND customer_id IS NULL
		  AND status = 'active' AND deleted_at IS NULL
		  AND effective_from <= $3
		  AND (effective_to IS NULL OR effective_to >= $3)
		ORDER BY priority DESC, effective_from DESC
		LIMIT 1`, string(tenantID), string(groupID), at)
}

// FindPromotion returns the highest-priority special-promotion card whose
// effective window covers the date.
func (s *Store) FindPromotion(ctx context.Context, tenantID types.ID, at time.Time) (*RateCard, error) {
	return s.findOne(ctx, `
		SELECT `+cardColumns+`
		FROM rate_cards
		WHERE tenant_id = $1 AND is_special_promotion
		  AND customer_id IS NULL AND customer_group_id IS NULL
		  AND status = 'active' AND deleted_at IS NULL
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to >= $2)
		ORDER BY priority DESC, effective_from DESC
		LIMIT 1`, string(tenantID), at)
}

// FindCostCard returns the platform's cost card for a carrier, if any.
func (s *Store) FindCostCard(ctx context.Context, carrierID string, at time.Time) (*RateCard, error) {
	return s.findOne(ctx, `
		SELECT `+cardColumns+`
		FROM rate_cards
		WHERE tenant_id IS NULL AND carrier_id = $1
		  AND status = 'active' AND deleted_at IS NULL
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to >= $2)
		ORDER BY priority DESC, effective_from DESC
		LIMIT 1`, carrierID, at)
}

func (s *Store) ListByTenant(ctx context.Context, tenantID types.ID) ([]*RateCard, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+cardColumns+`
		FROM rate_cards
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`, string(tenantID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*RateCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// SoftDelete marks the card deleted without removing the row, so shipments
// already priced against it keep their audit history.
func (s *Store) SoftDelete(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE rate_cards
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, query string, args ...any) (*RateCard, error) {
	row := s.db.QueryRow(ctx, query, args...)
	c, err := scanCard(row)
	if errors.Is(err, ErrCardNotFound) {
		return nil, ErrNoRateCard
	}
	return c, err
}

func scanCard(row pgx.Row) (*RateCard, error) {
	var (
		c          RateCard
		tenantID   *string
		customerID *string
		groupID    *string
		carrierID  *string
		rules      []byte
	)
	err := row.Scan(
		&c.ID, &tenantID, &customerID, &groupID, &carrierID, &c.Name,
		&c.Priority, &c.IsSpecialPromotion, &c.Status, &c.Currency,
		&c.EffectiveFrom, &c.EffectiveTo,
		&c.FuelSurchargePct, &c.FuelBasis, &c.MinimumCharge,
		&c.WeightRoundUnit, &c.DimDivisor, &rules,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}
	if tenantID != nil {
		c.TenantID = types.ID(*tenantID)
	}
	if customerID != nil {
		id := types.ID(*customerID)
		c.CustomerID = &id
	}
	if groupID != nil {
		id := types.ID(*groupID)
		c.CustomerGroupID = &id
	}
	if carrierID != nil {
		c.CarrierID = *carrierID
	}
	if err := json.Unmarshal(rules, &c.ZoneRules); err != nil {
		return nil, err
	}
	return &c, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func nullID(id types.ID) *string {
	if id == "" {
		return nil
	}
	s := string(id)
	return &s
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
