// README: Tenant settings store backed by PostgreSQL.
package tenant

import (
	"context"
	"errors"

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

func (s *Store) Get(ctx context.Context, tenantID types.ID) (*Settings, error) {
	row := s.db.QueryRow(ctx, `
		SELECT tenant_id, default_rate_card_id, allowed_carriers, blocked_carriers, gst_percent
		FROM tenant_settings
		WHERE tenant_id = $1`, string(tenantID),
	)

	var (
		st        Settings
		defaultID *string
	)
	err := row.Scan(&st.TenantID, &defaultID, &st.AllowedCarriers, &st.BlockedCarriers, &st.GSTPercent)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	if defaultID != nil {
		id := types.ID(*defaultID)
		st.DefaultRateCardID = &id
	}
	return &st, nil
}

// DefaultRateCardID implements the rate card selector's default tier.
func (s *Store) DefaultRateCardID(ctx context.Context, tenantID types.ID) (types.ID, bool, error) {
	st, err := s.Get(ctx, tenantID)
	if errors.Is(err, ErrSettingsNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if st.DefaultRateCardID == nil {
		return "", false, nil
	}
	return *st.DefaultRateCardID, true, nil
}

// SetDefaultRateCard updates the tenant's configured default card.
func (s *Store) SetDefaultRateCard(ctx context.Context, tenantID, cardID types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE tenant_settings
		SET default_rate_card_id = $2, updated_at = NOW()
		WHERE tenant_id = $1`, string(tenantID), string(cardID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSettingsNotFound
	}
	return nil
}
