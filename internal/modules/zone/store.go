// README: Pincode and carrier zone mapping store backed by PostgreSQL.
package zone

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Lookup(ctx context.Context, pincode string) (PincodeInfo, error) {
	row := s.db.QueryRow(ctx, `
		SELECT pincode, city, state, is_metro, is_special
		FROM pincodes
		WHERE pincode = $1`, pincode,
	)

	var info PincodeInfo
	err := row.Scan(&info.Pincode, &info.City, &info.State, &info.Metro, &info.Special)
	if errors.Is(err, pgx.ErrNoRows) {
		return PincodeInfo{}, ErrPincodeNotFound
	}
	if err != nil {
		return PincodeInfo{}, err
	}
	return info, nil
}

// CarrierMapping returns the carrier-specific zone for an origin/destination
// pair, or ok=false when no range covers the pair.
func (s *Store) CarrierMapping(ctx context.Context, carrier, origin, dest string) (Zone, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT zone
		FROM carrier_zone_mappings
		WHERE carrier = $1
		  AND $2 BETWEEN origin_low AND origin_high
		  AND $3 BETWEEN dest_low AND dest_high
		ORDER BY origin_low DESC, dest_low DESC
		LIMIT 1`, carrier, origin, dest,
	)

	var z Zone
	err := row.Scan(&z)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return z, true, nil
}
