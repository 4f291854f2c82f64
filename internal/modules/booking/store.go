// README: Shipment persistence and the per-session Redis booking lock.
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"shipquote/internal/modules/quote"
	"shipquote/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// RecordShipment writes the confirmed booking with its full attempt trail.
func (s *Store) RecordShipment(ctx context.Context, res *Result, sess *quote.Session) error {
	trail, err := json.Marshal(res.Attempts)
	if err != nil {
		return fmt.Errorf("marshal attempt trail: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO shipments (
			id, session_id, order_id, tenant_id, seller_id, option_id,
			carrier, service, tracking_number, amount, currency,
			attempt_count, fallback_used, attempts, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())`,
		string(types.NewID()), string(res.SessionID), string(res.OrderID),
		string(sess.TenantID), string(sess.SellerID),
		string(res.OptionID), res.Carrier, res.Service, res.TrackingNumber,
		res.Amount.Amount, res.Amount.Currency,
		res.AttemptCount, res.FallbackUsed, trail,
	)
	return err
}

// Lock serializes booking calls per session with a Redis SETNX lease.
type Lock struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLock(rdb *redis.Client, ttl time.Duration) *Lock {
	return &Lock{rdb: rdb, ttl: ttl}
}

func lockKey(sessionID types.ID) string {
	return "booking:lock:" + string(sessionID)
}

func (l *Lock) Acquire(ctx context.Context, sessionID types.ID) (bool, error) {
	return l.rdb.SetNX(ctx, lockKey(sessionID), 1, l.ttl).Result()
}

func (l *Lock) Release(ctx context.Context, sessionID types.ID) error {
	return l.rdb.Del(ctx, lockKey(sessionID)).Err()
}
