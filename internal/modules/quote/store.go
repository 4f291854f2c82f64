// README: Session persistence: PostgreSQL rows with a Redis read-through cache.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"shipquote/internal/log"
	"shipquote/internal/modules/pricing"
	"shipquote/internal/types"
)

type PGStore struct {
	db  *pgxpool.Pool
	rdb *redis.Client
}

func NewStore(db *pgxpool.Pool, rdb *redis.Client) *PGStore {
	return &PGStore{db: db, rdb: rdb}
}

func cacheKey(id types.ID) string {
	return "quote:session:" + string(id)
}

// Create inserts the session row and warms the cache. The row is the
// source of truth; a cache write failure is logged and ignored.
func (s *PGStore) Create(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO quote_sessions (id, tenant_id, seller_id, status, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(sess.ID), string(sess.TenantID), string(sess.SellerID),
		string(sess.Status), payload, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, cacheKey(sess.ID), payload, time.Until(sess.ExpiresAt)).Err(); err != nil {
		log.Warn(ctx, "session cache write failed",
			log.String("session_id", string(sess.ID)), log.Cause(err))
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Session, error) {
	if raw, err := s.rdb.Get(ctx, cacheKey(id)).Bytes(); err == nil {
		var sess Session
		if err := json.Unmarshal(raw, &sess); err == nil {
			return &sess, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Warn(ctx, "session cache read failed",
			log.String("session_id", string(id)), log.Cause(err))
	}

	row := s.db.QueryRow(ctx, `
		SELECT payload, status, booked_at
		FROM quote_sessions
		WHERE id = $1`, string(id),
	)

	var (
		payload  []byte
		status   string
		bookedAt *time.Time
	)
	err := row.Scan(&payload, &status, &bookedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	// Status columns are updated after booking; the payload is written once.
	sess.Status = SessionStatus(status)
	sess.BookedAt = bookedAt

	if sess.Status == StatusOpen {
		if ttl := time.Until(sess.ExpiresAt); ttl > 0 {
			if raw, err := json.Marshal(&sess); err == nil {
				_ = s.rdb.Set(ctx, cacheKey(id), raw, ttl).Err()
			}
		}
	}
	return &sess, nil
}

// MarkBooked flips an open, unexpired session to booked. It returns false
// when the session was already booked or has expired, which makes the
// single-use guarantee a compare-and-set rather than a read-then-write.
func (s *PGStore) MarkBooked(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE quote_sessions
		SET status = 'booked', booked_at = NOW()
		WHERE id = $1 AND status = 'open' AND expires_at > NOW()`,
		string(id),
	)
	if err != nil {
		return false, err
	}
	// The cached copy still says open; drop it.
	if err := s.rdb.Del(ctx, cacheKey(id)).Err(); err != nil {
		log.Warn(ctx, "session cache invalidation failed",
			log.String("session_id", string(id)), log.Cause(err))
	}
	return tag.RowsAffected() == 1, nil
}

// Catalog lists the active carrier/service combinations the platform can
// book. Tenant policy filtering happens in the builder, not here.
type Catalog struct {
	db *pgxpool.Pool
}

func NewCatalog(db *pgxpool.Pool) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) EligibleCandidates(ctx context.Context, _ types.ID) ([]pricing.Candidate, error) {
	rows, err := c.db.Query(ctx, `
		SELECT carrier, service
		FROM carrier_services
		WHERE active
		ORDER BY carrier, service`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.Candidate
	for rows.Next() {
		var cand pricing.Candidate
		if err := rows.Scan(&cand.Carrier, &cand.Service); err != nil {
			return nil, err
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}
