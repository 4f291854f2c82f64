// README: Quote session builder: concurrent candidate pricing, ranking, persistence.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"shipquote/internal/log"
	"shipquote/internal/metrics"
	"shipquote/internal/modules/pricing"
	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/tariff"
	"shipquote/internal/modules/tenant"
	"shipquote/internal/modules/zone"
	"shipquote/internal/types"
)

// Pricer prices a single carrier/service candidate.
type Pricer interface {
	Evaluate(ctx context.Context, q pricing.Query) (*pricing.Quote, error)
}

// CandidateSource lists the carrier/service combinations a tenant could
// ship with, before the tenant's allow/block policy is applied.
type CandidateSource interface {
	EligibleCandidates(ctx context.Context, tenantID types.ID) ([]pricing.Candidate, error)
}

// PolicySource loads tenant settings for candidate filtering.
type PolicySource interface {
	Get(ctx context.Context, tenantID types.ID) (*tenant.Settings, error)
}

// SessionSaver persists a newly built session.
type SessionSaver interface {
	Create(ctx context.Context, s *Session) error
}

type BuildRequest struct {
	TenantID        types.ID
	SellerID        types.ID
	CustomerID      *types.ID
	CustomerGroupID *types.ID
	Params          pricing.ShipmentParams
}

type Builder struct {
	pricer         Pricer
	candidates     CandidateSource
	policies       PolicySource
	store          SessionSaver
	ranker         Ranker
	ttl            time.Duration
	workers        int
	reverseEnabled bool
}

func NewBuilder(
	pricer Pricer,
	candidates CandidateSource,
	policies PolicySource,
	store SessionSaver,
	ranker Ranker,
	ttl time.Duration,
	workers int,
	reverseEnabled bool,
) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		pricer:         pricer,
		candidates:     candidates,
		policies:       policies,
		store:          store,
		ranker:         ranker,
		ttl:            ttl,
		workers:        workers,
		reverseEnabled: reverseEnabled,
	}
}

// Build prices every eligible candidate concurrently, drops the ones that
// fail, ranks the survivors, and persists the session. A candidate failure
// never aborts the whole quote; a quote with zero survivors does fail.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*Session, error) {
	if req.Params.Direction == tariff.DirectionReverse && !b.reverseEnabled {
		return nil, ErrReverseDisabled
	}

	policy, err := b.policies.Get(ctx, req.TenantID)
	if errors.Is(err, tenant.ErrSettingsNotFound) {
		// No settings row means no restrictions.
		policy = &tenant.Settings{TenantID: req.TenantID}
	} else if err != nil {
		return nil, fmt.Errorf("load tenant policy: %w", err)
	}

	all, err := b.candidates.EligibleCandidates(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	eligible := lo.Filter(all, func(c pricing.Candidate, _ int) bool {
		return policy.CarrierAllowed(c.Carrier)
	})
	if len(eligible) == 0 {
		return nil, fmt.Errorf("tenant %s has no eligible carriers: %w", req.TenantID, ErrNoQuotes)
	}

	now := time.Now()
	quotes := make([]*pricing.Quote, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, cand := range eligible {
		i, cand := i, cand
		g.Go(func() error {
			q, err := b.pricer.Evaluate(gctx, pricing.Query{
				TenantID:        req.TenantID,
				CustomerID:      req.CustomerID,
				CustomerGroupID: req.CustomerGroupID,
				Candidate:       cand,
				Params:          req.Params,
				At:              now,
				GSTPercent:      policy.GSTPercent,
			})
			if err != nil {
				reason := dropReason(err)
				metrics.QuoteCandidatesDropped.WithLabelValues(reason).Inc()
				log.Warn(gctx, "candidate dropped from quote",
					log.String("tenant_id", string(req.TenantID)),
					log.String("carrier", cand.Carrier),
					log.String("service", cand.Service),
					log.String("reason", reason),
					log.Cause(err))
				return nil
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(quotes))
	for _, q := range quotes {
		if q != nil {
			options = append(options, optionFromQuote(q))
		}
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("all %d candidates failed to price: %w", len(eligible), ErrNoQuotes)
	}

	ranked := b.ranker.Rank(options)
	for i := range ranked {
		ranked[i].ID = types.ID(fmt.Sprintf("opt-%d", i+1))
	}
	ranked[0].Tags = append(ranked[0].Tags, TagRecommended)

	session := &Session{
		ID:                  types.NewID(),
		TenantID:            req.TenantID,
		SellerID:            req.SellerID,
		Params:              req.Params,
		Options:             ranked,
		RecommendedOptionID: ranked[0].ID,
		Status:              StatusOpen,
		CreatedAt:           now,
		ExpiresAt:           now.Add(b.ttl),
	}
	if err := b.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("persist quote session: %w", err)
	}

	metrics.QuoteBuildsTotal.Inc()
	log.Info(ctx, "quote session built",
		log.String("session_id", string(session.ID)),
		log.String("tenant_id", string(req.TenantID)),
		log.Int("options", len(ranked)),
		log.Int("dropped", len(eligible)-len(ranked)))
	return session, nil
}

func optionFromQuote(q *pricing.Quote) Option {
	o := Option{
		Carrier:            q.Candidate.Carrier,
		Service:            q.Candidate.Service,
		Zone:               q.Zone,
		ChargeableWeightKg: q.Sell.ChargeableWeightKg,
		RateCardID:         q.RateCardID,
		SelectionReason:    q.SelectionReason,
		SellAmount:         q.Sell.Total,
		Margin:             q.Margin(),
		MarginPercent:      q.MarginPercent(),
		Source:             q.Source,
		Confidence:         q.Confidence,
	}
	if q.Cost != nil {
		cost := q.Cost.Total
		o.CostAmount = &cost
	}
	return o
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ratecard.ErrNoRateCard):
		return "no_rate_card"
	case errors.Is(err, zone.ErrBadPincode), errors.Is(err, zone.ErrPincodeNotFound):
		return "zone_unresolved"
	case errors.Is(err, tariff.ErrNoZoneRule):
		return "no_zone_rule"
	default:
		return "pricing_error"
	}
}
