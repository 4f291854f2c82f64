// README: Quote builder tests: filtering, concurrent pricing, drops, ranking.
package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shipquote/internal/modules/pricing"
	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/tariff"
	"shipquote/internal/modules/tenant"
	"shipquote/internal/modules/zone"
	"shipquote/internal/types"
)

type fakePricer struct {
	quotes map[string]*pricing.Quote
	errs   map[string]error
}

func (f fakePricer) Evaluate(_ context.Context, q pricing.Query) (*pricing.Quote, error) {
	if err, ok := f.errs[q.Candidate.Carrier]; ok {
		return nil, err
	}
	if quote, ok := f.quotes[q.Candidate.Carrier]; ok {
		return quote, nil
	}
	return nil, errors.New("unexpected candidate " + q.Candidate.Carrier)
}

type fakeCandidates []pricing.Candidate

func (f fakeCandidates) EligibleCandidates(context.Context, types.ID) ([]pricing.Candidate, error) {
	return f, nil
}

type fakePolicies struct {
	settings *tenant.Settings
	err      error
}

func (f fakePolicies) Get(context.Context, types.ID) (*tenant.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.settings, nil
}

type memSaver struct {
	saved *Session
}

func (m *memSaver) Create(_ context.Context, s *Session) error {
	m.saved = s
	return nil
}

func sellQuote(carrier string, paise int64, conf pricing.Confidence) *pricing.Quote {
	q := &pricing.Quote{
		Candidate:       pricing.Candidate{Carrier: carrier, Service: "surface"},
		Zone:            zone.ZoneNational,
		RateCardID:      "card-1",
		SelectionReason: ratecard.ReasonDefault,
		Sell: &tariff.Breakdown{
			ChargeableWeightKg: 1,
			Total:              types.Money{Amount: paise, Currency: "INR"},
		},
		Source:     pricing.SourceComputed,
		Confidence: conf,
	}
	if conf == pricing.ConfidenceHigh {
		q.Source = pricing.SourceTable
		q.Cost = &tariff.Breakdown{Total: types.Money{Amount: paise - 1000, Currency: "INR"}}
	}
	return q
}

func newTestBuilder(p Pricer, cands CandidateSource, pol PolicySource, saver SessionSaver) *Builder {
	return NewBuilder(p, cands, pol, saver, NewDefaultRanker(), 30*time.Minute, 4, false)
}

func TestBuildRanksAndTagsRecommended(t *testing.T) {
	saver := &memSaver{}
	b := newTestBuilder(
		fakePricer{quotes: map[string]*pricing.Quote{
			"bluedart":  sellQuote("bluedart", 12000, pricing.ConfidenceHigh),
			"delhivery": sellQuote("delhivery", 9000, pricing.ConfidenceHigh),
		}},
		fakeCandidates{{Carrier: "bluedart", Service: "surface"}, {Carrier: "delhivery", Service: "surface"}},
		fakePolicies{settings: &tenant.Settings{TenantID: "t1"}},
		saver,
	)

	sess, err := b.Build(context.Background(), BuildRequest{TenantID: "t1", SellerID: "s1"})
	require.NoError(t, err)
	require.Len(t, sess.Options, 2)
	require.Equal(t, "delhivery", sess.Options[0].Carrier)
	require.Equal(t, types.ID("opt-1"), sess.Options[0].ID)
	require.Contains(t, sess.Options[0].Tags, TagRecommended)
	require.Empty(t, sess.Options[1].Tags)
	require.Equal(t, sess.Options[0].ID, sess.RecommendedOptionID)
	require.Equal(t, StatusOpen, sess.Status)
	require.Equal(t, sess.CreatedAt.Add(30*time.Minute), sess.ExpiresAt)
	require.Same(t, sess, saver.saved)
}

func TestBuildFiltersBlockedCarriers(t *testing.T) {
	b := newTestBuilder(
		fakePricer{quotes: map[string]*pricing.Quote{
			"delhivery": sellQuote("delhivery", 9000, pricing.ConfidenceHigh),
		}},
		fakeCandidates{{Carrier: "bluedart", Service: "surface"}, {Carrier: "delhivery", Service: "surface"}},
		fakePolicies{settings: &tenant.Settings{TenantID: "t1", BlockedCarriers: []string{"bluedart"}}},
		&memSaver{},
	)

	sess, err := b.Build(context.Background(), BuildRequest{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, sess.Options, 1)
	require.Equal(t, "delhivery", sess.Options[0].Carrier)
}

func TestBuildDropsFailingCandidate(t *testing.T) {
	b := newTestBuilder(
		fakePricer{
			quotes: map[string]*pricing.Quote{
				"delhivery": sellQuote("delhivery", 9000, pricing.ConfidenceHigh),
			},
			errs: map[string]error{"bluedart": ratecard.ErrNoRateCard},
		},
		fakeCandidates{{Carrier: "bluedart", Service: "surface"}, {Carrier: "delhivery", Service: "surface"}},
		fakePolicies{settings: &tenant.Settings{TenantID: "t1"}},
		&memSaver{},
	)

	sess, err := b.Build(context.Background(), BuildRequest{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, sess.Options, 1)
	require.Equal(t, "delhivery", sess.Options[0].Carrier)
}

func TestBuildAllCandidatesFail(t *testing.T) {
	b := newTestBuilder(
		fakePricer{errs: map[string]error{
			"bluedart":  ratecard.ErrNoRateCard,
			"delhivery": zone.ErrPincodeNotFound,
		}},
		fakeCandidates{{Carrier: "bluedart", Service: "surface"}, {Carrier: "delhivery", Service: "surface"}},
		fakePolicies{settings: &tenant.Settings{TenantID: "t1"}},
		&memSaver{},
	)

	_, err := b.Build(context.Background(), BuildRequest{TenantID: "t1"})
	require.ErrorIs(t, err, ErrNoQuotes)
}

func TestBuildNoEligibleCarriers(t *testing.T) {
	b := newTestBuilder(
		fakePricer{},
		fakeCandidates{{Carrier: "bluedart", Service: "surface"}},
		fakePolicies{settings: &tenant.Settings{TenantID: "t1", AllowedCarriers: []string{"delhivery"}}},
		&memSaver{},
	)

	_, err := b.Build(context.Background(), BuildRequest{TenantID: "t1"})
	require.ErrorIs(t, err, ErrNoQuotes)
}

func TestBuildMissingSettingsMeansOpenPolicy(t *testing.T) {
	b := newTestBuilder(
		fakePricer{quotes: map[string]*pricing.Quote{
			"bluedart": sellQuote("bluedart", 9000, pricing.ConfidenceHigh),
		}},
		fakeCandidates{{Carrier: "bluedart", Service: "surface"}},
		fakePolicies{err: tenant.ErrSettingsNotFound},
		&memSaver{},
	)

	sess, err := b.Build(context.Background(), BuildRequest{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, sess.Options, 1)
}

func TestBuildReverseDisabled(t *testing.T) {
	b := newTestBuilder(fakePricer{}, fakeCandidates{}, fakePolicies{}, &memSaver{})

	req := BuildRequest{TenantID: "t1"}
	req.Params.Direction = tariff.DirectionReverse
	_, err := b.Build(context.Background(), req)
	require.ErrorIs(t, err, ErrReverseDisabled)
}

func TestBuildConcurrentPricing(t *testing.T) {
	// Many candidates through a small worker pool; every survivor must land
	// at its own rank with a distinct id.
	quotes := map[string]*pricing.Quote{}
	cands := fakeCandidates{}
	for _, c := range []struct {
		carrier string
		paise   int64
	}{
		{"alpha", 11000}, {"bravo", 9000}, {"charlie", 15000},
		{"delta", 8000}, {"echo", 13000}, {"foxtrot", 10000},
	} {
		quotes[c.carrier] = sellQuote(c.carrier, c.paise, pricing.ConfidenceHigh)
		cands = append(cands, pricing.Candidate{Carrier: c.carrier, Service: "surface"})
	}

	b := NewBuilder(
		fakePricer{quotes: quotes}, cands,
		fakePolicies{settings: &tenant.Settings{TenantID: "t1"}},
		&memSaver{}, NewDefaultRanker(), 30*time.Minute, 2, false,
	)

	sess, err := b.Build(context.Background(), BuildRequest{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, sess.Options, 6)

	require.Equal(t, "delta", sess.Options[0].Carrier)
	seen := map[types.ID]bool{}
	for i, o := range sess.Options {
		require.False(t, seen[o.ID], "duplicate option id %s", o.ID)
		seen[o.ID] = true
		if i > 0 {
			require.GreaterOrEqual(t, o.RankScore, sess.Options[i-1].RankScore)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	s := &Session{ExpiresAt: time.Now().Add(-time.Minute)}
	require.True(t, s.Expired(time.Now()))

	s.ExpiresAt = time.Now().Add(time.Minute)
	require.False(t, s.Expired(time.Now()))
}
