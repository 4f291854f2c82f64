// README: Booking resolver tests: fallback walk, terminal errors, locking.
package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shipquote/internal/modules/quote"
	"shipquote/internal/types"
)

type scriptedAdapter struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (a *scriptedAdapter) CreateBooking(_ context.Context, _ Request, idemKey string) (*Confirmation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, idemKey)
	if len(a.calls) <= len(a.errs) && a.errs[len(a.calls)-1] != nil {
		return nil, a.errs[len(a.calls)-1]
	}
	return &Confirmation{TrackingNumber: "AWB-" + idemKey}, nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[types.ID]*quote.Session
}

func newMemSessions(ss ...*quote.Session) *memSessions {
	m := &memSessions{sessions: make(map[types.ID]*quote.Session)}
	for _, s := range ss {
		m.sessions[s.ID] = s
	}
	return m
}

func (m *memSessions) Get(_ context.Context, id types.ID) (*quote.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, quote.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) MarkBooked(_ context.Context, id types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != quote.StatusOpen || time.Now().After(s.ExpiresAt) {
		return false, nil
	}
	s.Status = quote.StatusBooked
	return true, nil
}

type memLock struct {
	mu   sync.Mutex
	held map[types.ID]bool
}

func newMemLock() *memLock { return &memLock{held: make(map[types.ID]bool)} }

func (l *memLock) Acquire(_ context.Context, id types.ID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[id] {
		return false, nil
	}
	l.held[id] = true
	return true, nil
}

func (l *memLock) Release(_ context.Context, id types.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
	return nil
}

type memShipments struct {
	mu      sync.Mutex
	results []*Result
}

func (m *memShipments) RecordShipment(_ context.Context, res *Result, _ *quote.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, res)
	return nil
}

func threeOptionSession() *quote.Session {
	return &quote.Session{
		ID:       "sess-1",
		TenantID: "t1",
		Status:   quote.StatusOpen,
		Options: []quote.Option{
			{ID: "opt-1", Carrier: "alpha", Service: "surface", SellAmount: types.Money{Amount: 9000, Currency: "INR"}},
			{ID: "opt-2", Carrier: "beta", Service: "surface", SellAmount: types.Money{Amount: 9500, Currency: "INR"}},
			{ID: "opt-3", Carrier: "gamma", Service: "surface", SellAmount: types.Money{Amount: 11000, Currency: "INR"}},
		},
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
}

func newTestResolver(sessions SessionStore, reg *Registry) (*Resolver, *memShipments) {
	ships := &memShipments{}
	return NewResolver(sessions, newMemLock(), ships, reg, time.Second), ships
}

func TestBookFirstAttemptSucceeds(t *testing.T) {
	sessions := newMemSessions(threeOptionSession())
	alpha := &scriptedAdapter{}
	reg := NewRegistry()
	reg.Register("alpha", alpha)

	r, ships := newTestResolver(sessions, reg)
	res, err := r.Book(context.Background(), Command{SessionID: "sess-1", OptionID: "opt-1"})
	require.NoError(t, err)

	require.Equal(t, types.ID("opt-1"), res.OptionID)
	require.Equal(t, 1, res.AttemptCount)
	require.False(t, res.FallbackUsed)
	require.Empty(t, res.Attempts)
	require.Equal(t, []string{"sess-1-opt-1-a1"}, alpha.calls)
	require.Len(t, ships.results, 1)

	s, _ := sessions.Get(context.Background(), "sess-1")
	require.Equal(t, quote.StatusBooked, s.Status)
}

func TestBookFallsBackThroughRecoverableFailures(t *testing.T) {
	sessions := newMemSessions(threeOptionSession())
	alpha := &scriptedAdapter{errs: []error{&ProviderError{Code: CodeTimeout, Message: "timeout", Recoverable: true}}}
	beta := &scriptedAdapter{errs: []error{&ProviderError{Code: CodeUnavailable, Message: "down", Recoverable: true}}}
	gamma := &scriptedAdapter{}
	reg := NewRegistry()
	reg.Register("alpha", alpha)
	reg.Register("beta", beta)
	reg.Register("gamma", gamma)

	r, _ := newTestResolver(sessions, reg)
	res, err := r.Book(context.Background(), Command{SessionID: "sess-1", OptionID: "opt-1"})
	require.NoError(t, err)

	require.Equal(t, types.ID("opt-3"), res.OptionID)
	require.Equal(t, 3, res.AttemptCount)
	require.True(t, res.FallbackUsed)
	require.Len(t, res.Attempts, 2)
	require.Equal(t, CodeTimeout, res.Attempts[0].Code)
	require.Equal(t, CodeUnavailable, res.Attempts[1].Code)
	require.Equal(t,
		[]types.ID{"opt-1", "opt-2", "opt-3"},
		res.AttemptedOptionIDs())

	// Each attempt carried its own idempotency key.
	require.Equal(t, []string{"sess-1-opt-1-a1"}, alpha.calls)
	require.Equal(t, []string{"sess-1-opt-2-a2"}, beta.calls)
	require.Equal(t, []string{"sess-1-opt-3-a3"}, gamma.calls)
}

func TestBookStartsAtSelectedOption(t *testing.T) {
	sessions := newMemSessions(threeOptionSession())
	alpha := &scriptedAdapter{}
	beta := &scriptedAdapter{}
	reg := NewRegistry()
	reg.Register("alpha", alpha)
	reg.Register("beta", beta)

	r, _ := newTestResolver(sessions, reg)
	res, err := r.Book(context.Background(), Command{SessionID: "sess-1", OptionID: "opt-2"})
	require.NoError(t, err)

	require.Equal(t, types.ID("opt-2"), res.OptionID)
	require.False(t, res.FallbackUsed)
	require.Empty(t, alpha.calls, "options ranked above the selection must not be tried")
}

func TestBookNonRecoverableStopsImmediately(t *testing.T) {
	sessions := newMemSessions(threeOptionSession())
	alpha := &scriptedAdapter{errs: []error{&ProviderError{Code: CodeValidation, Message: "bad address"}}}
	beta := &scriptedAdapter{}
	reg := NewRegistry()
	reg.Register("alpha", alpha)
	reg.Register("beta", beta)

	r, _ := newTestResolver(sessions, reg)
	_, err := r.Book(context.Background(), Command{SessionID: "sess-1", OptionID: "opt-1"})

	var nre *NonRecoverableError
	require.ErrorAs(t, err, &nre)
	require.Equal(t, CodeValidation, nre.Code)
	require.Equal(t, "alpha", nre.Carrier)
	require.Empty(t, beta.calls, "no fallback after a non-recoverable failure")

	s, _ := sessions.Get(context.Background(), "sess-1")
	require.Equal(t, quote.StatusOpen, s.Status, "a failed booking must not consume the session")
}

func TestBookPostAwbFailureCarriesTrackingNumber(t *testing.T) {
	sessions := newMemSessions(threeOptionSession())
	alpha := &scriptedAdapter{errs: []error{&ProviderError{
		Code:           CodeUnclassified,
		Message:        "label generation failed",
		Recoverable:    true, // PostAwbIssued overrides this
		PostAwbIssued:  true,
		TrackingNumber: "AWB-PARTIAL-1",
	}}}
	beta := &scriptedAdapter{}
	reg := NewRegistry()
	reg.Register("alpha", alpha)
	reg.Register("beta", beta)

	r, _ := newTestResolver(sessions, reg)
	_, err := r.Book(context.Background(), Command{SessionID: "sess-1", OptionID: "opt-1"})

	var nre *NonRecoverableError
	require.ErrorAs(t, err, &nre)
	require.Equal(t, "AWB-PARTIAL-1", nre.TrackingNumber)
	require.Empty(t, beta.calls)
}

func TestBookExhaustedCarriesFullTrail(t *testing.T) {
	sessions := newMemSessions(threeOptionSession())
	reg := NewRegistry()
	for _, carrier := range []string{"alpha", "beta", "gamma"} {
		reg.Register(carrier, &scriptedAdapter{errs: []error{
			&ProviderError{Code: CodeUnavailable, Message: "down", Recoverable: true},
		}})
	}

	r, _ := newTestResolver(sessions, reg)
	_, err := r.Book(context.Background(), Command{SessionID: "sess-1", OptionID: "opt-1"})

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	require.Len(t, ex.Attempts, 3)
	require.Equal(t, types.ID("opt-1"), ex.Attempts[0].OptionID)
	require.Equal(t, types.ID("opt-3"), ex.Attempts[2].OptionID)

	s, _ := sessions.Get(context.Background(), "sess-1")
	require.Equal(t, quote.StatusOpen, s.Status)
}

func TestBookTimeoutErrorIsRecoverable(t *testing.T) {
	sessions := newMemSessions(threeOptionSession())
	alpha := &scriptedAdapter{errs: []error{context.DeadlineExceeded}}
	beta := &scriptedAdapter{}
	reg := NewRegistry()
	reg.Register("alpha", alpha)
	reg.Register("beta", beta)

	r, _ := newTestResolver(sessions, reg)
	res, err := r.Book(context.Background(), Command{SessionID: "sess-1", OptionID: "opt-1"})
	require.NoError(t, err)
	require.Equal(t, types.ID("opt-2"), res.OptionID)
	require.Equal(t, CodeTimeout, res.Attempts[0].Code)
}

func TestBookMissingAdapterSkipsOption(t *testing.T) {
	sessions := newMemSessions(threeOptionSession())
	beta := &scriptedAdapter{}
	reg := NewRegistry()
	reg.Register("beta", beta) // nothing for alpha or gamma

	r, _ := newTestResolver(sessions, reg)
	res, err := r.Book(context.Background(), Command{SessionID: "sess-1", OptionID: "opt-1"})
	require.NoError(t, err)
	require.Equal(t, types.ID("opt-2"), res.OptionID)
	require.Equal(t, CodeNoAdapter, res.Attempts[0].Code)
}

func TestBookSessionGuards(t *testing.T) {
	used := threeOptionSession()
	used.ID = "sess-used"
	used.Status = quote.StatusBooked

	expired := threeOptionSession()
	expired.ID = "sess-expired"
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	sessions := newMemSessions(threeOptionSession(), used, expired)
	r, _ := newTestResolver(sessions, NewRegistry())

	_, err := r.Book(context.Background(), Command{SessionID: "sess-used", OptionID: "opt-1"})
	require.ErrorIs(t, err, quote.ErrSessionUsed)

	_, err = r.Book(context.Background(), Command{SessionID: "sess-expired", OptionID: "opt-1"})
	require.ErrorIs(t, err, quote.ErrSessionExpired)

	_, err = r.Book(context.Background(), Command{SessionID: "sess-missing", OptionID: "opt-1"})
	require.ErrorIs(t, err, quote.ErrSessionNotFound)

	_, err = r.Book(context.Background(), Command{SessionID: "sess-1", OptionID: "opt-99"})
	require.ErrorIs(t, err, quote.ErrOptionNotFound)
}

func TestBookLockPreventsConcurrentWalks(t *testing.T) {
	sessions := newMemSessions(threeOptionSession())
	lock := newMemLock()
	reg := NewRegistry()
	reg.Register("alpha", &scriptedAdapter{})

	r := NewResolver(sessions, lock, &memShipments{}, reg, time.Second)

	held, err := lock.Acquire(context.Background(), "sess-1")
	require.NoError(t, err)
	require.True(t, held)

	_, err = r.Book(context.Background(), Command{SessionID: "sess-1", OptionID: "opt-1"})
	require.ErrorIs(t, err, ErrBookingInProgress)
}
