package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// stubSession is a scriptable domain.Session for tests.
type stubSession struct {
	mu        sync.Mutex
	orders    []domain.MasterOrder
	ordersErr error

	positions    []domain.Position
	positionsErr error

	submitted []domain.OrderSpec
	submitErr error
	nextID    string

	closed bool
}

func (s *stubSession) ListOrders(context.Context) ([]domain.MasterOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ordersErr != nil {
		return nil, s.ordersErr
	}
	out := make([]domain.MasterOrder, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

func (s *stubSession) ListPositions(context.Context) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.positionsErr != nil {
		return nil, s.positionsErr
	}
	out := make([]domain.Position, len(s.positions))
	copy(out, s.positions)
	return out, nil
}

func (s *stubSession) SubmitOrder(_ context.Context, spec domain.OrderSpec) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return "", s.submitErr
	}
	s.submitted = append(s.submitted, spec)
	if s.nextID == "" {
		return "stub-order", nil
	}
	return s.nextID, nil
}

func (s *stubSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *stubSession) submittedSpecs() []domain.OrderSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OrderSpec, len(s.submitted))
	copy(out, s.submitted)
	return out
}

func (s *stubSession) setOrders(orders []domain.MasterOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = orders
}

// stubDialer hands out pre-registered sessions by client ID and counts dials.
type stubDialer struct {
	mu       sync.Mutex
	sessions map[string]*stubSession
	errs     map[string]error
	dials    map[string]int
}

func newStubDialer() *stubDialer {
	return &stubDialer{
		sessions: make(map[string]*stubSession),
		errs:     make(map[string]error),
		dials:    make(map[string]int),
	}
}

func (d *stubDialer) Dial(_ context.Context, creds domain.Credentials) (domain.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials[creds.ClientID]++
	if err := d.errs[creds.ClientID]; err != nil {
		return nil, err
	}
	sess, ok := d.sessions[creds.ClientID]
	if !ok {
		sess = &stubSession{}
		d.sessions[creds.ClientID] = sess
	}
	return sess, nil
}

func (d *stubDialer) dialCount(clientID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[clientID]
}

// stubAccounts is a fixed domain.AccountSource.
type stubAccounts struct {
	accounts []domain.SlaveAccount
	err      error
}

func (a *stubAccounts) Accounts(context.Context) ([]domain.SlaveAccount, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.accounts, nil
}

// memJournal is an in-memory domain.CopyStore recording inserts.
type memJournal struct {
	mu      sync.Mutex
	records []domain.CopyRecord
}

func (j *memJournal) Insert(_ context.Context, rec domain.CopyRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *memJournal) ListRecent(_ context.Context, limit int) ([]domain.CopyRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.CopyRecord, len(j.records))
	copy(out, j.records)
	return out, nil
}

func (j *memJournal) CountByStatus(context.Context) (map[domain.CopyStatus]int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	counts := make(map[domain.CopyStatus]int64)
	for _, r := range j.records {
		counts[r.Status]++
	}
	return counts, nil
}

func (j *memJournal) all() []domain.CopyRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.CopyRecord, len(j.records))
	copy(out, j.records)
	return out
}

func (j *memJournal) byStatus(status domain.CopyStatus) []domain.CopyRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []domain.CopyRecord
	for _, r := range j.records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []domain.EngineEvent
}

func (p *capturePublisher) Publish(ev domain.EngineEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) byType(typ string) []domain.EngineEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.EngineEvent
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func activeAccount(clientID string, multiplier float64) domain.SlaveAccount {
	return domain.SlaveAccount{
		Name:         "acct-" + clientID,
		ClientID:     clientID,
		Credentials:  domain.Credentials{ClientID: clientID, AccessToken: "tok-" + clientID},
		Multiplier:   multiplier,
		MaxLossLimit: 5000,
		Active:       true,
	}
}
