package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"platito/internal/amqp"
	"platito/internal/core"
	"platito/internal/ports/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeQuotes struct {
	table core.ExchangeRateTable
	err   error
	calls int
}

func (q *fakeQuotes) FetchRates(context.Context) (core.ExchangeRateTable, error) {
	q.calls++
	if q.err != nil {
		return nil, q.err
	}
	return q.table.Clone(), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ev)
	return p.err
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.RoutingKey()
	}
	return out
}

type testEnv struct {
	svc    *Services
	repo   *memory.Store
	clock  *fakeClock
	quotes *fakeQuotes
	events *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:  memory.New(),
		clock: newFakeClock(),
		quotes: &fakeQuotes{table: core.ExchangeRateTable{
			core.USDBlue: {ToBase: 1250},
			core.USDMep:  {ToBase: 1180},
			core.USDT:    {ToBase: 1210},
		}},
		events: &recordingPublisher{},
	}
	env.svc = New(env.repo, Options{
		Events:       env.events,
		Quotes:       env.quotes,
		DefaultRates: core.SampleDefaultRates(),
		Now:          env.clock.Now,
	})
	return env
}

func (e *testEnv) account(t *testing.T, name string, c core.Currency, initial float64) core.Account {
	t.Helper()
	a, err := e.svc.Accounts.Create(context.Background(), AccountInput{Name: name, Currency: c, InitialBalance: initial})
	if err != nil {
		t.Fatalf("create account %q: %v", name, err)
	}
	return a
}

func (e *testEnv) category(t *testing.T, name string, typ core.TransactionType) core.Category {
	t.Helper()
	c, err := e.svc.Categories.Create(context.Background(), CategoryInput{Name: name, Type: typ})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return c
}

func (e *testEnv) setRates(t *testing.T, table core.ExchangeRateTable) {
	t.Helper()
	if _, err := e.svc.Rates.Replace(context.Background(), table); err != nil {
		t.Fatalf("replace rates: %v", err)
	}
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
