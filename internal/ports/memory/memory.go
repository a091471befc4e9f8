// Package memory is an in-process implementation of ports.Repository. It
// backs the memory data backend and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"platito/internal/core"
	"platito/internal/ports"
)

type state struct {
	accounts     map[int64]core.Account
	categories   map[int64]core.Category
	tags         map[int64]core.Tag
	transactions map[int64]core.Transaction
	transfers    map[int64]core.Transfer
	settings     *core.Settings
	nextID       map[string]int64
}

func newState() state {
	return state{
		accounts:     map[int64]core.Account{},
		categories:   map[int64]core.Category{},
		tags:         map[int64]core.Tag{},
		transactions: map[int64]core.Transaction{},
		transfers:    map[int64]core.Transfer{},
		nextID:       map[string]int64{},
	}
}

func (s state) clone() state {
	out := newState()
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.categories {
		out.categories[k] = v
	}
	for k, v := range s.tags {
		out.tags[k] = v
	}
	for k, v := range s.transactions {
		out.transactions[k] = copyTransaction(v)
	}
	for k, v := range s.transfers {
		out.transfers[k] = v
	}
	for k, v := range s.nextID {
		out.nextID[k] = v
	}
	if s.settings != nil {
		cp := copySettings(*s.settings)
		out.settings = &cp
	}
	return out
}

// Store keeps every table in maps guarded by a mutex.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data state
}

var _ ports.Repository = (*Store)(nil)

func New() *Store {
	return &Store{data: newState()}
}

func (s *Store) assignID(table string, requested int64) int64 {
	if requested > 0 {
		if requested > s.data.nextID[table] {
			s.data.nextID[table] = requested
		}
		return requested
	}
	s.data.nextID[table]++
	return s.data.nextID[table]
}

// Accounts

func (s *Store) CreateAccount(_ context.Context, a core.Account) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.assignID("accounts", a.ID)
	s.data.accounts[a.ID] = a
	return a.ID, nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data.accounts[id]
	if !ok {
		return core.Account{}, core.NotFound("account", id)
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Account, 0, len(s.data.accounts))
	for _, a := range s.data.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.accounts[a.ID]; !ok {
		return core.NotFound("account", a.ID)
	}
	s.data.accounts[a.ID] = a
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.accounts[id]; !ok {
		return core.NotFound("account", id)
	}
	delete(s.data.accounts, id)
	return nil
}

// Categories

func (s *Store) CreateCategory(_ context.Context, c core.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.assignID("categories", c.ID)
	s.data.categories[c.ID] = c
	return c.ID, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data.categories[id]
	if !ok {
		return core.Category{}, core.NotFound("category", id)
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, 0, len(s.data.categories))
	for _, c := range s.data.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.categories[c.ID]; !ok {
		return core.NotFound("category", c.ID)
	}
	s.data.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.categories[id]; !ok {
		return core.NotFound("category", id)
	}
	delete(s.data.categories, id)
	return nil
}

// Tags

func (s *Store) CreateTag(_ context.Context, t core.Tag) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.assignID("tags", t.ID)
	s.data.tags[t.ID] = t
	return t.ID, nil
}

func (s *Store) GetTag(_ context.Context, id int64) (core.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.data.tags[id]
	if !ok {
		return core.Tag{}, core.NotFound("tag", id)
	}
	return t, nil
}

func (s *Store) ListTags(_ context.Context) ([]core.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Tag, 0, len(s.data.tags))
	for _, t := range s.data.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateTag(_ context.Context, t core.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.tags[t.ID]; !ok {
		return core.NotFound("tag", t.ID)
	}
	s.data.tags[t.ID] = t
	return nil
}

func (s *Store) DeleteTag(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.tags[id]; !ok {
		return core.NotFound("tag", id)
	}
	delete(s.data.tags, id)
	for txID, tx := range s.data.transactions {
		kept := tx.TagIDs[:0:0]
		for _, tagID := range tx.TagIDs {
			if tagID != id {
				kept = append(kept, tagID)
			}
		}
		tx.TagIDs = kept
		s.data.transactions[txID] = tx
	}
	return nil
}

// Transactions

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.assignID("transactions", tx.ID)
	s.data.transactions[tx.ID] = copyTransaction(tx)
	return tx.ID, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.data.transactions[id]
	if !ok {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	return copyTransaction(tx), nil
}

func (s *Store) ListTransactions(_ context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.data.transactions {
		if f.Match(tx) {
			out = append(out, copyTransaction(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) CountTransactions(ctx context.Context, f ports.TransactionFilter) (int, error) {
	f.Limit = 0
	txs, err := s.ListTransactions(ctx, f)
	if err != nil {
		return 0, err
	}
	return len(txs), nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.transactions[tx.ID]; !ok {
		return core.NotFound("transaction", tx.ID)
	}
	s.data.transactions[tx.ID] = copyTransaction(tx)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.transactions[id]; !ok {
		return core.NotFound("transaction", id)
	}
	delete(s.data.transactions, id)
	return nil
}

// Transfers

func (s *Store) CreateTransfer(_ context.Context, tr core.Transfer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr.ID = s.assignID("transfers", tr.ID)
	s.data.transfers[tr.ID] = tr
	return tr.ID, nil
}

func (s *Store) GetTransfer(_ context.Context, id int64) (core.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tr, ok := s.data.transfers[id]
	if !ok {
		return core.Transfer{}, core.NotFound("transfer", id)
	}
	return tr, nil
}

func (s *Store) ListTransfers(_ context.Context, f ports.TransferFilter) ([]core.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transfer, 0)
	for _, tr := range s.data.transfers {
		if f.Match(tr) {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpdateTransfer(_ context.Context, tr core.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.transfers[tr.ID]; !ok {
		return core.NotFound("transfer", tr.ID)
	}
	s.data.transfers[tr.ID] = tr
	return nil
}

func (s *Store) DeleteTransfer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.transfers[id]; !ok {
		return core.NotFound("transfer", id)
	}
	delete(s.data.transfers, id)
	return nil
}

// Settings

func (s *Store) LoadSettings(_ context.Context) (core.Settings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.settings == nil {
		return core.Settings{}, false, nil
	}
	return copySettings(*s.data.settings), true, nil
}

func (s *Store) SaveSettings(_ context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := copySettings(settings)
	s.data.settings = &cp
	return nil
}

func (s *Store) ClearLedger(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := s.data.settings
	s.data = newState()
	s.data.settings = settings
	return nil
}

func (s *Store) ClearSettings(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.settings = nil
	return nil
}

// WithinTx serializes transactions and restores the previous state when fn
// fails. The restore covers the whole store, so writes made outside WithinTx
// while a transaction runs are lost on rollback; callers that share the
// store write through WithinTx.
func (s *Store) WithinTx(_ context.Context, fn func(ports.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(txStore{s}); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

// txStore is handed to WithinTx callbacks; nested calls join the running
// transaction.
type txStore struct {
	*Store
}

func (t txStore) WithinTx(_ context.Context, fn func(ports.Repository) error) error {
	return fn(t)
}

func copyTransaction(tx core.Transaction) core.Transaction {
	if tx.TagIDs != nil {
		tx.TagIDs = append([]int64(nil), tx.TagIDs...)
	}
	return tx
}

func copySettings(s core.Settings) core.Settings {
	s.ExchangeRates = s.ExchangeRates.Clone()
	if s.DefaultAccountID != nil {
		id := *s.DefaultAccountID
		s.DefaultAccountID = &id
	}
	if s.RatesLastUpdatedAt != nil {
		at := *s.RatesLastUpdatedAt
		s.RatesLastUpdatedAt = &at
	}
	return s
}
