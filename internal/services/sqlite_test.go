package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"platito/internal/core"
	"platito/internal/storage"
)

func newSQLiteServices(t *testing.T) (*Services, *fakeClock) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	clock := newFakeClock()
	svc := New(repo, Options{
		Quotes: &fakeQuotes{table: core.ExchangeRateTable{
			core.USDBlue: {ToBase: 1250},
			core.USDMep:  {ToBase: 1180},
			core.USDT:    {ToBase: 1210},
		}},
		DefaultRates: core.LiveDefaultRates(),
		Now:          clock.Now,
	})
	if err := svc.Categories.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("EnsureDefaults() error = %v", err)
	}
	return svc, clock
}

func TestLedgerOverSQLite(t *testing.T) {
	svc, clock := newSQLiteServices(t)
	ctx := context.Background()

	if _, err := svc.Rates.Replace(ctx, core.ExchangeRateTable{core.USDMep: {ToBase: 1000}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	a, err := svc.Accounts.Create(ctx, AccountInput{Name: "A", Currency: core.ARS, InitialBalance: 1000})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	b, err := svc.Accounts.Create(ctx, AccountInput{Name: "B", Currency: core.USDMep})
	if err != nil {
		t.Fatalf("create B: %v", err)
	}
	cat, err := svc.Categories.Create(ctx, CategoryInput{Name: "Compras", Type: core.Expense})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := svc.Transactions.Create(ctx, core.Transaction{AccountID: a.ID, CategoryID: cat.ID, Amount: 200}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	tr, err := svc.Transfers.Create(ctx, TransferInput{FromAccountID: a.ID, ToAccountID: b.ID, Amount: 500})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	if !almostEqual(tr.ConvertedAmount, 0.5) || !almostEqual(tr.ExchangeRate, 0.001) {
		t.Errorf("transfer priced %v at %v, want 0.5 at 0.001", tr.ConvertedAmount, tr.ExchangeRate)
	}

	bal, err := svc.Dashboard.Balances(ctx, BalanceOptions{})
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	if !almostEqual(bal.Accounts[0].Balance, 300) || !almostEqual(bal.Accounts[1].Balance, 0.5) {
		t.Errorf("balances = %v / %v, want 300 / 0.5", bal.Accounts[0].Balance, bal.Accounts[1].Balance)
	}
	if !almostEqual(bal.Total, 800) {
		t.Errorf("total = %v, want 800", bal.Total)
	}

	// Editing any field prices the transfer again.
	if _, err := svc.Rates.Patch(ctx, core.ExchangeRateTable{core.USDMep: {ToBase: 500}}); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	desc := "ahorro"
	tr, err = svc.Transfers.Update(ctx, tr.ID, TransferPatch{Description: &desc})
	if err != nil {
		t.Fatalf("update transfer: %v", err)
	}
	if !almostEqual(tr.ConvertedAmount, 1) {
		t.Errorf("repriced ConvertedAmount = %v, want 1", tr.ConvertedAmount)
	}

	if _, err := svc.Rates.Patch(ctx, core.ExchangeRateTable{core.ARS: {ToBase: 2}}); !errors.Is(err, core.ErrInvalidRate) {
		t.Errorf("patching the base rate error = %v, want ErrInvalidRate", err)
	}

	if _, err := svc.Rates.FetchAndUpdate(ctx, false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	clock.Advance(3 * time.Second)
	_, err = svc.Rates.FetchAndUpdate(ctx, false)
	var limited *core.RateLimitedError
	if !errors.As(err, &limited) || limited.RemainingSeconds() != 7 {
		t.Fatalf("second fetch error = %v, want a 7 second wait", err)
	}
	if _, err := svc.Rates.FetchAndUpdate(ctx, true); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}

	assertErrorIs(t, svc.Accounts.Delete(ctx, a.ID), core.ErrInUse)
	defaults, err := svc.Categories.List(ctx, core.Expense)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	var protected int64
	for _, c := range defaults {
		if c.IsDefault {
			protected = c.ID
			break
		}
	}
	assertErrorIs(t, svc.Categories.Delete(ctx, protected), core.ErrProtectedEntity)

	before, err := svc.Dashboard.Balances(ctx, BalanceOptions{})
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	snap, err := svc.Backup.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := svc.Backup.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if accounts, _ := svc.Accounts.List(ctx, ScopeAll); len(accounts) != 0 {
		t.Fatalf("accounts after reset = %+v", accounts)
	}
	if _, err := svc.Backup.Import(ctx, snap); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	after, err := svc.Dashboard.Balances(ctx, BalanceOptions{})
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	if !almostEqual(after.Total, before.Total) || len(after.Accounts) != 2 {
		t.Errorf("after import total = %v over %d accounts, want %v over 2", after.Total, len(after.Accounts), before.Total)
	}
}
