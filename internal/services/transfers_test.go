package services

import (
	"context"
	"math"
	"testing"
	"time"

	"platito/internal/core"
	"platito/internal/ports"
)

func TestTransferService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.account(t, "A", core.ARS, 0)
	b := env.account(t, "B", core.USDMep, 0)

	tests := []struct {
		name    string
		input   TransferInput
		wantErr error
	}{
		{name: "zero amount", input: TransferInput{FromAccountID: a.ID, ToAccountID: b.ID}, wantErr: core.ErrInvalidAmount},
		{name: "infinite amount", input: TransferInput{FromAccountID: a.ID, ToAccountID: b.ID, Amount: math.Inf(1)}, wantErr: core.ErrInvalidAmount},
		{name: "same account", input: TransferInput{FromAccountID: a.ID, ToAccountID: a.ID, Amount: 1}, wantErr: core.ErrSameAccount},
		{name: "amount checked before accounts", input: TransferInput{FromAccountID: a.ID, ToAccountID: a.ID, Amount: -1}, wantErr: core.ErrInvalidAmount},
		{name: "missing source", input: TransferInput{FromAccountID: 404, ToAccountID: b.ID, Amount: 1}, wantErr: core.ErrNotFound},
		{name: "missing destination", input: TransferInput{FromAccountID: a.ID, ToAccountID: 404, Amount: 1}, wantErr: core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Transfers.Create(ctx, tt.input)
			assertErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTransferService_EndToEndScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setRates(t, core.ExchangeRateTable{core.USDMep: {ToBase: 1000}})

	a := env.account(t, "A", core.ARS, 1000)
	b := env.account(t, "B", core.USDMep, 0)
	c := env.category(t, "Compras", core.Expense)

	if _, err := env.svc.Transactions.Create(ctx, core.Transaction{AccountID: a.ID, CategoryID: c.ID, Amount: 200}); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	bal, err := env.svc.Dashboard.Balances(ctx, BalanceOptions{})
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	if bal.Accounts[0].Balance != 800 {
		t.Errorf("balance(A) after expense = %v, want 800", bal.Accounts[0].Balance)
	}

	// Undo the expense so the transfer scenario starts from 1000.
	txs, _ := env.svc.Transactions.List(ctx, ports.TransactionFilter{})
	if err := env.svc.Transactions.Delete(ctx, txs[0].ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}

	tr, err := env.svc.Transfers.Create(ctx, TransferInput{FromAccountID: a.ID, ToAccountID: b.ID, Amount: 500})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !almostEqual(tr.ConvertedAmount, 0.5) {
		t.Errorf("ConvertedAmount = %v, want 0.5", tr.ConvertedAmount)
	}
	if !almostEqual(tr.ExchangeRate, 0.001) {
		t.Errorf("ExchangeRate = %v, want 0.001", tr.ExchangeRate)
	}
	if !tr.CreatedAt.Equal(env.clock.Now()) || !tr.UpdatedAt.Equal(env.clock.Now()) {
		t.Errorf("timestamps = %v/%v, want %v", tr.CreatedAt, tr.UpdatedAt, env.clock.Now())
	}

	bal, err = env.svc.Dashboard.Balances(ctx, BalanceOptions{})
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	if !almostEqual(bal.Accounts[0].Balance, 500) {
		t.Errorf("balance(A) = %v, want 500", bal.Accounts[0].Balance)
	}
	if !almostEqual(bal.Accounts[1].Balance, 0.5) {
		t.Errorf("balance(B) = %v, want 0.5", bal.Accounts[1].Balance)
	}
}

// Create freezes the converted amount; Update prices the transfer again with
// the rates in effect at edit time.
func TestTransferService_SnapshotThenReprice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setRates(t, core.ExchangeRateTable{core.USDBlue: {ToBase: 1000}})

	a := env.account(t, "Pesos", core.ARS, 0)
	b := env.account(t, "Blue", core.USDBlue, 0)
	tr, err := env.svc.Transfers.Create(ctx, TransferInput{FromAccountID: a.ID, ToAccountID: b.ID, Amount: 2000})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !almostEqual(tr.ConvertedAmount, 2) {
		t.Fatalf("ConvertedAmount = %v, want 2", tr.ConvertedAmount)
	}

	env.setRates(t, core.ExchangeRateTable{core.USDBlue: {ToBase: 2000}})

	stored, _ := env.svc.Transfers.Get(ctx, tr.ID)
	if !almostEqual(stored.ConvertedAmount, 2) {
		t.Errorf("stored ConvertedAmount changed to %v after a rate change", stored.ConvertedAmount)
	}
	bal, _ := env.svc.Dashboard.Balances(ctx, BalanceOptions{})
	if !almostEqual(bal.Accounts[1].Balance, 2) {
		t.Errorf("balance(B) = %v, want the frozen 2", bal.Accounts[1].Balance)
	}

	env.clock.Advance(time.Hour)
	desc := "ajuste"
	updated, err := env.svc.Transfers.Update(ctx, tr.ID, TransferPatch{Description: &desc})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !almostEqual(updated.ConvertedAmount, 1) {
		t.Errorf("ConvertedAmount after Update() = %v, want repriced 1", updated.ConvertedAmount)
	}
	if !almostEqual(updated.ExchangeRate, 0.0005) {
		t.Errorf("ExchangeRate after Update() = %v, want 0.0005", updated.ExchangeRate)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("UpdatedAt %v should be after CreatedAt %v", updated.UpdatedAt, updated.CreatedAt)
	}
}

func TestTransferService_UpdateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.account(t, "A", core.ARS, 0)
	b := env.account(t, "B", core.ARS, 0)
	tr, err := env.svc.Transfers.Create(ctx, TransferInput{FromAccountID: a.ID, ToAccountID: b.ID, Amount: 10})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = env.svc.Transfers.Update(ctx, tr.ID, TransferPatch{ToAccountID: &a.ID})
	assertErrorIs(t, err, core.ErrSameAccount)

	zero := 0.0
	_, err = env.svc.Transfers.Update(ctx, tr.ID, TransferPatch{Amount: &zero})
	assertErrorIs(t, err, core.ErrInvalidAmount)

	missing := int64(404)
	_, err = env.svc.Transfers.Update(ctx, tr.ID, TransferPatch{FromAccountID: &missing})
	assertErrorIs(t, err, core.ErrNotFound)

	_, err = env.svc.Transfers.Update(ctx, 999, TransferPatch{})
	assertErrorIs(t, err, core.ErrNotFound)
}

func TestTransferService_ListByDirection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.account(t, "A", core.ARS, 0)
	b := env.account(t, "B", core.ARS, 0)
	c := env.account(t, "C", core.ARS, 0)

	out, _ := env.svc.Transfers.Create(ctx, TransferInput{FromAccountID: a.ID, ToAccountID: b.ID, Amount: 1, Date: core.NewDate(2024, 1, 1)})
	in, _ := env.svc.Transfers.Create(ctx, TransferInput{FromAccountID: c.ID, ToAccountID: a.ID, Amount: 1, Date: core.NewDate(2024, 2, 1)})
	if _, err := env.svc.Transfers.Create(ctx, TransferInput{FromAccountID: b.ID, ToAccountID: c.ID, Amount: 1}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		dir  core.TransferDirection
		want []int64
	}{
		{dir: core.DirectionFrom, want: []int64{out.ID}},
		{dir: core.DirectionTo, want: []int64{in.ID}},
		{dir: core.DirectionBoth, want: []int64{in.ID, out.ID}},
		{dir: "", want: []int64{in.ID, out.ID}},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			got, err := env.svc.Transfers.List(ctx, ports.TransferFilter{AccountID: a.ID, Direction: tt.dir})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() = %d transfers, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("transfer[%d] = %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}

	_, err := env.svc.Transfers.List(ctx, ports.TransferFilter{AccountID: a.ID, Direction: "sideways"})
	assertErrorIs(t, err, core.ErrValidation)

	if err := env.svc.Transfers.Delete(ctx, out.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	assertErrorIs(t, env.svc.Transfers.Delete(ctx, out.ID), core.ErrNotFound)
}
