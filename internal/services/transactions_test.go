package services

import (
	"context"
	"math"
	"testing"

	"platito/internal/core"
	"platito/internal/ports"
)

func TestTransactionService_CreateStampsCurrencyAndType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.account(t, "Dólares", core.USDMep, 0)
	c := env.category(t, "Sueldo extra", core.Income)

	tx, err := env.svc.Transactions.Create(ctx, core.Transaction{
		AccountID:  a.ID,
		CategoryID: c.ID,
		Type:       core.Expense,
		Currency:   core.ARS,
		Amount:     150,
		Date:       core.NewDate(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tx.Currency != core.USDMep {
		t.Errorf("Currency = %s, want %s", tx.Currency, core.USDMep)
	}
	if tx.Type != core.Income {
		t.Errorf("Type = %s, want %s", tx.Type, core.Income)
	}

	stored, err := env.svc.Transactions.Get(ctx, tx.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Currency != core.USDMep || stored.Type != core.Income {
		t.Errorf("stored = %+v, want stamped currency and type", stored)
	}
}

func TestTransactionService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.account(t, "Banco", core.ARS, 0)
	c := env.category(t, "Compras", core.Expense)

	tests := []struct {
		name    string
		tx      core.Transaction
		wantErr error
	}{
		{name: "zero amount", tx: core.Transaction{AccountID: a.ID, CategoryID: c.ID}, wantErr: core.ErrInvalidAmount},
		{name: "negative amount", tx: core.Transaction{AccountID: a.ID, CategoryID: c.ID, Amount: -4}, wantErr: core.ErrInvalidAmount},
		{name: "NaN amount", tx: core.Transaction{AccountID: a.ID, CategoryID: c.ID, Amount: math.NaN()}, wantErr: core.ErrInvalidAmount},
		{name: "missing account", tx: core.Transaction{AccountID: 404, CategoryID: c.ID, Amount: 1}, wantErr: core.ErrNotFound},
		{name: "missing category", tx: core.Transaction{AccountID: a.ID, CategoryID: 404, Amount: 1}, wantErr: core.ErrNotFound},
		{name: "missing tag", tx: core.Transaction{AccountID: a.ID, CategoryID: c.ID, Amount: 1, TagIDs: []int64{404}}, wantErr: core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Transactions.Create(ctx, tt.tx)
			assertErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTransactionService_DefaultsAndTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.account(t, "Banco", core.ARS, 0)
	c := env.category(t, "Compras", core.Expense)
	tag, err := env.svc.Tags.Create(ctx, "Viaje")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	tx, err := env.svc.Transactions.Create(ctx, core.Transaction{
		AccountID:   a.ID,
		CategoryID:  c.ID,
		Amount:      20,
		Description: "  souvenir ",
		TagIDs:      []int64{tag.ID, tag.ID},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !tx.Date.Equal(core.DateOf(env.clock.Now()).Time) {
		t.Errorf("Date = %s, want today %s", tx.Date, core.DateOf(env.clock.Now()))
	}
	if tx.Description != "souvenir" {
		t.Errorf("Description = %q, want trimmed", tx.Description)
	}
	if len(tx.TagIDs) != 1 || tx.TagIDs[0] != tag.ID {
		t.Errorf("TagIDs = %v, want [%d]", tx.TagIDs, tag.ID)
	}

	if err := env.svc.Tags.Delete(ctx, tag.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	stored, _ := env.svc.Transactions.Get(ctx, tx.ID)
	if len(stored.TagIDs) != 0 {
		t.Errorf("TagIDs after tag delete = %v, want none", stored.TagIDs)
	}
}

func TestTransactionService_UpdateRestamps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ars := env.account(t, "Pesos", core.ARS, 0)
	usd := env.account(t, "Dólares", core.USDBlue, 0)
	expense := env.category(t, "Compras", core.Expense)
	income := env.category(t, "Ventas", core.Income)

	tx, err := env.svc.Transactions.Create(ctx, core.Transaction{AccountID: ars.ID, CategoryID: expense.ID, Amount: 10})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	amount := 12.5
	got, err := env.svc.Transactions.Update(ctx, tx.ID, TransactionPatch{
		AccountID:  &usd.ID,
		CategoryID: &income.ID,
		Amount:     &amount,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Currency != core.USDBlue || got.Type != core.Income || got.Amount != amount {
		t.Errorf("Update() = %+v, want USD_BLUE income of %v", got, amount)
	}

	bad := 0.0
	_, err = env.svc.Transactions.Update(ctx, tx.ID, TransactionPatch{Amount: &bad})
	assertErrorIs(t, err, core.ErrInvalidAmount)

	_, err = env.svc.Transactions.Update(ctx, 999, TransactionPatch{Amount: &amount})
	assertErrorIs(t, err, core.ErrNotFound)
}

func TestTransactionService_ListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.account(t, "A", core.ARS, 0)
	b := env.account(t, "B", core.ARS, 0)
	c := env.category(t, "Compras", core.Expense)

	dates := []core.Date{core.NewDate(2024, 1, 10), core.NewDate(2024, 2, 5), core.NewDate(2024, 3, 1)}
	var ids []int64
	for i, d := range dates {
		account := a.ID
		if i == 1 {
			account = b.ID
		}
		tx, err := env.svc.Transactions.Create(ctx, core.Transaction{AccountID: account, CategoryID: c.ID, Amount: 1, Date: d})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, tx.ID)
	}

	all, err := env.svc.Transactions.List(ctx, ports.TransactionFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("List() order = %v, want newest first", all)
	}

	ranged, _ := env.svc.Transactions.List(ctx, ports.TransactionFilter{
		Start: core.NewDate(2024, 2, 1).Time,
		End:   core.NewDate(2024, 3, 1).Time,
	})
	if len(ranged) != 1 || ranged[0].ID != ids[1] {
		t.Errorf("List() in February = %v, want only %d", ranged, ids[1])
	}

	byAccount, _ := env.svc.Transactions.List(ctx, ports.TransactionFilter{AccountID: a.ID})
	if len(byAccount) != 2 {
		t.Errorf("List() for account A = %d, want 2", len(byAccount))
	}

	if err := env.svc.Transactions.Delete(ctx, ids[0]); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	assertErrorIs(t, env.svc.Transactions.Delete(ctx, ids[0]), core.ErrNotFound)
}

func TestTagService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tag, err := env.svc.Tags.Create(ctx, " Fijo ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tag.Name != "Fijo" {
		t.Errorf("Name = %q, want Fijo", tag.Name)
	}

	_, err = env.svc.Tags.Create(ctx, "FIJO")
	assertErrorIs(t, err, core.ErrDuplicateName)
	_, err = env.svc.Tags.Create(ctx, "")
	assertErrorIs(t, err, core.ErrEmptyName)

	other, _ := env.svc.Tags.Create(ctx, "Variable")
	_, err = env.svc.Tags.Rename(ctx, other.ID, "fijo")
	assertErrorIs(t, err, core.ErrDuplicateName)

	renamed, err := env.svc.Tags.Rename(ctx, other.ID, "Ocasional")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if renamed.Name != "Ocasional" {
		t.Errorf("Rename() = %q, want Ocasional", renamed.Name)
	}

	tags, _ := env.svc.Tags.List(ctx)
	if len(tags) != 2 {
		t.Errorf("List() = %d tags, want 2", len(tags))
	}
}
