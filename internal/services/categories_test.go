package services

import (
	"context"
	"testing"

	"platito/internal/core"
)

func TestCategoryService_Uniqueness(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.category(t, "Viajes", core.Expense)

	tests := []struct {
		name    string
		input   CategoryInput
		wantErr error
	}{
		{name: "same name same type", input: CategoryInput{Name: "Viajes", Type: core.Expense}, wantErr: core.ErrDuplicateName},
		{name: "case and spaces ignored", input: CategoryInput{Name: "  VIAJES ", Type: core.Expense}, wantErr: core.ErrDuplicateName},
		{name: "same name other type", input: CategoryInput{Name: "Viajes", Type: core.Income}},
		{name: "empty name", input: CategoryInput{Name: " ", Type: core.Income}, wantErr: core.ErrEmptyName},
		{name: "unknown type", input: CategoryInput{Name: "Otro", Type: "transfer"}, wantErr: core.ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Categories.Create(ctx, tt.input)
			if tt.wantErr != nil {
				assertErrorIs(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
		})
	}
}

func TestCategoryService_CreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.svc.Categories.Create(context.Background(), CategoryInput{Name: "Mascotas", Type: core.Expense})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.Icon != core.DefaultCategoryIcon {
		t.Errorf("Icon = %q, want %q", c.Icon, core.DefaultCategoryIcon)
	}
	if c.IsDefault {
		t.Error("user categories must not be default")
	}
}

func TestCategoryService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("rename into collision is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		env.category(t, "Cine", core.Expense)
		other := env.category(t, "Teatro", core.Expense)
		name := "cine"
		_, err := env.svc.Categories.Update(ctx, other.ID, CategoryPatch{Name: &name})
		assertErrorIs(t, err, core.ErrDuplicateName)
	})

	t.Run("renaming to itself is allowed", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.category(t, "Cine", core.Expense)
		name := "CINE"
		got, err := env.svc.Categories.Update(ctx, c.ID, CategoryPatch{Name: &name})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Name != "CINE" {
			t.Errorf("Name = %q, want CINE", got.Name)
		}
	})

	t.Run("default flag is preserved", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.svc.Categories.EnsureDefaults(ctx); err != nil {
			t.Fatalf("EnsureDefaults() error = %v", err)
		}
		cats, _ := env.svc.Categories.List(ctx, core.Expense)
		color := "#000000"
		got, err := env.svc.Categories.Update(ctx, cats[0].ID, CategoryPatch{Color: &color})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if !got.IsDefault {
			t.Error("Update() dropped the default flag")
		}
	})

	t.Run("type change of used category is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.account(t, "Banco", core.ARS, 0)
		c := env.category(t, "Regalos", core.Expense)
		if _, err := env.svc.Transactions.Create(ctx, core.Transaction{AccountID: a.ID, CategoryID: c.ID, Amount: 5}); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
		income := core.Income
		_, err := env.svc.Categories.Update(ctx, c.ID, CategoryPatch{Type: &income})
		assertErrorIs(t, err, core.ErrInUse)
	})

	t.Run("type change of unused category moves uniqueness scope", func(t *testing.T) {
		env := newTestEnv(t)
		env.category(t, "Bonos", core.Income)
		c := env.category(t, "Bonos", core.Expense)
		income := core.Income
		_, err := env.svc.Categories.Update(ctx, c.ID, CategoryPatch{Type: &income})
		assertErrorIs(t, err, core.ErrDuplicateName)
	})
}

func TestCategoryService_Delete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	if err := env.svc.Categories.EnsureDefaults(ctx); err != nil {
		t.Fatalf("EnsureDefaults() error = %v", err)
	}
	defaults, _ := env.svc.Categories.List(ctx, "")

	a := env.account(t, "Banco", core.ARS, 0)
	used := env.category(t, "Usada", core.Expense)
	free := env.category(t, "Libre", core.Expense)
	if _, err := env.svc.Transactions.Create(ctx, core.Transaction{AccountID: a.ID, CategoryID: used.ID, Amount: 1}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	assertErrorIs(t, env.svc.Categories.Delete(ctx, defaults[0].ID), core.ErrProtectedEntity)
	assertErrorIs(t, env.svc.Categories.Delete(ctx, used.ID), core.ErrInUse)
	if err := env.svc.Categories.Delete(ctx, free.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	assertErrorIs(t, env.svc.Categories.Delete(ctx, free.ID), core.ErrNotFound)
}

func TestCategoryService_DeleteDefaultInUse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	if err := env.svc.Categories.EnsureDefaults(ctx); err != nil {
		t.Fatalf("EnsureDefaults() error = %v", err)
	}
	cats, _ := env.svc.Categories.List(ctx, core.Income)
	a := env.account(t, "Banco", core.ARS, 0)
	if _, err := env.svc.Transactions.Create(ctx, core.Transaction{AccountID: a.ID, CategoryID: cats[0].ID, Amount: 1}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	assertErrorIs(t, env.svc.Categories.Delete(ctx, cats[0].ID), core.ErrProtectedEntity)
}

func TestCategoryService_EnsureDefaultsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// A user category sharing a seed name is adopted, not duplicated.
	pre, err := env.svc.Categories.Create(ctx, CategoryInput{Name: "comida", Type: core.Expense, Icon: "pizza"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := env.svc.Categories.EnsureDefaults(ctx); err != nil {
			t.Fatalf("EnsureDefaults() run %d error = %v", i+1, err)
		}
	}

	all, err := env.svc.Categories.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != len(core.DefaultCategories()) {
		t.Fatalf("categories = %d, want %d", len(all), len(core.DefaultCategories()))
	}

	adopted, err := env.svc.Categories.Get(ctx, pre.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !adopted.IsDefault || adopted.Icon != "utensils" {
		t.Errorf("adopted category = %+v, want default with seed icon", adopted)
	}
}
