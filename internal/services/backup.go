package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"platito/internal/amqp"
	"platito/internal/core"
	"platito/internal/log"
	"platito/internal/ports"
)

// SnapshotVersion is the backup format written by Export.
const SnapshotVersion = 1

// Snapshot is a whole-dataset backup document.
type Snapshot struct {
	Version      int                `json:"version"`
	ExportedAt   time.Time          `json:"exportedAt"`
	Accounts     []core.Account     `json:"accounts"`
	Categories   []core.Category    `json:"categories"`
	Tags         []core.Tag         `json:"tags"`
	Transactions []core.Transaction `json:"transactions"`
	Transfers    []core.Transfer    `json:"transfers"`
	Settings     *core.Settings     `json:"settings,omitempty"`
}

// ImportResult counts the records restored by Import.
type ImportResult struct {
	Accounts     int  `json:"accounts"`
	Categories   int  `json:"categories"`
	Tags         int  `json:"tags"`
	Transactions int  `json:"transactions"`
	Transfers    int  `json:"transfers"`
	Settings     bool `json:"settings"`
}

// BackupService exports, restores, resets and seeds a dataset.
type BackupService struct {
	repo     ports.Repository
	settings *SettingsService
	now      func() time.Time
	notifier
}

func NewBackupService(repo ports.Repository, settings *SettingsService, events EventPublisher) *BackupService {
	return &BackupService{repo: repo, settings: settings, now: time.Now, notifier: notifier{events: events}}
}

func (s *BackupService) Export(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Version: SnapshotVersion, ExportedAt: s.now().UTC()}
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		var err error
		if snap.Accounts, err = r.ListAccounts(ctx); err != nil {
			return fmt.Errorf("export accounts: %w", err)
		}
		if snap.Categories, err = r.ListCategories(ctx); err != nil {
			return fmt.Errorf("export categories: %w", err)
		}
		if snap.Tags, err = r.ListTags(ctx); err != nil {
			return fmt.Errorf("export tags: %w", err)
		}
		if snap.Transactions, err = r.ListTransactions(ctx, ports.TransactionFilter{}); err != nil {
			return fmt.Errorf("export transactions: %w", err)
		}
		if snap.Transfers, err = r.ListTransfers(ctx, ports.TransferFilter{}); err != nil {
			return fmt.Errorf("export transfers: %w", err)
		}
		st, err := s.settings.load(ctx, r)
		if err != nil {
			return err
		}
		snap.Settings = &st
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	slog.InfoContext(ctx, "Dataset exported", log.FieldComponent, log.ComponentBackup,
		log.FieldOperation, log.OpExport,
		"accounts", len(snap.Accounts),
		"transactions", len(snap.Transactions),
		"transfers", len(snap.Transfers))
	return snap, nil
}

// Import replaces the ledger with the snapshot content, keeping the original
// ids. Records are trusted as-is. The ledger tables are swapped in one
// transaction; settings are replaced afterwards when the snapshot has them.
func (s *BackupService) Import(ctx context.Context, snap Snapshot) (ImportResult, error) {
	if snap.Version > SnapshotVersion {
		return ImportResult{}, fmt.Errorf("snapshot version %d is newer than %d: %w", snap.Version, SnapshotVersion, core.ErrValidation)
	}

	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		if err := r.ClearLedger(ctx); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
		for _, a := range snap.Accounts {
			if _, err := r.CreateAccount(ctx, a); err != nil {
				return fmt.Errorf("import account %d: %w", a.ID, err)
			}
		}
		for _, c := range snap.Categories {
			if _, err := r.CreateCategory(ctx, c); err != nil {
				return fmt.Errorf("import category %d: %w", c.ID, err)
			}
		}
		for _, t := range snap.Tags {
			if _, err := r.CreateTag(ctx, t); err != nil {
				return fmt.Errorf("import tag %d: %w", t.ID, err)
			}
		}
		for _, tx := range snap.Transactions {
			if _, err := r.CreateTransaction(ctx, tx); err != nil {
				return fmt.Errorf("import transaction %d: %w", tx.ID, err)
			}
		}
		for _, tr := range snap.Transfers {
			if _, err := r.CreateTransfer(ctx, tr); err != nil {
				return fmt.Errorf("import transfer %d: %w", tr.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{
		Accounts:     len(snap.Accounts),
		Categories:   len(snap.Categories),
		Tags:         len(snap.Tags),
		Transactions: len(snap.Transactions),
		Transfers:    len(snap.Transfers),
	}

	if snap.Settings != nil {
		err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
			return s.settings.save(ctx, r, *snap.Settings)
		})
		if err != nil {
			return res, fmt.Errorf("import settings: %w", err)
		}
		res.Settings = true
	}

	slog.InfoContext(ctx, "Dataset imported", log.FieldComponent, log.ComponentBackup,
		log.FieldOperation, log.OpImport,
		"accounts", res.Accounts,
		"transactions", res.Transactions,
		"transfers", res.Transfers,
		"settings", res.Settings)
	s.notify(ctx, amqp.EntityLedger, amqp.ActionImported, 0)
	return res, nil
}

// Reset empties the dataset and reseeds default categories and settings.
func (s *BackupService) Reset(ctx context.Context) error {
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		if err := r.ClearLedger(ctx); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
		if err := r.ClearSettings(ctx); err != nil {
			return fmt.Errorf("clear settings: %w", err)
		}
		if _, _, err := ensureDefaultCategories(ctx, r); err != nil {
			return err
		}
		return s.settings.save(ctx, r, core.DefaultSettings(s.settings.defaultRates))
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Dataset reset", log.FieldComponent, log.ComponentBackup, log.FieldOperation, log.OpReset)
	s.notify(ctx, amqp.EntityLedger, amqp.ActionReset, 0)
	return nil
}

// SeedSample fills an empty dataset with illustrative records. It reports
// false and changes nothing when accounts or transactions already exist.
func (s *BackupService) SeedSample(ctx context.Context) (bool, error) {
	seeded := false
	err := s.repo.WithinTx(ctx, func(r ports.Repository) error {
		accounts, err := r.ListAccounts(ctx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		n, err := r.CountTransactions(ctx, ports.TransactionFilter{})
		if err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}
		if len(accounts) > 0 || n > 0 {
			return nil
		}

		if err := s.seedSample(ctx, r); err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if seeded {
		slog.InfoContext(ctx, "Sample data seeded", log.FieldComponent, log.ComponentBackup, log.FieldOperation, log.OpSeed)
		s.notify(ctx, amqp.EntityLedger, amqp.ActionImported, 0)
	} else {
		slog.InfoContext(ctx, "Sample data skipped, dataset is not empty", log.FieldComponent, log.ComponentBackup, log.FieldOperation, log.OpSeed)
	}
	return seeded, nil
}

type sampleTransaction struct {
	account  int
	category string
	typ      core.TransactionType
	amount   float64
	daysAgo  int
	desc     string
	tags     []int
}

func (s *BackupService) seedSample(ctx context.Context, r ports.Repository) error {
	if _, _, err := ensureDefaultCategories(ctx, r); err != nil {
		return err
	}
	st, err := s.settings.load(ctx, r)
	if err != nil {
		return err
	}

	accounts := []core.Account{
		{Name: "Cuenta sueldo", Currency: core.ARS, InitialBalance: 250000, Color: "#3b82f6", Icon: "landmark"},
		{Name: "Efectivo", Currency: core.ARS, InitialBalance: 40000, Color: "#22c55e", Icon: "wallet"},
		{Name: "Dólares MEP", Currency: core.USDMep, InitialBalance: 500, Color: "#0ea5e9", Icon: "dollar-sign"},
		{Name: "Ahorro blue", Currency: core.USDBlue, InitialBalance: 300, Color: "#6366f1", Icon: "piggy-bank"},
		{Name: "Exchange USDT", Currency: core.USDT, InitialBalance: 150, Color: "#14b8a6", Icon: "coins"},
	}
	accountIDs := make([]int64, len(accounts))
	for i, a := range accounts {
		id, err := r.CreateAccount(ctx, a)
		if err != nil {
			return fmt.Errorf("seed account %q: %w", a.Name, err)
		}
		accountIDs[i] = id
	}

	tagNames := []string{"Fijo", "Viaje", "Trabajo"}
	tagIDs := make([]int64, len(tagNames))
	for i, name := range tagNames {
		id, err := r.CreateTag(ctx, core.Tag{Name: name})
		if err != nil {
			return fmt.Errorf("seed tag %q: %w", name, err)
		}
		tagIDs[i] = id
	}

	categories, err := r.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	categoryID := func(name string, typ core.TransactionType) (int64, error) {
		for _, c := range categories {
			if c.Type == typ && core.SameName(c.Name, name) {
				return c.ID, nil
			}
		}
		return 0, fmt.Errorf("sample category %q: %w", name, core.ErrNotFound)
	}

	day := today(s.now)
	daysAgo := func(n int) core.Date {
		return core.Date{Time: day.AddDate(0, 0, -n)}
	}

	samples := []sampleTransaction{
		{account: 0, category: "Sueldo", typ: core.Income, amount: 850000, daysAgo: 28, desc: "Sueldo mensual", tags: []int{2}},
		{account: 0, category: "Alquiler", typ: core.Expense, amount: 320000, daysAgo: 27, desc: "Alquiler", tags: []int{0}},
		{account: 0, category: "Servicios", typ: core.Expense, amount: 45000, daysAgo: 20, desc: "Luz y gas", tags: []int{0}},
		{account: 1, category: "Supermercado", typ: core.Expense, amount: 38500, daysAgo: 12, desc: "Compra semanal"},
		{account: 1, category: "Comida", typ: core.Expense, amount: 12000, daysAgo: 5, desc: "Almuerzo"},
		{account: 1, category: "Transporte", typ: core.Expense, amount: 4500, daysAgo: 2, desc: "SUBE"},
		{account: 2, category: "Freelance", typ: core.Income, amount: 600, daysAgo: 15, desc: "Proyecto web", tags: []int{2}},
		{account: 3, category: "Entretenimiento", typ: core.Expense, amount: 80, daysAgo: 9, desc: "Hotel", tags: []int{1}},
		{account: 4, category: "Inversiones", typ: core.Income, amount: 12.5, daysAgo: 1, desc: "Rendimiento"},
	}
	for _, sample := range samples {
		catID, err := categoryID(sample.category, sample.typ)
		if err != nil {
			return err
		}
		tx := core.Transaction{
			AccountID:   accountIDs[sample.account],
			CategoryID:  catID,
			Type:        sample.typ,
			Amount:      sample.amount,
			Currency:    accounts[sample.account].Currency,
			Date:        daysAgo(sample.daysAgo),
			Description: sample.desc,
		}
		for _, t := range sample.tags {
			tx.TagIDs = append(tx.TagIDs, tagIDs[t])
		}
		if _, err := r.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("seed transaction %q: %w", sample.desc, err)
		}
	}

	transfers := []struct {
		from, to int
		amount   float64
		daysAgo  int
		desc     string
	}{
		{from: 0, to: 2, amount: 115000, daysAgo: 25, desc: "Compra MEP"},
		{from: 0, to: 1, amount: 60000, daysAgo: 14, desc: "Retiro"},
		{from: 3, to: 4, amount: 50, daysAgo: 6, desc: "Paso a USDT"},
	}
	at := s.now().UTC()
	for _, sample := range transfers {
		tr := core.Transfer{
			FromAccountID: accountIDs[sample.from],
			ToAccountID:   accountIDs[sample.to],
			Amount:        sample.amount,
			Date:          daysAgo(sample.daysAgo),
			Description:   sample.desc,
			CreatedAt:     at,
			UpdatedAt:     at,
		}
		if tr, err = priceTransfer(ctx, r, tr, st.ExchangeRates); err != nil {
			return err
		}
		if _, err := r.CreateTransfer(ctx, tr); err != nil {
			return fmt.Errorf("seed transfer %q: %w", sample.desc, err)
		}
	}
	return nil
}
