package services

import (
	"time"

	"platito/internal/core"
	"platito/internal/ports"
)

// Options configures the services built by New. Zero values fall back to
// the live defaults.
type Options struct {
	Events       EventPublisher
	Quotes       QuoteSource
	DefaultRates core.ExchangeRateTable
	Cooldown     time.Duration
	Now          func() time.Time
}

// Services groups every ledger service over one repository.
type Services struct {
	Accounts     *AccountService
	Categories   *CategoryService
	Tags         *TagService
	Transactions *TransactionService
	Transfers    *TransferService
	Settings     *SettingsService
	Rates        *RatesService
	Dashboard    *DashboardService
	Backup       *BackupService
}

func New(repo ports.Repository, opts Options) *Services {
	if opts.DefaultRates == nil {
		opts.DefaultRates = core.LiveDefaultRates()
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = core.RatesCooldown
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	settings := NewSettingsService(repo, opts.DefaultRates, opts.Events)
	rates := NewRatesService(settings, opts.Quotes, opts.Cooldown, opts.Events)
	rates.now = now
	categories := NewCategoryService(repo, opts.Events)

	transactions := NewTransactionService(repo, opts.Events)
	transactions.now = now
	transfers := NewTransferService(repo, rates, opts.Events)
	transfers.now = now
	dashboard := NewDashboardService(repo, settings)
	dashboard.now = now
	backup := NewBackupService(repo, settings, opts.Events)
	backup.now = now

	return &Services{
		Accounts:     NewAccountService(repo, opts.Events),
		Categories:   categories,
		Tags:         NewTagService(repo, opts.Events),
		Transactions: transactions,
		Transfers:    transfers,
		Settings:     settings,
		Rates:        rates,
		Dashboard:    dashboard,
		Backup:       backup,
	}
}

func today(now func() time.Time) core.Date {
	return core.DateOf(now().UTC())
}
