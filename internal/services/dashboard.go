package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"platito/internal/core"
	"platito/internal/ports"
)

// AccountBalance is one account's balance in its own currency and in the
// display currency.
type AccountBalance struct {
	Account          core.Account `json:"account"`
	Balance          float64      `json:"balance"`
	Formatted        string       `json:"formatted"`
	DisplayBalance   float64      `json:"displayBalance"`
	DisplayFormatted string       `json:"displayFormatted"`
}

type Balances struct {
	Currency       core.Currency    `json:"currency"`
	Accounts       []AccountBalance `json:"accounts"`
	Total          float64          `json:"total"`
	TotalFormatted string           `json:"totalFormatted"`
}

// BalanceOptions tunes Balances. An empty Display uses the settings.
type BalanceOptions struct {
	IncludeArchived bool
	Display         core.Currency
}

// DashboardService computes balances and period summaries with the current
// rates.
type DashboardService struct {
	repo     ports.Repository
	settings *SettingsService
	now      func() time.Time
}

func NewDashboardService(repo ports.Repository, settings *SettingsService) *DashboardService {
	return &DashboardService{repo: repo, settings: settings, now: time.Now}
}

type ledgerView struct {
	settings     core.Settings
	accounts     []core.Account
	categories   []core.Category
	transactions []core.Transaction
	transfers    []core.Transfer
}

// load reads the settings and the requested tables concurrently.
func (s *DashboardService) load(ctx context.Context, txFilter ports.TransactionFilter, withTransfers, withCategories bool) (ledgerView, error) {
	var v ledgerView
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		st, err := s.settings.Load(gctx)
		v.settings = st
		return err
	})
	g.Go(func() error {
		accounts, err := s.repo.ListAccounts(gctx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		v.accounts = accounts
		return nil
	})
	g.Go(func() error {
		txs, err := s.repo.ListTransactions(gctx, txFilter)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		v.transactions = txs
		return nil
	})
	if withTransfers {
		g.Go(func() error {
			trs, err := s.repo.ListTransfers(gctx, ports.TransferFilter{})
			if err != nil {
				return fmt.Errorf("list transfers: %w", err)
			}
			v.transfers = trs
			return nil
		})
	}
	if withCategories {
		g.Go(func() error {
			cats, err := s.repo.ListCategories(gctx)
			if err != nil {
				return fmt.Errorf("list categories: %w", err)
			}
			v.categories = cats
			return nil
		})
	}

	return v, g.Wait()
}

func (s *DashboardService) Balances(ctx context.Context, opts BalanceOptions) (Balances, error) {
	if opts.Display != "" && !opts.Display.IsValid() {
		return Balances{}, fmt.Errorf("display currency %q: %w", opts.Display, core.ErrInvalidCurrency)
	}
	v, err := s.load(ctx, ports.TransactionFilter{}, true, false)
	if err != nil {
		return Balances{}, err
	}

	display := opts.Display
	if display == "" {
		display = v.settings.DisplayCurrency
	}
	table := v.settings.ExchangeRates

	out := Balances{Currency: display, Accounts: make([]AccountBalance, 0, len(v.accounts))}
	included := make([]core.Account, 0, len(v.accounts))
	for _, a := range v.accounts {
		if a.IsArchived && !opts.IncludeArchived {
			continue
		}
		included = append(included, a)

		native := core.AccountBalance(a, v.transactions, v.transfers, table)
		converted := core.ComputeAccountBalance(a, v.transactions, v.transfers, table, display)
		out.Accounts = append(out.Accounts, AccountBalance{
			Account:          a,
			Balance:          native,
			Formatted:        core.FormatAmount(native, a.Currency),
			DisplayBalance:   converted,
			DisplayFormatted: core.FormatAmount(converted, display),
		})
	}
	out.Total = core.ComputeTotalBalance(included, v.transactions, v.transfers, table, display)
	out.TotalFormatted = core.FormatAmount(out.Total, display)
	return out, nil
}

// Summary aggregates the transactions of the window offset periods back.
// An empty window or display currency uses the settings.
func (s *DashboardService) Summary(ctx context.Context, window core.TimeWindow, offset int, display core.Currency) (core.PeriodSummary, error) {
	if offset < 0 {
		return core.PeriodSummary{}, fmt.Errorf("offset %d: %w", offset, core.ErrInvalidWindow)
	}
	if display != "" && !display.IsValid() {
		return core.PeriodSummary{}, fmt.Errorf("display currency %q: %w", display, core.ErrInvalidCurrency)
	}

	if window == "" {
		st, err := s.settings.Load(ctx)
		if err != nil {
			return core.PeriodSummary{}, err
		}
		window = st.DefaultTimeWindow
	}
	start, end, err := core.PeriodBounds(window, offset, s.now().UTC())
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("time window %q: %w", window, err)
	}

	v, err := s.load(ctx, ports.TransactionFilter{Start: start, End: end}, false, true)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	if display == "" {
		display = v.settings.DisplayCurrency
	}

	sum := core.SummarizePeriod(v.transactions, v.categories, start, end, v.settings.ExchangeRates, display)
	sum.Window = window
	sum.Offset = offset
	return sum, nil
}
