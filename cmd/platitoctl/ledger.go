package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"platito/internal/core"
	"platito/internal/services"
)

func ratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Show or refresh the exchange rates",
	}
	cmd.AddCommand(showRatesCmd())
	cmd.AddCommand(fetchRatesCmd())
	return cmd
}

func showRatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the rate table in effect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			st, err := app.Services.Settings.Load(ctx)
			if err != nil {
				return err
			}
			printRates(st.ExchangeRates)
			if st.RatesLastUpdatedAt != nil {
				fmt.Printf("\nLast fetched %s (%d updates, auto-update %s)\n",
					st.RatesLastUpdatedAt.Local().Format(time.DateTime), st.RatesUpdateCount, st.AutoUpdateInterval)
			}
			return nil
		},
	}
}

func fetchRatesCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch fresh quotes from the rates source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			table, err := app.Services.Rates.FetchAndUpdate(ctx, force)
			if err != nil {
				return err
			}
			printRates(table)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the cooldown since the last fetch")
	return cmd
}

func printRates(table core.ExchangeRateTable) {
	codes := make([]string, 0, len(table))
	for c := range table {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "CURRENCY\tTO %s\n", core.BaseCurrency)
	for _, c := range codes {
		fmt.Fprintf(w, "%s\t%.4f\n", c, table[core.Currency(c)].ToBase)
	}
}

func balancesCmd() *cobra.Command {
	var (
		currency string
		archived bool
	)
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Print account balances and the total",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var display core.Currency
			if currency != "" {
				c, err := core.ParseCurrency(currency)
				if err != nil {
					return err
				}
				display = c
			}

			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			bal, err := app.Services.Dashboard.Balances(ctx, services.BalanceOptions{
				IncludeArchived: archived,
				Display:         display,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "ID\tACCOUNT\tBALANCE\tIN %s\n", bal.Currency)
			for _, a := range bal.Accounts {
				name := a.Account.Name
				if a.Account.IsArchived {
					name += " (archived)"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.Account.ID, name, a.Formatted, a.DisplayFormatted)
			}
			fmt.Fprintf(w, "\tTOTAL\t\t%s\n", bal.TotalFormatted)
			return nil
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "", "display currency (default: settings)")
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived accounts")
	return cmd
}
