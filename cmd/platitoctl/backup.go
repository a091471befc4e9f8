package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"platito/internal/services"
)

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of the dataset as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			snap, err := app.Services.Backup.Export(ctx)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			w := io.Writer(os.Stdout)
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(snap); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			if out != "" && out != "-" {
				fmt.Fprintf(os.Stderr, "Exported %d accounts, %d transactions, %d transfers to %s\n",
					len(snap.Accounts), len(snap.Transactions), len(snap.Transfers), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the dataset with a snapshot",
		Long:  `Replace every account, category, tag, transaction and transfer with the contents of a snapshot written by export. Use - to read stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r := io.Reader(os.Stdin)
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}
			var snap services.Snapshot
			if err := json.NewDecoder(r).Decode(&snap); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}

			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Services.Backup.Import(ctx, snap)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			fmt.Printf("Imported %d accounts, %d categories, %d tags, %d transactions, %d transfers\n",
				res.Accounts, res.Categories, res.Tags, res.Transactions, res.Transfers)
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data and restore the default categories and settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset deletes every record of the dataset; pass --yes to confirm")
			}
			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Services.Backup.Reset(ctx); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			fmt.Printf("Dataset %s reset\n", app.Config.Dataset)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty dataset with sample data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			seeded, err := app.Services.Backup.SeedSample(ctx)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			if !seeded {
				fmt.Println("Dataset already has data, nothing seeded")
				return nil
			}
			fmt.Printf("Seeded sample data into dataset %s\n", app.Config.Dataset)
			return nil
		},
	}
}
