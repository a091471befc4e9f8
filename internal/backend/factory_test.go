package backend

import (
	"context"
	"path/filepath"
	"testing"

	"platito/internal/config"
	"platito/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name     string
		app      *config.Config
		wantErr  bool
		wantPath string
	}{
		{
			name:    "nil config",
			app:     nil,
			wantErr: true,
		},
		{
			name:    "unknown backend",
			app:     &config.Config{DataBackend: "postgres"},
			wantErr: true,
		},
		{
			name:     "sqlite main dataset",
			app:      &config.Config{DataBackend: "sqlite", SQLiteDBPath: "./data/platito.db", Dataset: "main"},
			wantPath: "./data/platito.db",
		},
		{
			name:     "sqlite testing dataset",
			app:      &config.Config{DataBackend: "sqlite", SQLiteDBPath: "./data/platito.db", Dataset: "testing"},
			wantPath: "./data/platito_testing.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromAppConfig(tt.app)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.SQLiteDBPath != tt.wantPath {
				t.Errorf("SQLiteDBPath = %q, want %q", cfg.SQLiteDBPath, tt.wantPath)
			}
			if len(cfg.DefaultRates) != len(core.SupportedCurrencies) {
				t.Errorf("DefaultRates = %v, want every supported currency", cfg.DefaultRates)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	factory := NewFactory(nil)

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "memory",
			config: Config{Type: MemoryBackend},
		},
		{
			name:   "sqlite",
			config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")},
		},
		{
			name:    "sqlite without path",
			config:  Config{Type: SQLiteBackend},
			wantErr: true,
		},
		{
			name:    "invalid type",
			config:  Config{Type: "postgres"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := factory.CreateBackend(ctx, tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if res.Cleanup != nil {
				defer res.Cleanup()
			}

			id, err := res.Repository.CreateAccount(ctx, core.Account{Name: "Caja", Currency: core.ARS})
			if err != nil {
				t.Fatalf("CreateAccount() error = %v", err)
			}
			got, err := res.Repository.GetAccount(ctx, id)
			if err != nil || got.Name != "Caja" {
				t.Errorf("GetAccount() = %+v, %v", got, err)
			}
		})
	}
}
