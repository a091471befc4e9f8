package main

import (
	"strings"
	"testing"
)

func TestRunReportsStartupFailures(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "invalid configuration",
			env:     map[string]string{"DATASET": "staging"},
			wantErr: "invalid dataset 'staging'",
		},
		{
			name: "storage cannot be opened",
			env: map[string]string{
				"DATA_BACKEND":   "sqlite",
				"SQLITE_DB_PATH": "/dev/null/platito.db",
			},
			wantErr: "initialize application",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			err := run()
			if err == nil {
				t.Fatal("run() error = nil, want a startup error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("run() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
