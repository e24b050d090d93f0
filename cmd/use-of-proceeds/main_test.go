package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/use-of-proceeds/internal/config"
	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"go.uber.org/zap"
)

func TestInitializeLogger(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		config   config.LoggingConfig
		override string
		wantErr  bool
	}{
		{name: "defaults", config: config.LoggingConfig{}},
		{name: "console debug", config: config.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "warning alias", config: config.LoggingConfig{Level: "warning"}},
		{name: "override wins", config: config.LoggingConfig{Level: "bogus"}, override: "error"},
		{name: "invalid level", config: config.LoggingConfig{Level: "verbose"}, wantErr: true},
		{name: "invalid format", config: config.LoggingConfig{Format: "xml"}, wantErr: true},
		{name: "output file", config: config.LoggingConfig{OutputFile: filepath.Join(dir, "logs", "proceeds.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.config, tt.override)
			if (err != nil) != tt.wantErr {
				t.Fatalf("initializeLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if logger == nil {
				t.Fatal("expected a logger")
			}
			if tt.config.OutputFile != "" {
				if _, err := os.Stat(tt.config.OutputFile); err != nil {
					t.Errorf("log file not created: %v", err)
				}
			}
		})
	}
}

// testFiles writes a config and data file and returns the global flags that
// point at them.
func testFiles(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()

	data := `project_id: p1
records:
  - column_name: Equity
    row_name: Land Purchase
    value: 50000
  - column_name: Bank Loan
    row_name: Construction
    value: 100000
`
	dataFile := filepath.Join(dir, "data.yaml")
	if err := os.WriteFile(dataFile, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	conf := `logging:
  level: error
catalog:
  extra:
    - overall: softCosts
      category: Broker Fee
`
	configFile := filepath.Join(dir, "proceeds.yaml")
	if err := os.WriteFile(configFile, []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}

	return []string{
		"--config", configFile,
		"--env-file", filepath.Join(dir, "missing.env"),
		"--data", dataFile,
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestShowCommand(t *testing.T) {
	flags := testFiles(t)

	t.Run("csv", func(t *testing.T) {
		out, err := execute(t, append([]string{"show", "-o", "csv"}, flags...)...)
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		for _, want := range []string{
			"overall_category,row_name,Equity,Bank Loan,total",
			"realEstate,Land Purchase,50000.00,0.00,50000.00",
			",TOTAL,50000.00,100000.00,150000.00",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("csv output missing %q\n%s", want, out)
			}
		}
	})

	t.Run("pretty", func(t *testing.T) {
		out, err := execute(t, append([]string{"show"}, flags...)...)
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		for _, want := range []string{"Use of Proceeds - p1", "Land Purchase", "$150,000"} {
			if !strings.Contains(out, want) {
				t.Errorf("pretty output missing %q\n%s", want, out)
			}
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		if _, err := execute(t, append([]string{"show", "-o", "html"}, flags...)...); err == nil {
			t.Error("expected an error for an unknown output format")
		}
	})

	t.Run("unsupported data file", func(t *testing.T) {
		args := append([]string{"show"}, flags...)
		args = append(args, "--data", filepath.Join(t.TempDir(), "data.txt"))
		if _, err := execute(t, args...); err == nil {
			t.Error("expected an error for an unsupported data file")
		}
	})
}

func TestPaymentCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{
			name: "years",
			args: []string{"--principal", "250000", "--rate", "6", "--years", "10"},
			want: []string{"Principal:       $250,000", "Interest rate:   6.00%", "120 months", "Monthly payment: $2775.51", "Annual payment:  $33306.15"},
		},
		{
			name: "months with schedule",
			args: []string{"--principal", "12000", "--rate", "6", "--years", "30", "--months", "12", "--schedule"},
			want: []string{"12 months", "Monthly payment: $1032.80", "Total interest:  $393.57", "Remaining"},
		},
		{
			name: "zero rate",
			args: []string{"--principal", "12000", "--rate", "0", "--months", "12"},
			want: []string{"Monthly payment: $1000.00"},
		},
		{name: "no term", args: []string{"--principal", "12000", "--rate", "6"}, wantErr: true},
		{name: "negative rate", args: []string{"--principal", "12000", "--rate", "-1", "--years", "1"}, wantErr: true},
		{name: "zero principal", args: []string{"--principal", "0", "--years", "1"}, wantErr: true},
		{name: "missing principal", args: []string{"--years", "1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"payment"}, tt.args...)...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("payment error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q\n%s", want, out)
				}
			}
		})
	}
}

func TestCatalogCommand(t *testing.T) {
	flags := testFiles(t)

	out, err := execute(t, append([]string{"catalog", "soft"}, flags...)...)
	if err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	for _, want := range []string{"softCosts\n", "  Appraisal\n", "  Broker Fee\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("catalog output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "realEstate") {
		t.Errorf("filter should exclude realEstate\n%s", out)
	}
	if strings.Count(out, "softCosts") != 1 {
		t.Errorf("overall category should be listed once\n%s", out)
	}

	out, err = execute(t, append([]string{"catalog", "zzz"}, flags...)...)
	if err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	if !strings.Contains(out, `No categories match "zzz"`) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMissingConfigFile(t *testing.T) {
	args := []string{"catalog", "--config", filepath.Join(t.TempDir(), "nope.yaml")}
	if _, err := execute(t, args...); err == nil {
		t.Error("an explicit config path that does not exist should fail")
	}
}

func TestLoadLoans(t *testing.T) {
	dir := t.TempDir()
	loansFile := filepath.Join(dir, "loans.yaml")
	content := `loans:
  - loan_id: L1
    loan_type: SBA 504
    amount: 400000
    rate: 5.5
    term: 20
    status: approved
  - loan_id: L2
    loan_type: Seller Note
    amount: 50000
    status: pending
`
	if err := os.WriteFile(loansFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	conf, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	env := &environment{conf: conf, logger: zap.NewNop()}

	got, err := env.loadLoans()
	if err != nil || got != nil {
		t.Fatalf("no loans file should yield no loans, got %v, %v", got, err)
	}

	env.conf.Project.LoansFile = loansFile
	got, err = env.loadLoans()
	if err != nil {
		t.Fatalf("loadLoans failed: %v", err)
	}
	if len(got) != 2 || got[0].LoanID != "L1" || got[1].Rate != nil {
		t.Errorf("unexpected loans %+v", got)
	}

	env.conf.Project.LoansFile = filepath.Join(dir, "missing.yaml")
	if _, err := env.loadLoans(); err == nil {
		t.Error("expected an error for a missing loans file")
	}
}

func TestOpenGridKeepsAddedRows(t *testing.T) {
	for _, ext := range []string{".yaml", ".json", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			conf, err := config.LoadConfiguration("")
			if err != nil {
				t.Fatal(err)
			}
			conf.Project.DataFile = filepath.Join(t.TempDir(), "data"+ext)
			env := &environment{conf: conf, logger: zap.NewNop()}

			grid, err := env.openGrid()
			if err != nil {
				t.Fatalf("openGrid() error = %v", err)
			}
			grid.EnterEditMode()
			if _, err := grid.AddRow("", "Vehicles"); err != nil {
				t.Fatal(err)
			}
			if err := grid.Save(context.Background()); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			reopened, err := env.openGrid()
			if err != nil {
				t.Fatalf("reopen error = %v", err)
			}
			rows := reopened.Rows()
			if len(rows) != 2 || rows[0].Name != "Vehicles" || rows[1].Name != constants.TotalRowName {
				t.Errorf("rows after reload = %+v, expected Vehicles then TOTAL", rows)
			}
			if rows[0].OverallCategory != "equipment" {
				t.Errorf("overall after reload = %q, expected equipment", rows[0].OverallCategory)
			}
		})
	}
}

func TestRunServer(t *testing.T) {
	t.Run("graceful shutdown", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
		if err := runServer(ctx, srv, zap.NewNop()); err != nil {
			t.Errorf("runServer() = %v, expected clean shutdown", err)
		}
	})

	t.Run("listen failure", func(t *testing.T) {
		srv := &http.Server{Addr: "127.0.0.1:not-a-port", Handler: http.NotFoundHandler()}
		err := runServer(context.Background(), srv, zap.NewNop())
		if err == nil || !strings.Contains(err.Error(), "server error") {
			t.Errorf("runServer() = %v, expected a listen error", err)
		}
	})
}
