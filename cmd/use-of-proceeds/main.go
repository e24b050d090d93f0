package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iwvelando/use-of-proceeds/internal/config"
	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/iwvelando/use-of-proceeds/internal/store"
	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"github.com/iwvelando/use-of-proceeds/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	envFile    string
	logLevel   string
	dataFile   string
	loansFile  string
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	// stdout carries command output; logs go to stderr unless a file is set
	cfg.OutputPaths = []string{"stderr"}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		cfg.OutputPaths = []string{loggingConfig.OutputFile}
		cfg.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return cfg.Build()
}

// environment is everything a command needs after configuration is loaded.
type environment struct {
	conf   *config.Configuration
	logger *zap.Logger
}

// setup loads .env, the configuration file and the logger, applying flag
// overrides. A missing default config file is not an error.
func (o *globalOptions) setup(cmd *cobra.Command) (*environment, error) {
	if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", o.envFile, err)
	}

	path := o.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration at %s: %w", o.configPath, err)
	}
	if o.dataFile != "" {
		conf.Project.DataFile = o.dataFile
	}
	if o.loansFile != "" {
		conf.Project.LoansFile = o.loansFile
	}

	logger, err := initializeLogger(conf.Logging, o.logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	warnings, err := conf.ValidateConfiguration()
	if err != nil {
		return nil, err
	}
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.setup"),
		)
	}

	return &environment{conf: conf, logger: logger}, nil
}

// openGrid loads the data file and builds a grid whose saves write back to it.
func (e *environment) openGrid() (*proceeds.Grid, error) {
	fileStore, err := store.NewFileStore(e.conf.Project.DataFile, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	doc := fileStore.Document()

	projectID := e.conf.Project.ID
	if projectID == "" {
		projectID = doc.ProjectID
	}
	proceedsID := e.conf.Project.ProceedsID
	if proceedsID == "" {
		proceedsID = doc.ProceedsID
	}

	var grid *proceeds.Grid
	layout := func() store.Layout {
		return store.Layout{Columns: grid.Columns(), Rows: grid.Rows()}
	}
	grid = proceeds.NewGrid(doc.Records, proceeds.Options{
		Logger:     e.logger,
		Catalog:    e.conf.BuildCatalog(),
		Save:       fileStore.SaveFunc(layout),
		ProjectID:  projectID,
		ProceedsID: proceedsID,
		Columns:    doc.Columns,
		Rows:       doc.Rows,
	})
	return grid, nil
}

// loadLoans reads the configured project loan list. No loans file means no
// loans.
func (e *environment) loadLoans() ([]proceeds.ProjectLoan, error) {
	path := e.conf.Project.LoansFile
	if path == "" {
		return nil, nil
	}
	loans, err := store.LoadProjectLoans(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load project loans: %w", err)
	}

	checks := make([]validation.LoanConfig, len(loans))
	for i, l := range loans {
		checks[i] = validation.LoanConfig{LoanID: l.LoanID, LoanType: l.LoanType, HasRate: l.Rate != nil, HasTerm: l.Term != nil}
	}
	for _, warning := range validation.ValidateProjectLoans(checks) {
		e.logger.Warn("Project loan warning: "+warning,
			zap.String("op", "main.loadLoans"),
		)
	}
	return loans, nil
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "use-of-proceeds",
		Short:         "Build and edit a project's use-of-proceeds table",
		Long:          "Allocate spending categories across capital sources, price loan columns and keep the table saved.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", constants.DefaultEnvFile, "optional dotenv file loaded before configuration")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.dataFile, "data", "", "data file override (.yaml, .json, .xlsx, .csv)")
	root.PersistentFlags().StringVar(&opts.loansFile, "loans", "", "project loans file override")

	root.AddCommand(
		newShowCmd(opts),
		newPaymentCmd(),
		newCatalogCmd(opts),
		newServeCmd(opts),
		newEditCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
}
