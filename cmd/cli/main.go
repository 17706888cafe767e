package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"churnscope/adapters/export"
	"churnscope/adapters/postgres"
	"churnscope/adapters/tabular"
	"churnscope/app"
	"churnscope/domain/core"
	"churnscope/domain/customer"
	"churnscope/domain/report"
	"churnscope/internal/analysis"
	"churnscope/internal/config"
	"churnscope/internal/migration"
	"churnscope/ports"
	"churnscope/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "churnscope",
		Short: "ChurnScope CLI for snapshot loading, pipeline runs, and serving",
	}

	rootCmd.AddCommand(
		newLoadCmd(),
		newRunCmd(),
		newReportsCmd(),
		newValidateCmd(),
		newServeCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env when present, then builds the configuration from
// the environment
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// connectDB opens the configured PostgreSQL database, running migrations
// first when asked
func connectDB(ctx context.Context, cfg *config.Config, migrate bool) (*sqlx.DB, error) {
	dsn, err := cfg.Database.Require()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if migrate {
		if err := migration.NewRunner().Run(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
	}

	return db, nil
}

func newRunService(db *sqlx.DB, pipeline *app.PipelineService) *app.RunService {
	return app.NewRunService(
		pipeline,
		postgres.NewCustomerRepository(db),
		postgres.NewManifestRepository(db),
		postgres.NewReportRepository(db),
	)
}

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [snapshot-file]",
		Short: "Load a customer snapshot file into PostgreSQL",
		Long: `Read a customer snapshot from CSV or XLSX, clean and validate it, and
bulk-load it into the customers table.

Example: churnscope load telco_customers.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), args[0])
		},
	}
	return cmd
}

func runLoad(ctx context.Context, file string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("🔬 Reading snapshot from %s...\n", file)
	snapshot, cleaning, err := tabular.NewReader(file).ReadSnapshot(ctx)
	if err != nil {
		printViolations(cleaning)
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	printCleaning(cleaning)

	db, err := connectDB(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := postgres.NewLoader(db, true).Load(ctx, snapshot, core.Now())
	if err != nil {
		return fmt.Errorf("snapshot load failed: %w", err)
	}

	fmt.Printf("\n=== SNAPSHOT LOAD ===\n")
	fmt.Printf("Snapshot ID: %s\n", result.SnapshotID)
	fmt.Printf("Snapshot Hash: %s\n", snapshot.Hash)
	fmt.Printf("Rows Loaded: %d\n", result.RowsLoaded)
	if result.Replaced {
		fmt.Printf("Replaced an earlier copy of the same snapshot\n")
	}
	fmt.Printf("Duration: %dms\n", result.DurationMs)

	fmt.Printf("\n✅ SNAPSHOT LOAD COMPLETED\n")
	return nil
}

func newRunCmd() *cobra.Command {
	var params runParams

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the churn analysis pipeline",
		Long: `Execute the full churn analysis pipeline against a snapshot file or a
stored snapshot and emit the report catalogue.

A file source needs no database. --save persists the snapshot, the run
manifest, and every report table, which requires DATABASE_URL. Without
--input the stored snapshot selected by --snapshot is analyzed, the
latest one when no ID is given.

Examples:
  churnscope run --input telco_customers.csv
  churnscope run --input telco_customers.csv --save
  churnscope run --snapshot 0198c2f7 --save --export=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), params)
		},
	}

	cmd.Flags().StringVar(&params.input, "input", "", "Snapshot file (CSV or XLSX); defaults to CHURNSCOPE_INPUT_FILE")
	cmd.Flags().StringVar(&params.snapshotID, "snapshot", "", "Stored snapshot ID; empty picks the latest stored snapshot")
	cmd.Flags().BoolVar(&params.save, "save", false, "Persist the run manifest and report tables to the database")
	cmd.Flags().BoolVar(&params.export, "export", true, "Write report files to the export directory")
	cmd.Flags().StringVar(&params.exportDir, "export-dir", "", "Override the export directory")

	return cmd
}

type runParams struct {
	input      string
	snapshotID string
	save       bool
	export     bool
	exportDir  string
}

func runRun(ctx context.Context, p runParams) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if p.exportDir != "" {
		cfg.Reports.ExportDir = p.exportDir
	}
	if p.input != "" && p.snapshotID != "" {
		return fmt.Errorf("choose either --input or --snapshot, not both")
	}
	if p.input == "" && p.snapshotID == "" {
		p.input = cfg.Paths.InputFile
	}

	pipeline := app.NewPipelineService(cfg)

	var result *app.RunResult
	var replayOf core.RunID

	switch {
	case p.input != "" && !p.save:
		// File source, nothing persisted
		snapshot, err := readSnapshotFile(ctx, p.input)
		if err != nil {
			return err
		}
		result, err = pipeline.Execute(ctx, snapshot, app.RunOptions{})
		if err != nil {
			return err
		}

	case p.input != "":
		// File source persisted end to end: snapshot first, then the run
		snapshot, err := readSnapshotFile(ctx, p.input)
		if err != nil {
			return err
		}

		db, err := connectDB(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer db.Close()

		if _, err := postgres.NewLoader(db, true).Load(ctx, snapshot, core.Now()); err != nil {
			return fmt.Errorf("snapshot load failed: %w", err)
		}

		triggered, err := newRunService(db, pipeline).TriggerRun(ctx,
			app.TriggerRequest{SnapshotID: snapshot.ID})
		if err != nil {
			return err
		}
		result, replayOf = triggered.RunResult, triggered.ReplayOf

	default:
		// Stored snapshot source
		db, err := connectDB(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer db.Close()

		if p.save {
			triggered, err := newRunService(db, pipeline).TriggerRun(ctx,
				app.TriggerRequest{SnapshotID: core.SnapshotID(p.snapshotID)})
			if err != nil {
				return err
			}
			result, replayOf = triggered.RunResult, triggered.ReplayOf
		} else {
			snapshot, err := loadStoredSnapshot(ctx, postgres.NewCustomerRepository(db), p.snapshotID)
			if err != nil {
				return err
			}
			result, err = pipeline.Execute(ctx, snapshot, app.RunOptions{})
			if err != nil {
				return err
			}
		}
	}

	printRun(result, replayOf)

	if p.export {
		paths, err := exportBundle(ctx, cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("\n💾 FILES WRITTEN:\n")
		for _, path := range paths {
			fmt.Printf("• %s\n", path)
		}
	}

	fmt.Printf("\n✅ PIPELINE RUN COMPLETED\n")
	return nil
}

func readSnapshotFile(ctx context.Context, file string) (*customer.Snapshot, error) {
	fmt.Printf("🔬 Analyzing snapshot file %s...\n", file)
	snapshot, cleaning, err := tabular.NewReader(file).ReadSnapshot(ctx)
	if err != nil {
		printViolations(cleaning)
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	printCleaning(cleaning)
	return snapshot, nil
}

func loadStoredSnapshot(ctx context.Context, customers ports.CustomerRepository, id string) (*customer.Snapshot, error) {
	if id == "" {
		return customers.GetLatestSnapshot(ctx)
	}
	return customers.GetSnapshot(ctx, core.SnapshotID(id))
}

func printRun(result *app.RunResult, replayOf core.RunID) {
	manifest := result.Manifest

	fmt.Printf("\n=== PIPELINE RUN ===\n")
	fmt.Printf("Run ID: %s\n", manifest.RunID)
	fmt.Printf("Snapshot: %s (hash %s)\n", manifest.SnapshotID, manifest.SnapshotHash)
	fmt.Printf("Variant: %s\n", manifest.Variant)
	fmt.Printf("Fingerprint: %s\n", manifest.Fingerprint.Fingerprint)
	fmt.Printf("Population: %d customers (%d active, %d churned)\n",
		manifest.RowCount, manifest.ActiveCount, manifest.ChurnedCount)
	fmt.Printf("Quality Violations: %d\n", manifest.QualityViolations)
	fmt.Printf("Duration: %dms\n", manifest.DurationMs)
	if replayOf != "" {
		fmt.Printf("Replay of run %s verified: identical table hashes\n", replayOf)
	}

	fmt.Printf("\n=== REPORTS ===\n")
	for i, table := range result.Bundle.Ordered() {
		fmt.Printf("%d. %s (%d rows)\n", i+1, table.Name, table.RowCount())
	}
}

// exportBundle writes the run's reports through every configured sink
func exportBundle(ctx context.Context, cfg *config.Config, result *app.RunResult) ([]string, error) {
	stamp := result.Manifest.CreatedAt

	csvSink, err := export.NewCSVSink(cfg.Reports.ExportDir)
	if err != nil {
		return nil, err
	}
	paths, err := csvSink.WriteBundle(ctx, result.Bundle, stamp)
	if err != nil {
		return nil, err
	}

	if cfg.Reports.WriteWorkbook {
		xlsxSink, err := export.NewXLSXSink(cfg.Reports.ExportDir)
		if err != nil {
			return nil, err
		}
		workbook, err := xlsxSink.WriteBundle(ctx, result.Bundle, stamp)
		if err != nil {
			return nil, err
		}
		paths = append(paths, workbook...)
	}

	if cfg.Reports.WriteSummary {
		summaryPath, err := export.WriteSummaryFile(cfg.Reports.ExportDir, result.Summary, stamp)
		if err != nil {
			return nil, err
		}
		paths = append(paths, summaryPath)
	}

	return paths, nil
}

var reportDescriptions = map[string]string{
	report.ChurnSummary:      "one-row population overview: totals, churn rate, revenue impact",
	report.SegmentRisk:       "tenure by charge segment grid with churn rates and retention priorities",
	report.ChurnDrivers:      "churned vs retained averages and correlation per numeric driver",
	report.RevenueLoss:       "lost and recoverable revenue per contract type",
	report.HighRiskCustomers: "top active customers ranked by risk score",
	report.RFMSegments:       "RFM segment mix with churn rates and population shares",
	report.CLVRankings:       "every customer ranked by estimated lifetime value",
	report.CustomerExport:    "full per-customer derivation, score, and segment export",
}

func newReportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List the report catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("=== REPORT CATALOGUE ===\n")
			for i, name := range report.Catalogue() {
				fmt.Printf("%d. %s\n   %s\n", i+1, name, reportDescriptions[name])
			}
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [snapshot-file]",
		Short: "Validate configuration and optionally a snapshot file",
		Long: `Validate the environment configuration, and when a snapshot file is
given, its schema and revenue reconciliation as well. Nothing is written.

Example: churnscope validate telco_customers.csv --strict`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			return runValidate(cmd.Context(), file, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any revenue reconciliation violation exists")

	return cmd
}

func runValidate(ctx context.Context, file string, strict bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("=== CONFIGURATION ===\n")
	fmt.Printf("Scoring Variant: %s\n", cfg.Scoring.Variant)
	fmt.Printf("RFM Buckets: %d\n", cfg.Scoring.RFMBuckets)
	fmt.Printf("Top-N Size: %d\n", cfg.Scoring.TopN)
	fmt.Printf("Revenue Tolerance: abs %.2f, rel %.2f\n",
		cfg.Pipeline.RevenueAbsTolerance, cfg.Pipeline.RevenueRelTolerance)
	fmt.Printf("✅ Configuration valid\n")

	if file == "" {
		return nil
	}

	fmt.Printf("\n🔬 Validating snapshot %s...\n", file)
	snapshot, cleaning, err := tabular.NewReader(file).ReadSnapshot(ctx)
	if err != nil {
		printViolations(cleaning)
		return fmt.Errorf("snapshot rejected: %w", err)
	}
	printCleaning(cleaning)

	checker := analysis.NewQualityChecker(
		cfg.Pipeline.RevenueAbsTolerance, cfg.Pipeline.RevenueRelTolerance, strict)
	quality, err := checker.Check(snapshot.Records)
	if err != nil {
		fmt.Printf("\n❌ VALIDATION FAILED: %v\n", err)
		return err
	}

	fmt.Printf("\n=== REVENUE RECONCILIATION ===\n")
	fmt.Printf("Rows Checked: %d\n", quality.Checked)
	fmt.Printf("Violations: %d\n", quality.ViolationCount())
	for i, v := range quality.Violations {
		if i == 5 {
			fmt.Printf("... and %d more\n", quality.ViolationCount()-5)
			break
		}
		fmt.Printf("• %s: expected %.2f, reported %.2f (drift %.2f)\n",
			v.CustomerID, v.Expected, v.Reported, v.Drift)
	}

	fmt.Printf("\n✅ SNAPSHOT VALID\n")
	return nil
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		Long: `Start the HTTP API over the stored runs: list runs, fetch manifests and
report tables, trigger new runs. Requires DATABASE_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port; defaults to PORT or 8080")

	return cmd
}

func runServe(ctx context.Context, port string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Server.APIPort = port
	}

	db, err := connectDB(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer db.Close()

	manifests := postgres.NewManifestRepository(db)
	reports := postgres.NewReportRepository(db)

	reader := app.NewReaderService(manifests, reports)
	runner := app.NewRunService(app.NewPipelineService(cfg),
		postgres.NewCustomerRepository(db), manifests, reports)

	api := ui.NewApp(reader, runner)
	log.Printf("🚀 Starting ChurnScope API on port %s", cfg.Server.APIPort)
	return api.Start(":" + cfg.Server.APIPort)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := connectDB(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Printf("✅ Schema up to date (version %s)\n", migration.NewRunner().Version())
			return nil
		},
	}
}

// printCleaning summarizes what the reader kept and repaired
func printCleaning(cleaning *ports.CleaningReport) {
	fmt.Printf("Rows: %d read, %d kept (%d duplicates dropped, %d blank revenue values filled)\n",
		cleaning.RowsRead, cleaning.RowsKept, cleaning.DuplicatesDropped, cleaning.BlankRevenueRows)
}

// printViolations lists the schema offenders from a rejected file
func printViolations(cleaning *ports.CleaningReport) {
	if cleaning == nil || len(cleaning.Violations) == 0 {
		return
	}

	fmt.Printf("\n❌ SCHEMA VIOLATIONS:\n")
	shown := cleaning.Violations
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, v := range shown {
		fmt.Printf("• row %d, column %s, value %q: %s\n", v.Row, v.Column, v.Value, v.Reason)
	}
	if rest := len(cleaning.Violations) - len(shown); rest > 0 {
		fmt.Printf("... and %d more\n", rest)
	}
}
