package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"churnscope/adapters/export"
	"churnscope/adapters/tabular"
	"churnscope/app"
	"churnscope/internal/config"

	"github.com/joho/godotenv"
)

// The root binary is the zero-infrastructure path: snapshot file in,
// report files out, no database anywhere. Everything else lives under
// cmd/.
func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	inputFile := cfg.Paths.InputFile
	if len(os.Args) > 1 {
		inputFile = os.Args[1]
	}
	if inputFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: churnscope [snapshot.csv|snapshot.xlsx]")
		fmt.Fprintln(os.Stderr, "Pass the snapshot file as an argument or set CHURNSCOPE_INPUT_FILE.")
		os.Exit(1)
	}

	ctx := context.Background()

	log.Printf("Reading customer snapshot from %s", inputFile)
	snapshot, cleaning, err := tabular.NewReader(inputFile).ReadSnapshot(ctx)
	if err != nil {
		log.Fatalf("Failed to read snapshot: %v", err)
	}
	log.Printf("Snapshot %s: kept %d of %d rows (%d duplicates dropped, %d blank revenue values)",
		snapshot.ID, cleaning.RowsKept, cleaning.RowsRead,
		cleaning.DuplicatesDropped, cleaning.BlankRevenueRows)

	result, err := app.NewPipelineService(cfg).Execute(ctx, snapshot, app.RunOptions{})
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	paths, err := writeReports(ctx, cfg, result)
	if err != nil {
		log.Fatalf("Report export failed: %v", err)
	}

	log.Printf("✅ Run %s complete: %d files written to %s",
		result.Manifest.RunID, len(paths), cfg.Reports.ExportDir)
	for _, path := range paths {
		fmt.Println(path)
	}
}

// writeReports emits the bundle through every configured sink
func writeReports(ctx context.Context, cfg *config.Config, result *app.RunResult) ([]string, error) {
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
