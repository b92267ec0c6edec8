// Command processor runs the ingest pipeline on a local export file
// and writes the protected document, plus optional CSV/XLSX exports.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"healthvault/internal/archive"
	"healthvault/internal/config"
	"healthvault/internal/dataprocessing"
	"healthvault/internal/exporter"
	"healthvault/internal/infrastructure"
	"healthvault/internal/operations"
	"healthvault/internal/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	var (
		input   = fs.String("in", "", "path to export archive or XML file (required)")
		outDir  = fs.String("out", "out", "output directory")
		name    = fs.String("name", "", "display name applied to the profile")
		doCSV   = fs.Bool("csv", false, "also write per-series CSV files")
		doXLSX  = fs.Bool("xlsx", false, "also write an XLSX workbook")
		showKey = fs.Bool("print-key", false, "print the base64 key to stdout")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		fs.Usage()
		return fmt.Errorf("missing required -in flag")
	}

	if err := infrastructure.InitializeLogger(config.LoggingConfig{Level: "info", Output: "stderr"}); err != nil {
		return err
	}
	logger := infrastructure.GetLogger()

	extractor := archive.NewExtractor(logger)
	parser := dataprocessing.NewParser(logger)
	store := session.NewStore()
	ingestor := operations.NewIngestor(extractor, parser, store, nil, logger)

	ctx := context.Background()
	result, err := ingestor.RunFile(ctx, *input)
	if err != nil {
		return err
	}
	if *name != "" {
		result.Data.SetName(*name)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	blob, ok := result.Session.Blob()
	if !ok {
		return fmt.Errorf("ingest produced no protected document")
	}
	blobPath := filepath.Join(*outDir, "protected.json")
	encoded, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(blobPath, encoded, 0o600); err != nil {
		return err
	}
	fmt.Printf("protected document written to %s\n", blobPath)

	if *showKey {
		fmt.Printf("key: %s\n", result.Session.Key().Export())
	}

	if *doCSV {
		if err := exporter.NewCSVWriter(logger).WriteAll(result.Data, *outDir); err != nil {
			return err
		}
		fmt.Printf("csv series written to %s\n", *outDir)
	}
	if *doXLSX {
		path := filepath.Join(*outDir, "health_export.xlsx")
		if err := exporter.NewWorkbookWriter(logger).Write(result.Data, path); err != nil {
			return err
		}
		fmt.Printf("workbook written to %s\n", path)
	}

	result.Session.Clear()
	return nil
}
