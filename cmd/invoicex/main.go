package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"invoicex/constants"
	"invoicex/internal/common"
	"invoicex/internal/document"
	"invoicex/internal/history"
	"invoicex/internal/llm/openai"
	"invoicex/internal/mapping"
	"invoicex/internal/normalize"
	"invoicex/internal/output"
	"invoicex/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		mappingPath = flag.String("mapping", "", "field mapping JSON file (required)")
		dir         = flag.String("dir", "", "directory to scan for invoice documents")
		outJSON     = flag.String("out-json", "", "output JSON file path")
		outCSV      = flag.String("out-csv", "", "output CSV file path")
		outXLSX     = flag.String("out-xlsx", "", "output XLSX file path")
		rerun       = flag.Bool("rerun", false, "re-extract documents already in the run history")
		noPreview   = flag.Bool("no-preview", false, "suppress the terminal record preview")
	)
	flag.Parse()

	if *mappingPath == "" {
		printError("Error: --mapping is required\n")
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// .env is optional; real env always wins.
	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	fieldMap, err := mapping.LoadFile(*mappingPath)
	if err != nil {
		printError("Error: load mapping: %v\n", err)
		os.Exit(2)
	}

	paths, err := collectPaths(*dir, flag.Args())
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if len(paths) == 0 {
		printError("Error: no input documents; pass file paths or --dir\n")
		os.Exit(2)
	}

	ctx := context.Background()

	var hist *history.Store
	if cfg.History.Path != "" {
		hist, err = history.Open(ctx, cfg.History.Path, logger)
		if err != nil {
			logger.Warn("history store unavailable, continuing without dedup", "error", err)
			hist = nil
		} else {
			defer func() { _ = hist.Close() }()
		}
	}

	extractor := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	p := pipeline.New(logger, pipeline.Config{
		ChunkSize:    cfg.Chunk.Size,
		ChunkOverlap: cfg.Chunk.Overlap,
		Rerun:        *rerun,
	}, document.NewLoader(logger), extractor, normalize.NewNormalizer(logger), hist)

	records, sum, err := p.Run(ctx, paths, fieldMap)
	if err != nil {
		printError("Error: run aborted: %v\n", err)
		os.Exit(1)
	}

	if !*noPreview {
		for _, rec := range records {
			output.Preview(os.Stdout, rec)
		}
	}
	for _, f := range sum.Failures {
		printError("FAILED %s: %v\n", f.Path, f.Err)
	}

	if err := writeOutputs(fieldMap, records, *outJSON, *outCSV, *outXLSX, logger); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("done: %d extracted, %d skipped, %d failed\n",
		sum.Processed, sum.Skipped, len(sum.Failures))
	if len(sum.Failures) > 0 {
		os.Exit(1)
	}
}

// collectPaths merges positional file arguments with a directory scan.
// Directory entries are filtered to supported extensions and sorted so runs
// are deterministic; explicitly named files are passed through untouched and
// fail later with UNSUPPORTED_FORMAT if need be.
func collectPaths(dir string, args []string) ([]string, error) {
	paths := append([]string(nil), args...)
	if dir == "" {
		return paths, nil
	}

	var scanned []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := constants.AllowedExtensions[ext]; ok {
			scanned = append(scanned, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(scanned)
	return append(paths, scanned...), nil
}

func writeOutputs(m *mapping.FieldMapping, records []*mapping.Record, outJSON, outCSV, outXLSX string, logger *slog.Logger) error {
	if outJSON != "" {
		f, err := os.Create(outJSON)
		if err != nil {
			return fmt.Errorf("create %s: %w", outJSON, err)
		}
		defer func() { _ = f.Close() }()
		if err := output.WriteJSON(f, records); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		logger.Info("output.json.ok", "path", outJSON, "records", len(records))
	}
	if outCSV != "" {
		f, err := os.Create(outCSV)
		if err != nil {
			return fmt.Errorf("create %s: %w", outCSV, err)
		}
		defer func() { _ = f.Close() }()
		if err := output.WriteCSV(f, m, records); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		logger.Info("output.csv.ok", "path", outCSV, "records", len(records))
	}
	if outXLSX != "" {
		b, err := output.WriteXLSX(m, records, logger)
		if err != nil {
			return fmt.Errorf("build xlsx: %w", err)
		}
		if err := os.WriteFile(outXLSX, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outXLSX, err)
		}
	}
	return nil
}
