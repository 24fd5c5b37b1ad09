package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"DocumentExtractionSystem/pkg/batch"
	"DocumentExtractionSystem/pkg/config"
	"DocumentExtractionSystem/pkg/encoder"
	"DocumentExtractionSystem/pkg/export"
	"DocumentExtractionSystem/pkg/logger"
	"DocumentExtractionSystem/pkg/models"
	"DocumentExtractionSystem/pkg/schema"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain runs the CLI and returns the process exit code. Keeping os.Exit out
// of it lets the deferred logger sync and signal cleanup run.
func realMain(args []string) int {
	fs := flag.NewFlagSet("docextract", flag.ContinueOnError)
	var (
		kindStr = fs.String("kind", "invoice", "document kind: invoice or business_card")
		format  = fs.String("format", "csv", "output format: csv, lines, json or xlsx")
		out     = fs.String("out", "", "output file path (defaults to stdout; required for xlsx)")
	)
	fs.Usage = func() {
		printError("Usage: docextract [flags] FILE|gs://BUCKET/OBJECT ...\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	kind, err := models.ParseDocumentKind(*kindStr)
	if err != nil {
		printError("Error: %v\n", err)
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	switch *format {
	case "csv", "lines", "json", "xlsx":
	default:
		printError("Error: unsupported format %q\n", *format)
		return 2
	}
	if *format == "xlsx" && *out == "" {
		printError("Error: --out is required for xlsx output\n")
		return 2
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		return 1
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		printError("Error: creating logger: %v\n", err)
		return 1
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, zapLogger, kind, *format, *out, fs.Args()); err != nil {
		zapLogger.Error("batch failed", zap.Error(err))
		printError("Error: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger, kind models.DocumentKind, format, out string, args []string) error {
	files, closeSources, err := sourceFiles(ctx, args)
	defer closeSources()
	if err != nil {
		return err
	}

	registry, err := schema.NewRegistry()
	if err != nil {
		return err
	}

	client, closeClient, err := config.InitExtractionClient(ctx, cfg.Model, registry, zapLogger)
	if err != nil {
		return err
	}
	defer closeClient()

	orchestrator, err := batch.New(client,
		batch.WithLogger(zapLogger),
		batch.WithSchemaChecker(registry),
		batch.WithProgress(func(p batch.Progress) {
			zapLogger.Info("file processed",
				zap.Int("file_index", p.Index+1),
				zap.Int("total", p.Total),
				zap.String("file", p.Record.FileName),
				zap.String("status", string(p.Record.Outcome)),
			)
		}),
	)
	if err != nil {
		return err
	}

	records, err := orchestrator.Run(ctx, files, kind)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return writeRecords(w, format, kind, records)
}

func writeRecords(w io.Writer, format string, kind models.DocumentKind, records []models.NormalizedRecord) error {
	switch format {
	case "csv":
		return export.WriteCSV(w, kind, records)
	case "lines":
		return export.WriteLines(w, records)
	case "xlsx":
		return export.WriteXLSX(w, records)
	case "json":
		flat := make([]models.NormalizedRecord, len(records))
		for i, rec := range records {
			flat[i] = export.Flatten(rec)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(flat)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// sourceFiles maps CLI arguments to source files. A storage client is only
// created when at least one gs:// URI is given.
func sourceFiles(ctx context.Context, args []string) ([]models.SourceFile, func(), error) {
	var gcs *storage.Client
	closeFn := func() {
		if gcs != nil {
			gcs.Close()
		}
	}

	files := make([]models.SourceFile, 0, len(args))
	for _, arg := range args {
		if !encoder.IsGCSURI(arg) {
			files = append(files, encoder.LocalFile{Path: arg})
			continue
		}
		if gcs == nil {
			client, err := storage.NewClient(ctx)
			if err != nil {
				return nil, closeFn, fmt.Errorf("create storage client: %w", err)
			}
			gcs = client
		}
		file, err := encoder.NewGCSFile(gcs, arg)
		if err != nil {
			return nil, closeFn, err
		}
		files = append(files, file)
	}
	return files, closeFn, nil
}
