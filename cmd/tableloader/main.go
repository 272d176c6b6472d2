// cmd/tableloader/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ingestkit/tableloader/pkg/config"
	"github.com/ingestkit/tableloader/pkg/db"
	"github.com/ingestkit/tableloader/pkg/run"
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func execute() error {
	input := flag.String("input", "", "source file (.csv, .tsv or .xlsx)")
	table := flag.String("table", "", "destination table as schema.table")
	columnsPath := flag.String("columns", "", "column configuration JSON file")
	overridesPath := flag.String("overrides", "", "optional header overrides JSON file")
	sheet := flag.String("sheet", "", "worksheet name for spreadsheet sources")
	delimiter := flag.String("delimiter", "", "field separator for delimited text (default comma, tab for .tsv)")
	truncate := flag.Bool("truncate", false, "replace the destination instead of merging into it")
	flag.Parse()

	var delim rune
	if *delimiter != "" {
		runes := []rune(*delimiter)
		if len(runes) != 1 {
			return fmt.Errorf("-delimiter must be a single character, got %q", *delimiter)
		}
		delim = runes[0]
	}

	if *input == "" || *table == "" || *columnsPath == "" {
		flag.Usage()
		return fmt.Errorf("-input, -table and -columns are required")
	}

	// .env is optional; real environments set variables directly
	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	specs, err := config.LoadColumnSpecs(*columnsPath)
	if err != nil {
		return err
	}

	overrides, err := config.LoadOverrides(overridesFile(*columnsPath, *overridesPath))
	if err != nil {
		return err
	}

	ctx := context.Background()

	session, err := db.Open(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	_, err = run.NewRunner(session, logger).Run(ctx, run.Options{
		InputFile: *input,
		Table:     *table,
		Sheet:     *sheet,
		Delimiter: delim,
		Truncate:  *truncate,
		BatchSize: cfg.BatchSize,
		Timezone:  cfg.Timezone,
		Columns:   specs,
		Overrides: overrides,
	})
	return err
}

// overridesFile picks the overrides path: explicit flag, or the sibling
// <columns>.overrides.json convention
func overridesFile(columnsPath, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return columnsPath + ".overrides.json"
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
