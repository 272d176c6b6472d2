// pkg/run/runner.go
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ingestkit/tableloader/pkg/db"
	"github.com/ingestkit/tableloader/pkg/loader"
	"github.com/ingestkit/tableloader/pkg/model"
	"github.com/ingestkit/tableloader/pkg/notify"
	"github.com/ingestkit/tableloader/pkg/schema"
	"github.com/ingestkit/tableloader/pkg/source"
	"github.com/ingestkit/tableloader/pkg/swap"
	"github.com/ingestkit/tableloader/pkg/transform"
)

// progressInterval is how many rows pass between Progress callbacks
const progressInterval = 500

// Options configures one load run
type Options struct {
	InputFile string                          // Source file path
	Table     string                          // Destination as schema.table
	Sheet     string                          // Worksheet name, spreadsheet sources only
	Delimiter rune                            // Field separator for delimited text, 0 for default
	Truncate  bool                            // true: replace mode, false: merge mode
	BatchSize int                             // Rows per bulk insert, 0 for default
	Timezone  string                          // Timezone timestamps are interpreted in, empty for UTC
	Columns   []model.ColumnSpec              // Configured columns, in destination order
	Overrides map[string]model.ColumnOverride // Per-header spec overrides
}

// Runner executes the full transform-and-load pipeline for one destination
// table. A single run is strictly sequential; runs against the same
// destination must be serialized by the caller, there is no cross-run
// locking.
type Runner struct {
	session  *db.Session
	logger   *zap.Logger
	observer Observer
	sink     notify.Sink
}

// NewRunner creates a runner bound to a database session
func NewRunner(session *db.Session, logger *zap.Logger) *Runner {
	return &Runner{
		session:  session,
		logger:   logger.Named("runner"),
		observer: NopObserver{},
		sink:     notify.NewLogSink(logger),
	}
}

// WithObserver sets the progress observer
func (r *Runner) WithObserver(observer Observer) *Runner {
	r.observer = observer
	return r
}

// WithSink sets the notification sink
func (r *Runner) WithSink(sink notify.Sink) *Runner {
	r.sink = sink
	return r
}

// Run loads the source file into the destination table. The summary is
// returned even on failure, holding whatever counts had accumulated; the
// notification sink receives the outcome in both cases.
func (r *Runner) Run(ctx context.Context, opts Options) (*model.RunSummary, error) {
	summary := model.NewRunSummary(opts.InputFile, opts.Table)

	r.logger.Info("Run started",
		zap.String("runID", summary.RunID),
		zap.String("input", opts.InputFile),
		zap.String("table", opts.Table),
		zap.Bool("truncate", opts.Truncate))

	err := r.execute(ctx, opts, summary)

	summary.Complete()
	if nerr := r.sink.Notify(ctx, summary.Outcome()); nerr != nil {
		r.logger.Warn("Notification delivery failed", zap.Error(nerr))
	}

	if err != nil {
		r.logger.Error("Run failed",
			zap.String("runID", summary.RunID),
			zap.Error(err))
		return summary, err
	}

	r.logger.Info("Run complete",
		zap.String("runID", summary.RunID),
		zap.Int("totalRows", summary.TotalRows),
		zap.Int("processedRows", summary.ProcessedRows),
		zap.Int("emptyRows", summary.EmptyRows),
		zap.Int("skippedRows", summary.SkippedRows),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

func (r *Runner) execute(ctx context.Context, opts Options, summary *model.RunSummary) error {
	target, err := swap.ParseTarget(opts.Table)
	if err != nil {
		return err
	}

	loc := time.UTC
	if opts.Timezone != "" {
		loc, err = time.LoadLocation(opts.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", opts.Timezone, err)
		}
	}

	// Read and transform the whole source before touching the database.
	// The full transformed set is buffered in memory; that bounds this
	// design to sources that fit, a known limit of the current layout.
	r.observer.Phase("read")

	src, err := source.Open(opts.InputFile, source.Options{
		Sheet:     opts.Sheet,
		Delimiter: opts.Delimiter,
	}, r.logger)
	if err != nil {
		return err
	}
	defer src.Close()

	if sheeted, ok := src.(interface{ Sheet() string }); ok {
		summary.SheetName = sheeted.Sheet()
	}

	rs, rows, err := r.readAndTransform(src, opts, loc, summary)
	if err != nil {
		return err
	}

	if err := r.session.EnsureSchema(ctx, target.Schema); err != nil {
		return err
	}

	manager := swap.NewManager(r.session.DB(), r.logger)
	return r.stageLoadPromote(ctx, manager, r.session.DB(), target, rs, rows, opts, summary)
}

// swapManager is the slice of the swap manager the runner drives
type swapManager interface {
	Stage(ctx context.Context, target swap.Target, rs *model.ResolvedSchema) error
	Promote(ctx context.Context, target swap.Target, truncate bool) error
}

// stageLoadPromote drives the database half of a run. A load failure aborts
// before Promote ever runs, leaving the destination untouched; the staging
// table survives for the next run's drop-if-exists to clean up.
func (r *Runner) stageLoadPromote(
	ctx context.Context,
	manager swapManager,
	execer sqlx.ExecerContext,
	target swap.Target,
	rs *model.ResolvedSchema,
	rows []model.Row,
	opts Options,
	summary *model.RunSummary,
) error {
	r.observer.Phase("stage")

	if err := manager.Stage(ctx, target, rs); err != nil {
		return err
	}

	r.observer.Phase("load")

	result, err := loader.New(r.logger, opts.BatchSize).
		Load(ctx, execer, target.StagingQualified(), rs, rows)
	summary.ProcessedRows = result.Inserted
	summary.EmptyRows = result.Empty
	if err != nil {
		return err
	}

	r.observer.Phase("promote")

	if err := manager.Promote(ctx, target, opts.Truncate); err != nil {
		return err
	}

	r.observer.Phase("done")
	return nil
}

// readAndTransform consumes the source: the first row resolves the schema,
// every subsequent row is transformed into a typed row
func (r *Runner) readAndTransform(
	src source.Reader,
	opts Options,
	loc *time.Location,
	summary *model.RunSummary,
) (*model.ResolvedSchema, []model.Row, error) {
	if !src.Next() {
		if err := src.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, &source.ReadError{
			Path: opts.InputFile,
			Err:  fmt.Errorf("source contains no header row"),
		}
	}

	rs, err := schema.NewResolver(r.logger).Resolve(src.Row(), opts.Columns, opts.Overrides)
	if err != nil {
		return nil, nil, err
	}

	transformer := transform.NewTransformer(r.logger, loc)

	var rows []model.Row
	for src.Next() {
		rows = append(rows, transformer.TransformRow(src.Row(), rs))
		summary.TotalRows++
		if summary.TotalRows%progressInterval == 0 {
			r.observer.Progress(summary.TotalRows)
		}
	}
	if err := src.Err(); err != nil {
		return nil, nil, err
	}

	summary.SkippedRows = src.Skipped()
	r.observer.Progress(summary.TotalRows)

	r.logger.Info("Source read",
		zap.String("input", opts.InputFile),
		zap.Int("rows", summary.TotalRows),
		zap.Int("skipped", summary.SkippedRows),
		zap.Int("columns", len(rs.Columns)))

	return rs, rows, nil
}
