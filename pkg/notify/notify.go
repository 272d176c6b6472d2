// pkg/notify/notify.go
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/ingestkit/tableloader/pkg/model"
)

// Sink receives the terminal summary of a run. Delivery failures are the
// sink's problem: the pipeline logs them and moves on, so a broken webhook
// can never fail an otherwise successful load.
type Sink interface {
	Notify(ctx context.Context, outcome model.RunOutcome) error
}

// LogSink writes the run outcome to the application log
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log-backed notification sink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("notify")}
}

// Notify logs the outcome
func (s *LogSink) Notify(_ context.Context, outcome model.RunOutcome) error {
	fields := []zap.Field{
		zap.String("inputFile", outcome.InputFile),
		zap.String("table", outcome.TableName),
		zap.Int("totalRows", outcome.TotalRows),
		zap.Int("validRows", outcome.ValidRows),
		zap.Int("emptyRows", outcome.EmptyRows),
		zap.Int("skippedRows", outcome.SkippedRows),
		zap.Duration("duration", outcome.Duration),
	}
	if outcome.SheetName != "" {
		fields = append(fields, zap.String("sheet", outcome.SheetName))
	}
	s.logger.Info("Run finished", fields...)
	return nil
}

// NopSink discards outcomes
type NopSink struct{}

// Notify does nothing
func (NopSink) Notify(context.Context, model.RunOutcome) error {
	return nil
}
