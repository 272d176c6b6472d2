// pkg/swap/manager.go
package swap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ingestkit/tableloader/pkg/model"
	"github.com/ingestkit/tableloader/pkg/schema"
)

// maxIdentifierLen is PostgreSQL's identifier length limit in bytes
const maxIdentifierLen = 63

// Phase names the transactional phase in which a failure occurred
type Phase string

const (
	// PhaseStage is the staging-table creation transaction
	PhaseStage Phase = "stage"
	// PhasePromote is the staging-to-destination transaction
	PhasePromote Phase = "promote"
)

// TransactionError is a fatal failure during the Stage or Promote phase. The
// phase's transaction has been rolled back: a Stage failure leaves no staging
// table, a Promote failure leaves the destination unchanged (the staging
// table may survive for investigation).
type TransactionError struct {
	Phase Phase
	Table string
	Err   error
}

// Error implements the error interface
func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s phase failed for %s: %v", e.Phase, e.Table, e.Err)
}

// Unwrap returns the underlying cause
func (e *TransactionError) Unwrap() error {
	return e.Err
}

// phaseTx is what a swap phase needs from a transaction
type phaseTx interface {
	sqlx.ExecerContext
	Commit() error
	Rollback() error
}

// txStarter begins the transaction a swap phase runs in
type txStarter interface {
	begin(ctx context.Context) (phaseTx, error)
}

// sqlxStarter adapts a live database handle to the txStarter seam
type sqlxStarter struct {
	db *sqlx.DB
}

func (s sqlxStarter) begin(ctx context.Context) (phaseTx, error) {
	return s.db.BeginTxx(ctx, nil)
}

// Manager owns the staging table's lifecycle and the atomic promotion of its
// contents into the destination table
type Manager struct {
	starter txStarter
	logger  *zap.Logger
}

// NewManager creates a swap manager
func NewManager(db *sqlx.DB, logger *zap.Logger) *Manager {
	return &Manager{
		starter: sqlxStarter{db: db},
		logger:  logger.Named("swap-manager"),
	}
}

// Stage transactionally rebuilds the staging table: drop if present, create
// with one column per resolved schema entry, create the requested indexes,
// commit. On failure the transaction is rolled back and no staging table
// remains.
func (m *Manager) Stage(ctx context.Context, target Target, rs *model.ResolvedSchema) error {
	statements := stageStatements(target, rs, time.Now().Unix())

	if err := m.runInTransaction(ctx, statements); err != nil {
		return &TransactionError{Phase: PhaseStage, Table: target.Qualified(), Err: err}
	}

	m.logger.Info("Staging table created",
		zap.String("table", target.StagingQualified()),
		zap.Int("columns", len(rs.Columns)))
	return nil
}

// Promote transactionally moves staged data into the destination. In replace
// mode the destination is dropped and the staging table renamed into its
// place; in merge mode staging rows are appended to the (possibly newly
// created) destination and the staging table dropped. Either way the
// destination is left untouched when the transaction fails.
func (m *Manager) Promote(ctx context.Context, target Target, truncate bool) error {
	var statements []string
	if truncate {
		statements = replaceStatements(target)
	} else {
		statements = mergeStatements(target)
	}

	if err := m.runInTransaction(ctx, statements); err != nil {
		return &TransactionError{Phase: PhasePromote, Table: target.Qualified(), Err: err}
	}

	mode := "merge"
	if truncate {
		mode = "replace"
	}
	m.logger.Info("Promotion complete",
		zap.String("table", target.Qualified()),
		zap.String("mode", mode))
	return nil
}

// runInTransaction executes the statements in order inside one transaction,
// rolling back on the first failure
func (m *Manager) runInTransaction(ctx context.Context, statements []string) error {
	tx, err := m.starter.begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				m.logger.Warn("Rollback failed", zap.Error(rbErr))
			}
			return fmt.Errorf("statement %q failed: %w", stmt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// stageStatements builds the Stage phase's DDL
func stageStatements(target Target, rs *model.ResolvedSchema, runTS int64) []string {
	staging := target.StagingQualified()

	defs := schema.ColumnDefinitions(rs)
	if keys := rs.PrimaryKeys(); len(keys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)",
			strings.Join(schema.QuoteIdentifiers(keys), ", ")))
	}

	statements := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", staging),
		fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", staging, strings.Join(defs, ",\n\t")),
	}

	for _, col := range rs.Columns {
		if !col.NeedIndex {
			continue
		}
		statements = append(statements, fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			indexName(target.StagingTable(), col.SQLColumn, runTS),
			staging,
			schema.QuoteIdentifier(col.SQLColumn)))
	}

	return statements
}

// replaceStatements builds the Promote phase's DDL for replace mode
func replaceStatements(target Target) []string {
	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", target.Qualified()),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", target.StagingQualified(), target.Table),
	}
}

// mergeStatements builds the Promote phase's DDL for merge mode
func mergeStatements(target Target) []string {
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (LIKE %s INCLUDING ALL)",
			target.Qualified(), target.StagingQualified()),
		fmt.Sprintf("INSERT INTO %s SELECT * FROM %s",
			target.Qualified(), target.StagingQualified()),
		fmt.Sprintf("DROP TABLE %s", target.StagingQualified()),
	}
}

// indexName derives a deterministic, collision-resistant index name from the
// table, column and run timestamp, capped to the identifier limit. The
// timestamp suffix is preserved when truncation is needed.
func indexName(table, column string, runTS int64) string {
	name := fmt.Sprintf("idx_%s_%s_%d", table, column, runTS)
	if len(name) <= maxIdentifierLen {
		return name
	}

	suffix := fmt.Sprintf("_%d", runTS)
	return name[:maxIdentifierLen-len(suffix)] + suffix
}
