package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openutm/qualifier-host/internal/core"
	"github.com/openutm/qualifier-host/internal/data/pgxutil"
	apperrors "github.com/openutm/qualifier-host/internal/errors"
)

// ReportArchiveRepo provides durable Postgres persistence for completed
// reports. The Redis store remains the contract-bearing sink; the archive is a
// supplementary history that survives Redis eviction.
type ReportArchiveRepo struct {
	DB *sql.DB
}

// NewReportArchiveRepo constructs a ReportArchiveRepo.
func NewReportArchiveRepo(db *sql.DB) *ReportArchiveRepo {
	return &ReportArchiveRepo{DB: db}
}

// Upsert stores or replaces the archived report for a run (last-write-wins).
func (r *ReportArchiveRepo) Upsert(ctx context.Context, params core.ArchiveReportParams) error {
	if r == nil || r.DB == nil {
		return ErrArchiveNotConfigured
	}
	if params.RunID == "" {
		return ErrRunIDRequired
	}
	archivedAt := params.ArchivedAt
	if archivedAt.IsZero() {
		archivedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO report_archive (run_id, report, debug, archived_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id)
		DO UPDATE SET
			report = EXCLUDED.report,
			debug = EXCLUDED.debug,
			archived_at = EXCLUDED.archived_at;`
	if _, err := r.DB.ExecContext(ctx, query, params.RunID, params.Report, params.Debug, archivedAt); err != nil {
		return apperrors.Wrap(apperrors.MapDBError(err), apperrors.ErrCodeInternal, "upsert report_archive")
	}
	return nil
}

// Get retrieves the archived report for a run id.
func (r *ReportArchiveRepo) Get(ctx context.Context, runID string) (*core.ArchivedReport, error) {
	if r == nil || r.DB == nil {
		return nil, ErrArchiveNotConfigured
	}
	if runID == "" {
		return nil, ErrRunIDRequired
	}

	const query = `
		SELECT run_id, report, debug, archived_at
		FROM report_archive
		WHERE run_id = $1`

	var res *core.ArchivedReport
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, runID)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[core.ArchivedReport])
		if err != nil {
			return err
		}
		res = &row
		return nil
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report_archive: %w", err)
	}
	return res, nil
}

// Prune deletes archived reports older than the cutoff, up to limit rows.
// Batching keeps locks short on large tables.
func (r *ReportArchiveRepo) Prune(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	if r == nil || r.DB == nil {
		return 0, ErrArchiveNotConfigured
	}
	if limit < 1 {
		limit = 1
	}

	const query = `
		DELETE FROM report_archive
		WHERE run_id IN (
			SELECT run_id FROM report_archive
			WHERE archived_at < $1
			ORDER BY archived_at
			LIMIT $2
		)`
	res, err := r.DB.ExecContext(ctx, query, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("prune report_archive: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune report_archive rows affected: %w", err)
	}
	return n, nil
}
