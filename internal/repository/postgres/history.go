// Package postgres persists conversion history in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/vcfbot/internal/domain"
)

// HistoryRepo implements session.Recorder against PostgreSQL.
type HistoryRepo struct{ db *sql.DB }

// NewHistoryRepo creates a Postgres-backed history repository.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// Record stores one completed job. Re-recording the same id is a no-op.
func (r *HistoryRepo) Record(ctx context.Context, job domain.JobSummary) error {
	if _, err := uuid.Parse(job.ID); err != nil {
		job.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversion_jobs (
			id, session_key, mode, files_in, files_out, files_failed,
			entries, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, job.ID, job.SessionKey, string(job.Mode), job.FilesIn, job.FilesOut, job.FilesFailed,
		job.Entries, job.StartedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	return nil
}

// Recent lists the latest jobs, newest first. An empty sessionKey lists
// jobs of every session.
func (r *HistoryRepo) Recent(ctx context.Context, sessionKey string, limit int) ([]domain.JobSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	q := `
		SELECT id, session_key, mode, files_in, files_out, files_failed,
		       entries, started_at, completed_at
		FROM conversion_jobs`
	args := []interface{}{}
	if sessionKey != "" {
		q += ` WHERE session_key = $1`
		args = append(args, sessionKey)
	}
	q += fmt.Sprintf(" ORDER BY completed_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.JobSummary
	for rows.Next() {
		var (
			j    domain.JobSummary
			mode string
		)
		if err := rows.Scan(&j.ID, &j.SessionKey, &mode, &j.FilesIn, &j.FilesOut, &j.FilesFailed,
			&j.Entries, &j.StartedAt, &j.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Mode = domain.Mode(mode)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ModeTotals aggregates jobs per mode.
type ModeTotals struct {
	Mode        domain.Mode `json:"mode"`
	Jobs        int         `json:"jobs"`
	FilesIn     int         `json:"files_in"`
	FilesOut    int         `json:"files_out"`
	FilesFailed int         `json:"files_failed"`
	Entries     int64       `json:"entries"`
}

// Totals sums jobs completed since the given time, per mode.
func (r *HistoryRepo) Totals(ctx context.Context, since time.Time) ([]ModeTotals, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mode, COUNT(*), COALESCE(SUM(files_in),0), COALESCE(SUM(files_out),0),
		       COALESCE(SUM(files_failed),0), COALESCE(SUM(entries),0)
		FROM conversion_jobs
		WHERE completed_at >= $1
		GROUP BY mode
		ORDER BY mode
	`, since)
	if err != nil {
		return nil, fmt.Errorf("job totals: %w", err)
	}
	defer rows.Close()

	var out []ModeTotals
	for rows.Next() {
		var (
			t    ModeTotals
			mode string
		)
		if err := rows.Scan(&mode, &t.Jobs, &t.FilesIn, &t.FilesOut, &t.FilesFailed, &t.Entries); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		t.Mode = domain.Mode(mode)
		out = append(out, t)
	}
	return out, rows.Err()
}
