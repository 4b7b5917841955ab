package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
)

// ReportPostgres implements report repository for PostgreSQL
type ReportPostgres struct {
	pool *pgxpool.Pool
}

// NewReportPostgres creates a new PostgreSQL report repository
func NewReportPostgres(pool *pgxpool.Pool) *ReportPostgres {
	return &ReportPostgres{pool: pool}
}

// Create inserts a new report
func (r *ReportPostgres) Create(ctx context.Context, report *entity.Report) error {
	data, err := json.Marshal(report.Data)
	if err != nil {
		return fmt.Errorf("encoding report data: %w", err)
	}

	query := `
		INSERT INTO chat_reports (
			id, source_name, transcript_key, date_order,
			participants, total_messages, data, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.pool.Exec(ctx, query,
		report.ID,
		report.SourceName,
		report.TranscriptKey,
		report.DateOrder,
		report.Data.Participants,
		report.Data.TotalMessages,
		data,
		report.CreatedAt,
		report.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}

	return nil
}

// Update replaces the analysis of an existing report
func (r *ReportPostgres) Update(ctx context.Context, report *entity.Report) error {
	data, err := json.Marshal(report.Data)
	if err != nil {
		return fmt.Errorf("encoding report data: %w", err)
	}

	query := `
		UPDATE chat_reports
		SET date_order = $2, participants = $3, total_messages = $4, data = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		report.ID,
		report.DateOrder,
		report.Data.Participants,
		report.Data.TotalMessages,
		data,
	)
	if err != nil {
		return fmt.Errorf("updating report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrReportNotFound
	}

	return nil
}

// GetByID retrieves a report by ID
func (r *ReportPostgres) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	query := `
		SELECT id, source_name, transcript_key, date_order, data, created_at, expires_at
		FROM chat_reports
		WHERE id = $1
	`

	var (
		report entity.Report
		data   []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.SourceName,
		&report.TranscriptKey,
		&report.DateOrder,
		&data,
		&report.CreatedAt,
		&report.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}

	if err := json.Unmarshal(data, &report.Data); err != nil {
		return nil, fmt.Errorf("decoding report data: %w", err)
	}

	return &report, nil
}

// List retrieves report summaries, newest first
func (r *ReportPostgres) List(ctx context.Context, limit, offset int) ([]entity.ReportSummary, error) {
	query := `
		SELECT id, source_name, participants, total_messages, created_at, expires_at
		FROM chat_reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	reports := []entity.ReportSummary{}
	for rows.Next() {
		var s entity.ReportSummary
		if err := rows.Scan(
			&s.ID,
			&s.SourceName,
			&s.Participants,
			&s.TotalMessages,
			&s.CreatedAt,
			&s.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		reports = append(reports, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}

	return reports, nil
}

// Count returns the total number of stored reports
func (r *ReportPostgres) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM chat_reports").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting reports: %w", err)
	}
	return count, nil
}

// Delete removes a report
func (r *ReportPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM chat_reports WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	return nil
}

// DeleteExpired removes every report whose expiry is before now
func (r *ReportPostgres) DeleteExpired(ctx context.Context, now time.Time) ([]entity.ExpiredReport, error) {
	rows, err := r.pool.Query(ctx, `
		DELETE FROM chat_reports
		WHERE expires_at < $1
		RETURNING id, transcript_key
	`, now)
	if err != nil {
		return nil, fmt.Errorf("deleting expired reports: %w", err)
	}
	defer rows.Close()

	var expired []entity.ExpiredReport
	for rows.Next() {
		var e entity.ExpiredReport
		if err := rows.Scan(&e.ID, &e.TranscriptKey); err != nil {
			return nil, fmt.Errorf("scanning expired report: %w", err)
		}
		expired = append(expired, e)
	}

	return expired, rows.Err()
}
