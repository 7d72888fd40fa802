package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gmf-engine/internal/backtest"
)

// RunRecord is a persisted backtest run
type RunRecord struct {
	ID          uuid.UUID
	Frequency   string
	Target      string
	Model       string
	FinalValue  float64
	SharpeRatio float64
	Report      *backtest.PerformanceReport
	Track       backtest.CumulativeTrack
	StartedAt   time.Time
	Duration    time.Duration
	CreatedAt   time.Time
}

// RunRepository persists backtest runs and their reports
type RunRepository interface {
	Create(ctx context.Context, record *RunRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*RunRecord, error)
	GetRecent(ctx context.Context, limit int) ([]*RunRecord, error)
}

// PostgresRunRepository implements RunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *DB
}

// NewPostgresRunRepository creates a new run repository
func NewPostgresRunRepository(db *DB) RunRepository {
	return &PostgresRunRepository{db: db}
}

// Create inserts a backtest run with its report and track as JSON
func (r *PostgresRunRepository) Create(ctx context.Context, record *RunRecord) error {
	reportJSON, err := json.Marshal(record.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	trackJSON, err := json.Marshal(record.Track)
	if err != nil {
		return fmt.Errorf("failed to marshal track: %w", err)
	}

	query := `
		INSERT INTO backtest_runs
			(id, frequency, target, model, final_value, sharpe_ratio, report, track, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		record.ID, record.Frequency, record.Target, record.Model,
		record.FinalValue, record.SharpeRatio, reportJSON, trackJSON,
		record.StartedAt, record.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to create backtest run: %w", err)
	}

	return nil
}

// GetByID retrieves a run by ID
func (r *PostgresRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	query := `
		SELECT id, frequency, target, model, final_value, sharpe_ratio, report, track, started_at, duration_ms, created_at
		FROM backtest_runs WHERE id = $1
	`

	record, err := scanRun(r.db.GetPool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest run: %w", err)
	}
	return record, nil
}

// GetRecent retrieves the most recent runs
func (r *PostgresRunRepository) GetRecent(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `
		SELECT id, frequency, target, model, final_value, sharpe_ratio, report, track, started_at, duration_ms, created_at
		FROM backtest_runs ORDER BY created_at DESC LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backtest run: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	record := &RunRecord{}
	var reportJSON, trackJSON []byte
	var durationMS int64

	err := row.Scan(
		&record.ID, &record.Frequency, &record.Target, &record.Model,
		&record.FinalValue, &record.SharpeRatio, &reportJSON, &trackJSON,
		&record.StartedAt, &durationMS, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Duration = time.Duration(durationMS) * time.Millisecond
	if len(reportJSON) > 0 {
		if err := json.Unmarshal(reportJSON, &record.Report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
	}
	if len(trackJSON) > 0 {
		if err := json.Unmarshal(trackJSON, &record.Track); err != nil {
			return nil, fmt.Errorf("failed to unmarshal track: %w", err)
		}
	}
	return record, nil
}
