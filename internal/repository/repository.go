// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adelsaramii/verdict/internal/domain"
)

var (
	ErrNotFound     = domain.ErrNotFound
	ErrInvalidInput = domain.ErrInvalidInput
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveEvaluation stores a decision record.
func (r *SQLRepository) SaveEvaluation(ctx context.Context, eval *domain.Evaluation) error {
	if eval.ID == "" {
		return fmt.Errorf("%w: evaluation ID is required", ErrInvalidInput)
	}

	reasons, _ := json.Marshal(eval.Reasons)

	query := `
		INSERT INTO decisions (
			id, case_id, action, confidence, score,
			reasons, signal_source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		eval.ID, eval.CaseID, eval.Action, eval.Confidence, eval.Score,
		string(reasons), eval.SignalSource, eval.CreatedAt,
	)
	return err
}

// GetEvaluation retrieves a decision record by ID.
func (r *SQLRepository) GetEvaluation(ctx context.Context, evalID string) (*domain.Evaluation, error) {
	query := `
		SELECT id, case_id, action, confidence, score,
			   reasons, signal_source, created_at
		FROM decisions
		WHERE id = ?
	`

	var eval domain.Evaluation
	var reasons string

	err := r.db.QueryRowContext(ctx, r.rebind(query), evalID).Scan(
		&eval.ID, &eval.CaseID, &eval.Action, &eval.Confidence, &eval.Score,
		&reasons, &eval.SignalSource, &eval.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if reasons != "" {
		json.Unmarshal([]byte(reasons), &eval.Reasons)
	}

	return &eval, nil
}

// ListEvaluationsByCase retrieves all decisions for a case, newest first.
func (r *SQLRepository) ListEvaluationsByCase(ctx context.Context, caseID string) ([]*domain.Evaluation, error) {
	query := `
		SELECT id, case_id, action, confidence, score,
			   reasons, signal_source, created_at
		FROM decisions
		WHERE case_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evaluations []*domain.Evaluation
	for rows.Next() {
		var eval domain.Evaluation
		var reasons string

		if err := rows.Scan(
			&eval.ID, &eval.CaseID, &eval.Action, &eval.Confidence, &eval.Score,
			&reasons, &eval.SignalSource, &eval.CreatedAt,
		); err != nil {
			return nil, err
		}

		if reasons != "" {
			json.Unmarshal([]byte(reasons), &eval.Reasons)
		}

		evaluations = append(evaluations, &eval)
	}

	return evaluations, rows.Err()
}

// SaveReview stores a manual-review queue entry.
func (r *SQLRepository) SaveReview(ctx context.Context, review *domain.Review) error {
	if review.ID == "" {
		return fmt.Errorf("%w: review ID is required", ErrInvalidInput)
	}

	status := review.Status
	if status == "" {
		status = domain.ReviewStatusPending
	}

	query := `
		INSERT INTO reviews (
			id, case_id, decision_id, score, band, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		review.ID, review.CaseID, review.DecisionID,
		review.Score, review.Band, status, review.CreatedAt,
	)
	return err
}

// ListPendingReviews retrieves open review entries, oldest first.
func (r *SQLRepository) ListPendingReviews(ctx context.Context) ([]*domain.Review, error) {
	query := `
		SELECT id, case_id, decision_id, score, band, status, created_at
		FROM reviews
		WHERE status = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), domain.ReviewStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID, &review.CaseID, &review.DecisionID,
			&review.Score, &review.Band, &review.Status, &review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, &review)
	}

	return reviews, rows.Err()
}

// MarkReviewDone closes a review entry.
func (r *SQLRepository) MarkReviewDone(ctx context.Context, reviewID string) error {
	query := `
		UPDATE reviews
		SET status = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), domain.ReviewStatusDone, reviewID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
