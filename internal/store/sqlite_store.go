package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roasbeef/scrutiny/internal/db"
)

// reviewColumns is the column list shared by every review SELECT so scans
// stay in one place.
const reviewColumns = `id, file_name, language, size, mode, state, score,
	critical_count, medium_count, low_count,
	pre_analysis_json, ai_review_json, issues_json, transitions_json,
	degraded_json, provider, model, processing_ms, created_at, updated_at`

// SQLiteStore implements ReviewStore over a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteStore wraps an open database connection. The schema must already
// be migrated.
func NewSQLiteStore(sqlDB *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:  sqlDB,
		log: slog.With("component", "store"),
	}
}

// Open opens the database at dbPath, applies pending migrations, and
// returns a ready store.
func Open(dbPath string) (*SQLiteStore, error) {
	sqlDB, err := db.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	log := slog.With("component", "store")
	if err := db.ApplyAllMigrations(sqlDB, log); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return NewSQLiteStore(sqlDB), nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// CreateReview creates a new review record.
func (s *SQLiteStore) CreateReview(
	ctx context.Context, params CreateReviewParams,
) (Review, error) {

	now := time.Now().Unix()

	err := db.ExecTx(ctx, s.db, s.log, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reviews (
				id, file_name, language, size, mode, state,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			params.ID, params.FileName, params.Language,
			params.Size, params.Mode, params.State, now, now,
		)
		return err
	})
	if err != nil {
		return Review{}, fmt.Errorf("failed to create review: %w", err)
	}

	return s.GetReview(ctx, params.ID)
}

// GetReview retrieves a review by its ID.
func (s *SQLiteStore) GetReview(
	ctx context.Context, id string,
) (Review, error) {

	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id,
	)

	review, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Review{}, fmt.Errorf("%w: %s", ErrReviewNotFound, id)
	}
	if err != nil {
		return Review{}, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// ListReviews lists reviews matching the query, newest first.
func (s *SQLiteStore) ListReviews(
	ctx context.Context, query ListReviewsQuery,
) ([]Review, error) {

	var (
		conds []string
		args  []any
	)
	if query.Language != "" {
		conds = append(conds, "language = ?")
		args = append(args, query.Language)
	}
	if query.State != "" {
		conds = append(conds, "state = ?")
		args = append(args, query.State)
	}
	if query.MinScore != nil {
		conds = append(conds, "score >= ?")
		args = append(args, *query.MinScore)
	}
	if query.MaxScore != nil {
		conds = append(conds, "score <= ?")
		args = append(args, *query.MaxScore)
	}

	q := `SELECT ` + reviewColumns + ` FROM reviews`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	q += " LIMIT ? OFFSET ?"
	args = append(args, limit, query.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

// ListActiveReviews returns reviews in non-terminal states.
func (s *SQLiteStore) ListActiveReviews(
	ctx context.Context,
) ([]Review, error) {

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews
		 WHERE state NOT IN ('done', 'failed')
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active reviews: %w",
			err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

// UpdateReviewState updates the lifecycle state of a review.
func (s *SQLiteStore) UpdateReviewState(
	ctx context.Context, id, state string,
) error {

	return db.ExecTx(ctx, s.db, s.log, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE reviews SET state = ?, updated_at = ?
			 WHERE id = ?`,
			state, time.Now().Unix(), id,
		)
		if err != nil {
			return fmt.Errorf("failed to update review state: %w",
				err)
		}

		return requireRow(res, id)
	})
}

// SaveReviewResult stores the final result of a completed review.
func (s *SQLiteStore) SaveReviewResult(
	ctx context.Context, params SaveReviewResultParams,
) error {

	return db.ExecTx(ctx, s.db, s.log, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE reviews SET
				state = ?, score = ?,
				critical_count = ?, medium_count = ?,
				low_count = ?,
				pre_analysis_json = ?, ai_review_json = ?,
				issues_json = ?, transitions_json = ?,
				degraded_json = ?,
				provider = ?, model = ?, processing_ms = ?,
				updated_at = ?
			WHERE id = ?`,
			params.State, params.Score,
			params.CriticalCount, params.MediumCount,
			params.LowCount,
			params.PreAnalysisJSON,
			nullString(params.AIReviewJSON),
			params.IssuesJSON, params.TransitionsJSON,
			nullString(params.DegradedJSON),
			nullString(params.Provider), nullString(params.Model),
			params.ProcessingMS, time.Now().Unix(), params.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to save review result: %w",
				err)
		}

		return requireRow(res, params.ID)
	})
}

// DeleteReview deletes a review by ID.
func (s *SQLiteStore) DeleteReview(ctx context.Context, id string) error {
	return db.ExecTx(ctx, s.db, s.log, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx, `DELETE FROM reviews WHERE id = ?`, id,
		)
		if err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}

		return requireRow(res, id)
	})
}

// GetReviewStats returns aggregate statistics across all reviews.
func (s *SQLiteStore) GetReviewStats(
	ctx context.Context,
) (ReviewStats, error) {

	var stats ReviewStats

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN state = 'done'
				THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'failed'
				THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN state = 'done'
				THEN score END), 0),
			COALESCE(AVG(CASE WHEN state = 'done'
				THEN processing_ms END), 0),
			COALESCE(SUM(CASE WHEN state = 'done'
				THEN critical_count ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'done'
				THEN medium_count ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'done'
				THEN low_count ELSE 0 END), 0)
		FROM reviews`,
	).Scan(
		&stats.TotalCount, &stats.CompletedCount, &stats.FailedCount,
		&stats.AverageScore, &stats.AverageProcessingMS,
		&stats.TotalCritical, &stats.TotalMedium, &stats.TotalLow,
	)
	if err != nil {
		return ReviewStats{}, fmt.Errorf(
			"failed to get review stats: %w", err,
		)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT language, COUNT(*) FROM reviews GROUP BY language`,
	)
	if err != nil {
		return ReviewStats{}, fmt.Errorf(
			"failed to get language stats: %w", err,
		)
	}
	defer rows.Close()

	stats.ByLanguage = make(map[string]int64)
	for rows.Next() {
		var (
			lang  string
			count int64
		)
		if err := rows.Scan(&lang, &count); err != nil {
			return ReviewStats{}, fmt.Errorf(
				"failed to scan language stats: %w", err,
			)
		}
		stats.ByLanguage[lang] = count
	}
	if err := rows.Err(); err != nil {
		return ReviewStats{}, fmt.Errorf(
			"failed to read language stats: %w", err,
		)
	}

	return stats, nil
}

// requireRow converts a zero-rows-affected update into ErrReviewNotFound.
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrReviewNotFound, id)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

// scanReview scans one review row in reviewColumns order.
func scanReview(row scanner) (Review, error) {
	var (
		r         Review
		score     sql.NullInt64
		aiJSON    sql.NullString
		degJSON   sql.NullString
		preJSON   sql.NullString
		issJSON   sql.NullString
		transJSON sql.NullString
		provider  sql.NullString
		model     sql.NullString
		createdAt int64
		updatedAt int64
	)

	err := row.Scan(
		&r.ID, &r.FileName, &r.Language, &r.Size, &r.Mode, &r.State,
		&score, &r.CriticalCount, &r.MediumCount, &r.LowCount,
		&preJSON, &aiJSON, &issJSON, &transJSON, &degJSON,
		&provider, &model, &r.ProcessingMS, &createdAt, &updatedAt,
	)
	if err != nil {
		return Review{}, err
	}

	if score.Valid {
		v := score.Int64
		r.Score = &v
	}
	r.PreAnalysisJSON = preJSON.String
	r.AIReviewJSON = aiJSON.String
	r.IssuesJSON = issJSON.String
	r.TransitionsJSON = transJSON.String
	r.DegradedJSON = degJSON.String
	r.Provider = provider.String
	r.Model = model.String
	r.CreatedAt = time.Unix(createdAt, 0)
	r.UpdatedAt = time.Unix(updatedAt, 0)

	return r, nil
}

// collectReviews drains a result set into a slice.
func collectReviews(rows *sql.Rows) ([]Review, error) {
	var reviews []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w",
				err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reviews: %w", err)
	}

	return reviews, nil
}

// nullString converts empty strings to SQL NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure SQLiteStore implements ReviewStore.
var _ ReviewStore = (*SQLiteStore)(nil)
