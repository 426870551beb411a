// Package store persists review records. The interface speaks in flat rows
// with the analysis artifacts as opaque JSON blobs; translating those blobs
// to and from domain types is the caller's job, which keeps this package
// free of pipeline dependencies.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrReviewNotFound is returned when a review ID does not exist.
var ErrReviewNotFound = errors.New("review not found")

// Review is one persisted review row. Scalar columns exist for filtering
// and stats; the JSON columns carry the structured artifacts.
type Review struct {
	ID       string
	FileName string
	Language string
	Size     int64
	Mode     string
	State    string

	// Score is nil until the review reaches a terminal state.
	Score *int64

	CriticalCount int64
	MediumCount   int64
	LowCount      int64

	PreAnalysisJSON string
	AIReviewJSON    string
	IssuesJSON      string
	TransitionsJSON string
	DegradedJSON    string

	Provider     string
	Model        string
	ProcessingMS int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateReviewParams contains parameters for creating a review record.
type CreateReviewParams struct {
	ID       string
	FileName string
	Language string
	Size     int64
	Mode     string
	State    string
}

// SaveReviewResultParams contains the final result of a completed review.
type SaveReviewResultParams struct {
	ID    string
	State string
	Score int64

	CriticalCount int64
	MediumCount   int64
	LowCount      int64

	PreAnalysisJSON string
	AIReviewJSON    string
	IssuesJSON      string
	TransitionsJSON string
	DegradedJSON    string

	Provider     string
	Model        string
	ProcessingMS int64
}

// ListReviewsQuery filters and paginates review listings. Zero values mean
// "no filter"; a nil score bound means unbounded on that side.
type ListReviewsQuery struct {
	Language string
	State    string
	MinScore *int64
	MaxScore *int64
	Limit    int
	Offset   int
}

// ReviewStats contains aggregate review statistics.
type ReviewStats struct {
	TotalCount     int64
	CompletedCount int64
	FailedCount    int64

	// AverageScore is the mean score across completed reviews, zero when
	// none have completed.
	AverageScore float64

	// AverageProcessingMS is the mean processing time across completed
	// reviews.
	AverageProcessingMS float64

	// TotalCritical, TotalMedium, and TotalLow sum severity counts
	// across completed reviews.
	TotalCritical int64
	TotalMedium   int64
	TotalLow      int64

	// ByLanguage counts reviews per language tag.
	ByLanguage map[string]int64
}

// ReviewStore provides review persistence operations.
type ReviewStore interface {
	// CreateReview creates a new review record.
	CreateReview(
		ctx context.Context, params CreateReviewParams,
	) (Review, error)

	// GetReview retrieves a review by its ID.
	GetReview(ctx context.Context, id string) (Review, error)

	// ListReviews lists reviews matching the query, newest first.
	ListReviews(
		ctx context.Context, query ListReviewsQuery,
	) ([]Review, error)

	// ListActiveReviews returns reviews in non-terminal states (for
	// restart recovery).
	ListActiveReviews(ctx context.Context) ([]Review, error)

	// UpdateReviewState updates the lifecycle state of a review.
	UpdateReviewState(ctx context.Context, id, state string) error

	// SaveReviewResult stores the final result of a completed review.
	SaveReviewResult(
		ctx context.Context, params SaveReviewResultParams,
	) error

	// DeleteReview deletes a review by ID.
	DeleteReview(ctx context.Context, id string) error

	// GetReviewStats returns aggregate statistics across all reviews.
	GetReviewStats(ctx context.Context) (ReviewStats, error)

	// Close closes the store and releases resources.
	Close() error
}
