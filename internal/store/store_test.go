package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestStores returns each ReviewStore implementation under its own name
// so every test runs against both the SQLite and the in-memory store.
func newTestStores(t *testing.T) map[string]ReviewStore {
	t.Helper()

	sqlStore, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })

	return map[string]ReviewStore{
		"sqlite": sqlStore,
		"mock":   NewMockStore(),
	}
}

func createTestReview(t *testing.T, s ReviewStore, id, lang string) Review {
	t.Helper()

	review, err := s.CreateReview(context.Background(), CreateReviewParams{
		ID:       id,
		FileName: "example." + lang,
		Language: lang,
		Size:     128,
		Mode:     "quick",
		State:    "received",
	})
	require.NoError(t, err)
	return review
}

func completeTestReview(t *testing.T, s ReviewStore, id string, score int64) {
	t.Helper()

	err := s.SaveReviewResult(context.Background(), SaveReviewResultParams{
		ID:              id,
		State:           "done",
		Score:           score,
		CriticalCount:   1,
		MediumCount:     2,
		LowCount:        3,
		PreAnalysisJSON: `{"structure":{}}`,
		IssuesJSON:      `[]`,
		TransitionsJSON: `[]`,
		Provider:        "anthropic",
		Model:           "test-model",
		ProcessingMS:    42,
	})
	require.NoError(t, err)
}

// TestCreateAndGetReview verifies the create/get roundtrip and the
// not-found error.
func TestCreateAndGetReview(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created := createTestReview(t, s, "rev-1", "python")
			require.Equal(t, "received", created.State)
			require.Nil(t, created.Score)

			got, err := s.GetReview(ctx, "rev-1")
			require.NoError(t, err)
			require.Equal(t, created.ID, got.ID)
			require.Equal(t, "example.python", got.FileName)
			require.Equal(t, int64(128), got.Size)

			_, err = s.GetReview(ctx, "missing")
			require.ErrorIs(t, err, ErrReviewNotFound)
		})
	}
}

// TestUpdateReviewState verifies state updates and the not-found error for
// unknown IDs.
func TestUpdateReviewState(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			createTestReview(t, s, "rev-1", "go")

			err := s.UpdateReviewState(ctx, "rev-1", "pre_analyzed")
			require.NoError(t, err)

			got, err := s.GetReview(ctx, "rev-1")
			require.NoError(t, err)
			require.Equal(t, "pre_analyzed", got.State)

			err = s.UpdateReviewState(ctx, "missing", "done")
			require.ErrorIs(t, err, ErrReviewNotFound)
		})
	}
}

// TestSaveReviewResult verifies the terminal result write populates every
// result column.
func TestSaveReviewResult(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			createTestReview(t, s, "rev-1", "python")
			completeTestReview(t, s, "rev-1", 65)

			got, err := s.GetReview(ctx, "rev-1")
			require.NoError(t, err)
			require.Equal(t, "done", got.State)
			require.NotNil(t, got.Score)
			require.Equal(t, int64(65), *got.Score)
			require.Equal(t, int64(1), got.CriticalCount)
			require.Equal(t, int64(2), got.MediumCount)
			require.Equal(t, int64(3), got.LowCount)
			require.Equal(t, "anthropic", got.Provider)
			require.Equal(t, int64(42), got.ProcessingMS)
			require.NotEmpty(t, got.PreAnalysisJSON)
		})
	}
}

// TestListReviewsFilters verifies every filter axis of ListReviews.
func TestListReviewsFilters(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			createTestReview(t, s, "rev-a", "python")
			createTestReview(t, s, "rev-b", "go")
			createTestReview(t, s, "rev-c", "python")
			completeTestReview(t, s, "rev-a", 90)
			completeTestReview(t, s, "rev-b", 40)

			// Language filter.
			got, err := s.ListReviews(ctx, ListReviewsQuery{
				Language: "python",
			})
			require.NoError(t, err)
			require.Len(t, got, 2)

			// State filter.
			got, err = s.ListReviews(ctx, ListReviewsQuery{
				State: "done",
			})
			require.NoError(t, err)
			require.Len(t, got, 2)

			// Score bounds exclude incomplete reviews and
			// out-of-range scores.
			minScore := int64(50)
			got, err = s.ListReviews(ctx, ListReviewsQuery{
				MinScore: &minScore,
			})
			require.NoError(t, err)
			require.Len(t, got, 1)
			require.Equal(t, "rev-a", got[0].ID)

			maxScore := int64(50)
			got, err = s.ListReviews(ctx, ListReviewsQuery{
				MaxScore: &maxScore,
			})
			require.NoError(t, err)
			require.Len(t, got, 1)
			require.Equal(t, "rev-b", got[0].ID)
		})
	}
}

// TestListReviewsPagination verifies ordering (newest first) and
// limit/offset windows.
func TestListReviewsPagination(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			createTestReview(t, s, "rev-a", "python")
			createTestReview(t, s, "rev-b", "python")
			createTestReview(t, s, "rev-c", "python")

			got, err := s.ListReviews(ctx, ListReviewsQuery{
				Limit: 2,
			})
			require.NoError(t, err)
			require.Len(t, got, 2)
			require.Equal(t, "rev-c", got[0].ID)
			require.Equal(t, "rev-b", got[1].ID)

			got, err = s.ListReviews(ctx, ListReviewsQuery{
				Limit:  2,
				Offset: 2,
			})
			require.NoError(t, err)
			require.Len(t, got, 1)
			require.Equal(t, "rev-a", got[0].ID)

			got, err = s.ListReviews(ctx, ListReviewsQuery{
				Offset: 10,
			})
			require.NoError(t, err)
			require.Empty(t, got)
		})
	}
}

// TestListActiveReviews verifies only non-terminal reviews are returned.
func TestListActiveReviews(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			createTestReview(t, s, "rev-a", "python")
			createTestReview(t, s, "rev-b", "python")
			createTestReview(t, s, "rev-c", "python")
			completeTestReview(t, s, "rev-a", 80)
			require.NoError(t,
				s.UpdateReviewState(ctx, "rev-b", "failed"))

			active, err := s.ListActiveReviews(ctx)
			require.NoError(t, err)
			require.Len(t, active, 1)
			require.Equal(t, "rev-c", active[0].ID)
		})
	}
}

// TestDeleteReview verifies deletion and the not-found error.
func TestDeleteReview(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			createTestReview(t, s, "rev-1", "rust")

			require.NoError(t, s.DeleteReview(ctx, "rev-1"))

			_, err := s.GetReview(ctx, "rev-1")
			require.ErrorIs(t, err, ErrReviewNotFound)

			err = s.DeleteReview(ctx, "rev-1")
			require.ErrorIs(t, err, ErrReviewNotFound)
		})
	}
}

// TestGetReviewStats verifies the aggregate rollup.
func TestGetReviewStats(t *testing.T) {
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			createTestReview(t, s, "rev-a", "python")
			createTestReview(t, s, "rev-b", "go")
			createTestReview(t, s, "rev-c", "python")
			completeTestReview(t, s, "rev-a", 90)
			completeTestReview(t, s, "rev-b", 50)
			require.NoError(t,
				s.UpdateReviewState(ctx, "rev-c", "failed"))

			stats, err := s.GetReviewStats(ctx)
			require.NoError(t, err)

			require.Equal(t, int64(3), stats.TotalCount)
			require.Equal(t, int64(2), stats.CompletedCount)
			require.Equal(t, int64(1), stats.FailedCount)
			require.InDelta(t, 70.0, stats.AverageScore, 0.001)
			require.Equal(t, int64(2), stats.TotalCritical)
			require.Equal(t, int64(4), stats.TotalMedium)
			require.Equal(t, int64(6), stats.TotalLow)
			require.Equal(t, int64(2), stats.ByLanguage["python"])
			require.Equal(t, int64(1), stats.ByLanguage["go"])
		})
	}
}
