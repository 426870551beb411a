package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory ReviewStore for tests and quick-path usage
// without a database file.
type MockStore struct {
	mu      sync.RWMutex
	reviews map[string]Review
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		reviews: make(map[string]Review),
	}
}

// CreateReview creates a new review record.
func (m *MockStore) CreateReview(
	_ context.Context, params CreateReviewParams,
) (Review, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reviews[params.ID]; ok {
		return Review{}, fmt.Errorf("review %s already exists",
			params.ID)
	}

	now := time.Now()
	review := Review{
		ID:        params.ID,
		FileName:  params.FileName,
		Language:  params.Language,
		Size:      params.Size,
		Mode:      params.Mode,
		State:     params.State,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.reviews[params.ID] = review

	return review, nil
}

// GetReview retrieves a review by its ID.
func (m *MockStore) GetReview(
	_ context.Context, id string,
) (Review, error) {

	m.mu.RLock()
	defer m.mu.RUnlock()

	review, ok := m.reviews[id]
	if !ok {
		return Review{}, fmt.Errorf("%w: %s", ErrReviewNotFound, id)
	}
	return review, nil
}

// ListReviews lists reviews matching the query, newest first.
func (m *MockStore) ListReviews(
	_ context.Context, query ListReviewsQuery,
) ([]Review, error) {

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Review
	for _, r := range m.reviews {
		if query.Language != "" && r.Language != query.Language {
			continue
		}
		if query.State != "" && r.State != query.State {
			continue
		}
		if query.MinScore != nil &&
			(r.Score == nil || *r.Score < *query.MinScore) {

			continue
		}
		if query.MaxScore != nil &&
			(r.Score == nil || *r.Score > *query.MaxScore) {

			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	if query.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[query.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// ListActiveReviews returns reviews in non-terminal states.
func (m *MockStore) ListActiveReviews(_ context.Context) ([]Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active []Review
	for _, r := range m.reviews {
		if r.State != "done" && r.State != "failed" {
			active = append(active, r)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})

	return active, nil
}

// UpdateReviewState updates the lifecycle state of a review.
func (m *MockStore) UpdateReviewState(
	_ context.Context, id, state string,
) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	review, ok := m.reviews[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrReviewNotFound, id)
	}

	review.State = state
	review.UpdatedAt = time.Now()
	m.reviews[id] = review

	return nil
}

// SaveReviewResult stores the final result of a completed review.
func (m *MockStore) SaveReviewResult(
	_ context.Context, params SaveReviewResultParams,
) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	review, ok := m.reviews[params.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrReviewNotFound, params.ID)
	}

	score := params.Score
	review.State = params.State
	review.Score = &score
	review.CriticalCount = params.CriticalCount
	review.MediumCount = params.MediumCount
	review.LowCount = params.LowCount
	review.PreAnalysisJSON = params.PreAnalysisJSON
	review.AIReviewJSON = params.AIReviewJSON
	review.IssuesJSON = params.IssuesJSON
	review.TransitionsJSON = params.TransitionsJSON
	review.DegradedJSON = params.DegradedJSON
	review.Provider = params.Provider
	review.Model = params.Model
	review.ProcessingMS = params.ProcessingMS
	review.UpdatedAt = time.Now()
	m.reviews[params.ID] = review

	return nil
}

// DeleteReview deletes a review by ID.
func (m *MockStore) DeleteReview(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reviews[id]; !ok {
		return fmt.Errorf("%w: %s", ErrReviewNotFound, id)
	}
	delete(m.reviews, id)

	return nil
}

// GetReviewStats returns aggregate statistics across all reviews.
func (m *MockStore) GetReviewStats(_ context.Context) (ReviewStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := ReviewStats{
		ByLanguage: make(map[string]int64),
	}

	var (
		scoreSum float64
		msSum    float64
	)
	for _, r := range m.reviews {
		stats.TotalCount++
		stats.ByLanguage[r.Language]++

		switch r.State {
		case "done":
			stats.CompletedCount++
			if r.Score != nil {
				scoreSum += float64(*r.Score)
			}
			msSum += float64(r.ProcessingMS)
			stats.TotalCritical += r.CriticalCount
			stats.TotalMedium += r.MediumCount
			stats.TotalLow += r.LowCount
		case "failed":
			stats.FailedCount++
		}
	}

	if stats.CompletedCount > 0 {
		stats.AverageScore = scoreSum / float64(stats.CompletedCount)
		stats.AverageProcessingMS = msSum /
			float64(stats.CompletedCount)
	}

	return stats, nil
}

// Close implements ReviewStore. No resources to release.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements ReviewStore.
var _ ReviewStore = (*MockStore)(nil)
