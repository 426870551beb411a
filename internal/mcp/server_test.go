package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/review"
	"github.com/roasbeef/scrutiny/internal/store"
)

// serviceGateway backs tool handlers with a review service directly.
type serviceGateway struct {
	svc *review.Service
}

func (g serviceGateway) Ask(ctx context.Context,
	req review.ReviewRequest) (review.ReviewResponse, error) {

	return g.svc.Receive(ctx, req).Unpack()
}

func newTestMCPServer(t *testing.T) *Server {
	t.Helper()

	svc := review.NewService(review.ServiceConfig{
		Cfg:   config.Default(),
		Store: store.NewMockStore(),
	})
	svc.Start(context.Background())
	t.Cleanup(func() {
		require.NoError(t, svc.OnStop(context.Background()))
	})

	return NewServer(serviceGateway{svc: svc})
}

// TestQuickScanTool verifies the quick_scan tool runs the pipeline and
// returns the scored findings.
func TestQuickScanTool(t *testing.T) {
	t.Parallel()

	s := newTestMCPServer(t)
	ctx := context.Background()

	_, result, err := s.handleQuickScan(ctx, nil, ReviewCodeArgs{
		FileName: "app.py",
		Content:  `password = "super-secret-pw"` + "\n",
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.ReviewID)
	require.Equal(t, "python", result.Language)
	require.Equal(t, "quick", result.Mode)
	require.Equal(t, "done", result.State)
	require.Equal(t, 85, result.Score)
	require.Len(t, result.Issues, 1)
	require.Equal(t, "hardcoded_secret", result.Issues[0].Category)
}

// TestReviewCodeToolNoProvider verifies review_code degrades to quick
// scoring when no AI provider is configured.
func TestReviewCodeToolNoProvider(t *testing.T) {
	t.Parallel()

	s := newTestMCPServer(t)
	ctx := context.Background()

	_, result, err := s.handleReviewCode(ctx, nil, ReviewCodeArgs{
		FileName: "app.py",
		Content:  "x = 1\n",
	})
	require.NoError(t, err)

	require.Equal(t, "full", result.Mode)
	require.Equal(t, 100, result.Score)
	require.Contains(t, result.Degraded, "ai_skipped")
}

// TestReviewCodeToolInvalidInput verifies bad submissions surface as tool
// errors.
func TestReviewCodeToolInvalidInput(t *testing.T) {
	t.Parallel()

	s := newTestMCPServer(t)

	_, _, err := s.handleReviewCode(context.Background(), nil,
		ReviewCodeArgs{FileName: "app.py"})
	require.ErrorIs(t, err, review.ErrInputInvalid)
}

// TestGetReviewAndReportTools verifies review retrieval and markdown
// rendering over a completed review.
func TestGetReviewAndReportTools(t *testing.T) {
	t.Parallel()

	s := newTestMCPServer(t)
	ctx := context.Background()

	_, scan, err := s.handleQuickScan(ctx, nil, ReviewCodeArgs{
		FileName: "app.py",
		Content:  `password = "super-secret-pw"` + "\n",
	})
	require.NoError(t, err)

	_, got, err := s.handleGetReview(ctx, nil, GetReviewArgs{
		ReviewID: scan.ReviewID,
	})
	require.NoError(t, err)
	require.Equal(t, "done", got.State)
	require.NotNil(t, got.Score)
	require.EqualValues(t, 85, *got.Score)
	require.Len(t, got.Issues, 1)

	_, rep, err := s.handleGetReport(ctx, nil, GetReportArgs{
		ReviewID: scan.ReviewID,
	})
	require.NoError(t, err)
	require.Contains(t, rep.Markdown, "# Code Review: app.py")

	// Unknown IDs report not-found.
	_, _, err = s.handleGetReview(ctx, nil, GetReviewArgs{
		ReviewID: "missing",
	})
	require.ErrorIs(t, err, review.ErrNotFound)
}

// TestListAndStatsTools verifies listing filters and the aggregate rollup.
func TestListAndStatsTools(t *testing.T) {
	t.Parallel()

	s := newTestMCPServer(t)
	ctx := context.Background()

	_, _, err := s.handleQuickScan(ctx, nil, ReviewCodeArgs{
		FileName: "main.go",
		Content:  "package main\n",
	})
	require.NoError(t, err)

	_, _, err = s.handleQuickScan(ctx, nil, ReviewCodeArgs{
		FileName: "app.py",
		Content:  "x = 1\n",
	})
	require.NoError(t, err)

	_, listed, err := s.handleListReviews(ctx, nil, ListReviewsArgs{
		Language: "python",
	})
	require.NoError(t, err)
	require.Len(t, listed.Reviews, 1)
	require.Equal(t, "app.py", listed.Reviews[0].FileName)

	_, stats, err := s.handleReviewStats(ctx, nil, ReviewStatsArgs{})
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.TotalCount)
	require.EqualValues(t, 2, stats.CompletedCount)
}
