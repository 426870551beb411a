package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/report"
	"github.com/roasbeef/scrutiny/internal/review"
)

// reviewWaitTimeout bounds how long a tool call waits for the pipeline.
const reviewWaitTimeout = 2 * time.Minute

// ReviewCodeArgs are the arguments for the review_code tool.
type ReviewCodeArgs struct {
	// FileName is the name of the file being reviewed.
	FileName string `json:"file_name" jsonschema:"Name of the file being reviewed"`

	// Language is the source language; detected from the file name when
	// empty.
	Language string `json:"language,omitempty" jsonschema:"Source language (python, go, javascript, ...); detected from the file name when omitted"`

	// Content is the full source text to review.
	Content string `json:"content" jsonschema:"Full source text to review"`
}

// IssueResult is one finding in a tool result.
type IssueResult struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
	Source   string `json:"source"`
}

// ReviewResult is the result of the review_code and quick_scan tools.
type ReviewResult struct {
	ReviewID string        `json:"review_id"`
	FileName string        `json:"file_name"`
	Language string        `json:"language"`
	Mode     string        `json:"mode"`
	State    string        `json:"state"`
	Score    int           `json:"score"`
	Summary  string        `json:"summary,omitempty"`
	Issues   []IssueResult `json:"issues"`
	Degraded []string      `json:"degraded,omitempty"`
	Provider string        `json:"provider,omitempty"`
	Model    string        `json:"model,omitempty"`
}

func (s *Server) handleReviewCode(ctx context.Context,
	req *mcp.CallToolRequest,
	args ReviewCodeArgs) (*mcp.CallToolResult, ReviewResult, error) {

	return s.runReview(ctx, args, review.ModeFull)
}

func (s *Server) handleQuickScan(ctx context.Context,
	req *mcp.CallToolRequest,
	args ReviewCodeArgs) (*mcp.CallToolResult, ReviewResult, error) {

	return s.runReview(ctx, args, review.ModeQuick)
}

// runReview submits a review and waits for its terminal outcome.
func (s *Server) runReview(ctx context.Context, args ReviewCodeArgs,
	mode review.Mode) (*mcp.CallToolResult, ReviewResult, error) {

	resp, err := s.reviews.Ask(ctx, review.SubmitReviewRequest{
		FileName: args.FileName,
		Language: args.Language,
		Content:  args.Content,
		Mode:     mode,
	})
	if err != nil {
		return nil, ReviewResult{}, err
	}

	subResp := resp.(review.SubmitReviewResponse)
	if subResp.Error != nil {
		return nil, ReviewResult{}, subResp.Error
	}

	select {
	case outcome := <-subResp.Done:
		if outcome.Err != nil {
			return nil, ReviewResult{}, outcome.Err
		}
		return nil, finalToResult(outcome.Review), nil

	case <-time.After(reviewWaitTimeout):
		return nil, ReviewResult{}, fmt.Errorf(
			"review %s timed out", subResp.ReviewID,
		)

	case <-ctx.Done():
		return nil, ReviewResult{}, ctx.Err()
	}
}

// finalToResult converts a completed review into the tool result shape.
func finalToResult(final *review.FinalReview) ReviewResult {
	result := ReviewResult{
		ReviewID: final.ID,
		FileName: final.FileName,
		Language: string(final.Language),
		Mode:     string(final.Mode),
		State:    string(final.State),
		Score:    final.Score,
		Issues:   issuesToResults(final.Issues),
		Degraded: final.Degraded,
		Provider: final.Provider,
		Model:    final.Model,
	}
	if final.AI != nil {
		result.Summary = final.AI.Summary
	}
	return result
}

func issuesToResults(issues []analysis.Issue) []IssueResult {
	results := make([]IssueResult, 0, len(issues))
	for _, issue := range issues {
		results = append(results, IssueResult{
			Category: string(issue.Category),
			Severity: string(issue.Severity),
			Line:     issue.Line,
			Message:  issue.Message,
			Source:   string(issue.Source),
		})
	}
	return results
}

// GetReviewArgs are the arguments for the get_review tool.
type GetReviewArgs struct {
	ReviewID string `json:"review_id" jsonschema:"ID of the review to retrieve"`
}

// GetReviewResult is the result of the get_review tool. Score and Issues
// are only meaningful once State is done.
type GetReviewResult struct {
	ReviewID  string        `json:"review_id"`
	FileName  string        `json:"file_name"`
	Language  string        `json:"language"`
	Mode      string        `json:"mode"`
	State     string        `json:"state"`
	Score     *int64        `json:"score,omitempty"`
	Issues    []IssueResult `json:"issues,omitempty"`
	Provider  string        `json:"provider,omitempty"`
	Model     string        `json:"model,omitempty"`
	CreatedAt string        `json:"created_at"`
}

func (s *Server) handleGetReview(ctx context.Context,
	req *mcp.CallToolRequest,
	args GetReviewArgs) (*mcp.CallToolResult, GetReviewResult, error) {

	resp, err := s.reviews.Ask(ctx, review.GetReviewRequest{
		ID: args.ReviewID,
	})
	if err != nil {
		return nil, GetReviewResult{}, err
	}

	getResp := resp.(review.GetReviewResponse)
	if getResp.Error != nil {
		return nil, GetReviewResult{}, getResp.Error
	}

	summary := getResp.Summary
	result := GetReviewResult{
		ReviewID:  summary.ID,
		FileName:  summary.FileName,
		Language:  summary.Language,
		Mode:      string(summary.Mode),
		State:     string(summary.State),
		Score:     summary.Score,
		Provider:  summary.Provider,
		Model:     summary.Model,
		CreatedAt: summary.CreatedAt.UTC().Format(time.RFC3339),
	}
	if getResp.Review != nil {
		result.Issues = issuesToResults(getResp.Review.Issues)
	}

	return nil, result, nil
}

// GetReportArgs are the arguments for the get_report tool.
type GetReportArgs struct {
	ReviewID string `json:"review_id" jsonschema:"ID of the completed review to render"`
}

// GetReportResult is the result of the get_report tool.
type GetReportResult struct {
	ReviewID string `json:"review_id"`
	Markdown string `json:"markdown"`
}

func (s *Server) handleGetReport(ctx context.Context,
	req *mcp.CallToolRequest,
	args GetReportArgs) (*mcp.CallToolResult, GetReportResult, error) {

	resp, err := s.reviews.Ask(ctx, review.GetReviewRequest{
		ID: args.ReviewID,
	})
	if err != nil {
		return nil, GetReportResult{}, err
	}

	getResp := resp.(review.GetReviewResponse)
	if getResp.Error != nil {
		return nil, GetReportResult{}, getResp.Error
	}
	if getResp.Review == nil {
		return nil, GetReportResult{}, fmt.Errorf(
			"review %s has not completed yet", args.ReviewID,
		)
	}

	return nil, GetReportResult{
		ReviewID: args.ReviewID,
		Markdown: report.Markdown(getResp.Review),
	}, nil
}

// ListReviewsArgs are the arguments for the list_reviews tool.
type ListReviewsArgs struct {
	Language string `json:"language,omitempty" jsonschema:"Filter by language"`
	State    string `json:"state,omitempty" jsonschema:"Filter by lifecycle state"`
	MinScore *int64 `json:"min_score,omitempty" jsonschema:"Minimum score filter"`
	MaxScore *int64 `json:"max_score,omitempty" jsonschema:"Maximum score filter"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of reviews to return,default=50"`
	Offset   int    `json:"offset,omitempty" jsonschema:"Pagination offset"`
}

// ReviewSummaryResult is one listing entry.
type ReviewSummaryResult struct {
	ReviewID  string `json:"review_id"`
	FileName  string `json:"file_name"`
	Language  string `json:"language"`
	Mode      string `json:"mode"`
	State     string `json:"state"`
	Score     *int64 `json:"score,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListReviewsResult is the result of the list_reviews tool.
type ListReviewsResult struct {
	Reviews []ReviewSummaryResult `json:"reviews"`
}

func (s *Server) handleListReviews(ctx context.Context,
	req *mcp.CallToolRequest,
	args ListReviewsArgs) (*mcp.CallToolResult, ListReviewsResult, error) {

	resp, err := s.reviews.Ask(ctx, review.ListReviewsRequest{
		Language: args.Language,
		State:    args.State,
		MinScore: args.MinScore,
		MaxScore: args.MaxScore,
		Limit:    args.Limit,
		Offset:   args.Offset,
	})
	if err != nil {
		return nil, ListReviewsResult{}, err
	}

	listResp := resp.(review.ListReviewsResponse)
	if listResp.Error != nil {
		return nil, ListReviewsResult{}, listResp.Error
	}

	reviews := make([]ReviewSummaryResult, 0, len(listResp.Reviews))
	for _, summary := range listResp.Reviews {
		reviews = append(reviews, ReviewSummaryResult{
			ReviewID:  summary.ID,
			FileName:  summary.FileName,
			Language:  summary.Language,
			Mode:      string(summary.Mode),
			State:     string(summary.State),
			Score:     summary.Score,
			CreatedAt: summary.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return nil, ListReviewsResult{Reviews: reviews}, nil
}

// ReviewStatsArgs are the arguments for the review_stats tool.
type ReviewStatsArgs struct{}

func (s *Server) handleReviewStats(ctx context.Context,
	req *mcp.CallToolRequest,
	args ReviewStatsArgs) (*mcp.CallToolResult, review.Stats, error) {

	resp, err := s.reviews.Ask(ctx, review.GetStatsRequest{})
	if err != nil {
		return nil, review.Stats{}, err
	}

	statsResp := resp.(review.GetStatsResponse)
	if statsResp.Error != nil {
		return nil, review.Stats{}, statsResp.Error
	}

	return nil, statsResp.Stats, nil
}
