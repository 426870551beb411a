// Package mcp exposes the review pipeline as Model Context Protocol tools
// so coding agents can request reviews directly.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roasbeef/scrutiny/internal/build"
	"github.com/roasbeef/scrutiny/internal/review"
)

// ReviewGateway is how tool handlers reach the review service.
type ReviewGateway interface {
	Ask(ctx context.Context,
		req review.ReviewRequest) (review.ReviewResponse, error)
}

// Server wraps the MCP server with its review service dependency.
type Server struct {
	server  *mcp.Server
	reviews ReviewGateway
}

// NewServer creates an MCP server with all review tools registered.
func NewServer(reviews ReviewGateway) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "scrutiny",
		Version: build.Version(),
	}, nil)

	s := &Server{
		server:  mcpServer,
		reviews: reviews,
	}

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// registerTools registers all review tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "review_code",
		Description: "Run a full code review on a source file: " +
			"static analysis plus AI critique, merged into one " +
			"scored report",
	}, s.handleReviewCode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "quick_scan",
		Description: "Run static analysis only and return the scored " +
			"findings without involving an AI provider",
	}, s.handleQuickScan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_review",
		Description: "Retrieve a review by ID",
	}, s.handleGetReview)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_report",
		Description: "Render a completed review as a markdown report",
	}, s.handleGetReport)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_reviews",
		Description: "List past reviews with optional filters",
	}, s.handleListReviews)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "review_stats",
		Description: "Get aggregate statistics across all reviews",
	}, s.handleReviewStats)
}
