package review

import (
	"time"

	"github.com/roasbeef/scrutiny/internal/baselib/actor"
)

// ReviewServiceKey is the service key for the review service actor.
var ReviewServiceKey = actor.NewServiceKey[ReviewRequest, ReviewResponse](
	"review-service",
)

// ReviewRequest is the sealed interface for review service requests.
type ReviewRequest interface {
	actor.Message
	isReviewRequest()
}

// ReviewResponse is the sealed interface for review service responses.
type ReviewResponse interface {
	isReviewResponse()
}

// Outcome is the terminal result of one submitted review, delivered on the
// Done channel of SubmitReviewResponse.
type Outcome struct {
	Review *FinalReview
	Err    error
}

// Summary is a listing-friendly view of a review without the heavyweight
// analysis blobs.
type Summary struct {
	ID           string         `json:"id"`
	FileName     string         `json:"file_name"`
	Language     string         `json:"language"`
	Size         int64          `json:"size"`
	Mode         Mode           `json:"mode"`
	State        State          `json:"state"`
	Score        *int64         `json:"score,omitempty"`
	Counts       SeverityCounts `json:"counts"`
	Provider     string         `json:"provider,omitempty"`
	Model        string         `json:"model,omitempty"`
	ProcessingMS int64          `json:"processing_ms"`
	CreatedAt    time.Time      `json:"created_at"`
}

// SubmitReviewRequest submits source text for review.
type SubmitReviewRequest struct {
	actor.BaseMessage

	FileName string

	// Language is the declared language tag; empty means detect from
	// the file name.
	Language string

	Content string

	Mode Mode
}

// MessageType implements actor.Message.
func (SubmitReviewRequest) MessageType() string { return "SubmitReviewRequest" }
func (SubmitReviewRequest) isReviewRequest()    {}

// SubmitReviewResponse is the response to SubmitReviewRequest. The review
// runs asynchronously; Done delivers exactly one Outcome when it reaches a
// terminal state.
type SubmitReviewResponse struct {
	ReviewID string
	Done     <-chan Outcome
	Error    error
}

func (SubmitReviewResponse) isReviewResponse() {}

// GetReviewRequest retrieves a completed review by ID.
type GetReviewRequest struct {
	actor.BaseMessage

	ID string
}

// MessageType implements actor.Message.
func (GetReviewRequest) MessageType() string { return "GetReviewRequest" }
func (GetReviewRequest) isReviewRequest()    {}

// GetReviewResponse is the response to GetReviewRequest. Review is nil for
// reviews still in flight; Summary is always populated on success.
type GetReviewResponse struct {
	Summary Summary
	Review  *FinalReview
	Error   error
}

func (GetReviewResponse) isReviewResponse() {}

// ListReviewsRequest lists reviews with optional filters.
type ListReviewsRequest struct {
	actor.BaseMessage

	// Language filters by language tag if non-empty.
	Language string

	// State filters by lifecycle state if non-empty.
	State string

	// MinScore and MaxScore bound the score range when non-nil.
	MinScore *int64
	MaxScore *int64

	// Limit is the maximum number of reviews to return.
	Limit int

	// Offset for pagination.
	Offset int
}

// MessageType implements actor.Message.
func (ListReviewsRequest) MessageType() string { return "ListReviewsRequest" }
func (ListReviewsRequest) isReviewRequest()    {}

// ListReviewsResponse is the response to ListReviewsRequest.
type ListReviewsResponse struct {
	Reviews []Summary
	Error   error
}

func (ListReviewsResponse) isReviewResponse() {}

// DeleteReviewRequest deletes a review by ID.
type DeleteReviewRequest struct {
	actor.BaseMessage

	ID string
}

// MessageType implements actor.Message.
func (DeleteReviewRequest) MessageType() string { return "DeleteReviewRequest" }
func (DeleteReviewRequest) isReviewRequest()    {}

// DeleteReviewResponse is the response to DeleteReviewRequest.
type DeleteReviewResponse struct {
	Error error
}

func (DeleteReviewResponse) isReviewResponse() {}

// GetStatsRequest retrieves aggregate review statistics.
type GetStatsRequest struct {
	actor.BaseMessage
}

// MessageType implements actor.Message.
func (GetStatsRequest) MessageType() string { return "GetStatsRequest" }
func (GetStatsRequest) isReviewRequest()    {}

// Stats contains aggregate review statistics.
type Stats struct {
	TotalCount          int64            `json:"total_count"`
	CompletedCount      int64            `json:"completed_count"`
	FailedCount         int64            `json:"failed_count"`
	AverageScore        float64          `json:"average_score"`
	AverageProcessingMS float64          `json:"average_processing_ms"`
	TotalCritical       int64            `json:"total_critical"`
	TotalMedium         int64            `json:"total_medium"`
	TotalLow            int64            `json:"total_low"`
	ByLanguage          map[string]int64 `json:"by_language"`
}

// GetStatsResponse is the response to GetStatsRequest.
type GetStatsResponse struct {
	Stats Stats
	Error error
}

func (GetStatsResponse) isReviewResponse() {}
