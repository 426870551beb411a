package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/roasbeef/scrutiny/internal/report"
	"github.com/roasbeef/scrutiny/internal/review"
)

// APIResponse wraps API responses with data and optional metadata.
type APIResponse struct {
	Data any      `json:"data"`
	Meta *APIMeta `json:"meta,omitempty"`
}

// APIMeta contains pagination metadata.
type APIMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// APIError represents an API error response.
type APIError struct {
	Error APIErrorDetail `json:"error"`
}

// APIErrorDetail contains error details.
type APIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// submitWaitTimeout bounds how long a ?wait=1 submission blocks for the
// pipeline before falling back to the async response.
const submitWaitTimeout = 90 * time.Second

// registerAPIV1Routes registers all /api/v1/ routes.
func (s *Server) registerAPIV1Routes() {
	// CORS middleware for API routes.
	corsMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next(w, r)
		}
	}

	// JSON middleware for API routes.
	jsonMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			next(w, r)
		}
	}

	api := func(handler http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(jsonMiddleware(handler))
	}

	s.mux.HandleFunc("/api/v1/health", api(s.handleHealth))
	s.mux.HandleFunc("/api/v1/reviews", api(s.handleReviews))
	s.mux.HandleFunc("/api/v1/reviews/", corsMiddleware(s.handleReviewByID))
	s.mux.HandleFunc("/api/v1/stats", api(s.handleStats))
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("Failed to encode JSON response", "err", err)
	}
}

// writeError writes an error response with the given code.
func (s *Server) writeError(w http.ResponseWriter, status int, code,
	message string) {

	s.writeJSON(w, status, APIError{
		Error: APIErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeServiceError maps a review service error onto an HTTP status.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrInputInvalid):
		s.writeError(w, http.StatusBadRequest, "invalid_input",
			err.Error())

	case errors.Is(err, review.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, review.ErrAIUnavailable):
		s.writeError(w, http.StatusBadGateway, "ai_unavailable",
			err.Error())

	case errors.Is(err, review.ErrPoolSaturated):
		s.writeError(w, http.StatusServiceUnavailable, "saturated",
			"review queue full, retry later")

	default:
		s.log.Error("Request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError,
			"internal_error", "internal error")
	}
}

// handleHealth handles GET /api/v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed,
			"method_not_allowed", "Method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// submitRequest is the POST /api/v1/reviews request body.
type submitRequest struct {
	FileName string `json:"file_name"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
	Mode     string `json:"mode,omitempty"`
}

// submitAccepted is the async submission response body.
type submitAccepted struct {
	ReviewID string `json:"review_id"`
	State    string `json:"state"`
}

// handleReviews handles GET (list) and POST (submit) on /api/v1/reviews.
func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmitReview(w, r)
	case http.MethodGet:
		s.handleListReviews(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed,
			"method_not_allowed", "Method not allowed")
	}
}

// handleSubmitReview handles POST /api/v1/reviews. With ?wait=1 the request
// blocks until the review completes and returns the full result.
func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_body",
			"Invalid request body")
		return
	}

	ctx := r.Context()

	resp, err := s.reviews.Ask(ctx, review.SubmitReviewRequest{
		FileName: req.FileName,
		Language: req.Language,
		Content:  req.Content,
		Mode:     review.Mode(req.Mode),
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	subResp := resp.(review.SubmitReviewResponse)
	if subResp.Error != nil {
		s.writeServiceError(w, subResp.Error)
		return
	}

	if r.URL.Query().Get("wait") == "1" {
		select {
		case outcome := <-subResp.Done:
			if outcome.Err != nil {
				s.writeServiceError(w, outcome.Err)
				return
			}
			s.writeJSON(w, http.StatusOK, APIResponse{
				Data: outcome.Review,
			})
			return

		case <-time.After(submitWaitTimeout):
			// Fall through to the async response; the review
			// keeps running.

		case <-ctx.Done():
			return
		}
	}

	s.writeJSON(w, http.StatusAccepted, submitAccepted{
		ReviewID: subResp.ReviewID,
		State:    string(review.StateReceived),
	})
}

// handleListReviews handles GET /api/v1/reviews with optional filters:
// language, state, min_score, max_score, limit, offset.
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	listReq := review.ListReviewsRequest{
		Language: q.Get("language"),
		State:    q.Get("state"),
	}

	if v := q.Get("min_score"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid_filter",
				"min_score must be an integer")
			return
		}
		listReq.MinScore = &n
	}
	if v := q.Get("max_score"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid_filter",
				"max_score must be an integer")
			return
		}
		listReq.MaxScore = &n
	}
	if v := q.Get("limit"); v != "" {
		listReq.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		listReq.Offset, _ = strconv.Atoi(v)
	}

	resp, err := s.reviews.Ask(r.Context(), listReq)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	listResp := resp.(review.ListReviewsResponse)
	if listResp.Error != nil {
		s.writeServiceError(w, listResp.Error)
		return
	}

	reviews := listResp.Reviews
	if reviews == nil {
		reviews = []review.Summary{}
	}

	s.writeJSON(w, http.StatusOK, APIResponse{
		Data: reviews,
		Meta: &APIMeta{
			Total:  len(reviews),
			Limit:  listReq.Limit,
			Offset: listReq.Offset,
		},
	})
}

// handleReviewByID handles /api/v1/reviews/{id} and
// /api/v1/reviews/{id}/report.
func (s *Server) handleReviewByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/reviews/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.Header().Set("Content-Type", "application/json")
		s.writeError(w, http.StatusBadRequest, "invalid_id",
			"Review ID required")
		return
	}

	id := parts[0]

	if len(parts) > 1 && parts[1] == "report" {
		s.handleReviewReport(w, r, id)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		resp, err := s.reviews.Ask(r.Context(),
			review.GetReviewRequest{ID: id})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		getResp := resp.(review.GetReviewResponse)
		if getResp.Error != nil {
			s.writeServiceError(w, getResp.Error)
			return
		}

		// In-flight reviews only have the summary.
		if getResp.Review == nil {
			s.writeJSON(w, http.StatusOK, APIResponse{
				Data: getResp.Summary,
			})
			return
		}

		s.writeJSON(w, http.StatusOK, APIResponse{
			Data: getResp.Review,
		})

	case http.MethodDelete:
		resp, err := s.reviews.Ask(r.Context(),
			review.DeleteReviewRequest{ID: id})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		delResp := resp.(review.DeleteReviewResponse)
		if delResp.Error != nil {
			s.writeServiceError(w, delResp.Error)
			return
		}

		w.WriteHeader(http.StatusNoContent)

	default:
		s.writeError(w, http.StatusMethodNotAllowed,
			"method_not_allowed", "Method not allowed")
	}
}

// handleReviewReport handles GET /api/v1/reviews/{id}/report. The format
// query parameter selects markdown (default) or html.
func (s *Server) handleReviewReport(w http.ResponseWriter, r *http.Request,
	id string) {

	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		s.writeError(w, http.StatusMethodNotAllowed,
			"method_not_allowed", "Method not allowed")
		return
	}

	resp, err := s.reviews.Ask(r.Context(), review.GetReviewRequest{ID: id})
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeServiceError(w, err)
		return
	}

	getResp := resp.(review.GetReviewResponse)
	if getResp.Error != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeServiceError(w, getResp.Error)
		return
	}
	if getResp.Review == nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeError(w, http.StatusConflict, "not_ready",
			"Review has not completed yet")
		return
	}

	markdown := report.Markdown(getResp.Review)

	switch r.URL.Query().Get("format") {
	case "", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(markdown)); err != nil {
			s.log.Warn("Failed to write report", "err", err)
		}

	case "html":
		page, err := report.HTML(
			markdown, "Review "+getResp.Review.FileName,
		)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			s.writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(page)); err != nil {
			s.log.Warn("Failed to write report", "err", err)
		}

	default:
		w.Header().Set("Content-Type", "application/json")
		s.writeError(w, http.StatusBadRequest, "invalid_format",
			"format must be markdown or html")
	}
}

// handleStats handles GET /api/v1/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed,
			"method_not_allowed", "Method not allowed")
		return
	}

	resp, err := s.reviews.Ask(r.Context(), review.GetStatsRequest{})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	statsResp := resp.(review.GetStatsResponse)
	if statsResp.Error != nil {
		s.writeServiceError(w, statsResp.Error)
		return
	}

	s.writeJSON(w, http.StatusOK, APIResponse{Data: statsResp.Stats})
}
