package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roasbeef/scrutiny/internal/review"
)

// apiClient is a thin HTTP client for the scrutinyd web API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

// newAPIClient creates a client against the given base URL.
func newAPIClient(addr string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(addr, "/"),
		http: &http.Client{
			Timeout: 3 * time.Minute,
		},
	}
}

// apiEnvelope mirrors the server's response wrapper.
type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// apiErrorBody mirrors the server's error wrapper.
type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do performs a request and decodes the data envelope into out. Error
// responses decode into a formatted error.
func (c *apiClient) do(method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach scrutinyd at %s: %w",
			c.baseURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr apiErrorBody
		if json.Unmarshal(raw, &apiErr) == nil &&
			apiErr.Error.Message != "" {

			return fmt.Errorf("%s: %s", apiErr.Error.Code,
				apiErr.Error.Message)
		}
		return fmt.Errorf("request failed with status %d",
			resp.StatusCode)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	// Responses are either enveloped or bare objects; try the envelope
	// first.
	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil &&
		envelope.Data != nil {

		return json.Unmarshal(envelope.Data, out)
	}

	return json.Unmarshal(raw, out)
}

// submitBody is the POST /api/v1/reviews request body.
type submitBody struct {
	FileName string `json:"file_name"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
	Mode     string `json:"mode,omitempty"`
}

// SubmitAndWait submits a review and blocks until the daemon finishes it.
func (c *apiClient) SubmitAndWait(
	body submitBody) (*review.FinalReview, error) {

	var final review.FinalReview
	err := c.do(http.MethodPost, "/api/v1/reviews?wait=1", body, &final)
	if err != nil {
		return nil, err
	}
	return &final, nil
}

// GetReview fetches one review. Completed reviews decode as FinalReview;
// in-flight ones only fill the summary-shaped subset of fields.
func (c *apiClient) GetReview(id string) (*review.FinalReview, error) {
	var final review.FinalReview
	err := c.do(http.MethodGet,
		"/api/v1/reviews/"+url.PathEscape(id), nil, &final)
	if err != nil {
		return nil, err
	}
	return &final, nil
}

// listFilters are the optional GET /api/v1/reviews query parameters.
type listFilters struct {
	language string
	state    string
	minScore int64
	maxScore int64
	hasMin   bool
	hasMax   bool
	limit    int
	offset   int
}

// ListReviews fetches a filtered review listing.
func (c *apiClient) ListReviews(f listFilters) ([]review.Summary, error) {
	params := url.Values{}
	if f.language != "" {
		params.Set("language", f.language)
	}
	if f.state != "" {
		params.Set("state", f.state)
	}
	if f.hasMin {
		params.Set("min_score", fmt.Sprintf("%d", f.minScore))
	}
	if f.hasMax {
		params.Set("max_score", fmt.Sprintf("%d", f.maxScore))
	}
	if f.limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", f.limit))
	}
	if f.offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", f.offset))
	}

	path := "/api/v1/reviews"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var summaries []review.Summary
	if err := c.do(http.MethodGet, path, nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// DeleteReview deletes one review.
func (c *apiClient) DeleteReview(id string) error {
	return c.do(http.MethodDelete,
		"/api/v1/reviews/"+url.PathEscape(id), nil, nil)
}

// GetStats fetches the aggregate statistics.
func (c *apiClient) GetStats() (review.Stats, error) {
	var stats review.Stats
	err := c.do(http.MethodGet, "/api/v1/stats", nil, &stats)
	return stats, err
}
