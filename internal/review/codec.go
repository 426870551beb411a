package review

import (
	"encoding/json"
	"fmt"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/llm"
	"github.com/roasbeef/scrutiny/internal/store"
)

// saveParamsFromFinal flattens a terminal FinalReview into the store row
// shape, marshaling the structured artifacts to JSON.
func saveParamsFromFinal(
	final *FinalReview) (store.SaveReviewResultParams, error) {

	preJSON, err := json.Marshal(final.Pre)
	if err != nil {
		return store.SaveReviewResultParams{}, fmt.Errorf(
			"failed to marshal pre-analysis: %w", err,
		)
	}

	issuesJSON, err := json.Marshal(final.Issues)
	if err != nil {
		return store.SaveReviewResultParams{}, fmt.Errorf(
			"failed to marshal issues: %w", err,
		)
	}

	transJSON, err := json.Marshal(final.Transitions)
	if err != nil {
		return store.SaveReviewResultParams{}, fmt.Errorf(
			"failed to marshal transitions: %w", err,
		)
	}

	var aiJSON []byte
	if final.AI != nil {
		aiJSON, err = json.Marshal(final.AI)
		if err != nil {
			return store.SaveReviewResultParams{}, fmt.Errorf(
				"failed to marshal ai review: %w", err,
			)
		}
	}

	var degradedJSON []byte
	if len(final.Degraded) > 0 {
		degradedJSON, err = json.Marshal(final.Degraded)
		if err != nil {
			return store.SaveReviewResultParams{}, fmt.Errorf(
				"failed to marshal degraded markers: %w", err,
			)
		}
	}

	return store.SaveReviewResultParams{
		ID:              final.ID,
		State:           string(final.State),
		Score:           int64(final.Score),
		CriticalCount:   int64(final.Counts.Critical),
		MediumCount:     int64(final.Counts.Medium),
		LowCount:        int64(final.Counts.Low),
		PreAnalysisJSON: string(preJSON),
		AIReviewJSON:    string(aiJSON),
		IssuesJSON:      string(issuesJSON),
		TransitionsJSON: string(transJSON),
		DegradedJSON:    string(degradedJSON),
		Provider:        final.Provider,
		Model:           final.Model,
		ProcessingMS:    final.ProcessingMS,
	}, nil
}

// finalFromRecord rebuilds a FinalReview from a persisted row. Only valid
// for rows that carry result blobs, i.e. reviews that reached done.
func finalFromRecord(rec store.Review) (*FinalReview, error) {
	final := &FinalReview{
		ID:           rec.ID,
		FileName:     rec.FileName,
		Language:     analysis.Language(rec.Language),
		Size:         int(rec.Size),
		Mode:         Mode(rec.Mode),
		State:        State(rec.State),
		Counts: SeverityCounts{
			Critical: int(rec.CriticalCount),
			Medium:   int(rec.MediumCount),
			Low:      int(rec.LowCount),
		},
		Provider:     rec.Provider,
		Model:        rec.Model,
		ProcessingMS: rec.ProcessingMS,
		CreatedAt:    rec.CreatedAt,
	}
	if rec.Score != nil {
		final.Score = int(*rec.Score)
	}

	if rec.PreAnalysisJSON != "" {
		err := json.Unmarshal([]byte(rec.PreAnalysisJSON), &final.Pre)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to unmarshal pre-analysis: %w", err,
			)
		}
	}
	if rec.IssuesJSON != "" {
		err := json.Unmarshal([]byte(rec.IssuesJSON), &final.Issues)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to unmarshal issues: %w", err,
			)
		}
	}
	if rec.TransitionsJSON != "" {
		err := json.Unmarshal(
			[]byte(rec.TransitionsJSON), &final.Transitions,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to unmarshal transitions: %w", err,
			)
		}
	}
	if rec.AIReviewJSON != "" {
		var ai llm.AIReview
		err := json.Unmarshal([]byte(rec.AIReviewJSON), &ai)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to unmarshal ai review: %w", err,
			)
		}
		final.AI = &ai
	}
	if rec.DegradedJSON != "" {
		err := json.Unmarshal(
			[]byte(rec.DegradedJSON), &final.Degraded,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to unmarshal degraded markers: %w", err,
			)
		}
	}

	return final, nil
}

// summaryFromRecord projects a persisted row onto the listing view.
func summaryFromRecord(rec store.Review) Summary {
	return Summary{
		ID:       rec.ID,
		FileName: rec.FileName,
		Language: rec.Language,
		Size:     rec.Size,
		Mode:     Mode(rec.Mode),
		State:    State(rec.State),
		Score:    rec.Score,
		Counts: SeverityCounts{
			Critical: int(rec.CriticalCount),
			Medium:   int(rec.MediumCount),
			Low:      int(rec.LowCount),
		},
		Provider:     rec.Provider,
		Model:        rec.Model,
		ProcessingMS: rec.ProcessingMS,
		CreatedAt:    rec.CreatedAt,
	}
}
