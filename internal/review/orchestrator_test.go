package review

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/llm"
)

// secretSource trips exactly one pre-analysis rule: a critical hardcoded
// credential on line 1.
const secretSource = `password = "super-secret-pw"` + "\n"

// stubReviewer is an llm.Reviewer returning a canned review or error.
type stubReviewer struct {
	review llm.AIReview
	err    error

	mu         sync.Mutex
	calls      int
	gotContext string
}

func (s *stubReviewer) Review(_ context.Context, _ analysis.SourceUnit,
	contextText string) (llm.AIReview, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.gotContext = contextText

	if s.err != nil {
		return llm.AIReview{}, s.err
	}

	review := s.review
	review.Provider = s.Name()
	review.Model = s.Model()
	return review, nil
}

func (s *stubReviewer) Name() string  { return "stub" }
func (s *stubReviewer) Model() string { return "stub-model" }

// stateCapture records every state the orchestrator reports.
type stateCapture struct {
	mu     sync.Mutex
	states []State
}

func (c *stateCapture) RecordState(_ context.Context, _ string,
	state State) error {

	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, state)
	return nil
}

func pyUnit(text string) analysis.SourceUnit {
	return analysis.NewSourceUnit("app.py", analysis.LangPython, text)
}

// TestOrchestratorQuickPath verifies the quick path: pre-analysis scoring
// with no AI involvement.
func TestOrchestratorQuickPath(t *testing.T) {
	capture := &stateCapture{}
	orch := NewOrchestrator(config.Default(), nil, capture)

	final, err := orch.Run(
		context.Background(), "", pyUnit(secretSource), ModeQuick,
	)
	require.NoError(t, err)

	require.Equal(t, StateDone, final.State)
	require.Equal(t, ModeQuick, final.Mode)
	require.NotEmpty(t, final.ID)
	require.Nil(t, final.AI)

	// One critical issue: 100 - 15 = 85.
	require.Equal(t, 85, final.Score)
	require.Len(t, final.Issues, 1)
	require.Equal(t, analysis.CategorySecret, final.Issues[0].Category)

	require.Equal(t, []State{
		StatePreAnalyzed, StateMerged, StateDone,
	}, capture.states)
	require.Len(t, final.Transitions, 3)
}

// TestOrchestratorFullPath verifies the complete pipeline with a
// cooperative reviewer: false positives removed, new findings merged in.
func TestOrchestratorFullPath(t *testing.T) {
	reviewer := &stubReviewer{
		review: llm.AIReview{
			FalsePositives: []llm.IssueRef{{
				Category: string(analysis.CategorySecret),
				Line:     1,
				Message:  "possible hardcoded credential detected",
			}},
			NewFindings: []analysis.Issue{{
				Category: analysis.CategoryLLMFinding,
				Severity: analysis.SeverityMedium,
				Line:     5,
				Message:  "ambiguous variable naming",
				Source:   analysis.SourceAI,
			}},
			Summary: "One real issue.",
			Score:   70,
		},
	}

	capture := &stateCapture{}
	orch := NewOrchestrator(config.Default(), reviewer, capture)

	final, err := orch.Run(
		context.Background(), "test-id", pyUnit(secretSource),
		ModeFull,
	)
	require.NoError(t, err)

	require.Equal(t, "test-id", final.ID)
	require.Equal(t, StateDone, final.State)
	require.NotNil(t, final.AI)
	require.Equal(t, "stub", final.Provider)
	require.Equal(t, "stub-model", final.Model)

	// The secret was judged a false positive and the medium finding
	// appended: 100 - 5 = 95.
	require.Equal(t, 95, final.Score)
	require.Len(t, final.Issues, 1)
	require.Equal(t, analysis.SourceAI, final.Issues[0].Source)

	require.Equal(t, []State{
		StatePreAnalyzed, StateContextBuilt, StateAIReviewed,
		StateMerged, StateDone,
	}, capture.states)

	// The reviewer saw the rendered analysis context.
	require.Contains(t, reviewer.gotContext, "CODE ANALYSIS CONTEXT")
}

// TestOrchestratorMalformedResponseDegrades verifies an unusable AI
// response falls back to quick-path scoring instead of failing.
func TestOrchestratorMalformedResponseDegrades(t *testing.T) {
	reviewer := &stubReviewer{err: llm.ErrMalformedResponse}
	orch := NewOrchestrator(config.Default(), reviewer, nil)

	final, err := orch.Run(
		context.Background(), "", pyUnit(secretSource), ModeFull,
	)
	require.NoError(t, err)

	require.Equal(t, StateDone, final.State)
	require.Nil(t, final.AI)
	require.Contains(t, final.Degraded, "ai_skipped")
	require.Equal(t, 85, final.Score)
	require.Equal(t, 1, reviewer.calls)
}

// TestOrchestratorTransportFailureFails verifies a provider that cannot be
// reached fails the full-path review.
func TestOrchestratorTransportFailureFails(t *testing.T) {
	reviewer := &stubReviewer{err: llm.ErrUnavailable}
	capture := &stateCapture{}
	orch := NewOrchestrator(config.Default(), reviewer, capture)

	_, err := orch.Run(
		context.Background(), "", pyUnit(secretSource), ModeFull,
	)
	require.ErrorIs(t, err, ErrAIUnavailable)

	require.Equal(t, StateFailed,
		capture.states[len(capture.states)-1])
}

// TestOrchestratorNoProviderFullPath verifies full-path requests without a
// configured reviewer degrade to quick scoring with the skip marker.
func TestOrchestratorNoProviderFullPath(t *testing.T) {
	orch := NewOrchestrator(config.Default(), nil, nil)

	final, err := orch.Run(
		context.Background(), "", pyUnit(secretSource), ModeFull,
	)
	require.NoError(t, err)
	require.Contains(t, final.Degraded, "ai_skipped")
	require.Equal(t, 85, final.Score)
}

// TestOrchestratorInputValidation verifies submissions the pipeline cannot
// process are rejected up front.
func TestOrchestratorInputValidation(t *testing.T) {
	cfg := config.Default()
	cfg.MaxFileSize = 10
	orch := NewOrchestrator(cfg, nil, nil)
	ctx := context.Background()

	// Empty content.
	_, err := orch.Run(ctx, "", pyUnit(""), ModeQuick)
	require.ErrorIs(t, err, ErrInputInvalid)

	// Oversized file.
	_, err = orch.Run(
		ctx, "", pyUnit("x = 1\ny = 2\nz = 3\n"), ModeQuick,
	)
	require.ErrorIs(t, err, ErrInputInvalid)

	// Unsupported language.
	unit := analysis.NewSourceUnit("file.xyz", "", "body")
	_, err = orch.Run(ctx, "", unit, ModeQuick)
	require.ErrorIs(t, err, ErrInputInvalid)
}
