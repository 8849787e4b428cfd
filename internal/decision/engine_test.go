package decision

import (
	"reflect"
	"strings"
	"testing"

	"course-backend/internal/judge"
	"course-backend/internal/lessons"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultThresholds())
}

func minorIssue() judge.Issue {
	return judge.Issue{
		Criterion:   judge.CriterionClarityReadability,
		Severity:    judge.SeverityMinor,
		Location:    "Light Reactions",
		Description: "Second paragraph is hard to follow.",
	}
}

func criticalIssue() judge.Issue {
	return judge.Issue{
		Criterion:   judge.CriterionFactualAccuracy,
		Severity:    judge.SeverityCritical,
		Location:    "Conclusion",
		Description: "States that oxygen is consumed rather than produced.",
	}
}

func TestAcceptAboveThreshold(t *testing.T) {
	result, err := newTestEngine().MakeDecision(Context{
		Score:          0.92,
		Confidence:     judge.ConfidenceHigh,
		Issues:         nil,
		IterationCount: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionAccept {
		t.Fatalf("expected accept, got %s", result.Action)
	}
	if result.MaxIterations != 0 {
		t.Fatalf("accept must carry maxIterations 0, got %d", result.MaxIterations)
	}
	if !strings.Contains(result.Reason, "meets acceptance threshold") {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
}

func TestAcceptBoundaryInclusive(t *testing.T) {
	result, err := newTestEngine().MakeDecision(Context{Score: 0.90, Confidence: judge.ConfidenceHigh})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionAccept {
		t.Fatalf("score exactly 0.90 must accept, got %s", result.Action)
	}
}

func TestTargetedFixForLocalizedIssues(t *testing.T) {
	result, err := newTestEngine().MakeDecision(Context{
		Score:                     0.82,
		Confidence:                judge.ConfidenceHigh,
		Issues:                    []judge.Issue{minorIssue()},
		IterationCount:            0,
		ContentAffectedPercentage: 15,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionTargetedFix {
		t.Fatalf("expected targeted fix, got %s", result.Action)
	}
	if result.MaxIterations != 1 {
		t.Fatalf("expected maxIterations 1, got %d", result.MaxIterations)
	}
	if result.TargetScore != 0.90 {
		t.Fatalf("expected target score 0.90, got %.2f", result.TargetScore)
	}
}

func TestIterativeRefinementForWidespreadIssues(t *testing.T) {
	result, err := newTestEngine().MakeDecision(Context{
		Score:                     0.82,
		Confidence:                judge.ConfidenceHigh,
		Issues:                    []judge.Issue{minorIssue(), criticalIssue()},
		ContentAffectedPercentage: 55,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionIterativeRefinement {
		t.Fatalf("expected iterative refinement, got %s", result.Action)
	}
	if result.MaxIterations != 2 {
		t.Fatalf("expected maxIterations 2, got %d", result.MaxIterations)
	}
}

func TestTargetedFixBoundaryNotRegenerate(t *testing.T) {
	result, err := newTestEngine().MakeDecision(Context{
		Score:                     0.75,
		Confidence:                judge.ConfidenceHigh,
		ContentAffectedPercentage: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action == ActionRegenerate {
		t.Fatal("score exactly 0.75 must not regenerate")
	}
	if result.Action != ActionTargetedFix {
		t.Fatalf("expected targeted fix at the band's lower bound, got %s", result.Action)
	}
}

func TestRegenerateOnLowScore(t *testing.T) {
	result, err := newTestEngine().MakeDecision(Context{
		Score:                     0.45,
		Confidence:                judge.ConfidenceHigh,
		Issues:                    []judge.Issue{criticalIssue()},
		ContentAffectedPercentage: 80,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionRegenerate {
		t.Fatalf("expected regenerate, got %s", result.Action)
	}
	if !strings.Contains(result.FeedbackForRegeneration, "Key Issues") {
		t.Fatalf("expected regeneration feedback with key issues, got %q", result.FeedbackForRegeneration)
	}
}

func TestLowConfidenceEscalates(t *testing.T) {
	// Low confidence wins even over an accept-worthy score.
	result, err := newTestEngine().MakeDecision(Context{Score: 0.95, Confidence: judge.ConfidenceLow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionEscalateToHuman {
		t.Fatalf("expected escalation, got %s", result.Action)
	}
}

func TestIterationCapDiminishingReturnsAccepts(t *testing.T) {
	result, err := newTestEngine().MakeDecision(Context{
		Score:          0.77,
		Confidence:     judge.ConfidenceHigh,
		IterationCount: 2,
		PreviousScores: []float64{0.73, 0.75},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionAccept {
		t.Fatalf("expected best-effort accept, got %s", result.Action)
	}
	if !strings.Contains(result.Reason, "diminishing returns") {
		t.Fatalf("expected diminishing returns reason, got %q", result.Reason)
	}
}

func TestIterationCapStillImprovingRegenerates(t *testing.T) {
	result, err := newTestEngine().MakeDecision(Context{
		Score:          0.70,
		Confidence:     judge.ConfidenceHigh,
		IterationCount: 2,
		PreviousScores: []float64{0.50, 0.62},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionRegenerate {
		t.Fatalf("expected regenerate when still improving but capped, got %s", result.Action)
	}
	if !strings.Contains(result.Reason, "still below target") {
		t.Fatalf("expected still-below-target reason, got %q", result.Reason)
	}
}

func TestMakeDecisionDeterministic(t *testing.T) {
	ctx := Context{
		Score:                     0.82,
		Confidence:                judge.ConfidenceHigh,
		Issues:                    []judge.Issue{minorIssue()},
		IterationCount:            1,
		PreviousScores:            []float64{0.78},
		ContentAffectedPercentage: 20,
	}
	first, err := newTestEngine().MakeDecision(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := newTestEngine().MakeDecision(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical decisions:\n%+v\n%+v", first, second)
	}
}

func TestMakeDecisionRejectsMalformedContext(t *testing.T) {
	cases := []struct {
		name string
		ctx  Context
	}{
		{"score_above_one", Context{Score: 1.2, Confidence: judge.ConfidenceHigh}},
		{"score_negative", Context{Score: -0.1, Confidence: judge.ConfidenceHigh}},
		{"bad_confidence", Context{Score: 0.8, Confidence: "certain"}},
		{"negative_iterations", Context{Score: 0.8, Confidence: judge.ConfidenceHigh, IterationCount: -1}},
		{"affected_above_100", Context{Score: 0.8, Confidence: judge.ConfidenceHigh, ContentAffectedPercentage: 140}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := newTestEngine().MakeDecision(tc.ctx); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestMakeDecisionFromVerdict(t *testing.T) {
	verdict := judge.Verdict{
		OverallScore: 0.82,
		Passed:       false,
		Confidence:   judge.ConfidenceHigh,
		Issues:       []judge.Issue{minorIssue()},
	}
	content := lessons.ContentBody{
		Sections: []lessons.Section{
			{Title: "Introduction"}, {Title: "Light Reactions"}, {Title: "Conclusion"},
			{Title: "Dark Reactions"}, {Title: "Summary"},
		},
	}
	result, err := newTestEngine().MakeDecisionFromVerdict(verdict, content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// one distinct location over five sections: localized
	if result.Action != ActionTargetedFix {
		t.Fatalf("expected targeted fix, got %s (%s)", result.Action, result.Reason)
	}
}

func TestContentAffectedPercentageBounds(t *testing.T) {
	if got := ContentAffectedPercentage(nil, 5); got != 0 {
		t.Fatalf("no issues should report 0, got %.2f", got)
	}

	issues := []judge.Issue{minorIssue()}
	got := ContentAffectedPercentage(issues, 200)
	if got <= 0 || got >= 100 {
		t.Fatalf("expected value strictly inside (0,100), got %.2f", got)
	}

	everywhere := []judge.Issue{minorIssue(), criticalIssue(), {Location: "Intro"}}
	got = ContentAffectedPercentage(everywhere, 1)
	if got <= 0 || got >= 100 {
		t.Fatalf("expected value strictly inside (0,100), got %.2f", got)
	}
}

func TestBuildRegenerationFeedbackStructure(t *testing.T) {
	feedback := BuildRegenerationFeedback([]judge.Issue{minorIssue(), criticalIssue()}, 0.45)

	if !strings.Contains(feedback, "45%") {
		t.Fatalf("expected previous score percentage, got %q", feedback)
	}
	if !strings.Contains(feedback, "Key Issues to Address") {
		t.Fatal("expected key issues header")
	}
	if !strings.Contains(feedback, strings.ToUpper(judge.CriterionFactualAccuracy)) {
		t.Fatal("expected uppercased criterion grouping")
	}
	if !strings.Contains(feedback, "Regeneration Guidelines") {
		t.Fatal("expected guidelines section")
	}
}
