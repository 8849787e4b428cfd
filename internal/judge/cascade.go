package judge

import (
	"context"
	"fmt"
	"sort"

	"course-backend/internal/heuristics"
	"course-backend/internal/lessons"
)

// CascadeResult merges heuristic metrics with the judge outcome into the
// shape the decision engine consumes.
type CascadeResult struct {
	Passed          bool              `json:"passed"`
	WordCount       int               `json:"wordCount"`
	FleschKincaid   float64           `json:"fleschKincaid"`
	KeywordCoverage float64           `json:"keywordCoverage"`
	ExamplesCount   int               `json:"examplesCount"`
	ExercisesCount  int               `json:"exercisesCount"`
	FailureReasons  []string          `json:"failureReasons"`
	Heuristics      heuristics.Result `json:"heuristics"`
	// Verdict is nil when heuristics short-circuited the judge call.
	Verdict    *Verdict `json:"verdict,omitempty"`
	JudgeCalls int      `json:"judgeCalls"`
}

// Cascade runs cheap heuristics first and spends judge calls only when the
// cheap path is ambiguous: one call normally, extra panel votes when the
// single verdict's confidence is not high.
type Cascade struct {
	Judge        Client
	Panel        []Client
	HeuristicCfg heuristics.Config
}

// NewCascade builds a cascade with the default heuristic thresholds.
func NewCascade(primary Client, panel ...Client) *Cascade {
	return &Cascade{
		Judge:        primary,
		Panel:        panel,
		HeuristicCfg: heuristics.DefaultConfig(),
	}
}

// Evaluate gates on heuristics, then judges. Hard heuristic failures return
// a rejection without any model call.
func (c *Cascade) Evaluate(ctx context.Context, spec lessons.Specification, body lessons.ContentBody) (CascadeResult, error) {
	if err := lessons.ValidateSpecification(&spec); err != nil {
		return CascadeResult{}, err
	}

	heur := heuristics.Run(body, spec, c.HeuristicCfg)
	result := CascadeResult{
		Passed:          heur.Passed,
		WordCount:       heur.Metrics.WordCount,
		FleschKincaid:   heur.Metrics.FleschKincaidGrade,
		KeywordCoverage: heur.Metrics.KeywordCoverage,
		ExamplesCount:   heur.Metrics.ExamplesCount,
		ExercisesCount:  heur.Metrics.ExercisesCount,
		FailureReasons:  failureReasons(heur),
		Heuristics:      heur,
	}

	if !heur.Passed {
		// Hard gate: no judge call for content that already failed cheap checks.
		return result, nil
	}
	if c.Judge == nil {
		return result, nil
	}

	input := EvaluateInput{
		Spec:             spec,
		Content:          body,
		HeuristicSummary: summarize(heur),
	}
	verdict, err := c.Judge.EvaluateLesson(ctx, input)
	if err != nil {
		return result, fmt.Errorf("judge evaluate: %w", err)
	}
	verdict.Clamp()
	result.JudgeCalls = 1

	if verdict.Confidence != ConfidenceHigh && len(c.Panel) > 0 {
		verdicts := []Verdict{verdict}
		for _, member := range c.Panel {
			extra, err := member.EvaluateLesson(ctx, input)
			if err != nil {
				return result, fmt.Errorf("panel judge evaluate: %w", err)
			}
			extra.Clamp()
			verdicts = append(verdicts, extra)
			result.JudgeCalls++
		}
		verdict = voteVerdict(verdicts)
	}

	result.Verdict = &verdict
	result.Passed = verdict.Passed
	if !verdict.Passed {
		result.FailureReasons = append(result.FailureReasons, fmt.Sprintf("judge score %.2f below passing bar", verdict.OverallScore))
	}
	return result, nil
}

// voteVerdict aggregates panel verdicts: the verdict with the median overall
// score carries the itemized findings, pass is decided by majority, and
// confidence reflects how much the panel agreed.
func voteVerdict(verdicts []Verdict) Verdict {
	sorted := append([]Verdict(nil), verdicts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OverallScore < sorted[j].OverallScore })
	median := sorted[len(sorted)/2]

	passVotes := 0
	tokens := 0
	var duration int64
	for _, v := range verdicts {
		if v.Passed {
			passVotes++
		}
		tokens += v.TokensUsed
		duration += v.DurationMs
	}
	median.Passed = passVotes*2 > len(verdicts)

	spread := sorted[len(sorted)-1].OverallScore - sorted[0].OverallScore
	switch {
	case spread <= 0.1:
		median.Confidence = ConfidenceHigh
	case spread <= 0.25:
		median.Confidence = ConfidenceMedium
	default:
		median.Confidence = ConfidenceLow
	}
	median.TokensUsed = tokens
	median.DurationMs = duration
	return median
}

func failureReasons(heur heuristics.Result) []string {
	reasons := []string{}
	for _, f := range heur.Failures {
		reasons = append(reasons, fmt.Sprintf("%s: expected %s, got %s", f.Filter, f.Expected, f.Actual))
	}
	return reasons
}

func summarize(heur heuristics.Result) string {
	return fmt.Sprintf(
		"heuristic score %.2f; %d words; grade level %.1f; keyword coverage %.0f%%; markdown score %.2f",
		heur.Score,
		heur.Metrics.WordCount,
		heur.Metrics.FleschKincaidGrade,
		heur.Metrics.KeywordCoverage*100,
		heur.Metrics.MarkdownStructure.Score,
	)
}
