package decision

import (
	"fmt"
	"strings"

	"course-backend/internal/judge"
	"course-backend/internal/lessons"
)

// Engine maps a judge verdict plus iteration history to the next action.
// Pure and deterministic: identical context always yields an identical
// result.
type Engine struct {
	cfg Thresholds
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(cfg Thresholds) *Engine {
	return &Engine{cfg: cfg}
}

// MakeDecision applies the decision rules in order. Malformed context is a
// caller bug and fails fast instead of being coerced.
func (e *Engine) MakeDecision(ctx Context) (Result, error) {
	if err := validateContext(ctx, e.cfg); err != nil {
		return Result{}, err
	}

	if ctx.Confidence == judge.ConfidenceLow {
		return Result{
			Action: ActionEscalateToHuman,
			Reason: "low confidence judgment is not trustworthy enough to automate; routing to human review",
		}, nil
	}

	if ctx.Score >= e.cfg.Accept {
		return Result{
			Action:        ActionAccept,
			Reason:        fmt.Sprintf("score %.2f meets acceptance threshold %.2f", ctx.Score, e.cfg.Accept),
			MaxIterations: 0,
		}, nil
	}

	if ctx.IterationCount >= e.cfg.MaxIterations {
		if diminishingReturns(ctx.Score, ctx.PreviousScores, e.cfg.DiminishingEpsilon) {
			return Result{
				Action:        ActionAccept,
				Reason:        fmt.Sprintf("accepting after %d iterations: diminishing returns, recent improvement below %.2f", ctx.IterationCount, e.cfg.DiminishingEpsilon),
				MaxIterations: 0,
			}, nil
		}
		return Result{
			Action:                  ActionRegenerate,
			Reason:                  fmt.Sprintf("iteration budget of %d exhausted and score %.2f still below target %.2f", e.cfg.MaxIterations, ctx.Score, e.cfg.Accept),
			MaxIterations:           e.cfg.MaxIterations,
			FeedbackForRegeneration: BuildRegenerationFeedback(ctx.Issues, ctx.Score),
		}, nil
	}

	if ctx.Score >= e.cfg.TargetedFix {
		if ctx.ContentAffectedPercentage < e.cfg.AffectedSplit {
			return Result{
				Action:        ActionTargetedFix,
				Reason:        fmt.Sprintf("issues touch %.0f%% of content; a single targeted fix should reach %.2f", ctx.ContentAffectedPercentage, e.cfg.Accept),
				MaxIterations: 1,
				TargetScore:   e.cfg.Accept,
			}, nil
		}
		return Result{
			Action:        ActionIterativeRefinement,
			Reason:        fmt.Sprintf("issues touch %.0f%% of content; multi-pass refinement required", ctx.ContentAffectedPercentage),
			MaxIterations: e.cfg.MaxIterations,
			TargetScore:   e.cfg.Accept,
		}, nil
	}

	if ctx.Score < e.cfg.Regenerate {
		return Result{
			Action:                  ActionRegenerate,
			Reason:                  fmt.Sprintf("score %.2f below regeneration threshold %.2f; not salvageable incrementally", ctx.Score, e.cfg.Regenerate),
			MaxIterations:           e.cfg.MaxIterations,
			FeedbackForRegeneration: BuildRegenerationFeedback(ctx.Issues, ctx.Score),
		}, nil
	}

	// Between the regenerate and targeted-fix thresholds the content is weak
	// but coherent enough to rework in place.
	return Result{
		Action:        ActionIterativeRefinement,
		Reason:        fmt.Sprintf("score %.2f is below the targeted-fix band; multi-pass refinement required", ctx.Score),
		MaxIterations: e.cfg.MaxIterations,
		TargetScore:   e.cfg.Accept,
	}, nil
}

// MakeDecisionFromVerdict derives a fresh context from a verdict (zero prior
// iterations) and delegates to MakeDecision.
func (e *Engine) MakeDecisionFromVerdict(verdict judge.Verdict, content lessons.ContentBody) (Result, error) {
	return e.MakeDecision(Context{
		Score:                     verdict.OverallScore,
		Confidence:                verdict.Confidence,
		Issues:                    verdict.Issues,
		IterationCount:            0,
		PreviousScores:            nil,
		ContentAffectedPercentage: ContentAffectedPercentage(verdict.Issues, len(content.Sections)),
	})
}

// diminishingReturns reports whether the last one or two score deltas are
// below epsilon, meaning further iteration is unlikely to pay off.
func diminishingReturns(score float64, previous []float64, epsilon float64) bool {
	if len(previous) == 0 {
		return false
	}
	lastDelta := score - previous[len(previous)-1]
	if lastDelta >= epsilon {
		return false
	}
	if len(previous) >= 2 && previous[len(previous)-1]-previous[len(previous)-2] >= epsilon {
		// one slow round right after a productive one is not yet a plateau
		return false
	}
	return true
}

// ContentAffectedPercentage estimates how much of the lesson the issues
// touch, from the distinct locations referenced relative to total sections.
// Returns a value strictly inside (0,100) whenever issues exist.
func ContentAffectedPercentage(issues []judge.Issue, totalSectionCount int) float64 {
	if len(issues) == 0 {
		return 0
	}
	if totalSectionCount < 1 {
		totalSectionCount = 1
	}
	locations := make(map[string]bool)
	for _, issue := range issues {
		loc := strings.ToLower(strings.TrimSpace(issue.Location))
		if loc == "" {
			loc = "general"
		}
		locations[loc] = true
	}
	pct := float64(len(locations)) / float64(totalSectionCount) * 100
	if pct < 1 {
		pct = 1
	}
	if pct > 99 {
		pct = 99
	}
	return pct
}

func validateContext(ctx Context, cfg Thresholds) error {
	if ctx.Score < 0 || ctx.Score > 1 {
		return fmt.Errorf("decision context score %.4f out of range [0,1]", ctx.Score)
	}
	switch ctx.Confidence {
	case judge.ConfidenceLow, judge.ConfidenceMedium, judge.ConfidenceHigh:
	default:
		return fmt.Errorf("decision context has invalid confidence %q", ctx.Confidence)
	}
	if ctx.IterationCount < 0 {
		return fmt.Errorf("decision context iteration count %d is negative", ctx.IterationCount)
	}
	if ctx.ContentAffectedPercentage < 0 || ctx.ContentAffectedPercentage > 100 {
		return fmt.Errorf("decision context affected percentage %.2f out of range [0,100]", ctx.ContentAffectedPercentage)
	}
	if cfg.MaxIterations <= 0 {
		return fmt.Errorf("thresholds max iterations %d must be positive", cfg.MaxIterations)
	}
	return nil
}
