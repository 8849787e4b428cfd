package decision

import "course-backend/internal/judge"

// Action is the next step for a judged lesson draft.
type Action string

const (
	ActionAccept              Action = "accept"
	ActionTargetedFix         Action = "targeted_fix"
	ActionIterativeRefinement Action = "iterative_refinement"
	ActionRegenerate          Action = "regenerate"
	ActionEscalateToHuman     Action = "escalate_to_human"
)

// Context is the accumulated refinement state for one lesson. It is owned by
// the caller, passed by value, and never mutated here.
type Context struct {
	Score                     float64          `json:"score"`
	Confidence                judge.Confidence `json:"confidence"`
	Issues                    []judge.Issue    `json:"issues"`
	IterationCount            int              `json:"iterationCount"`
	PreviousScores            []float64        `json:"previousScores"`
	ContentAffectedPercentage float64          `json:"contentAffectedPercentage"`
}

// Result is the terminal output of one decision cycle.
type Result struct {
	Action                  Action  `json:"action"`
	Reason                  string  `json:"reason"`
	MaxIterations           int     `json:"maxIterations"`
	TargetScore             float64 `json:"targetScore,omitempty"`
	FeedbackForRegeneration string  `json:"feedbackForRegeneration,omitempty"`
}

// Thresholds centralizes the score bands and iteration caps. Shared read-only
// across invocations; never mutated at runtime.
type Thresholds struct {
	// Accept is the score at or above which content is accepted outright.
	Accept float64
	// TargetedFix is the lower bound of the fix/refine band.
	TargetedFix float64
	// Regenerate is the score below which content is regenerated from scratch.
	Regenerate float64
	// MaxIterations caps refinement rounds for one lesson.
	MaxIterations int
	// AffectedSplit divides targeted fixes from full refinement, in percent.
	AffectedSplit float64
	// DiminishingEpsilon is the score delta under which further iteration is
	// considered not worth its cost.
	DiminishingEpsilon float64
}

// DefaultThresholds returns the standard decision thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Accept:             0.90,
		TargetedFix:        0.75,
		Regenerate:         0.60,
		MaxIterations:      2,
		AffectedSplit:      30,
		DiminishingEpsilon: 0.03,
	}
}
