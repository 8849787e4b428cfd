package judge

// Confidence expresses how much a verdict should be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Severity classifies a judge-reported issue.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Recommendation is the judge's own suggested next step. The decision engine
// is the authority; this is advisory input.
type Recommendation string

const (
	RecommendAccept     Recommendation = "accept"
	RecommendRevise     Recommendation = "revise"
	RecommendRegenerate Recommendation = "regenerate"
	RecommendEscalate   Recommendation = "escalate"
)

// Criterion names for scored quality dimensions.
const (
	CriterionObjectiveAlignment   = "learning_objective_alignment"
	CriterionPedagogicalStructure = "pedagogical_structure"
	CriterionFactualAccuracy      = "factual_accuracy"
	CriterionClarityReadability   = "clarity_readability"
	CriterionEngagementExamples   = "engagement_examples"
	CriterionCompleteness         = "completeness"
)

// CriteriaScores holds the per-dimension scores, each in [0,1].
type CriteriaScores struct {
	ObjectiveAlignment   float64 `json:"learning_objective_alignment"`
	PedagogicalStructure float64 `json:"pedagogical_structure"`
	FactualAccuracy      float64 `json:"factual_accuracy"`
	ClarityReadability   float64 `json:"clarity_readability"`
	EngagementExamples   float64 `json:"engagement_examples"`
	Completeness         float64 `json:"completeness"`
}

// Issue is one itemized problem a judge found.
type Issue struct {
	Criterion    string   `json:"criterion"`
	Severity     Severity `json:"severity"`
	Location     string   `json:"location"`
	Description  string   `json:"description"`
	SuggestedFix string   `json:"suggestedFix,omitempty"`
}

// Verdict is one model judge's evaluation of a content draft. Immutable once
// created.
type Verdict struct {
	OverallScore   float64        `json:"overallScore"`
	Passed         bool           `json:"passed"`
	Confidence     Confidence     `json:"confidence"`
	CriteriaScores CriteriaScores `json:"criteriaScores"`
	Issues         []Issue        `json:"issues"`
	Strengths      []string       `json:"strengths"`
	Recommendation Recommendation `json:"recommendation"`
	JudgeModel     string         `json:"judgeModel"`
	Temperature    float64        `json:"temperature"`
	TokensUsed     int            `json:"tokensUsed"`
	DurationMs     int64          `json:"durationMs"`
}

// Clamp forces every score into [0,1]. Judge backends occasionally emit
// slightly out-of-range values; scores are clamped rather than rejected.
func (v *Verdict) Clamp() {
	v.OverallScore = clamp01(v.OverallScore)
	v.CriteriaScores.ObjectiveAlignment = clamp01(v.CriteriaScores.ObjectiveAlignment)
	v.CriteriaScores.PedagogicalStructure = clamp01(v.CriteriaScores.PedagogicalStructure)
	v.CriteriaScores.FactualAccuracy = clamp01(v.CriteriaScores.FactualAccuracy)
	v.CriteriaScores.ClarityReadability = clamp01(v.CriteriaScores.ClarityReadability)
	v.CriteriaScores.EngagementExamples = clamp01(v.CriteriaScores.EngagementExamples)
	v.CriteriaScores.Completeness = clamp01(v.CriteriaScores.Completeness)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
