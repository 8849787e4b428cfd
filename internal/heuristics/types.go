package heuristics

import "course-backend/internal/markdown"

// Filter names used in failure records so callers can branch on them.
const (
	FilterWordCount   = "wordCount"
	FilterReadability = "readability"
	FilterKeywords    = "keywordCoverage"
	FilterSections    = "sectionHeaders"
	FilterDensity     = "contentDensity"
	FilterMarkdown    = "markdownStructure"
	FilterExamples    = "Examples"
	FilterExercises   = "Exercises"
)

// Severity tags a filter failure. Critical failures fail the whole gate.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Config controls thresholds and weights for the heuristic filters. The zero
// value is not usable; start from DefaultConfig.
type Config struct {
	MinWordCount       int
	MinWordsPerSection int
	MinKeywordCoverage float64
	MinGradeLevel      float64
	MaxGradeLevel      float64
	RequiredSections   []string

	// Composite score weights. MarkdownWeight is tunable rather than
	// load-bearing; the rest should sum with it to 1.0.
	WordCountWeight   float64
	ReadabilityWeight float64
	KeywordWeight     float64
	SectionWeight     float64
	DensityWeight     float64
	MarkdownWeight    float64
	PresenceWeight    float64
}

// DefaultConfig returns the standard thresholds for lesson content.
func DefaultConfig() Config {
	return Config{
		MinWordCount:       300,
		MinWordsPerSection: 50,
		MinKeywordCoverage: 0.3,
		MinGradeLevel:      4.0,
		MaxGradeLevel:      16.0,
		RequiredSections:   []string{"introduction", "conclusion"},

		WordCountWeight:   0.20,
		ReadabilityWeight: 0.10,
		KeywordWeight:     0.20,
		SectionWeight:     0.10,
		DensityWeight:     0.10,
		MarkdownWeight:    0.25,
		PresenceWeight:    0.05,
	}
}

// StructureMetrics summarizes the markdown validation pass.
type StructureMetrics struct {
	Score          float64  `json:"score"`
	TotalIssues    int      `json:"totalIssues"`
	CriticalIssues int      `json:"criticalIssues"`
	MajorIssues    int      `json:"majorIssues"`
	MinorIssues    int      `json:"minorIssues"`
	AutoFixedRules []string `json:"autoFixedRules"`
}

// Metrics are the measured values behind a filter result.
type Metrics struct {
	WordCount          int              `json:"wordCount"`
	FleschKincaidGrade float64          `json:"fleschKincaidGrade"`
	KeywordCoverage    float64          `json:"keywordCoverage"`
	FoundSections      []string         `json:"foundSections"`
	ExamplesCount      int              `json:"examplesCount"`
	ExercisesCount     int              `json:"exercisesCount"`
	MarkdownStructure  StructureMetrics `json:"markdownStructure"`
}

// Failure records one failing filter with human-readable expectations.
type Failure struct {
	Filter   string   `json:"filter"`
	Severity Severity `json:"severity"`
	Expected string   `json:"expected"`
	Actual   string   `json:"actual"`
}

// Result is the outcome of the heuristic gate. It is recomputed per
// evaluation and never persisted on its own.
type Result struct {
	Passed      bool      `json:"passed"`
	Score       float64   `json:"score"`
	Metrics     Metrics   `json:"metrics"`
	Failures    []Failure `json:"failures"`
	Suggestions []string  `json:"suggestions"`
	DurationMs  int64     `json:"durationMs"`
}

func structureMetrics(report markdown.Report) StructureMetrics {
	fixed := report.AutoFixedRules
	if fixed == nil {
		fixed = []string{}
	}
	return StructureMetrics{
		Score:          report.Score,
		TotalIssues:    report.TotalIssues,
		CriticalIssues: report.CriticalIssues,
		MajorIssues:    report.MajorIssues,
		MinorIssues:    report.MinorIssues,
		AutoFixedRules: fixed,
	}
}
