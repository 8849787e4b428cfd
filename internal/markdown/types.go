package markdown

// Severity classifies a structure issue. The taxonomy is fixed: rules carry
// their severity, callers cannot reconfigure it per call.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Rule identifiers for structure checks.
const (
	RuleHeadingSkip        = "heading-hierarchy-skip"
	RuleMultipleH1         = "multiple-top-level-headings"
	RuleImageMissingAlt    = "image-missing-alt-text"
	RuleCodeBlockNoLang    = "code-block-missing-language"
	RuleTrailingWhitespace = "trailing-whitespace"
	RuleRepeatedBlankLines = "repeated-blank-lines"
	RuleListMarkerStyle    = "inconsistent-list-markers"
)

// Issue is one unresolved structure problem found in a document.
type Issue struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
}

// Report summarizes a structure validation pass.
type Report struct {
	Score          float64  `json:"score"`
	TotalIssues    int      `json:"totalIssues"`
	CriticalIssues int      `json:"criticalIssues"`
	MajorIssues    int      `json:"majorIssues"`
	MinorIssues    int      `json:"minorIssues"`
	AutoFixedRules []string `json:"autoFixedRules"`
	Issues         []Issue  `json:"issues"`
	FixedContent   string   `json:"-"`
}

// Penalty weights applied per unresolved issue. Minor issues are normally
// auto-fixed before scoring, so the minor weight rarely applies.
const (
	penaltyCritical = 0.30
	penaltyMajor    = 0.10
	penaltyMinor    = 0.02
)
