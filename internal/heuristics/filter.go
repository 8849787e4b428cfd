package heuristics

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"course-backend/internal/lessons"
	"course-backend/internal/markdown"
)

var headingLinePattern = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

// Run scores a structured lesson body against its specification. Pure and
// synchronous; degenerate content fails gracefully instead of erroring.
func Run(body lessons.ContentBody, spec lessons.Specification, cfg Config) Result {
	doc := body.Markdown()
	return evaluate(input{
		doc:            doc,
		prose:          body.PlainText(),
		sectionCount:   len(body.Sections),
		sectionWords:   sectionWordCount(body),
		examplesCount:  len(body.Examples),
		exercisesCount: len(body.Exercises),
	}, spec, cfg)
}

// RunText scores a raw markdown document, deriving section, example, and
// exercise counts from its headings. Used by the offline CLI path.
func RunText(doc string, spec lessons.Specification, cfg Config) Result {
	headings := headingTexts(doc)
	examples, exercises := 0, 0
	sections := 0
	sectionWords := countWords(doc)
	for _, h := range headings {
		lower := strings.ToLower(h)
		switch {
		case strings.Contains(lower, "example"):
			examples++
		case strings.Contains(lower, "exercise"):
			exercises++
		default:
			sections++
		}
	}
	return evaluate(input{
		doc:            doc,
		prose:          doc,
		sectionCount:   sections,
		sectionWords:   sectionWords,
		examplesCount:  examples,
		exercisesCount: exercises,
	}, spec, cfg)
}

type input struct {
	doc            string
	prose          string
	sectionCount   int
	sectionWords   int
	examplesCount  int
	exercisesCount int
}

func evaluate(in input, spec lessons.Specification, cfg Config) Result {
	started := time.Now()

	var failures []Failure
	structure := markdown.Validate(in.doc)

	// Word count
	wordCount := countWords(in.prose)
	wordScore := ratioScore(wordCount, cfg.MinWordCount)
	if wordCount < cfg.MinWordCount {
		failures = append(failures, Failure{
			Filter:   FilterWordCount,
			Severity: SeverityCritical,
			Expected: fmt.Sprintf("at least %d words", cfg.MinWordCount),
			Actual:   fmt.Sprintf("%d words", wordCount),
		})
	}

	// Readability band
	grade := fleschKincaidGrade(in.prose)
	readabilityScore := 1.0
	if wordCount > 0 && (grade < cfg.MinGradeLevel || grade > cfg.MaxGradeLevel) {
		dist := cfg.MinGradeLevel - grade
		if grade > cfg.MaxGradeLevel {
			dist = grade - cfg.MaxGradeLevel
		}
		readabilityScore = clamp01(1 - dist/5.0)
		failures = append(failures, Failure{
			Filter:   FilterReadability,
			Severity: SeverityMajor,
			Expected: fmt.Sprintf("grade level between %.1f and %.1f", cfg.MinGradeLevel, cfg.MaxGradeLevel),
			Actual:   fmt.Sprintf("grade level %.1f", grade),
		})
	}

	// Keyword coverage
	keywords := extractKeywords(spec)
	coverage := keywordCoverage(in.prose, keywords)
	keywordScore := clamp01(coverage / 0.6)
	if coverage < cfg.MinKeywordCoverage {
		failures = append(failures, Failure{
			Filter:   FilterKeywords,
			Severity: SeverityMajor,
			Expected: fmt.Sprintf("keyword coverage of at least %.0f%%", cfg.MinKeywordCoverage*100),
			Actual:   fmt.Sprintf("%.0f%% of %d keywords", coverage*100, len(keywords)),
		})
	}

	// Required section headers
	found, missing := matchSections(in.doc, spec, cfg.RequiredSections)
	sectionScore := 1.0
	if total := len(found) + len(missing); total > 0 {
		sectionScore = float64(len(found)) / float64(total)
	}
	if len(missing) > 0 {
		failures = append(failures, Failure{
			Filter:   FilterSections,
			Severity: SeverityMajor,
			Expected: fmt.Sprintf("sections present: %s", strings.Join(append(found, missing...), ", ")),
			Actual:   fmt.Sprintf("missing sections: %s", strings.Join(missing, ", ")),
		})
	}

	// Content density
	densityScore := 1.0
	if in.sectionCount > 0 {
		avg := in.sectionWords / in.sectionCount
		densityScore = ratioScore(avg, cfg.MinWordsPerSection)
		if avg < cfg.MinWordsPerSection {
			failures = append(failures, Failure{
				Filter:   FilterDensity,
				Severity: SeverityMajor,
				Expected: fmt.Sprintf("average of at least %d words per section", cfg.MinWordsPerSection),
				Actual:   fmt.Sprintf("average of %d words across %d sections", avg, in.sectionCount),
			})
		}
	}

	// Markdown structure
	if structure.CriticalIssues > 0 {
		failures = append(failures, Failure{
			Filter:   FilterMarkdown,
			Severity: SeverityCritical,
			Expected: "no critical markdown structure issues",
			Actual:   fmt.Sprintf("%d critical issues (%s)", structure.CriticalIssues, firstIssue(structure)),
		})
	} else if structure.MajorIssues > 0 {
		failures = append(failures, Failure{
			Filter:   FilterMarkdown,
			Severity: SeverityMinor,
			Expected: "no major markdown structure issues",
			Actual:   fmt.Sprintf("%d major issues (%s)", structure.MajorIssues, firstIssue(structure)),
		})
	}

	// Examples / exercises presence
	presenceScore := 0.0
	if in.examplesCount > 0 {
		presenceScore += 0.5
	} else {
		failures = append(failures, Failure{
			Filter:   FilterExamples,
			Severity: SeverityCritical,
			Expected: "at least one worked example",
			Actual:   "no worked examples",
		})
	}
	if in.exercisesCount > 0 {
		presenceScore += 0.5
	} else {
		failures = append(failures, Failure{
			Filter:   FilterExercises,
			Severity: SeverityCritical,
			Expected: "at least one exercise",
			Actual:   "no exercises",
		})
	}

	score := cfg.WordCountWeight*wordScore +
		cfg.ReadabilityWeight*readabilityScore +
		cfg.KeywordWeight*keywordScore +
		cfg.SectionWeight*sectionScore +
		cfg.DensityWeight*densityScore +
		cfg.MarkdownWeight*structure.Score +
		cfg.PresenceWeight*presenceScore

	passed := true
	for _, f := range failures {
		if f.Severity == SeverityCritical {
			passed = false
			break
		}
	}

	return Result{
		Passed: passed,
		Score:  clamp01(score),
		Metrics: Metrics{
			WordCount:          wordCount,
			FleschKincaidGrade: grade,
			KeywordCoverage:    coverage,
			FoundSections:      found,
			ExamplesCount:      in.examplesCount,
			ExercisesCount:     in.exercisesCount,
			MarkdownStructure:  structureMetrics(structure),
		},
		Failures:    failures,
		Suggestions: buildSuggestions(failures),
		DurationMs:  time.Since(started).Milliseconds(),
	}
}

// matchSections checks required labels against document headings. The intro
// label is satisfied by leading prose even without an explicit heading.
func matchSections(doc string, spec lessons.Specification, required []string) (found, missing []string) {
	headings := headingTexts(doc)
	lowerHeadings := make([]string, len(headings))
	for i, h := range headings {
		lowerHeadings[i] = strings.ToLower(h)
	}

	labels := make([]string, 0, len(required)+len(spec.Sections))
	labels = append(labels, required...)
	for _, sec := range spec.Sections {
		labels = append(labels, sec.Title)
	}

	seen := make(map[string]bool)
	found = []string{}
	for _, label := range labels {
		lower := strings.ToLower(strings.TrimSpace(label))
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		matched := false
		for _, h := range lowerHeadings {
			if strings.Contains(h, lower) || strings.Contains(lower, h) {
				matched = true
				break
			}
		}
		if !matched && lower == "introduction" && hasLeadingProse(doc) {
			matched = true
		}
		if matched {
			found = append(found, label)
		} else {
			missing = append(missing, label)
		}
	}
	return found, missing
}

func hasLeadingProse(doc string) bool {
	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return !strings.HasPrefix(trimmed, "#")
	}
	return false
}

func headingTexts(doc string) []string {
	matches := headingLinePattern.FindAllStringSubmatch(doc, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func sectionWordCount(body lessons.ContentBody) int {
	total := 0
	for _, sec := range body.Sections {
		total += countWords(sec.Prose)
	}
	return total
}

func firstIssue(report markdown.Report) string {
	for _, issue := range report.Issues {
		return issue.Rule
	}
	return "none"
}

func ratioScore(value, target int) float64 {
	if target <= 0 {
		return 1
	}
	return clamp01(float64(value) / float64(target))
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

var suggestionByFilter = map[string]string{
	FilterWordCount:   "Expand the lesson with more explanatory prose to reach the minimum word count.",
	FilterReadability: "Adjust sentence length and vocabulary so the reading level fits the target audience.",
	FilterKeywords:    "Work the specification's key terms into the lesson body where they are taught.",
	FilterSections:    "Add the missing required sections with proper headings.",
	FilterDensity:     "Flesh out thin sections; each should carry enough prose to teach its point.",
	FilterMarkdown:    "Fix the markdown structure issues, starting with heading hierarchy.",
	FilterExamples:    "Add at least one worked example demonstrating the concept step by step.",
	FilterExercises:   "Add at least one exercise with a solution so learners can practice.",
}

func buildSuggestions(failures []Failure) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, f := range failures {
		suggestion, ok := suggestionByFilter[f.Filter]
		if !ok || seen[suggestion] {
			continue
		}
		seen[suggestion] = true
		out = append(out, suggestion)
	}
	sort.Strings(out)
	return out
}
