package markdown

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	headingPattern   = regexp.MustCompile(`^(#{1,6})\s+\S`)
	imagePattern     = regexp.MustCompile(`!\[([^\]]*)\]\(`)
	fenceOpenPattern = regexp.MustCompile("^```(\\S*)\\s*$")
	listItemPattern  = regexp.MustCompile(`^\s*([-*+])\s+\S`)
)

// Validate lints the document, applies the auto-fixable corrections, and
// scores what remains. Empty input returns a clean report.
func Validate(content string) Report {
	fixed, autoFixed := autoFix(content)

	var issues []Issue
	lines := strings.Split(fixed, "\n")

	issues = append(issues, checkHeadings(lines)...)
	issues = append(issues, checkImages(lines)...)
	issues = append(issues, checkCodeFences(lines)...)

	report := Report{
		AutoFixedRules: autoFixed,
		Issues:         issues,
		FixedContent:   fixed,
	}
	for _, issue := range issues {
		report.TotalIssues++
		switch issue.Severity {
		case SeverityCritical:
			report.CriticalIssues++
		case SeverityMajor:
			report.MajorIssues++
		default:
			report.MinorIssues++
		}
	}
	report.Score = score(report)
	return report
}

func score(r Report) float64 {
	s := 1.0
	s -= float64(r.CriticalIssues) * penaltyCritical
	s -= float64(r.MajorIssues) * penaltyMajor
	s -= float64(r.MinorIssues) * penaltyMinor
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// checkHeadings flags hierarchy skips (e.g. H1 straight to H3) and more than
// one top-level heading in the same document.
func checkHeadings(lines []string) []Issue {
	var issues []Issue
	prevLevel := 0
	h1Count := 0
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		level := len(m[1])
		if level == 1 {
			h1Count++
			if h1Count > 1 {
				issues = append(issues, Issue{
					Rule:     RuleMultipleH1,
					Severity: SeverityCritical,
					Line:     i + 1,
					Message:  "more than one top-level heading in document",
				})
			}
		}
		if prevLevel > 0 && level > prevLevel+1 {
			issues = append(issues, Issue{
				Rule:     RuleHeadingSkip,
				Severity: SeverityCritical,
				Line:     i + 1,
				Message:  fmt.Sprintf("heading level jumps from H%d to H%d", prevLevel, level),
			})
		}
		prevLevel = level
	}
	return issues
}

func checkImages(lines []string) []Issue {
	var issues []Issue
	for i, line := range lines {
		for _, m := range imagePattern.FindAllStringSubmatch(line, -1) {
			if strings.TrimSpace(m[1]) == "" {
				issues = append(issues, Issue{
					Rule:     RuleImageMissingAlt,
					Severity: SeverityMajor,
					Line:     i + 1,
					Message:  "image is missing alt text",
				})
			}
		}
	}
	return issues
}

func checkCodeFences(lines []string) []Issue {
	var issues []Issue
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "```") {
			continue
		}
		if inFence {
			inFence = false
			continue
		}
		inFence = true
		m := fenceOpenPattern.FindStringSubmatch(trimmed)
		if m != nil && m[1] == "" {
			issues = append(issues, Issue{
				Rule:     RuleCodeBlockNoLang,
				Severity: SeverityMajor,
				Line:     i + 1,
				Message:  "code block has no language tag",
			})
		}
	}
	return issues
}

// autoFix corrects the minor rules in place and reports which fired:
// trailing whitespace, runs of blank lines, and mixed unordered list markers.
func autoFix(content string) (string, []string) {
	if content == "" {
		return "", []string{}
	}
	lines := strings.Split(content, "\n")
	fixedRules := make(map[string]bool)

	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed != line {
			lines[i] = trimmed
			fixedRules[RuleTrailingWhitespace] = true
		}
	}

	// Collapse runs of blank lines to a single blank line.
	out := lines[:0]
	blankRun := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blankRun++
			if blankRun > 1 {
				fixedRules[RuleRepeatedBlankLines] = true
				continue
			}
			out = append(out, "")
			continue
		}
		blankRun = 0
		out = append(out, line)
	}
	lines = out

	// Normalize unordered list markers to the first marker style seen.
	dominant := ""
	for _, line := range lines {
		if m := listItemPattern.FindStringSubmatch(line); m != nil {
			if dominant == "" {
				dominant = m[1]
			} else if m[1] != dominant {
				fixedRules[RuleListMarkerStyle] = true
			}
		}
	}
	if fixedRules[RuleListMarkerStyle] {
		for i, line := range lines {
			if m := listItemPattern.FindStringSubmatch(line); m != nil && m[1] != dominant {
				idx := strings.Index(line, m[1])
				lines[i] = line[:idx] + dominant + line[idx+1:]
			}
		}
	}

	applied := make([]string, 0, len(fixedRules))
	for rule := range fixedRules {
		applied = append(applied, rule)
	}
	sort.Strings(applied)
	return strings.Join(lines, "\n"), applied
}
