package decision

import (
	"fmt"
	"sort"
	"strings"

	"course-backend/internal/judge"
)

// BuildRegenerationFeedback renders a structured feedback block that steers
// the regeneration prompt: previous quality, itemized issues grouped by
// criterion, and general guidelines.
func BuildRegenerationFeedback(issues []judge.Issue, previousScore float64) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Previous attempt scored %.0f%%. Full regeneration required.\n\n", previousScore*100))

	sb.WriteString("Key Issues to Address:\n")
	if len(issues) == 0 {
		sb.WriteString("- Overall quality was too low; rebuild the lesson from its specification.\n")
	} else {
		for _, criterion := range sortedCriteria(issues) {
			sb.WriteString(fmt.Sprintf("\n%s:\n", strings.ToUpper(criterion)))
			for _, issue := range issues {
				if criterionKey(issue) != criterion {
					continue
				}
				line := fmt.Sprintf("- [%s] %s", issue.Severity, issue.Description)
				if issue.Location != "" {
					line += fmt.Sprintf(" (at: %s)", issue.Location)
				}
				if issue.SuggestedFix != "" {
					line += fmt.Sprintf(" — fix: %s", issue.SuggestedFix)
				}
				sb.WriteString(line + "\n")
			}
		}
	}

	sb.WriteString("\nRegeneration Guidelines:\n")
	sb.WriteString("- Follow the section outline and cover every learning objective.\n")
	sb.WriteString("- Ground every factual claim in the provided source material.\n")
	sb.WriteString("- Include at least one worked example and one exercise with a solution.\n")
	sb.WriteString("- Keep the reading level appropriate for the target audience.\n")
	return sb.String()
}

func sortedCriteria(issues []judge.Issue) []string {
	seen := make(map[string]bool)
	var out []string
	for _, issue := range issues {
		key := criterionKey(issue)
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func criterionKey(issue judge.Issue) string {
	if strings.TrimSpace(issue.Criterion) == "" {
		return "general"
	}
	return strings.TrimSpace(issue.Criterion)
}
