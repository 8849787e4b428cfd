package lessons

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilSpecification is returned when a nil specification is supplied.
var ErrNilSpecification = errors.New("lesson specification is nil")

// ValidateSpecification fails fast on malformed specification input. Missing
// required fields indicate a caller bug and are never silently defaulted.
func ValidateSpecification(spec *Specification) error {
	if spec == nil {
		return ErrNilSpecification
	}
	if strings.TrimSpace(spec.LessonID) == "" {
		return errors.New("specification lessonId is required")
	}
	if len(spec.Objectives) == 0 {
		return fmt.Errorf("specification %s has no learning objectives", spec.LessonID)
	}
	for i, obj := range spec.Objectives {
		if strings.TrimSpace(obj.Statement) == "" {
			return fmt.Errorf("specification %s objective[%d] has an empty statement", spec.LessonID, i)
		}
	}
	if len(spec.Sections) == 0 {
		return fmt.Errorf("specification %s has no section outlines", spec.LessonID)
	}
	for i, sec := range spec.Sections {
		if strings.TrimSpace(sec.Title) == "" {
			return fmt.Errorf("specification %s section[%d] has an empty title", spec.LessonID, i)
		}
	}
	if spec.RAG.ExpectedChunkCount < 0 {
		return fmt.Errorf("specification %s has negative expected chunk count %d", spec.LessonID, spec.RAG.ExpectedChunkCount)
	}
	return nil
}

// Markdown renders the content body as a single markdown document. Degenerate
// bodies render to an empty or near-empty string rather than erroring.
func (b ContentBody) Markdown() string {
	var sb strings.Builder
	if strings.TrimSpace(b.Intro) != "" {
		sb.WriteString(strings.TrimSpace(b.Intro))
		sb.WriteString("\n\n")
	}
	for _, sec := range b.Sections {
		if strings.TrimSpace(sec.Title) != "" {
			sb.WriteString("## ")
			sb.WriteString(strings.TrimSpace(sec.Title))
			sb.WriteString("\n\n")
		}
		if strings.TrimSpace(sec.Prose) != "" {
			sb.WriteString(strings.TrimSpace(sec.Prose))
			sb.WriteString("\n\n")
		}
	}
	for _, ex := range b.Examples {
		title := strings.TrimSpace(ex.Title)
		if title == "" {
			title = "Worked Example"
		}
		sb.WriteString("## ")
		sb.WriteString(title)
		sb.WriteString("\n\n")
		if strings.TrimSpace(ex.Problem) != "" {
			sb.WriteString(strings.TrimSpace(ex.Problem))
			sb.WriteString("\n\n")
		}
		if strings.TrimSpace(ex.Walkthrough) != "" {
			sb.WriteString(strings.TrimSpace(ex.Walkthrough))
			sb.WriteString("\n\n")
		}
	}
	for i, ex := range b.Exercises {
		sb.WriteString(fmt.Sprintf("## Exercise %d\n\n", i+1))
		if strings.TrimSpace(ex.Question) != "" {
			sb.WriteString(strings.TrimSpace(ex.Question))
			sb.WriteString("\n\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// PlainText flattens the body to prose for word and keyword analysis.
// Exercise solutions count toward content volume; rubrics do not.
func (b ContentBody) PlainText() string {
	parts := make([]string, 0, 4+2*len(b.Sections))
	parts = append(parts, b.Intro)
	for _, sec := range b.Sections {
		parts = append(parts, sec.Title, sec.Prose)
	}
	for _, ex := range b.Examples {
		parts = append(parts, ex.Title, ex.Problem, ex.Walkthrough)
	}
	for _, ex := range b.Exercises {
		parts = append(parts, ex.Question, ex.Solution)
		parts = append(parts, ex.Hints...)
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, "\n")
}
