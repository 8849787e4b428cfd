package main

// Renders a sample lesson body to markdown and runs the structure validator
// over the result. Useful when changing the renderer or validator rules:
//   go run ./cmd/renderdemo -out ./out/sample_lesson.md

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"course-backend/internal/lessons"
	"course-backend/internal/markdown"
)

func main() {
	outPath := flag.String("out", "./out/sample_lesson.md", "output path for the rendered markdown")
	flag.Parse()

	body := sampleLessonBody()
	doc := body.Markdown()

	if err := writeOutputs(*outPath, body, doc); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}

	report := markdown.Validate(doc)
	if report.CriticalIssues > 0 {
		fmt.Fprintf(os.Stderr, "render validation failed: %d critical issues\n", report.CriticalIssues)
		for _, issue := range report.Issues {
			fmt.Fprintf(os.Stderr, "  line %d [%s] %s\n", issue.Line, issue.Severity, issue.Message)
		}
		os.Exit(1)
	}

	fmt.Printf("OK: wrote %s (structure score %.2f, %d issues)\n", *outPath, report.Score, report.TotalIssues)
}

func writeOutputs(outPath string, body lessons.ContentBody, doc string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
		return err
	}

	jsonPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".json"
	encoded, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(jsonPath, encoded, 0o644)
}

func sampleLessonBody() lessons.ContentBody {
	return lessons.ContentBody{
		Intro: "Sorting is one of the first places where algorithm choice visibly changes performance. " +
			"This lesson walks through insertion sort, why it is quadratic, and when that is acceptable.",
		Sections: []lessons.Section{
			{
				Title: "How Insertion Sort Works",
				Prose: "Insertion sort grows a sorted prefix one element at a time. Each new element is " +
					"compared against the prefix from right to left and slotted into place. The invariant " +
					"is simple: after processing index i, the first i+1 elements are sorted.",
			},
			{
				Title: "Cost Analysis",
				Prose: "In the worst case every element travels to the front of the prefix, giving " +
					"roughly n squared over two comparisons. On nearly sorted input the inner loop exits " +
					"immediately, which is why insertion sort is the finishing pass inside many hybrid sorts.",
			},
		},
		Examples: []lessons.WorkedExample{
			{
				Title:       "Sorting a Short Hand of Cards",
				Problem:     "Sort the sequence [5, 2, 4, 6, 1, 3] with insertion sort.",
				Walkthrough: "Start with [5]. Insert 2 before 5. Insert 4 between them. Insert 6 at the end. Insert 1 at the front. Insert 3 after 2.",
			},
		},
		Exercises: []lessons.Exercise{
			{
				Question: "How many comparisons does insertion sort make on an already sorted array of n elements?",
				Hints:    []string{"Think about when the inner loop stops."},
				Solution: "n-1 comparisons: each element is compared once against its left neighbor and stays put.",
			},
		},
	}
}
