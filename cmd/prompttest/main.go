package main

// Prints the exact prompt the judge sends for a spec and draft, so prompt
// changes can be reviewed without burning API calls:
//   go run ./cmd/prompttest -spec spec.json -content content.json

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"course-backend/internal/heuristics"
	"course-backend/internal/judge"
	"course-backend/internal/judge/anthropic"
	"course-backend/internal/lessons"
)

func main() {
	specPath := flag.String("spec", "", "Path to lesson specification JSON")
	contentPath := flag.String("content", "", "Path to structured lesson body JSON")
	withHeuristics := flag.Bool("with-heuristics", true, "Include the heuristic pre-check summary")
	outPath := flag.String("out", "", "Path to write the prompt (optional, default stdout)")
	flag.Parse()

	if strings.TrimSpace(*specPath) == "" || strings.TrimSpace(*contentPath) == "" {
		exitErr("spec and content paths are required")
	}

	var spec lessons.Specification
	if err := readJSON(*specPath, &spec); err != nil {
		exitErr(err.Error())
	}
	if err := lessons.ValidateSpecification(&spec); err != nil {
		exitErr(err.Error())
	}
	var body lessons.ContentBody
	if err := readJSON(*contentPath, &body); err != nil {
		exitErr(err.Error())
	}

	input := judge.EvaluateInput{Spec: spec, Content: body}
	if *withHeuristics {
		heur := heuristics.Run(body, spec, heuristics.DefaultConfig())
		input.HeuristicSummary = fmt.Sprintf(
			"heuristic score %.2f; %d words; grade level %.1f; keyword coverage %.0f%%; markdown score %.2f",
			heur.Score,
			heur.Metrics.WordCount,
			heur.Metrics.FleschKincaidGrade,
			heur.Metrics.KeywordCoverage*100,
			heur.Metrics.MarkdownStructure.Score,
		)
	}

	prompt := anthropic.JudgePrompt(input)
	if strings.TrimSpace(*outPath) == "" {
		fmt.Println(prompt)
		return
	}
	if err := os.WriteFile(*outPath, []byte(prompt), 0o644); err != nil {
		exitErr("write prompt: " + err.Error())
	}
	fmt.Printf("OK: wrote %s (%d bytes)\n", *outPath, len(prompt))
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, "error:", msg)
	os.Exit(1)
}
