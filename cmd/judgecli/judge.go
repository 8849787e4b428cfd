package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"course-backend/internal/decision"
	"course-backend/internal/entropy"
	"course-backend/internal/judge"
	"course-backend/internal/judge/anthropic"
	"course-backend/internal/lessons"
)

//nolint:gochecknoglobals // Cobra boilerplate
var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Judge a lesson draft and print the routing decision",
	Long: `Run the full cascade on a structured lesson body: heuristics first,
then the LLM judge when the gate passes, then the routing decision
(accept, targeted fix, refine, regenerate, or escalate).

The content file is a structured lesson body (YAML or JSON), not raw
markdown, so the judge sees the same section layout the pipeline does.
Requires ANTHROPIC_API_KEY unless --placeholder is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		specFile, _ := cmd.Flags().GetString("spec")
		contentFile, _ := cmd.Flags().GetString("content")
		logprobsFile, _ := cmd.Flags().GetString("logprobs")
		model, _ := cmd.Flags().GetString("model")
		panelSize, _ := cmd.Flags().GetInt("panel")
		placeholder, _ := cmd.Flags().GetBool("placeholder")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		err := runJudge(specFile, contentFile, logprobsFile, model, panelSize, placeholder, timeout)
		if err != nil {
			log.Fatalf("judge failed: %s", err)
		}
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(judgeCmd)
	judgeCmd.Flags().StringP("spec", "s", "", "Lesson specification file (YAML or JSON)")
	judgeCmd.Flags().StringP("content", "c", "", "Structured lesson body file (YAML or JSON)")
	judgeCmd.Flags().String("logprobs", "", "Optional token logprobs JSON for entropy analysis")
	judgeCmd.Flags().StringP("model", "m", "", "Judge model (defaults to the client default)")
	judgeCmd.Flags().IntP("panel", "p", 0, "Extra panel voters for borderline scores")
	judgeCmd.Flags().Bool("placeholder", false, "Use the deterministic placeholder judge instead of the API")
	judgeCmd.Flags().Duration("timeout", 3*time.Minute, "Overall evaluation timeout")
	_ = judgeCmd.MarkFlagRequired("spec")
	_ = judgeCmd.MarkFlagRequired("content")
}

// judgeReport is the JSON document judge prints to stdout.
type judgeReport struct {
	Cascade  judge.CascadeResult     `json:"cascade"`
	Entropy  *entropy.AnalysisResult `json:"entropy,omitempty"`
	Decision decision.Result         `json:"decision"`
}

func runJudge(specFile, contentFile, logprobsFile, model string, panelSize int, placeholder bool, timeout time.Duration) (err error) {
	spec, err := loadSpec(specFile)
	if err != nil {
		return err
	}
	body, err := loadContentBody(contentFile)
	if err != nil {
		return err
	}
	logprobs, err := loadLogprobs(logprobsFile)
	if err != nil {
		return err
	}
	thresholds, entropyCfg, err := loadThresholds(tuningFile)
	if err != nil {
		return err
	}

	cascade, err := buildCascade(model, panelSize, placeholder)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cascadeResult, err := cascade.Evaluate(ctx, spec, body)
	if err != nil {
		err = errors.Wrap(err, "evaluate")
		return err
	}

	report := judgeReport{Cascade: cascadeResult}
	if len(logprobs) > 0 {
		analysis := entropy.Analyze(body.PlainText(), logprobs, entropyCfg)
		report.Entropy = &analysis
	}

	report.Decision, err = routeResult(cascadeResult, body, thresholds, report.Entropy, entropyCfg)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func buildCascade(model string, panelSize int, placeholder bool) (*judge.Cascade, error) {
	if placeholder {
		return judge.NewCascade(judge.PlaceholderClient{}), nil
	}
	primary, err := anthropic.NewClient(os.Getenv("ANTHROPIC_API_KEY"), model)
	if err != nil {
		err = errors.Wrap(err, "build judge client")
		return nil, err
	}
	panel := make([]judge.Client, 0, panelSize)
	for i := 0; i < panelSize; i++ {
		voter, verr := anthropic.NewClient(os.Getenv("ANTHROPIC_API_KEY"), model)
		if verr != nil {
			verr = errors.Wrap(verr, "build panel client")
			return nil, verr
		}
		panel = append(panel, voter)
	}
	return judge.NewCascade(primary, panel...), nil
}

// routeResult turns a cascade result into a routing decision, mirroring how
// the evaluation service routes outcomes.
func routeResult(cascadeResult judge.CascadeResult, body lessons.ContentBody, thresholds decision.Thresholds, analysis *entropy.AnalysisResult, entropyCfg entropy.Config) (decision.Result, error) {
	engine := decision.NewEngine(thresholds)

	if cascadeResult.Verdict == nil {
		return decision.Result{
			Action: decision.ActionRegenerate,
			Reason: "failed heuristic gate: " + strings.Join(cascadeResult.FailureReasons, "; "),
		}, nil
	}

	result, err := engine.MakeDecisionFromVerdict(*cascadeResult.Verdict, body)
	if err != nil {
		err = errors.Wrap(err, "make decision")
		return decision.Result{}, err
	}
	if result.Action == decision.ActionAccept && analysis != nil && entropy.ShouldTriggerVerification(*analysis, entropyCfg) {
		return decision.Result{
			Action: decision.ActionEscalateToHuman,
			Reason: "entropy analysis flagged likely hallucinated spans; routing to human review",
		}, nil
	}
	return result, nil
}
