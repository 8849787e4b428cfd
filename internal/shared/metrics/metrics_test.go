package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesDecisionActions(t *testing.T) {
	IncEvaluationStarted()
	IncEvaluationCompleted()
	IncDecisionAction("accept")
	IncDecisionAction("regenerate")
	IncDecisionAction("accept")
	ObserveEvaluationDurationMs(350)

	out := Render()
	for _, want := range []string{
		"evaluation_started_total",
		"evaluation_completed_total",
		`decision_action_total{action="accept"} 2`,
		`decision_action_total{action="regenerate"} 1`,
		"evaluation_duration_ms_bucket",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render output missing %q:\n%s", want, out)
		}
	}
}
