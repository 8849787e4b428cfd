package entropy

import (
	"math"
	"testing"
)

func TestAnalyzeNilLogprobsAssumesConfident(t *testing.T) {
	for _, logprobs := range [][]TokenLogprob{nil, {}} {
		result := Analyze("some lesson text", logprobs, DefaultConfig())
		if result.ConfidenceScore != 1.0 {
			t.Fatalf("expected confidence 1.0, got %.2f", result.ConfidenceScore)
		}
		if result.RequiresVerification {
			t.Fatal("missing logprobs must not require verification")
		}
		if len(result.FlaggedSpans) != 0 {
			t.Fatalf("expected no flagged spans, got %d", len(result.FlaggedSpans))
		}
	}
}

func TestAnalyzeMixedConfidence(t *testing.T) {
	result := Analyze("ab", []TokenLogprob{
		{Token: "a", Logprob: -0.1},
		{Token: "b", Logprob: -4.0},
	}, DefaultConfig())

	if result.OverallEntropy <= 0 {
		t.Fatalf("expected positive overall entropy, got %.2f", result.OverallEntropy)
	}
	if result.ConfidenceScore >= 1 {
		t.Fatalf("expected confidence below 1, got %.2f", result.ConfidenceScore)
	}
	if result.ConfidenceScore < 0 {
		t.Fatalf("confidence below 0: %.2f", result.ConfidenceScore)
	}
}

func TestTokenEntropyMagnitudes(t *testing.T) {
	if e := TokenEntropy(-0.05, nil); e >= 1 {
		t.Fatalf("near-certain token should have entropy < 1, got %.2f", e)
	}
	if e := TokenEntropy(-4.0, nil); e <= 2 {
		t.Fatalf("unlikely token should have entropy > 2, got %.2f", e)
	}
	if e := TokenEntropy(0, nil); e != 0 {
		t.Fatalf("probability-1 token should have zero entropy, got %.2f", e)
	}
}

func TestTokenEntropyMonotone(t *testing.T) {
	logprobs := []float64{-5, -4, -3, -2, -1, -0.5, -0.1, 0}
	prev := math.Inf(1)
	for _, lp := range logprobs {
		e := TokenEntropy(lp, nil)
		if e > prev {
			t.Fatalf("entropy increased as logprob approached 0: logprob=%.1f entropy=%.3f prev=%.3f", lp, e, prev)
		}
		prev = e
	}
}

func TestTokenEntropyAlternativeSpread(t *testing.T) {
	// A dominant primary with weak alternatives is less uncertain than a
	// primary with competitive alternatives.
	weak := TokenEntropy(-0.1, []Alternative{{Token: "x", Logprob: -6}, {Token: "y", Logprob: -7}})
	competitive := TokenEntropy(-1.1, []Alternative{{Token: "x", Logprob: -1.2}, {Token: "y", Logprob: -1.3}})
	if competitive <= weak {
		t.Fatalf("competitive alternatives should raise entropy: weak=%.3f competitive=%.3f", weak, competitive)
	}
}

func TestMapTokensToSentences(t *testing.T) {
	tokens := []TokenLogprob{
		{Token: "The "}, {Token: "sun "}, {Token: "shines. "},
		{Token: "Plants "}, {Token: "grow"},
	}
	sentences := mapTokensToSentences(tokens)
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(sentences))
	}
	if sentences[0].text != "The sun shines." {
		t.Fatalf("unexpected first sentence: %q", sentences[0].text)
	}
	if sentences[0].startToken != 0 || sentences[0].endToken != 2 {
		t.Fatalf("unexpected first sentence bounds: %+v", sentences[0])
	}
	if sentences[1].startToken != 3 || sentences[1].endToken != 4 {
		t.Fatalf("unexpected second sentence bounds: %+v", sentences[1])
	}
}

func TestFlaggedSpansLocalized(t *testing.T) {
	tokens := []TokenLogprob{
		{Token: "Plants ", Logprob: -0.1},
		{Token: "grow. ", Logprob: -0.1},
		{Token: "The ", Logprob: -4.5},
		{Token: "moon ", Logprob: -4.2},
		{Token: "is ", Logprob: -4.8},
		{Token: "cheese. ", Logprob: -4.1},
		{Token: "Roots ", Logprob: -0.1},
		{Token: "absorb ", Logprob: -0.2},
		{Token: "water.", Logprob: -0.1},
	}
	cfg := DefaultConfig()
	cfg.WindowSize = 3
	result := Analyze("", tokens, cfg)

	if len(result.FlaggedSpans) == 0 {
		t.Fatal("expected at least one flagged span")
	}
	span := result.FlaggedSpans[0]
	if span.StartToken > 2 || span.EndToken < 5 {
		t.Fatalf("span should cover the uncertain run: %+v", span)
	}
	if !result.RequiresVerification {
		t.Fatal("high-entropy run should trigger verification")
	}
}

func TestShouldTriggerVerificationCriticalSpan(t *testing.T) {
	cfg := DefaultConfig()
	result := AnalysisResult{
		HighEntropyRatio: 0.05,
		FlaggedSpans:     []Span{{AverageEntropy: 3.6}},
	}
	if !ShouldTriggerVerification(result, cfg) {
		t.Fatal("a single critical span must trigger verification even with low ratio")
	}

	result = AnalysisResult{HighEntropyRatio: 0.05, FlaggedSpans: []Span{{AverageEntropy: 2.8}}}
	if ShouldTriggerVerification(result, cfg) {
		t.Fatal("low ratio and sub-critical spans must not trigger verification")
	}

	result = AnalysisResult{HighEntropyRatio: 0.11}
	if !ShouldTriggerVerification(result, cfg) {
		t.Fatal("ratio above 10% must trigger verification")
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	tokens := []TokenLogprob{
		{Token: "a ", Logprob: -0.3, TopAlternatives: []Alternative{{Token: "b", Logprob: -1.5}}},
		{Token: "b ", Logprob: -2.7},
		{Token: "c.", Logprob: -1.1},
	}
	first := Analyze("abc", tokens, DefaultConfig())
	second := Analyze("abc", tokens, DefaultConfig())
	if first.OverallEntropy != second.OverallEntropy || first.ConfidenceScore != second.ConfidenceScore {
		t.Fatalf("expected deterministic analysis: %+v vs %+v", first, second)
	}
}
