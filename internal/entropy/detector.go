package entropy

import (
	"math"
	"strings"
)

// Analyze estimates model uncertainty from per-token log-probabilities.
// Nil or empty logprobs means the backend exposed no uncertainty signal;
// that is treated as "assume confident", not as an error.
func Analyze(content string, logprobs []TokenLogprob, cfg Config) AnalysisResult {
	if len(logprobs) == 0 {
		return AnalysisResult{
			OverallEntropy:       0,
			FlaggedSpans:         []Span{},
			HighEntropyRatio:     0,
			RequiresVerification: false,
			ConfidenceScore:      1.0,
		}
	}

	entropies := make([]float64, len(logprobs))
	sum := 0.0
	highCount := 0
	for i, tok := range logprobs {
		e := TokenEntropy(tok.Logprob, tok.TopAlternatives)
		entropies[i] = e
		sum += e
		if e > cfg.HighTokenThreshold {
			highCount++
		}
	}
	overall := sum / float64(len(logprobs))
	ratio := float64(highCount) / float64(len(logprobs))

	sentences := mapTokensToSentences(logprobs)
	spans := flagSpans(logprobs, entropies, sentences, cfg)

	result := AnalysisResult{
		OverallEntropy:   overall,
		FlaggedSpans:     spans,
		HighEntropyRatio: ratio,
		ConfidenceScore:  confidenceFromEntropy(overall),
	}
	result.RequiresVerification = ShouldTriggerVerification(result, cfg)
	return result
}

// TokenEntropy converts a log-probability (and optional alternatives) into a
// non-negative uncertainty score. A probability near 1 yields entropy near 0;
// a large negative logprob yields a large score. Competitive alternatives add
// their Shannon spread on top of the primary term.
func TokenEntropy(logprob float64, alternatives []Alternative) float64 {
	base := -logprob
	if base < 0 {
		base = 0
	}
	if len(alternatives) == 0 {
		return base
	}

	probs := make([]float64, 0, len(alternatives)+1)
	total := 0.0
	for _, p := range append([]Alternative{{Logprob: logprob}}, alternatives...) {
		prob := math.Exp(p.Logprob)
		probs = append(probs, prob)
		total += prob
	}
	if total <= 0 {
		return base
	}
	spread := 0.0
	for _, prob := range probs {
		p := prob / total
		if p > 0 {
			spread -= p * math.Log(p)
		}
	}
	return base + spread
}

// sentence groups a run of tokens ending at terminal punctuation.
type sentence struct {
	text       string
	startToken int
	endToken   int
}

// mapTokensToSentences splits the token stream on sentence-terminal
// punctuation so flagged spans can be localized to a readable unit.
func mapTokensToSentences(tokens []TokenLogprob) []sentence {
	var sentences []sentence
	var sb strings.Builder
	start := 0
	for i, tok := range tokens {
		sb.WriteString(tok.Token)
		if isTerminal(tok.Token) {
			sentences = append(sentences, sentence{
				text:       strings.TrimSpace(sb.String()),
				startToken: start,
				endToken:   i,
			})
			sb.Reset()
			start = i + 1
		}
	}
	if sb.Len() > 0 {
		sentences = append(sentences, sentence{
			text:       strings.TrimSpace(sb.String()),
			startToken: start,
			endToken:   len(tokens) - 1,
		})
	}
	return sentences
}

func isTerminal(token string) bool {
	trimmed := strings.TrimRight(token, " \n\t\"')]")
	return strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?")
}

// flagSpans slides a window over consecutive tokens and flags windows whose
// average entropy exceeds the threshold, merging overlapping windows into
// one span per run.
func flagSpans(tokens []TokenLogprob, entropies []float64, sentences []sentence, cfg Config) []Span {
	spans := []Span{}
	window := cfg.WindowSize
	if window <= 0 {
		window = 1
	}
	if window > len(tokens) {
		window = len(tokens)
	}

	spanStart := -1
	spanEnd := -1
	for i := 0; i+window <= len(tokens); i++ {
		avg := 0.0
		for j := i; j < i+window; j++ {
			avg += entropies[j]
		}
		avg /= float64(window)
		if avg <= cfg.SpanThreshold {
			continue
		}
		if spanStart >= 0 && i <= spanEnd {
			// overlaps the open span, extend it
			if i+window-1 > spanEnd {
				spanEnd = i + window - 1
			}
			continue
		}
		if spanStart >= 0 {
			spans = append(spans, buildSpan(tokens, entropies, sentences, spanStart, spanEnd))
		}
		spanStart = i
		spanEnd = i + window - 1
	}
	if spanStart >= 0 {
		spans = append(spans, buildSpan(tokens, entropies, sentences, spanStart, spanEnd))
	}
	return spans
}

func buildSpan(tokens []TokenLogprob, entropies []float64, sentences []sentence, start, end int) Span {
	var sb strings.Builder
	avg := 0.0
	for i := start; i <= end; i++ {
		sb.WriteString(tokens[i].Token)
		avg += entropies[i]
	}
	avg /= float64(end - start + 1)
	return Span{
		StartToken:     start,
		EndToken:       end,
		AverageEntropy: avg,
		Text:           strings.TrimSpace(sb.String()),
		SentenceIndex:  sentenceIndexFor(sentences, start),
	}
}

func sentenceIndexFor(sentences []sentence, tokenIndex int) int {
	for i, s := range sentences {
		if tokenIndex >= s.startToken && tokenIndex <= s.endToken {
			return i
		}
	}
	return 0
}

// ShouldTriggerVerification reports whether external fact verification is
// warranted: either too many high-entropy tokens overall, or at least one
// span severe enough on its own.
func ShouldTriggerVerification(result AnalysisResult, cfg Config) bool {
	if result.HighEntropyRatio > cfg.HighRatioTrigger {
		return true
	}
	for _, span := range result.FlaggedSpans {
		if span.AverageEntropy >= cfg.CriticalSpanThreshold {
			return true
		}
	}
	return false
}

// confidenceFromEntropy maps mean entropy to a [0,1] confidence score.
func confidenceFromEntropy(overall float64) float64 {
	c := 1.0 - overall/4.0
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
