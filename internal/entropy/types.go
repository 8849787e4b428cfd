package entropy

// Alternative is a competing token candidate with its log-probability.
type Alternative struct {
	Token   string  `json:"token"`
	Logprob float64 `json:"logprob"`
}

// TokenLogprob is one generated token's log-probability, optionally with the
// top alternative candidates the model considered. Supplied by the
// generation backend when available; absence is a valid state.
type TokenLogprob struct {
	Token           string        `json:"token"`
	Logprob         float64       `json:"logprob"`
	TopAlternatives []Alternative `json:"topAlternatives,omitempty"`
}

// Span is a run of consecutive tokens whose windowed average entropy
// exceeded the flagging threshold.
type Span struct {
	StartToken     int     `json:"startToken"`
	EndToken       int     `json:"endToken"`
	AverageEntropy float64 `json:"averageEntropy"`
	Text           string  `json:"text"`
	SentenceIndex  int     `json:"sentenceIndex"`
}

// AnalysisResult is a deterministic function of the supplied logprobs.
type AnalysisResult struct {
	OverallEntropy       float64 `json:"overallEntropy"`
	FlaggedSpans         []Span  `json:"flaggedSpans"`
	HighEntropyRatio     float64 `json:"highEntropyRatio"`
	RequiresVerification bool    `json:"requiresVerification"`
	ConfidenceScore      float64 `json:"confidenceScore"`
}

// Config holds detector thresholds.
type Config struct {
	// WindowSize is the sliding window length for span flagging.
	WindowSize int
	// SpanThreshold flags a window whose average entropy exceeds it.
	SpanThreshold float64
	// CriticalSpanThreshold marks a single span severe enough to force
	// verification regardless of the overall ratio.
	CriticalSpanThreshold float64
	// HighTokenThreshold classifies an individual token as high-entropy.
	HighTokenThreshold float64
	// HighRatioTrigger forces verification when the high-entropy token
	// ratio exceeds it.
	HighRatioTrigger float64
}

// DefaultConfig returns the standard detector thresholds.
func DefaultConfig() Config {
	return Config{
		WindowSize:            5,
		SpanThreshold:         2.5,
		CriticalSpanThreshold: 3.5,
		HighTokenThreshold:    2.0,
		HighRatioTrigger:      0.10,
	}
}
