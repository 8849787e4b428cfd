package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"course-backend/internal/judge"
)

const (
	// APIEndpoint is the Anthropic messages endpoint.
	APIEndpoint = "https://api.anthropic.com/v1/messages"
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-20250514"
	// APIVersion is the Anthropic API version header value.
	APIVersion = "2023-06-01"

	defaultTemperature = 0.2
	maxTokens          = 4096
)

// Client judges lesson drafts through the Anthropic messages API.
type Client struct {
	apiKey      string
	model       string
	temperature float64
	endpoint    string
	httpClient  *http.Client
}

// NewClient creates an Anthropic-backed judge client.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:      apiKey,
		model:       model,
		temperature: defaultTemperature,
		endpoint:    APIEndpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// EvaluateLesson sends the grading prompt and parses the returned verdict.
func (c *Client) EvaluateLesson(ctx context.Context, input judge.EvaluateInput) (judge.Verdict, error) {
	started := time.Now()
	prompt := JudgePrompt(input)

	responseBody, err := c.sendRequest(ctx, prompt)
	if err != nil {
		return judge.Verdict{}, errors.Wrap(err, "judge request failed")
	}

	text := gjson.GetBytes(responseBody, "content.0.text").String()
	if text == "" {
		return judge.Verdict{}, errors.Errorf("judge response had no content: %s", truncate(string(responseBody), 200))
	}

	var verdict judge.Verdict
	cleaned := stripMarkdownCodeFences(text)
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return judge.Verdict{}, errors.Wrapf(err, "failed to parse judge verdict: %s", truncate(cleaned, 200))
	}

	verdict.Clamp()
	verdict.JudgeModel = c.model
	verdict.Temperature = c.temperature
	verdict.TokensUsed = int(gjson.GetBytes(responseBody, "usage.output_tokens").Int() + gjson.GetBytes(responseBody, "usage.input_tokens").Int())
	verdict.DurationMs = time.Since(started).Milliseconds()
	return verdict, nil
}

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
	Messages    []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) sendRequest(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(apiRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
		Messages:    []apiMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("anthropic API returned %d: %s", resp.StatusCode, truncate(string(body), 300))
	}
	return body, nil
}

// JudgePrompt renders the grading prompt for a spec and candidate lesson.
// Exported so prompt changes can be eyeballed offline before shipping.
func JudgePrompt(input judge.EvaluateInput) string {
	var sb strings.Builder
	sb.WriteString("You are grading a generated course lesson against its specification.\n\n")
	sb.WriteString("Return ONLY a JSON object with this shape:\n")
	sb.WriteString(`{"overallScore":0.0,"passed":false,"confidence":"low|medium|high","criteriaScores":{"learning_objective_alignment":0.0,"pedagogical_structure":0.0,"factual_accuracy":0.0,"clarity_readability":0.0,"engagement_examples":0.0,"completeness":0.0},"issues":[{"criterion":"","severity":"minor|major|critical","location":"","description":"","suggestedFix":""}],"strengths":[],"recommendation":"accept|revise|regenerate|escalate"}`)
	sb.WriteString("\n\nAll scores are in [0,1]. Every issue must name the section it affects in location.\n\n")

	sb.WriteString("## Lesson Specification\n\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n\nObjectives:\n", input.Spec.Title))
	for _, obj := range input.Spec.Objectives {
		sb.WriteString(fmt.Sprintf("- [%s] %s\n", obj.CognitiveLevel, obj.Statement))
	}
	sb.WriteString("\nRequired sections:\n")
	for _, sec := range input.Spec.Sections {
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", sec.Title, sec.Archetype))
		for _, kp := range sec.KeyPoints {
			sb.WriteString(fmt.Sprintf("  - key point: %s\n", kp))
		}
	}
	if input.HeuristicSummary != "" {
		sb.WriteString("\n## Heuristic Pre-Check\n\n")
		sb.WriteString(input.HeuristicSummary)
		sb.WriteString("\n")
	}
	sb.WriteString("\n## Candidate Lesson\n\n")
	sb.WriteString(input.Content.Markdown())
	return sb.String()
}

// stripMarkdownCodeFences removes a wrapping ```json fence if the model
// added one despite instructions.
func stripMarkdownCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ judge.Client = (*Client)(nil)
