package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"course-backend/internal/decision"
	"course-backend/internal/entropy"
	"course-backend/internal/lessons"
	"course-backend/internal/shared/config"
)

// loadSpec reads a lesson specification from a YAML or JSON file.
func loadSpec(path string) (spec lessons.Specification, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrap(err, "read spec file")
		return spec, err
	}
	if err = unmarshalFlexible(path, data, &spec); err != nil {
		err = errors.Wrap(err, "parse spec file")
		return spec, err
	}
	if err = lessons.ValidateSpecification(&spec); err != nil {
		err = errors.Wrap(err, "invalid spec")
		return spec, err
	}
	return spec, nil
}

// loadContentBody reads a structured lesson body from a YAML or JSON file.
func loadContentBody(path string) (body lessons.ContentBody, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrap(err, "read content file")
		return body, err
	}
	if err = unmarshalFlexible(path, data, &body); err != nil {
		err = errors.Wrap(err, "parse content file")
		return body, err
	}
	return body, nil
}

// loadLogprobs reads optional token logprobs captured during generation.
func loadLogprobs(path string) (tokens []entropy.TokenLogprob, err error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrap(err, "read logprobs file")
		return nil, err
	}
	if err = json.Unmarshal(data, &tokens); err != nil {
		err = errors.Wrap(err, "parse logprobs file")
		return nil, err
	}
	return tokens, nil
}

// loadThresholds merges the optional tuning file onto the defaults.
func loadThresholds(path string) (decision.Thresholds, entropy.Config, error) {
	thresholds := decision.DefaultThresholds()
	entropyCfg := entropy.DefaultConfig()

	tuning, err := config.LoadTuning(path)
	if err != nil {
		return thresholds, entropyCfg, err
	}
	if tuning.Accept > 0 {
		thresholds.Accept = tuning.Accept
	}
	if tuning.TargetedFix > 0 {
		thresholds.TargetedFix = tuning.TargetedFix
	}
	if tuning.Regenerate > 0 {
		thresholds.Regenerate = tuning.Regenerate
	}
	if tuning.MaxIterations > 0 {
		thresholds.MaxIterations = tuning.MaxIterations
	}
	if tuning.AffectedSplit > 0 {
		thresholds.AffectedSplit = tuning.AffectedSplit
	}
	if tuning.DiminishingEpsilon > 0 {
		thresholds.DiminishingEpsilon = tuning.DiminishingEpsilon
	}
	if tuning.Entropy.SpanThreshold > 0 {
		entropyCfg.SpanThreshold = tuning.Entropy.SpanThreshold
	}
	if tuning.Entropy.CriticalThreshold > 0 {
		entropyCfg.CriticalSpanThreshold = tuning.Entropy.CriticalThreshold
	}
	if tuning.Entropy.HighRatioTrigger > 0 {
		entropyCfg.HighRatioTrigger = tuning.Entropy.HighRatioTrigger
	}
	return thresholds, entropyCfg, nil
}

// unmarshalFlexible decodes JSON directly and routes YAML through a JSON
// round-trip so the struct json tags apply to both formats.
func unmarshalFlexible(path string, data []byte, out any) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return json.Unmarshal(data, out)
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	encoded, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}

// normalizeYAML converts map[any]any trees into map[string]any for JSON.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			if s, ok := key.(string); ok {
				out[s] = normalizeYAML(val)
			}
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
