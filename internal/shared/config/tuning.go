package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds optional overrides for decision thresholds and entropy
// triggers. Zero values mean "keep the built-in default"; callers merge this
// onto their defaults.
type Tuning struct {
	Accept             float64 `yaml:"accept"`
	TargetedFix        float64 `yaml:"targetedFix"`
	Regenerate         float64 `yaml:"regenerate"`
	MaxIterations      int     `yaml:"maxIterations"`
	AffectedSplit      float64 `yaml:"affectedSplit"`
	DiminishingEpsilon float64 `yaml:"diminishingEpsilon"`
	QualityThreshold   float64 `yaml:"qualityThreshold"`

	Entropy struct {
		SpanThreshold     float64 `yaml:"spanThreshold"`
		CriticalThreshold float64 `yaml:"criticalThreshold"`
		HighRatioTrigger  float64 `yaml:"highRatioTrigger"`
	} `yaml:"entropy"`
}

// LoadTuning parses a YAML tuning file. A missing path returns an empty
// Tuning without error.
func LoadTuning(path string) (Tuning, error) {
	var t Tuning
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning file: %w", err)
	}
	return t, nil
}
