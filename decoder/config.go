package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dhamidi/hiero/chart"
)

// Config holds every decoder setting. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	GoalSymbol         string `yaml:"goal_symbol" validate:"required"`
	DefaultNonterminal string `yaml:"default_nonterminal" validate:"required"`

	PopLimit                 int     `yaml:"pop_limit" validate:"gte=0"`
	UseBeamAndThresholdPrune bool    `yaml:"use_beam_and_threshold_prune"`
	BeamSize                 int     `yaml:"beam_size" validate:"required_if=UseBeamAndThresholdPrune true,gte=0"`
	RelativeThreshold        float64 `yaml:"relative_threshold" validate:"gte=0"`

	TrueOOVsOnly   bool `yaml:"true_oovs_only"`
	MarkOOVs       bool `yaml:"mark_oovs"`
	ConstrainParse bool `yaml:"constrain_parse"`
	UsePOSLabels   bool `yaml:"use_pos_labels"`

	// Parse enables two-pass synchronous parsing of sentences with a target.
	Parse bool `yaml:"parse"`

	MaxNodes   int `yaml:"max_nodes" validate:"gte=0"`
	NumThreads int `yaml:"num_threads" validate:"gte=1"`

	Grammars      []GrammarConfig      `yaml:"grammars" validate:"dive"`
	LanguageModel *LanguageModelConfig `yaml:"language_model"`
	Weights       WeightsConfig        `yaml:"weights"`
}

// GrammarConfig names one grammar file.
type GrammarConfig struct {
	Path  string `yaml:"path" validate:"required"`
	Owner string `yaml:"owner" validate:"required"`
	// SpanLimit bounds the lattice distance rules may cover; -1 is unlimited.
	SpanLimit int `yaml:"span_limit" validate:"gte=-1"`
}

// LanguageModelConfig names an ARPA bigram model.
type LanguageModelConfig struct {
	Path   string  `yaml:"path" validate:"required"`
	Weight float64 `yaml:"weight"`
}

// WeightsConfig holds the feature weights.
type WeightsConfig struct {
	// Phrase weights the dense features of every grammar's rules.
	Phrase      []float64 `yaml:"phrase"`
	WordPenalty float64   `yaml:"word_penalty"`
	OOVPenalty  float64   `yaml:"oov_penalty"`
	SourcePath  float64   `yaml:"source_path"`
}

// DefaultConfig returns the settings used when a file leaves them out.
func DefaultConfig() Config {
	return Config{
		GoalSymbol:         "[GOAL]",
		DefaultNonterminal: "[X]",
		BeamSize:           30,
		RelativeThreshold:  10,
		NumThreads:         1,
		Weights: WeightsConfig{
			Phrase:     []float64{1},
			OOVPenalty: -100,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for values the decoder cannot use.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig reads a YAML file over the defaults and validates the result.
// Unknown keys are errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := ParseConfig(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ParseConfig decodes YAML into cfg, keeping the values it does not mention.
func ParseConfig(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ChartOptions translates the configuration into chart options.
func (c Config) ChartOptions() []chart.Option {
	return []chart.Option{
		chart.WithGoalSymbol(c.GoalSymbol),
		chart.WithDefaultNonterminal(c.DefaultNonterminal),
		chart.WithPopLimit(c.PopLimit),
		chart.WithBeamAndThreshold(c.UseBeamAndThresholdPrune, c.BeamSize, c.RelativeThreshold),
		chart.WithTrueOOVsOnly(c.TrueOOVsOnly),
		chart.WithMarkOOVs(c.MarkOOVs),
		chart.WithConstrainParse(c.ConstrainParse),
		chart.WithPOSLabels(c.UsePOSLabels),
		chart.WithMaxNodes(c.MaxNodes),
	}
}
