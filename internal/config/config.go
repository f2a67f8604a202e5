// Package config loads and validates the pipeline's runtime settings from a
// layered source (CLI flags, then DOCTRAN_-prefixed environment variables,
// then defaults), following the same viper wiring shape used throughout
// this codebase's command layer.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ModelConfig holds the paths and runtime knobs for one model role.
type ModelConfig struct {
	Path         string `mapstructure:"path"`
	ContextWindow int   `mapstructure:"context_window" validate:"gte=0"`
	Threads      int    `mapstructure:"threads" validate:"gte=0"`
	GPULayers    int    `mapstructure:"gpu_layers" validate:"gte=0"`
	Seed         int    `mapstructure:"seed"`
	ChatTemplate string `mapstructure:"chat_template" validate:"omitempty,oneof=default hunyuan gemma"`
}

// Settings is the fully-resolved configuration for one TranslateFile run.
type Settings struct {
	Translate        ModelConfig `mapstructure:"translate"`
	TranslateFallback ModelConfig `mapstructure:"translate_fallback"`
	Agent            ModelConfig `mapstructure:"agent"`
	Embedding        ModelConfig `mapstructure:"embedding"`

	SourceLang string `mapstructure:"source_lang" validate:"omitempty,oneof=en zh"`
	TargetLang string `mapstructure:"target_lang" validate:"omitempty,oneof=en zh"`
	AutoDetect bool   `mapstructure:"auto_detect"`

	EnableDecision    bool `mapstructure:"enable_decision"`
	EnableReview      bool `mapstructure:"enable_review"`
	DecisionMinChars  int  `mapstructure:"decision_min_chars" validate:"gte=0"`
	EnableStyleGuide  bool `mapstructure:"enable_style_guide"`
	TargetStyle       string `mapstructure:"target_style"`
	GlossaryCapPerTU  int  `mapstructure:"glossary_cap_per_tu" validate:"gte=0"`
	HardFailureRounds int  `mapstructure:"hard_failure_repair_rounds" validate:"gte=0"`
	MaxTUs            int  `mapstructure:"max_tus" validate:"gte=0"`

	CheckpointInterval int    `mapstructure:"checkpoint_interval" validate:"gte=0"`
	HeartbeatInterval  int    `mapstructure:"heartbeat_interval_seconds" validate:"gte=0"`
	ShowProgress       bool   `mapstructure:"show_progress"`
	LogEveryN          int    `mapstructure:"log_every_n" validate:"gte=0"`
	PreviewMaxChars    int    `mapstructure:"tu_preview_max_chars" validate:"gte=0"`
	StyleGuidePath     string `mapstructure:"style_guide_path"`
	GlossaryPath       string `mapstructure:"glossary_path"`
	DebugDump          bool   `mapstructure:"debug_dump"`

	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Verbose  bool   `mapstructure:"verbose"`
	Quiet    bool   `mapstructure:"quiet"`
}

// Load resolves Settings from the given viper instance, binding flags first
// so they take precedence over environment and defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: binding flags: %w", err)
		}
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("DOCTRAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindNestedEnv(v)

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: unmarshaling settings: %w", err)
	}
	if err := validateSettings(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("translate.context_window", 4096)
	v.SetDefault("translate.threads", 0)
	v.SetDefault("translate.gpu_layers", 0)
	v.SetDefault("translate.chat_template", "default")
	v.SetDefault("translate_fallback.chat_template", "default")
	v.SetDefault("agent.context_window", 8192)
	v.SetDefault("agent.chat_template", "default")
	v.SetDefault("embedding.chat_template", "default")

	v.SetDefault("source_lang", "")
	v.SetDefault("target_lang", "")
	v.SetDefault("auto_detect", true)

	v.SetDefault("enable_decision", true)
	v.SetDefault("enable_review", true)
	v.SetDefault("decision_min_chars", 80)
	v.SetDefault("enable_style_guide", false)
	v.SetDefault("target_style", "")
	v.SetDefault("glossary_cap_per_tu", 8)
	v.SetDefault("hard_failure_repair_rounds", 2)
	v.SetDefault("max_tus", 0)

	v.SetDefault("checkpoint_interval", 20)
	v.SetDefault("heartbeat_interval_seconds", 15)
	v.SetDefault("show_progress", true)
	v.SetDefault("log_every_n", 10)
	v.SetDefault("tu_preview_max_chars", 80)
	v.SetDefault("style_guide_path", "")
	v.SetDefault("glossary_path", "")
	v.SetDefault("debug_dump", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
}

// bindNestedEnv binds DOCTRAN_ prefixed nested keys explicitly, since
// AutomaticEnv alone does not resolve nested mapstructure keys through the
// "." -> "_" replacer for every viper version in the pack's lockfile.
func bindNestedEnv(v *viper.Viper) {
	nested := []string{
		"translate.path", "translate.context_window", "translate.threads",
		"translate.gpu_layers", "translate.seed", "translate.chat_template",
		"translate_fallback.path", "translate_fallback.context_window",
		"agent.path", "agent.context_window", "agent.threads",
		"agent.gpu_layers", "agent.seed", "agent.chat_template",
		"embedding.path", "embedding.chat_template",
	}
	for _, key := range nested {
		envKey := "DOCTRAN_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		_ = v.BindEnv(key, envKey)
	}
}

var validate = validator.New()

func validateSettings(s *Settings) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("config: invalid settings: %w", err)
	}
	return nil
}

// IsVerbose and IsQuiet mirror the CLI layer's level-selection helpers.
func (s *Settings) IsVerbose() bool { return s.Verbose && !s.Quiet }
func (s *Settings) IsQuiet() bool   { return s.Quiet }
