// Package config provides configuration loading and management for adkplatform.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The package provides defaults that run the full six panel
// rotation out of the box, with the ability to customize prompts, models, the
// rotation table, mutation constants and output formatting.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [PanelConfig] defines a single panel's prompt templates and options
//   - [LoopConfig] controls the rotation delay, start panel and transition table
//
// Configuration priority (highest to lowest):
//  1. Environment variables (ADKPLATFORM_ prefix; the API key also falls back
//     to GEMINI_API_KEY and GOOGLE_API_KEY)
//  2. Config file specified by ADKPLATFORM_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/adkplatform/config.yaml
//     - macOS: ~/Library/Application Support/adkplatform/config.yaml
//     - Windows: %APPDATA%\adkplatform\config.yaml
//  4. ./config.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"time"

	"adkplatform/internal/highlight"
)

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// API contains credentials and connection settings for the Gemini API.
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Models maps capabilities to model names.
	Models ModelsConfig `mapstructure:"models" yaml:"models"`

	// Loop controls continuous mode.
	Loop LoopConfig `mapstructure:"loop" yaml:"loop"`

	// Context is the initial shared context for a session.
	Context ContextConfig `mapstructure:"context" yaml:"context"`

	// Panels maps panel identifiers to their prompt configuration.
	// Keys are panel IDs (e.g., "terminal", "ide").
	Panels map[string]PanelConfig `mapstructure:"panels" yaml:"panels"`

	// Deploy configures the simulated rollout.
	Deploy DeployConfig `mapstructure:"deploy" yaml:"deploy"`

	// Highlights are the keyword rules applied to the terminal feed.
	Highlights []highlight.Rule `mapstructure:"highlights" yaml:"highlights"`

	// Output contains terminal output formatting configuration.
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Log contains logging configuration.
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// APIConfig contains Gemini API settings.
type APIConfig struct {
	// Key is the default API key. Can be set with ADKPLATFORM_API_KEY,
	// GEMINI_API_KEY or GOOGLE_API_KEY.
	Key string `mapstructure:"key" yaml:"key"`

	// PremiumKey unlocks privileged models. When empty, the user is asked
	// for one the first time a privileged capability is needed.
	PremiumKey string `mapstructure:"premium_key" yaml:"premium_key"`

	// Offline replaces the Gemini API with a simulated executor.
	Offline bool `mapstructure:"offline" yaml:"offline"`

	// Timeout bounds each executor call. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ModelsConfig contains the model used for each capability.
type ModelsConfig struct {
	Text         string `mapstructure:"text" yaml:"text"`
	Image        string `mapstructure:"image" yaml:"image"`
	ImagePremium string `mapstructure:"image_premium" yaml:"image_premium"`
	ImageEdit    string `mapstructure:"image_edit" yaml:"image_edit"`
}

// LoopConfig controls the orchestration loop.
type LoopConfig struct {
	// Delay is the pause between rotation steps.
	// Default: 5s
	Delay time.Duration `mapstructure:"delay" yaml:"delay"`

	// StartPanel is the panel selected at startup.
	// Default: "terminal"
	StartPanel string `mapstructure:"start_panel" yaml:"start_panel"`

	// ManifestPath points to a rotation manifest CSV. When set it takes
	// precedence over Transitions.
	ManifestPath string `mapstructure:"manifest_path" yaml:"manifest_path"`

	// Transitions is an inline rotation table. Empty means the built-in
	// six panel rotation.
	Transitions []TransitionConfig `mapstructure:"transitions" yaml:"transitions"`

	// Growth bounds the random user count increase of "grow" mutations.
	Growth GrowthConfig `mapstructure:"growth" yaml:"growth"`

	// Upgrade holds the replacement values of "upgrade" mutations.
	Upgrade UpgradeConfig `mapstructure:"upgrade" yaml:"upgrade"`
}

// TransitionConfig is one row of an inline rotation table.
type TransitionConfig struct {
	Panel    string `mapstructure:"panel" yaml:"panel"`
	Next     string `mapstructure:"next" yaml:"next"`
	Mutation string `mapstructure:"mutation" yaml:"mutation"`
	Message  string `mapstructure:"message" yaml:"message"`
}

// GrowthConfig bounds user growth (inclusive).
type GrowthConfig struct {
	Min int `mapstructure:"min" yaml:"min"`
	Max int `mapstructure:"max" yaml:"max"`
}

// UpgradeConfig holds the strings written by an upgrade.
type UpgradeConfig struct {
	Feature        string `mapstructure:"feature" yaml:"feature"`
	Infrastructure string `mapstructure:"infrastructure" yaml:"infrastructure"`
}

// ContextConfig is the initial shared context.
type ContextConfig struct {
	Feature        string `mapstructure:"feature" yaml:"feature"`
	UserCount      int    `mapstructure:"user_count" yaml:"user_count"`
	Infrastructure string `mapstructure:"infrastructure" yaml:"infrastructure"`
}

// PanelConfig represents a single panel's prompts and request options.
//
// Templates are Go text/template strings expanded with [PromptData].
type PanelConfig struct {
	// Prompt is the main prompt template.
	// Example: "Write a landing page for {{.Feature}}"
	Prompt string `mapstructure:"prompt" yaml:"prompt"`

	// FollowUpPrompt is used by panels that make a second call: the security
	// audit after code generation and in-place edits of the last image.
	FollowUpPrompt string `mapstructure:"follow_up_prompt" yaml:"follow_up_prompt,omitempty"`

	// SearchGrounding enables web search grounding for the request.
	SearchGrounding bool `mapstructure:"search_grounding" yaml:"search_grounding,omitempty"`

	// AspectRatio and Size apply to image generation.
	AspectRatio string `mapstructure:"aspect_ratio" yaml:"aspect_ratio,omitempty"`
	Size        string `mapstructure:"size" yaml:"size,omitempty"`

	// Premium requests the privileged model for this panel.
	Premium bool `mapstructure:"premium" yaml:"premium,omitempty"`
}

// DeployConfig configures the simulated rollout.
type DeployConfig struct {
	// Stages are the rollout stage names, in order.
	Stages []string `mapstructure:"stages" yaml:"stages"`

	// StepDuration is the simulated duration of each stage.
	StepDuration time.Duration `mapstructure:"step_duration" yaml:"step_duration"`
}

// OutputConfig contains terminal output formatting configuration.
type OutputConfig struct {
	// TruncateLength is the maximum length of a status line.
	// Default: 100
	TruncateLength int `mapstructure:"truncate_length" yaml:"truncate_length"`

	// Markdown contains markdown rendering configuration.
	Markdown MarkdownConfig `mapstructure:"markdown" yaml:"markdown"`
}

// MarkdownConfig contains configuration for markdown rendering in terminal output.
//
// When enabled, panel content is rendered with proper formatting:
// bold, italic, headers, code blocks with syntax highlighting, lists, etc.
type MarkdownConfig struct {
	// Enabled controls whether markdown rendering is active.
	// Default: true
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Style is the glamour theme to use: "dark", "light", "dracula", "tokyo-night".
	// Avoid "auto" as it can cause detection delays on some terminals.
	// Default: "dark"
	Style string `mapstructure:"style" yaml:"style"`

	// WordWrap is the column width for text wrapping.
	// Default: 100
	WordWrap int `mapstructure:"word_wrap" yaml:"word_wrap"`

	// Emoji enables emoji shortcode rendering (e.g., :rocket:).
	// Default: true
	Emoji bool `mapstructure:"emoji" yaml:"emoji"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is a logrus level name. Default: "info"
	Level string `mapstructure:"level" yaml:"level"`

	// JSON switches to the logrus JSON formatter.
	JSON bool `mapstructure:"json" yaml:"json"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// The defaults include prompts for all six panels, the Gemini models, the
// built-in rotation with its growth and upgrade constants, and output
// formatting settings. These defaults work out of the box without any
// configuration file.
func DefaultConfig() *Config {
	return &Config{
		Models: ModelsConfig{
			Text:         "gemini-2.5-flash",
			Image:        "imagen-4.0-generate-001",
			ImagePremium: "imagen-4.0-ultra-generate-001",
			ImageEdit:    "gemini-2.5-flash-image",
		},
		Loop: LoopConfig{
			Delay:      5 * time.Second,
			StartPanel: "terminal",
			Growth:     GrowthConfig{Min: 50, Max: 500},
			Upgrade: UpgradeConfig{
				Feature:        "Fractional Ownership Marketplace",
				Infrastructure: "Multi-region Kubernetes with global CDN",
			},
		},
		Context: ContextConfig{
			Feature:        "Tokenized Real Estate",
			UserCount:      1000,
			Infrastructure: "Single-region VM",
		},
		Panels: map[string]PanelConfig{
			"terminal": {
				Prompt: "Generate 15 realistic server log lines for a platform offering {{.Feature}} " +
					"to {{.UserCount}} users on {{.Infrastructure}}. Mix INFO, WARN and ERROR levels, " +
					"mention signups, deploys and API latency. Output only the log lines.",
			},
			"crm": {
				Prompt: "Create a sales pipeline for {{.Feature}}. There are {{.Leads}} leads, " +
					"{{.Qualified}} qualified prospects and {{.Customers}} customers. Return a JSON array " +
					"of 6 cards with fields name, company, stage (lead|qualified|customer) and value.",
			},
			"ide": {
				Prompt: "Write a concise Go HTTP handler implementing the core of {{.Feature}}. " +
					"Return only a single fenced code block.",
				FollowUpPrompt: "Perform a security audit of this code. List vulnerabilities by severity " +
					"with a one-line fix each, in markdown.\n\n{{.Code}}",
			},
			"deploy": {
				Prompt: "Write a short markdown release note for {{.Feature}} deployed to " +
					"{{.Infrastructure}}, serving {{.UserCount}} users.",
			},
			"marketing": {
				Prompt: "Write a launch campaign in markdown for {{.Feature}}: a headline, three " +
					"benefit bullets and a call to action. Reference current market trends.",
				SearchGrounding: true,
			},
			"image": {
				Prompt:         "A clean, modern hero image for a product called {{.Feature}}, isometric style.",
				FollowUpPrompt: "Edit this image: {{.Input}}",
				AspectRatio:    "16:9",
				Size:           "1K",
			},
		},
		Deploy: DeployConfig{
			Stages:       []string{"Build", "Test", "Security scan", "Canary", "Rollout"},
			StepDuration: 400 * time.Millisecond,
		},
		Highlights: highlight.DefaultRules(),
		Output: OutputConfig{
			TruncateLength: 100,
			Markdown: MarkdownConfig{
				Enabled:  true,
				Style:    "dark",
				WordWrap: 100,
				Emoji:    true,
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// PromptData contains data for panel template expansion.
//
// This struct is passed to Go's text/template when expanding panel prompts.
// Fields are accessible in templates using {{.FieldName}} syntax.
type PromptData struct {
	Feature        string
	UserCount      int
	Infrastructure string

	// Input is the free text the user supplied when starting the panel.
	Input string

	// Code is the generated code handed to the audit prompt.
	Code string

	// Leads, Qualified and Customers are the derived CRM funnel counts.
	Leads     int
	Qualified int
	Customers int
}
