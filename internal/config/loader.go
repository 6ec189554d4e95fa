package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of every environment override.
	EnvPrefix = "ADKPLATFORM"

	// ConfigPathEnv names a config file to load instead of the search path.
	ConfigPathEnv = EnvPrefix + "_CONFIG_PATH"

	appName        = "adkplatform"
	configFileName = "config.yaml"
)

// envBindings lists keys that can be overridden from the environment even
// when no config file mentions them. Extra names are fallbacks.
var envBindings = map[string][]string{
	"api.key":            {EnvPrefix + "_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"api.premium_key":    {EnvPrefix + "_API_PREMIUM_KEY"},
	"api.offline":        {EnvPrefix + "_API_OFFLINE"},
	"api.timeout":        {EnvPrefix + "_API_TIMEOUT"},
	"models.text":        {EnvPrefix + "_MODELS_TEXT"},
	"loop.delay":         {EnvPrefix + "_LOOP_DELAY"},
	"loop.start_panel":   {EnvPrefix + "_LOOP_START_PANEL"},
	"loop.manifest_path": {EnvPrefix + "_LOOP_MANIFEST_PATH"},
	"log.level":          {EnvPrefix + "_LOG_LEVEL"},
	"log.json":           {EnvPrefix + "_LOG_JSON"},
}

// Loader loads configuration through Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a [Loader] with environment overrides enabled.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	return &Loader{v: v}
}

// Load resolves the config file (see the package documentation for the
// search order) and returns the merged configuration. A missing config file
// is not an error; defaults and environment overrides still apply.
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return l.LoadFromFile(path)
	}

	var candidates []string
	if p, err := DefaultConfigPath(); err == nil {
		candidates = append(candidates, p)
	}
	candidates = append(candidates, configFileName)

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return l.LoadFromFile(p)
		}
	}
	return l.unmarshal()
}

// LoadFromFile loads configuration from the given file. The format is
// inferred from the extension (YAML, JSON and TOML are supported).
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	cfg := DefaultConfig()

	// Lists from the file replace the defaults instead of merging index by index.
	highlights, stages := cfg.Highlights, cfg.Deploy.Stages
	cfg.Highlights, cfg.Deploy.Stages = nil, nil

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if cfg.Highlights == nil {
		cfg.Highlights = highlights
	}
	if cfg.Deploy.Stages == nil {
		cfg.Deploy.Stages = stages
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad() *Config {
	cfg, err := NewLoader().Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// ConfigDir returns the platform-standard adkplatform config directory.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine user config directory: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// DefaultConfigPath returns the config file path inside [ConfigDir].
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// EnsureConfigDir creates [ConfigDir] if it does not exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.Loop.Delay < 0 {
		errs = append(errs, fmt.Errorf("loop.delay must not be negative, got %s", c.Loop.Delay))
	}
	if c.Loop.Growth.Min < 0 || c.Loop.Growth.Max < c.Loop.Growth.Min {
		errs = append(errs, fmt.Errorf("loop.growth must satisfy 0 <= min <= max, got [%d, %d]",
			c.Loop.Growth.Min, c.Loop.Growth.Max))
	}
	if c.Context.UserCount < 0 {
		errs = append(errs, fmt.Errorf("context.user_count must not be negative, got %d", c.Context.UserCount))
	}
	if c.Deploy.StepDuration < 0 {
		errs = append(errs, fmt.Errorf("deploy.step_duration must not be negative, got %s", c.Deploy.StepDuration))
	}
	return errors.Join(errs...)
}

// GetPrompt expands the main prompt template of the named panel.
func (c *Config) GetPrompt(panelName string, data PromptData) (string, error) {
	pc, ok := c.Panels[panelName]
	if !ok {
		return "", fmt.Errorf("unknown panel: %s", panelName)
	}
	if pc.Prompt == "" {
		return "", fmt.Errorf("no prompt template configured for panel: %s", panelName)
	}
	return expandTemplate(pc.Prompt, data)
}

// GetFollowUpPrompt expands the follow-up prompt template of the named panel.
func (c *Config) GetFollowUpPrompt(panelName string, data PromptData) (string, error) {
	pc, ok := c.Panels[panelName]
	if !ok {
		return "", fmt.Errorf("unknown panel: %s", panelName)
	}
	if pc.FollowUpPrompt == "" {
		return "", fmt.Errorf("no follow-up prompt configured for panel: %s", panelName)
	}
	return expandTemplate(pc.FollowUpPrompt, data)
}

// Panel returns the configuration of the named panel and whether it exists.
func (c *Config) Panel(panelName string) (PanelConfig, bool) {
	pc, ok := c.Panels[panelName]
	return pc, ok
}

func expandTemplate(tmpl string, data PromptData) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
