package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"adkplatform/internal/config"
)

const redacted = "<redacted>"

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	var showSecrets bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after defaults, the config file and environment
overrides have been merged. API keys are redacted unless --show-secrets is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *app.Config
			if !showSecrets {
				cfg.API = redactAPI(cfg.API)
			}

			data, err := yaml.Marshal(&cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	show.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print API keys in clear text")

	cmd.AddCommand(show)
	return cmd
}

func redactAPI(api config.APIConfig) config.APIConfig {
	if api.Key != "" {
		api.Key = redacted
	}
	if api.PremiumKey != "" {
		api.PremiumKey = redacted
	}
	return api
}
