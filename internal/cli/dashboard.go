package cli

import (
	"io"

	"github.com/spf13/cobra"

	"adkplatform/internal/tui"
)

func newDashboardCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the interactive terminal dashboard",
		Long: `Open a full-screen dashboard with one tab per panel. Run the selected panel,
give it input, toggle autonomous mode and copy panel output to the clipboard.
Press ? for all key bindings.

Logs are discarded while the dashboard owns the terminal unless --debug is set.
Premium image generation cannot prompt for a key here; configure
api.premium_key beforehand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.flags.debug {
				app.Log.SetOutput(io.Discard)
			}

			ctx := cmd.Context()
			if err := app.buildLoop(ctx, nil, nil); err != nil {
				return err
			}

			return tui.Run(ctx, tui.Options{
				Loop:     app.Loop,
				Bus:      app.Bus,
				Panels:   app.Registry.IDs(),
				Context:  app.Store.Get,
				Markdown: app.Config.Output.Markdown,
			})
		},
	}
}
