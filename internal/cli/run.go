package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"adkplatform/internal/panel"
)

func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run <panel> [input...]",
		Short: "Run one panel task",
		Long: `Run a single panel task against the shared context and print its output.

Optional input is passed to the task: the ide panel treats it as the name of
a new feature, the image panel as an edit instruction.

Example:
  adkplatform run crm
  adkplatform run ide "Green Bonds"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.buildLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			app.attachPrinter(cmd.OutOrStdout())

			id := panel.ID(args[0])
			out, _, err := app.Loop.StartManual(ctx, id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if !out.Succeeded() {
				return NewExitError(1)
			}
			return nil
		},
	}
}
