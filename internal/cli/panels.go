package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"adkplatform/internal/panel"
)

func newPanelsCommand(app *App) *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:   "panels",
		Short: "List panels and check the rotation",
		Long: `List the registered panels with their outgoing transition, print the
rotation cycle from the start panel and validate the rotation table.

Exits non-zero when the rotation is invalid: a panel without a transition,
a transition to an unknown panel, or a panel the rotation never reaches.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.buildRotation(); err != nil {
				return err
			}
			if start == "" {
				start = app.Config.Loop.StartPanel
			}
			if start == "" {
				start = string(panel.Builtin[0])
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Panels:")
			for _, t := range app.Router.Transitions() {
				marker := " "
				if !app.Registry.Has(t.Panel) {
					marker = "?"
				}
				fmt.Fprintf(w, " %s %-10s -> %-10s %-28s %s\n", marker, t.Panel, t.Next, t.Mutation.String(), t.Message)
			}

			cycle, cycleErr := app.Router.Cycle(panel.ID(start))
			names := make([]string, len(cycle))
			for i, id := range cycle {
				names[i] = string(id)
			}
			fmt.Fprintf(w, "\nRotation from %s: %s\n", start, strings.Join(names, " -> "))

			if err := app.Router.Validate(app.Registry, panel.ID(start)); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\nRotation is invalid:\n%v\n", err)
				return NewExitError(1)
			}
			if cycleErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\nRotation is invalid: %v\n", cycleErr)
				return NewExitError(1)
			}
			fmt.Fprintln(w, "Rotation is valid.")
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Panel the rotation starts from (default: loop.start_panel)")
	return cmd
}
