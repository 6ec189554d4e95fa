package cli

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"adkplatform/internal/lifecycle"
	"adkplatform/internal/panel"
)

func newLoopCommand(app *App) *cobra.Command {
	var (
		start string
		steps int
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "loop",
		Short: "Run the panel rotation unattended",
		Long: `Run panels in continuous mode. After each task the rotation waits for the
configured delay, applies the transition's context mutation and runs the
next panel. A failed task does not stop the rotation.

The command ends after --steps tasks, or on interrupt when --steps is 0.
It exits non-zero if any task failed.

Example:
  adkplatform loop --steps 6 --delay 2s
  adkplatform loop --start crm --offline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("delay") {
				app.Config.Loop.Delay = delay
			}
			if steps < 0 {
				return fmt.Errorf("--steps must not be negative, got %d", steps)
			}

			ctx := cmd.Context()
			if err := app.buildLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			printer := app.attachPrinter(cmd.OutOrStdout())

			var (
				outcomes = make(chan lifecycle.Outcome, 16)
				done     = make(chan struct{})
				count    atomic.Int64
			)
			defer close(done)
			app.Loop.OnOutcome(func(out lifecycle.Outcome) {
				if steps > 0 && count.Add(1) == int64(steps) {
					app.Loop.Stop()
				}
				select {
				case outcomes <- out:
				case <-done:
				}
			})

			began := time.Now()
			if _, _, err := app.Loop.StartContinuous(ctx, panel.ID(start)); err != nil {
				return err
			}

			var results []lifecycle.Outcome
		wait:
			for steps == 0 || len(results) < steps {
				select {
				case out := <-outcomes:
					results = append(results, out)
				case <-ctx.Done():
					break wait
				}
			}
			app.Loop.Stop()
			app.Loop.Wait()

			printer.CycleSummary(results, time.Since(began), app.Store.Get())
			for _, out := range results {
				if !out.Succeeded() {
					return NewExitError(1)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Panel to start from (default: loop.start_panel)")
	cmd.Flags().IntVar(&steps, "steps", 0, "Number of tasks to run, 0 for no limit")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Pause between tasks (default: loop.delay)")
	return cmd
}
