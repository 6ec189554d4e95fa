package tasks

import (
	"context"
	"fmt"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/panel"
)

// Deploy simulates a staged rollout and then writes a release note.
type Deploy struct {
	Config *config.Config

	// Stepper performs one timed step per stage.
	Stepper action.Executor
}

// Run implements [panel.Task].
func (d *Deploy) Run(ctx context.Context, env panel.Env) (panel.Output, error) {
	stages := d.Config.Deploy.Stages
	for i, stage := range stages {
		env.Updates.Progress(stage, i*100/len(stages))
		_, err := d.Stepper.Execute(ctx, action.Request{
			Prompt:     fmt.Sprintf("%s: %s on %s", stage, env.Context.Feature, env.Context.Infrastructure),
			Capability: action.CapabilityText,
		})
		if err != nil {
			return panel.Output{}, fmt.Errorf("stage %q: %w", stage, err)
		}
	}
	env.Updates.Progress("Live", 100)

	prompt, err := d.Config.GetPrompt(string(panel.Deploy), promptData(env.Context, env.Input))
	if err != nil {
		return panel.Output{}, err
	}
	note, err := env.Executor.Execute(ctx, action.Request{
		Prompt:     prompt,
		Capability: action.CapabilityText,
		Options:    action.Options{ResponseFormat: action.FormatMarkdown},
	})
	if err != nil {
		return panel.Output{}, fmt.Errorf("release note: %w", err)
	}

	return panel.Output{
		Content: panel.Content{
			Markdown: note.Text,
			Data:     map[string]any{"stages": stages},
		},
		Summary: fmt.Sprintf("Deployed %s to %s", env.Context.Feature, env.Context.Infrastructure),
	}, nil
}
