package tasks

import (
	"context"
	"fmt"
	"strings"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/highlight"
	"adkplatform/internal/panel"
)

// Terminal streams a simulated server log.
type Terminal struct {
	Config *config.Config
	Rules  highlight.Rules
}

// Run implements [panel.Task].
func (t *Terminal) Run(ctx context.Context, env panel.Env) (panel.Output, error) {
	prompt, err := t.Config.GetPrompt(string(panel.Terminal), promptData(env.Context, env.Input))
	if err != nil {
		return panel.Output{}, err
	}

	text, _, err := stream(ctx, env, action.Request{Prompt: prompt}, t.Rules)
	if err != nil {
		return panel.Output{}, err
	}

	lines := strings.Count(strings.TrimRight(text, "\n"), "\n") + 1
	return panel.Output{
		Content: panel.Content{
			Markdown: text,
			Data:     map[string]any{"lines": lines},
		},
		Summary: fmt.Sprintf("Streamed %d log lines", lines),
	}, nil
}
