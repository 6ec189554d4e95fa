package tasks

import (
	"context"
	"fmt"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/panel"
)

// Marketing streams a launch campaign for the current feature.
type Marketing struct {
	Config *config.Config
}

// Run implements [panel.Task].
func (m *Marketing) Run(ctx context.Context, env panel.Env) (panel.Output, error) {
	prompt, err := m.Config.GetPrompt(string(panel.Marketing), promptData(env.Context, env.Input))
	if err != nil {
		return panel.Output{}, err
	}
	pc, _ := m.Config.Panel(string(panel.Marketing))

	text, res, err := stream(ctx, env, action.Request{
		Prompt: prompt,
		Options: action.Options{
			SearchGrounding: pc.SearchGrounding,
			ResponseFormat:  action.FormatMarkdown,
		},
	}, nil)
	if err != nil {
		return panel.Output{}, err
	}

	var sources []string
	if res != nil {
		sources = res.Sources
	}
	if extra := sourcesMarkdown(sources); extra != "" {
		env.Updates.Append(extra)
		text += extra
	}

	return panel.Output{
		Content: panel.Content{
			Markdown: text,
			Data:     map[string]any{"sources": sources},
		},
		Summary: fmt.Sprintf("Campaign ready for %s", env.Context.Feature),
	}, nil
}
