package tasks

import (
	"context"
	"fmt"
	"strings"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/panel"
	"adkplatform/internal/platform"
)

// IDE generates code for the current feature and then audits it.
//
// Non-empty input names a new feature. The code is generated for it and, if
// both calls succeed, it becomes the shared context's feature.
type IDE struct {
	Config *config.Config
}

// Run implements [panel.Task].
func (t *IDE) Run(ctx context.Context, env panel.Env) (panel.Output, error) {
	data := promptData(env.Context, env.Input)
	feature := strings.TrimSpace(env.Input)
	if feature != "" {
		data.Feature = feature
	}

	prompt, err := t.Config.GetPrompt(string(panel.IDE), data)
	if err != nil {
		return panel.Output{}, err
	}
	env.Updates.Progress("Generating code", 0)
	gen, err := env.Executor.Execute(ctx, action.Request{Prompt: prompt, Capability: action.CapabilityText})
	if err != nil {
		return panel.Output{}, fmt.Errorf("code generation: %w", err)
	}
	code := extractCode(gen.Text)
	env.Updates.Replace(panel.Content{Markdown: gen.Text})

	data.Code = code
	auditPrompt, err := t.Config.GetFollowUpPrompt(string(panel.IDE), data)
	if err != nil {
		return panel.Output{}, err
	}
	env.Updates.Progress("Auditing code", 50)
	audit, err := env.Executor.Execute(ctx, action.Request{Prompt: auditPrompt, Capability: action.CapabilityText})
	if err != nil {
		return panel.Output{}, fmt.Errorf("security audit: %w", err)
	}
	env.Updates.Progress("Audit complete", 100)

	out := panel.Output{
		Content: panel.Content{
			Markdown: gen.Text + "\n\n## Security audit\n\n" + audit.Text,
			Data:     map[string]any{"code": code, "audit": audit.Text},
		},
		Summary: fmt.Sprintf("Generated and audited code for %s", data.Feature),
	}
	if feature != "" {
		out.Mutation = func(c platform.Context) platform.Context {
			c.Feature = feature
			return c
		}
	}
	return out, nil
}

// extractCode returns the body of the first fenced code block in text, or
// text itself when there is none.
func extractCode(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return strings.TrimSpace(text)
	}
	body := text[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
