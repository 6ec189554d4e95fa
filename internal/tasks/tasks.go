// Package tasks implements the six dashboard panels as [panel.Task] values.
//
// Every task builds its prompts from the panel's templates in [config.Config],
// performs one or more executor calls, pushes incremental output through
// [panel.Updates], and returns its final content plus an optional context
// mutation. None of them touch the shared context directly.
//
// Panels:
//   - [Terminal] streams a log feed and highlights keywords per chunk
//   - [CRM] derives funnel counts from the user count and asks for kanban cards
//   - [IDE] generates code, then audits it
//   - [Deploy] walks through timed rollout stages, then writes a release note
//   - [Marketing] streams a search-grounded campaign
//   - [Image] generates a hero image or edits the previous one in place
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/credential"
	"adkplatform/internal/highlight"
	"adkplatform/internal/panel"
	"adkplatform/internal/platform"
)

// Deps are the collaborators shared by the panel tasks.
type Deps struct {
	// Gate answers whether privileged models may be used. Optional.
	Gate credential.Gate

	// Stepper runs the simulated rollout stages of [Deploy]. Defaults to a
	// [action.SimulatedExecutor] using the configured step duration.
	Stepper action.Executor

	Log logrus.FieldLogger
}

// Register adds all six panel tasks to reg, in [panel.Builtin] order.
func Register(reg *panel.Registry, cfg *config.Config, deps Deps) error {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.Stepper == nil {
		deps.Stepper = action.NewSimulatedExecutor(cfg.Deploy.StepDuration)
	}

	tasks := map[panel.ID]panel.Task{
		panel.Terminal:  &Terminal{Config: cfg, Rules: highlight.Rules(cfg.Highlights)},
		panel.IDE:       &IDE{Config: cfg},
		panel.Deploy:    &Deploy{Config: cfg, Stepper: deps.Stepper},
		panel.Marketing: &Marketing{Config: cfg},
		panel.Image:     &Image{Config: cfg, Gate: deps.Gate, Log: deps.Log},
		panel.CRM:       &CRM{Config: cfg},
	}
	for _, id := range panel.Builtin {
		if err := reg.Register(id, tasks[id]); err != nil {
			return fmt.Errorf("failed to register %s: %w", id, err)
		}
	}
	return nil
}

func promptData(c platform.Context, input string) config.PromptData {
	return config.PromptData{
		Feature:        c.Feature,
		UserCount:      c.UserCount,
		Infrastructure: c.Infrastructure,
		Input:          input,
	}
}

// stream runs a streaming request, forwarding each chunk to env.Updates in
// arrival order. Highlight rules are evaluated once per chunk. If the stream
// breaks after delivering output, the partial text is kept and an
// interruption marker is appended before the error is returned.
func stream(ctx context.Context, env panel.Env, req action.Request, rules highlight.Rules) (string, *action.Result, error) {
	buf := action.NewStreamBuffer(func(chunk string) {
		env.Updates.Append(chunk)
		if targets := rules.Match(chunk); len(targets) > 0 {
			env.Updates.Highlight(targets)
		}
	})
	req.Capability = action.CapabilityStreamingText
	req.OnChunk = buf.Append

	res, err := env.Executor.Execute(ctx, req)
	if err != nil {
		if buf.Chunks() > 0 {
			buf.Interrupt(err)
			if !errors.Is(err, action.ErrStreamInterrupted) {
				err = action.NewFailure(action.KindStreamInterrupted, req.Capability, err)
			}
		}
		return buf.String(), res, err
	}

	// Executors that do not stream still return the full text.
	if buf.Chunks() == 0 && res != nil && res.Text != "" {
		buf.Append(res.Text)
	}
	if strings.TrimSpace(buf.String()) == "" {
		return "", res, action.NewFailure(action.KindEmptyResponse, req.Capability, nil)
	}
	return buf.String(), res, nil
}

func sourcesMarkdown(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n**Sources**\n")
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if seen[s] {
			continue
		}
		seen[s] = true
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return b.String()
}
