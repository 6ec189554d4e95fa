package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/credential"
	"adkplatform/internal/panel"
)

// Image generates a hero image, or edits the last one when given input.
//
// When the panel is configured for the premium model and the request is
// rejected as unauthorized, the task asks the gate for the privileged
// capability once and retries.
type Image struct {
	Config *config.Config
	Gate   credential.Gate
	Log    logrus.FieldLogger

	mu   sync.Mutex
	last *action.Attachment
}

// Run implements [panel.Task].
func (t *Image) Run(ctx context.Context, env panel.Env) (panel.Output, error) {
	pc, _ := t.Config.Panel(string(panel.Image))
	data := promptData(env.Context, env.Input)

	req := action.Request{
		Capability: action.CapabilityImage,
		Privileged: pc.Premium,
		Options:    action.Options{AspectRatio: pc.AspectRatio, Size: pc.Size},
	}
	var err error
	edit := strings.TrimSpace(env.Input) != "" && t.Last() != nil
	if edit {
		req.Capability = action.CapabilityImageEdit
		req.Attachment = t.Last()
		req.Prompt, err = t.Config.GetFollowUpPrompt(string(panel.Image), data)
	} else {
		req.Prompt, err = t.Config.GetPrompt(string(panel.Image), data)
	}
	if err != nil {
		return panel.Output{}, err
	}

	env.Updates.Progress("Rendering", 0)
	res, err := t.execute(ctx, env.Executor, req)
	if err != nil {
		return panel.Output{}, err
	}
	if res.Image == nil {
		return panel.Output{}, action.NewFailure(action.KindEmptyResponse, req.Capability, errors.New("no image returned"))
	}
	env.Updates.Progress("Rendered", 100)

	t.mu.Lock()
	t.last = res.Image
	t.mu.Unlock()

	summary := fmt.Sprintf("Generated visual for %s", env.Context.Feature)
	if edit {
		summary = "Edited the current visual"
	}
	return panel.Output{
		Content: panel.Content{
			Markdown: res.Text,
			Image:    res.Image,
			Data:     map[string]any{"edited": edit, "mime_type": res.Image.MIMEType, "bytes": len(res.Image.Data)},
		},
		Summary: summary,
	}, nil
}

// Last returns the most recently generated image, or nil.
func (t *Image) Last() *action.Attachment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (t *Image) execute(ctx context.Context, exec action.Executor, req action.Request) (*action.Result, error) {
	res, err := exec.Execute(ctx, req)
	if err == nil || !req.Privileged || t.Gate == nil || !errors.Is(err, action.ErrUnauthorized) {
		return res, err
	}

	if t.Log != nil {
		t.Log.WithField("panel", panel.Image).Info("premium model needs a key, requesting one")
	}
	if gateErr := t.Gate.RequestPrivilegedCapability(ctx); gateErr != nil {
		return nil, action.NewFailure(action.KindUnauthorized, req.Capability, gateErr)
	}
	return exec.Execute(ctx, req)
}
