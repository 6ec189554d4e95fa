package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
)

// testConfig returns a configuration that runs quickly and prints plain text.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Loop.Delay = time.Millisecond
	cfg.Deploy.StepDuration = 0
	cfg.Output.Markdown.Enabled = false
	cfg.Output.TruncateLength = 0
	return cfg
}

// newTestApp returns an App wired to exec with logs discarded. A nil exec
// leaves the executor to be built from the configuration.
func newTestApp(t *testing.T, exec action.Executor) *App {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)
	return &App{
		Config:   testConfig(),
		Log:      log,
		Executor: exec,
		Stepper:  action.NewSimulatedExecutor(0),
	}
}

// commandResult holds what a command wrote and returned.
type commandResult struct {
	stdout string
	stderr string
	err    error
}

// executeCommand runs the root command with args and the given stdin.
func executeCommand(t *testing.T, app *App, stdin string, args ...string) commandResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(app)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return commandResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// textExecutor replies to every request with text, and with a small image
// for image capabilities.
func textExecutor(text string) *action.MockExecutor {
	return &action.MockExecutor{
		Hook: func(ctx context.Context, req action.Request) (*action.Result, error) {
			switch req.Capability {
			case action.CapabilityImage, action.CapabilityImageEdit:
				return &action.Result{Image: &action.Attachment{Data: []byte{1, 2, 3}, MIMEType: "image/png"}}, nil
			case action.CapabilityStreamingText:
				if req.OnChunk != nil {
					req.OnChunk(text)
				}
			}
			return &action.Result{Text: text}, nil
		},
	}
}
