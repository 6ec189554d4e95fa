package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/credential"
	"adkplatform/internal/event"
	"adkplatform/internal/lifecycle"
	"adkplatform/internal/manifest"
	"adkplatform/internal/output"
	"adkplatform/internal/panel"
	"adkplatform/internal/platform"
	"adkplatform/internal/router"
	"adkplatform/internal/status"
	"adkplatform/internal/tasks"
)

// offlineCards is the kanban reply of the simulated executor.
const offlineCards = `[
  {"name": "Ada Park", "company": "Harbor Estates", "stage": "lead", "value": 12000},
  {"name": "Luis Ortega", "company": "Northwind REIT", "stage": "lead", "value": 8500},
  {"name": "Mina Cho", "company": "Bluegate Capital", "stage": "qualified", "value": 24000},
  {"name": "Sam Reed", "company": "Oakline Homes", "stage": "qualified", "value": 15500},
  {"name": "Priya Nair", "company": "Summit Trust", "stage": "customer", "value": 41000},
  {"name": "Tom Weller", "company": "Keystone Lofts", "stage": "customer", "value": 19000}
]`

// buildRotation builds the panel registry and the rotation table.
func (app *App) buildRotation() error {
	cfg := app.Config
	if app.Gate == nil {
		app.Gate = credential.NewKeyGate(cfg.API.PremiumKey, nil)
	}
	if app.Registry == nil {
		reg := panel.NewRegistry()
		if err := tasks.Register(reg, cfg, tasks.Deps{Gate: app.Gate, Stepper: app.Stepper, Log: app.Log}); err != nil {
			return err
		}
		app.Registry = reg
	}
	if app.Router == nil {
		rt, err := buildRouter(cfg)
		if err != nil {
			return err
		}
		app.Router = rt
	}
	return nil
}

// buildLoop builds everything a command needs to run panel tasks. prompt
// input for the premium key is read from in and written to out; pass a nil
// reader to disable prompting.
func (app *App) buildLoop(ctx context.Context, in io.Reader, out io.Writer) error {
	if app.Loop != nil {
		return nil
	}
	cfg := app.Config

	if app.Gate == nil {
		var prompter credential.Prompter
		if in != nil {
			prompter = credential.LinePrompter(in, out)
		}
		app.Gate = credential.NewKeyGate(cfg.API.PremiumKey, prompter)
	}
	if err := app.buildRotation(); err != nil {
		return err
	}

	if app.Store == nil {
		initial := platform.Context{
			Feature:        cfg.Context.Feature,
			UserCount:      cfg.Context.UserCount,
			Infrastructure: cfg.Context.Infrastructure,
		}
		if err := initial.Validate(); err != nil {
			return fmt.Errorf("invalid initial context: %w", err)
		}
		app.Store = platform.NewStore(initial)
	}
	if app.Executor == nil {
		exec, err := newExecutor(ctx, cfg, app.Gate)
		if err != nil {
			return err
		}
		app.Executor = exec
	}
	if app.Status == nil {
		app.Status = status.NewReporter()
	}
	if app.Bus == nil {
		app.Bus = event.NewBus(app.Log)
	}

	loop, err := lifecycle.New(lifecycle.Config{
		Registry: app.Registry,
		Router:   app.Router,
		Store:    app.Store,
		Executor: action.NewLogged(action.NewGated(app.Executor, app.Gate), app.Log),
		Status:   app.Status,
		Bus:      app.Bus,
		Start:    panel.ID(cfg.Loop.StartPanel),
		Delay:    loopDelay(cfg.Loop.Delay),
		Log:      app.Log,
	})
	if err != nil {
		return err
	}
	app.Loop = loop
	return nil
}

// attachPrinter connects the printer to the loop's events and outcomes.
func (app *App) attachPrinter(w io.Writer) *output.Printer {
	if app.Printer == nil {
		app.Printer = output.NewPrinterWithWriter(w, app.Config.Output)
	}
	app.Printer.SetContextSource(app.Store.Get)
	app.Printer.Attach(app.Bus)
	app.Loop.OnOutcome(app.Printer.Outcome)
	return app.Printer
}

// newExecutor builds the backend executor. Offline mode uses canned output.
func newExecutor(ctx context.Context, cfg *config.Config, gate credential.Gate) (action.Executor, error) {
	if cfg.API.Offline {
		sim := action.NewSimulatedExecutor(cfg.Deploy.StepDuration)
		sim.Canned = map[action.Capability]string{action.CapabilityStructuredText: offlineCards}
		return sim, nil
	}

	var opts []action.GenAIOption
	if kg, ok := gate.(*credential.KeyGate); ok {
		opts = append(opts, action.WithPrivilegedKey(kg.Key))
	}
	exec, err := action.NewGenAIExecutor(ctx, cfg.API.Key, action.Models{
		Text:         cfg.Models.Text,
		Image:        cfg.Models.Image,
		ImagePremium: cfg.Models.ImagePremium,
		ImageEdit:    cfg.Models.ImageEdit,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w (set api.key, GEMINI_API_KEY or use --offline)", err)
	}
	return action.NewTimeout(exec, cfg.API.Timeout), nil
}

// buildRouter resolves the rotation table: a manifest file first, then
// inline transitions, then the built-in rotation.
func buildRouter(cfg *config.Config) (*router.Router, error) {
	mutations := map[string]router.Mutation{
		string(router.MutationGrow): {
			Kind: router.MutationGrow,
			Min:  cfg.Loop.Growth.Min,
			Max:  cfg.Loop.Growth.Max,
		},
		string(router.MutationUpgrade): {
			Kind:           router.MutationUpgrade,
			Feature:        cfg.Loop.Upgrade.Feature,
			Infrastructure: cfg.Loop.Upgrade.Infrastructure,
		},
	}

	switch {
	case cfg.Loop.ManifestPath != "":
		m, err := manifest.ReadFromFile(cfg.Loop.ManifestPath)
		if err != nil {
			return nil, err
		}
		return router.NewRouterFromManifest(m, mutations)

	case len(cfg.Loop.Transitions) > 0:
		m := &manifest.Manifest{}
		for _, t := range cfg.Loop.Transitions {
			m.Entries = append(m.Entries, manifest.TransitionEntry{
				Panel:    t.Panel,
				Next:     t.Next,
				Mutation: t.Mutation,
				Message:  t.Message,
			})
		}
		return router.NewRouterFromManifest(m, mutations)
	}

	transitions := router.DefaultTransitions()
	for i, t := range transitions {
		if mut, ok := mutations[string(t.Mutation.Kind)]; ok {
			transitions[i].Mutation = mut
		}
	}
	return router.New(transitions)
}

// loopDelay maps a configured delay onto the loop's convention, where zero
// selects the default and negative means no delay.
func loopDelay(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}
