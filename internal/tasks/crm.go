package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/panel"
)

// Funnel holds the sales funnel counts derived from the user count.
type Funnel struct {
	Leads     int `json:"leads"`
	Qualified int `json:"qualified"`
	Customers int `json:"customers"`
}

// FunnelFor derives the funnel from users: 10% leads, 5% qualified and 2%
// customers, each rounded down.
func FunnelFor(users int) Funnel {
	if users < 0 {
		users = 0
	}
	return Funnel{
		Leads:     users * 10 / 100,
		Qualified: users * 5 / 100,
		Customers: users * 2 / 100,
	}
}

// Card is one kanban card.
type Card struct {
	Name    string  `json:"name"`
	Company string  `json:"company"`
	Stage   string  `json:"stage"`
	Value   float64 `json:"value"`
}

// CRM renders the sales pipeline.
type CRM struct {
	Config *config.Config
}

// Run implements [panel.Task].
func (c *CRM) Run(ctx context.Context, env panel.Env) (panel.Output, error) {
	funnel := FunnelFor(env.Context.UserCount)
	data := promptData(env.Context, env.Input)
	data.Leads, data.Qualified, data.Customers = funnel.Leads, funnel.Qualified, funnel.Customers

	prompt, err := c.Config.GetPrompt(string(panel.CRM), data)
	if err != nil {
		return panel.Output{}, err
	}

	// Counts are known before the call; show them while the cards load.
	env.Updates.Replace(panel.Content{Data: map[string]any{"funnel": funnel}})

	res, err := env.Executor.Execute(ctx, action.Request{
		Prompt:     prompt,
		Capability: action.CapabilityStructuredText,
		Options:    action.Options{ResponseFormat: action.FormatJSON},
	})
	if err != nil {
		return panel.Output{}, err
	}

	cards, err := parseCards(res.Text)
	if err != nil {
		return panel.Output{}, action.NewFailure(action.KindMalformedResponse, action.CapabilityStructuredText, err)
	}

	return panel.Output{
		Content: panel.Content{
			Markdown: pipelineMarkdown(funnel, cards),
			Data:     map[string]any{"funnel": funnel, "cards": cards},
		},
		Summary: fmt.Sprintf("Pipeline: %d leads, %d qualified, %d customers",
			funnel.Leads, funnel.Qualified, funnel.Customers),
	}, nil
}

// parseCards decodes a JSON array of cards, tolerating a surrounding
// markdown code fence.
func parseCards(text string) ([]Card, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var cards []Card
	if err := json.Unmarshal([]byte(text), &cards); err != nil {
		return nil, fmt.Errorf("failed to decode kanban cards: %w", err)
	}
	return cards, nil
}

func pipelineMarkdown(f Funnel, cards []Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "| Leads | Qualified | Customers |\n|---|---|---|\n| %d | %d | %d |\n",
		f.Leads, f.Qualified, f.Customers)
	if len(cards) == 0 {
		return b.String()
	}
	b.WriteString("\n| Name | Company | Stage | Value |\n|---|---|---|---|\n")
	for _, card := range cards {
		fmt.Fprintf(&b, "| %s | %s | %s | %.0f |\n", card.Name, card.Company, card.Stage, card.Value)
	}
	return b.String()
}
