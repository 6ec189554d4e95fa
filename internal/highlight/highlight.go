// Package highlight maps keywords in streamed text to UI highlight targets.
//
// Rules are declarative: each [Rule] pairs a keyword with the target it
// lights up. A streaming task evaluates the rules once per received chunk
// with [Rules.Match] and forwards the targets to the front end. Matching is
// case-insensitive and a keyword split across two chunks does not match.
package highlight

import (
	"strings"
)

// Rule lights up Target when Keyword appears in a chunk.
type Rule struct {
	Keyword string `mapstructure:"keyword" yaml:"keyword"`
	Target  string `mapstructure:"target" yaml:"target"`
}

// Rules is an ordered rule set.
type Rules []Rule

// DefaultRules returns the rules used for the terminal log feed. Targets are
// panel identifiers, so a log line about a deploy highlights the deploy tab.
func DefaultRules() Rules {
	return Rules{
		{Keyword: "error", Target: "terminal"},
		{Keyword: "deploy", Target: "deploy"},
		{Keyword: "rollout", Target: "deploy"},
		{Keyword: "vulnerab", Target: "ide"},
		{Keyword: "commit", Target: "ide"},
		{Keyword: "signup", Target: "crm"},
		{Keyword: "lead", Target: "crm"},
		{Keyword: "campaign", Target: "marketing"},
		{Keyword: "asset", Target: "image"},
	}
}

// Match returns the targets whose keyword occurs in chunk, in rule order and
// without duplicates. It returns nil when nothing matches.
func (r Rules) Match(chunk string) []string {
	if chunk == "" || len(r) == 0 {
		return nil
	}
	lower := strings.ToLower(chunk)

	var targets []string
	for _, rule := range r {
		if rule.Keyword == "" || rule.Target == "" {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(rule.Keyword)) {
			continue
		}
		if !contains(targets, rule.Target) {
			targets = append(targets, rule.Target)
		}
	}
	return targets
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
