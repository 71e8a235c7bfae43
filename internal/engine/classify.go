package engine

import (
	"path"
	"strings"

	"github.com/piwi3910/atlaspack/internal/model"
)

// Classifier assigns a material class key to a texture. Textures share an
// atlas only when their keys are equal.
type Classifier interface {
	Classify(name string) string
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(name string) string

func (f ClassifierFunc) Classify(name string) string { return f(name) }

// RuleClassifier matches names against ordered rules; the first match wins.
//
// A rule pattern is a path.Match glob compared case-insensitively against the
// full logical name. A pattern ending in "/**" matches everything below that
// prefix.
type RuleClassifier struct {
	rules    []model.ClassRule
	fallback string
}

// NewRuleClassifier creates a classifier; names matching no rule get fallback.
func NewRuleClassifier(rules []model.ClassRule, fallback string) *RuleClassifier {
	normalized := make([]model.ClassRule, 0, len(rules))
	for _, r := range rules {
		p := strings.ToLower(strings.TrimSpace(r.Pattern))
		if p == "" {
			continue
		}
		normalized = append(normalized, model.ClassRule{Pattern: p, Class: strings.TrimSpace(r.Class)})
	}
	return &RuleClassifier{rules: normalized, fallback: fallback}
}

func (c *RuleClassifier) Classify(name string) string {
	lower := strings.ToLower(name)
	for _, r := range c.rules {
		if matchRule(r.Pattern, lower) {
			return r.Class
		}
	}
	return c.fallback
}

func matchRule(pattern, name string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return strings.HasPrefix(name, prefix+"/")
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
