package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/atlaspack/internal/model"
)

func TestRuleClassifier(t *testing.T) {
	c := NewRuleClassifier([]model.ClassRule{
		{Pattern: "", Class: "ignored"},
		{Pattern: "minecraft:block/*_glass", Class: "translucent"},
		{Pattern: "Minecraft:Block/Leaves/**", Class: "cutout"},
		{Pattern: "*:block/*", Class: " solid "},
	}, "default")

	tests := map[string]string{
		"minecraft:block/red_glass":      "translucent",
		"minecraft:block/leaves/oak":     "cutout",
		"minecraft:block/leaves/big/oak": "cutout",
		"mod:block/stone":                "solid",
		"mod:block/sub/stone":            "default",
		"minecraft:block/leaves":         "solid",
	}
	for name, want := range tests {
		assert.Equal(t, want, c.Classify(name), name)
	}
}

func TestRuleClassifier_NoRules(t *testing.T) {
	c := NewRuleClassifier(nil, "default")
	assert.Equal(t, "default", c.Classify("anything:block/x"))
}
