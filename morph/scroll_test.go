package morph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	gekko "github.com/gekko3d/gekko-morph"
)

func TestNudgeWeight(t *testing.T) {
	assert.InDelta(t, 0.15, NudgeWeight(0, 3), 1e-6)
	assert.Equal(t, float32(1), NudgeWeight(0.98, 1))
	assert.Equal(t, float32(0), NudgeWeight(0.02, -1))
}

func TestScrollWeightSystem(t *testing.T) {
	var out bytes.Buffer
	app := gekko.NewApp()
	cmd := app.Commands()
	input := &gekko.Input{}

	morphed := cmd.AddEntity(gekko.MorphWeights{Weights: []float32{0, 0.5}})
	empty := cmd.AddEntity(gekko.MorphWeights{})
	app.FlushCommands()
	sw := &scrollWeights{out: &out}

	scrollWeightSystem(cmd, input, sw)
	assert.Empty(t, out.String(), "no scroll, no change")

	input.ScrollEvents = []gekko.ScrollEvent{{Y: 1}, {Y: 2}}
	scrollWeightSystem(cmd, input, sw)

	weights := gekko.GetComponent[gekko.MorphWeights](cmd, morphed).Weights
	assert.InDelta(t, 0.15, weights[0], 1e-6)
	assert.Equal(t, float32(0.5), weights[1], "only the first target moves")
	assert.Empty(t, gekko.GetComponent[gekko.MorphWeights](cmd, empty).Weights)
	assert.Equal(t, "Morph weight: 0.15\n", out.String())
}
