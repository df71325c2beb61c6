package morph

import (
	"fmt"
	"io"
	"os"

	gekko "github.com/gekko3d/gekko-morph"
)

const ScrollSensitivity = 0.05

// ScrollWeightModule nudges the first morph target weight of every entity
// with MorphWeights by the frame's vertical scroll.
type ScrollWeightModule struct {
	Output io.Writer
}

type scrollWeights struct {
	out io.Writer
}

func (m ScrollWeightModule) Install(app *gekko.App, cmd *gekko.Commands) {
	out := m.Output
	if out == nil {
		out = os.Stdout
	}
	cmd.AddResources(&scrollWeights{out: out})
	app.UseSystem(
		gekko.System(scrollWeightSystem).
			InStage(gekko.Update).
			RunAlways(),
	)
}

// NudgeWeight returns w moved by delta*ScrollSensitivity, clamped to [0,1].
func NudgeWeight(w float32, delta float32) float32 {
	return min(max(w+delta*ScrollSensitivity, 0), 1)
}

func scrollWeightSystem(cmd *gekko.Commands, input *gekko.Input, sw *scrollWeights) {
	delta := input.ScrollDelta()
	if delta == 0 {
		return
	}
	gekko.MakeQuery1[gekko.MorphWeights](cmd).Map(func(eid gekko.EntityId, weights *gekko.MorphWeights) bool {
		if len(weights.Weights) == 0 {
			return true
		}
		weights.Weights[0] = NudgeWeight(weights.Weights[0], delta)
		fmt.Fprintf(sw.out, "Morph weight: %.2f\n", weights.Weights[0])
		return true
	})
}
