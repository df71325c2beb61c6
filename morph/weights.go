package morph

import (
	"io"
	"os"

	gekko "github.com/gekko3d/gekko-morph"
)

// ChannelKeys maps each channel to its increase and decrease key.
var ChannelKeys = [3][2]int{
	Red:   {gekko.KeyQ, gekko.KeyA},
	Green: {gekko.KeyW, gekko.KeyS},
	Blue:  {gekko.KeyE, gekko.KeyD},
}

// Ramp moves w by rate*dt towards 1 when up is held and towards 0 when down
// is held, clamping at the bounds.
func Ramp(w float32, up, down bool, rate, dt float32) float32 {
	if up {
		w = min(w+rate*dt, 1)
	}
	if down {
		w = max(w-rate*dt, 0)
	}
	return w
}

// WeightControlModule drives the channels of every ExtendedMaterial[E] from
// the keyboard. Space prints the current weights.
type WeightControlModule[E Weighted[E]] struct {
	// Rate is the change per second while a key is held.
	Rate   float32
	Output io.Writer
}

type weightControl[E Weighted[E]] struct {
	rate float32
	out  io.Writer
}

func (m WeightControlModule[E]) Install(app *gekko.App, cmd *gekko.Commands) {
	out := m.Output
	if out == nil {
		out = os.Stdout
	}
	cmd.AddResources(&weightControl[E]{rate: m.Rate, out: out})
	app.UseSystem(
		gekko.System(weightControlSystem[E]).
			InStage(gekko.Update).
			RunAlways(),
	)
}

func weightControlSystem[E Weighted[E]](input *gekko.Input, t *gekko.Time, ctl *weightControl[E], materials *gekko.Assets[gekko.ExtendedMaterial[E]]) {
	dt := t.DeltaSecs()
	report := input.JustPressed[gekko.KeySpace]

	materials.Iter(func(h gekko.Handle[gekko.ExtendedMaterial[E]], m *gekko.ExtendedMaterial[E]) bool {
		before := m.Extension.Channels()
		c := before
		for ch, keys := range ChannelKeys {
			c[ch] = Ramp(c[ch], input.Pressed[keys[0]], input.Pressed[keys[1]], ctl.rate, dt)
		}
		if c != before {
			m.Extension = m.Extension.WithChannels(c)
			materials.Touch(h)
		}

		if report {
			io.WriteString(ctl.out, c.String()+"\n")
		}
		return true
	})
}
