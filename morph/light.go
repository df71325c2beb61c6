package morph

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	gekko "github.com/gekko3d/gekko-morph"
)

const LightHeight = 5.0

// RotatingLight circles its entity around the origin at LightHeight,
// always facing the origin.
type RotatingLight struct {
	Radius float32
	Speed  float32 // radians per second
	Angle  float32
}

func (l *RotatingLight) Advance(dt float32) mgl32.Vec3 {
	l.Angle += l.Speed * dt
	return mgl32.Vec3{
		l.Radius * float32(math.Cos(float64(l.Angle))),
		LightHeight,
		l.Radius * float32(math.Sin(float64(l.Angle))),
	}
}

type RotatingLightModule struct{}

func (RotatingLightModule) Install(app *gekko.App, cmd *gekko.Commands) {
	app.UseSystem(
		gekko.System(rotatingLightSystem).
			InStage(gekko.Update).
			RunAlways(),
	)
}

func rotatingLightSystem(cmd *gekko.Commands, t *gekko.Time) {
	dt := t.DeltaSecs()
	gekko.MakeQuery2[RotatingLight, gekko.TransformComponent](cmd).Map(func(eid gekko.EntityId, light *RotatingLight, tr *gekko.TransformComponent) bool {
		tr.Position = light.Advance(dt)
		tr.LookAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
		return true
	})
}
