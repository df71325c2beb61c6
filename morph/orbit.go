package morph

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	gekko "github.com/gekko3d/gekko-morph"
)

const (
	OrbitSensitivity = 0.005
	MaxPitch         = 1.5
)

// OrbitCamera is the camera's spherical position around the origin. A zero
// Radius is seeded from the camera's position on the next update.
type OrbitCamera struct {
	Yaw, Pitch, Radius float32
}

// OrbitFromPosition recovers yaw, pitch and radius from a position.
func OrbitFromPosition(p mgl32.Vec3) OrbitCamera {
	r := p.Len()
	if r == 0 {
		return OrbitCamera{}
	}
	return OrbitCamera{
		Yaw:    float32(math.Atan2(float64(p.Z()), float64(p.X()))),
		Pitch:  float32(math.Asin(float64(mgl32.Clamp(p.Y()/r, -1, 1)))),
		Radius: r,
	}
}

// Rotate applies a mouse motion and clamps pitch.
func (o *OrbitCamera) Rotate(dx, dy float32) {
	o.Yaw -= dx * OrbitSensitivity
	o.Pitch = mgl32.Clamp(o.Pitch-dy*OrbitSensitivity, -MaxPitch, MaxPitch)
}

func (o OrbitCamera) Position() mgl32.Vec3 {
	cp := float32(math.Cos(float64(o.Pitch)))
	return mgl32.Vec3{
		o.Radius * cp * float32(math.Cos(float64(o.Yaw))),
		o.Radius * float32(math.Sin(float64(o.Pitch))),
		o.Radius * cp * float32(math.Sin(float64(o.Yaw))),
	}
}

type OrbitModule struct{}

func (OrbitModule) Install(app *gekko.App, cmd *gekko.Commands) {
	app.UseSystem(
		gekko.System(orbitSystem).
			InStage(gekko.Update).
			RunAlways(),
	)
}

// orbitSystem panics unless exactly one camera exists. A camera without an
// OrbitCamera gets one seeded from its position. An OrbitCamera with a radius
// places the camera every frame.
func orbitSystem(cmd *gekko.Commands, input *gekko.Input) {
	eid, _, tr := gekko.MakeQuery2[gekko.CameraComponent, gekko.TransformComponent](cmd).Single()
	dx, dy := float32(input.MouseDeltaX), float32(input.MouseDeltaY)

	orbit := gekko.GetComponent[OrbitCamera](cmd, eid)
	if orbit == nil || orbit.Radius == 0 {
		seeded := OrbitFromPosition(tr.Position)
		if orbit == nil {
			orbit = &seeded
			defer func() { cmd.AddComponents(eid, *orbit) }()
		} else {
			*orbit = seeded
		}
		if dx == 0 && dy == 0 {
			return
		}
	}

	orbit.Rotate(dx, dy)
	tr.Position = orbit.Position()
	tr.LookAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}
