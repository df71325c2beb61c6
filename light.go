package gekko

import "github.com/go-gl/mathgl/mgl32"

type LightType uint32

const (
	LightTypePoint       LightType = 0
	LightTypeDirectional LightType = 1
	LightTypeSpot        LightType = 2
	LightTypeAmbient     LightType = 3
)

// LightComponent is the ECS component for lights. The renderer shades with
// the first directional light; its direction is the entity's Forward.
type LightComponent struct {
	Type           LightType
	Color          [3]float32 // linear RGB
	Illuminance    float32    // lux
	ShadowsEnabled bool
}

func NewDirectionalLight(color [3]float32, illuminance float32, shadows bool) LightComponent {
	return LightComponent{
		Type:           LightTypeDirectional,
		Color:          color,
		Illuminance:    illuminance,
		ShadowsEnabled: shadows,
	}
}

// CameraComponent is a perspective camera looking down the entity's -Z.
type CameraComponent struct {
	Fov  float32 // vertical, radians
	Near float32
	Far  float32
}

func NewCamera() CameraComponent {
	return CameraComponent{
		Fov:  mgl32.DegToRad(45),
		Near: 0.1,
		Far:  1000,
	}
}

// wgpu clip space has z in [0,1]; mgl32 projections produce [-1,1].
var glToWgpuClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

func (c CameraComponent) Projection(aspect float32) mgl32.Mat4 {
	return glToWgpuClip.Mul4(mgl32.Perspective(c.Fov, aspect, c.Near, c.Far))
}

// ViewMatrix is the inverse of the camera's world transform.
func ViewMatrix(t TransformComponent) mgl32.Mat4 {
	rot := t.Rotation.Normalize().Conjugate().Mat4()
	return rot.Mul4(mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z()))
}
