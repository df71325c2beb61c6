package gekko

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent is an entity's world transform. Root entities own it
// directly; for children it is derived from LocalTransformComponent.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// LocalTransformComponent is relative to the Parent's world transform.
type LocalTransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform(position mgl32.Vec3) TransformComponent {
	return TransformComponent{
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func NewLocalTransform(position mgl32.Vec3) LocalTransformComponent {
	return LocalTransformComponent(NewTransform(position))
}

func (t TransformComponent) WithScale(s float32) TransformComponent {
	t.Scale = mgl32.Vec3{s, s, s}
	return t
}

func (t TransformComponent) WithRotation(q mgl32.Quat) TransformComponent {
	t.Rotation = q
	return t
}

// Matrix is translation * rotation * scale.
func (t TransformComponent) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Forward is local -Z rotated into world space.
func (t TransformComponent) Forward() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

func (t TransformComponent) Up() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 1, 0})
}

// LookAt rotates the transform so Forward points at target.
func (t *TransformComponent) LookAt(target mgl32.Vec3, up mgl32.Vec3) {
	t.Rotation = LookRotation(target.Sub(t.Position), up)
}

// LookRotation builds the rotation whose -Z axis is forward and whose Y axis
// is as close to up as possible. A zero forward yields the identity.
func LookRotation(forward mgl32.Vec3, up mgl32.Vec3) mgl32.Quat {
	if forward.Len() < 1e-6 {
		return mgl32.QuatIdent()
	}
	f := forward.Normalize()
	right := f.Cross(up)
	if right.Len() < 1e-6 {
		// forward parallel to up
		alt := mgl32.Vec3{1, 0, 0}
		if math.Abs(float64(f.X())) > 0.9 {
			alt = mgl32.Vec3{0, 0, 1}
		}
		right = f.Cross(alt)
	}
	right = right.Normalize()
	realUp := right.Cross(f)

	basis := mgl32.Mat3FromCols(right, realUp, f.Mul(-1))
	return mgl32.Mat4ToQuat(basis.Mat4()).Normalize()
}

// EulerXYZ composes intrinsic rotations Rx * Ry * Rz.
func EulerXYZ(x, y, z float32) mgl32.Quat {
	qx := mgl32.QuatRotate(x, mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(y, mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(z, mgl32.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz)
}
