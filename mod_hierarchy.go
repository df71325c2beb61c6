package gekko

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

type Parent struct {
	Entity EntityId
}

type Children struct {
	Entities []EntityId
}

type HierarchyModule struct{}

func (HierarchyModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(TransformHierarchySystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

// maxHierarchyDepth bounds propagation passes per frame.
const maxHierarchyDepth = 16

func TransformHierarchySystem(cmd *Commands) {
	// Roots: world transform is authoritative, mirror it into the local one.
	MakeQuery2[LocalTransformComponent, TransformComponent](cmd).
		Without(Parent{}).
		Map(func(eid EntityId, local *LocalTransformComponent, tr *TransformComponent) bool {
			*local = LocalTransformComponent(*tr)
			return true
		})

	// Children: one pass per level until nothing changes.
	for pass := 0; pass < maxHierarchyDepth; pass++ {
		changed := false
		MakeQuery3[LocalTransformComponent, Parent, TransformComponent](cmd).Map(func(eid EntityId, local *LocalTransformComponent, parent *Parent, world *TransformComponent) bool {
			parentWorld := GetComponent[TransformComponent](cmd, parent.Entity)
			if parentWorld == nil {
				return true
			}

			next := composeTransforms(*parentWorld, *local)
			if next != *world {
				*world = next
				changed = true
			}
			return true
		})
		if !changed {
			break
		}
	}
}

// composeTransforms keeps scale per axis so negative scales survive.
func composeTransforms(parent TransformComponent, local LocalTransformComponent) TransformComponent {
	scaledLocalPos := mgl32.Vec3{
		local.Position.X() * parent.Scale.X(),
		local.Position.Y() * parent.Scale.Y(),
		local.Position.Z() * parent.Scale.Z(),
	}
	return TransformComponent{
		Position: parent.Position.Add(parent.Rotation.Rotate(scaledLocalPos)),
		Rotation: parent.Rotation.Mul(local.Rotation).Normalize(),
		Scale: mgl32.Vec3{
			parent.Scale.X() * local.Scale.X(),
			parent.Scale.Y() * local.Scale.Y(),
			parent.Scale.Z() * local.Scale.Z(),
		},
	}
}

// Descendants lists every entity below root in depth-first pre-order.
func Descendants(cmd *Commands, root EntityId) []EntityId {
	var res []EntityId
	visited := map[EntityId]bool{root: true}
	stack := []EntityId{root}
	for len(stack) > 0 {
		eid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if eid != root {
			res = append(res, eid)
		}

		children := GetComponent[Children](cmd, eid)
		if children == nil {
			continue
		}
		// reversed, so the first child pops first
		for _, child := range slices.Backward(children.Entities) {
			if visited[child] {
				continue
			}
			visited[child] = true
			stack = append(stack, child)
		}
	}
	return res
}
