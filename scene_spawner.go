package gekko

// SceneRoot asks the spawner to instantiate a glTF scene below this entity
// once the scene has loaded. The entity needs a TransformComponent.
type SceneRoot struct {
	Scene Handle[GltfScene]
}

// SceneInstance marks a SceneRoot that has been spawned.
type SceneInstance struct {
	Entities []EntityId
}

// GltfNodeName carries the source node name of a spawned entity.
type GltfNodeName struct {
	Name string
}

type SceneSpawnerModule struct{}

// SceneSpawner keeps the material used for primitives without one.
type SceneSpawner struct {
	defaultMaterial Handle[StandardMaterial]
}

func (SceneSpawnerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&SceneSpawner{})
	app.UseSystem(
		System(sceneSpawnerSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

func sceneSpawnerSystem(cmd *Commands, server *AssetServer, spawner *SceneSpawner) {
	MakeQuery2[SceneRoot, TransformComponent](cmd).
		Without(SceneInstance{}).
		Map(func(eid EntityId, root *SceneRoot, tr *TransformComponent) bool {
			scene := server.Scenes.Get(root.Scene)
			if scene == nil {
				return true
			}
			spawned := spawner.spawn(cmd, server.Materials, eid, *tr, scene)
			children := spawned.roots
			if existing := GetComponent[Children](cmd, eid); existing != nil {
				children = append(append([]EntityId(nil), existing.Entities...), children...)
			}
			cmd.AddComponents(eid, Children{Entities: children}, SceneInstance{Entities: spawned.all})
			return true
		})
}

type spawnedScene struct {
	roots []EntityId
	all   []EntityId
}

// spawn creates one entity per node and one child entity per mesh
// primitive. World transforms are seeded here and kept current by the
// hierarchy system.
func (s *SceneSpawner) spawn(cmd *Commands, materials *Assets[StandardMaterial], root EntityId, rootWorld TransformComponent, scene *GltfScene) spawnedScene {
	var out spawnedScene
	visited := make(map[int]bool)

	var spawnNode func(parent EntityId, parentWorld TransformComponent, idx int) (EntityId, bool)
	spawnNode = func(parent EntityId, parentWorld TransformComponent, idx int) (EntityId, bool) {
		if idx < 0 || idx >= len(scene.Nodes) || visited[idx] {
			return 0, false
		}
		visited[idx] = true
		node := scene.Nodes[idx]
		world := composeTransforms(parentWorld, node.Transform)

		eid := cmd.AddEntity(
			node.Transform,
			world,
			Parent{Entity: parent},
			GltfNodeName{Name: node.Name},
		)
		out.all = append(out.all, eid)

		var children []EntityId
		if node.Mesh >= 0 && node.Mesh < len(scene.Meshes) {
			children = append(children, s.spawnPrimitives(cmd, materials, scene, node.Mesh, eid, world, &out)...)
		}
		for _, c := range node.Children {
			if child, ok := spawnNode(eid, world, c); ok {
				children = append(children, child)
			}
		}
		if len(children) > 0 {
			cmd.AddComponents(eid, Children{Entities: children})
		}
		return eid, true
	}

	for _, r := range scene.Roots {
		if eid, ok := spawnNode(root, rootWorld, r); ok {
			out.roots = append(out.roots, eid)
		}
	}
	return out
}

func (s *SceneSpawner) spawnPrimitives(cmd *Commands, materials *Assets[StandardMaterial], scene *GltfScene, meshIdx int, parent EntityId, parentWorld TransformComponent, out *spawnedScene) []EntityId {
	mesh := scene.Meshes[meshIdx]
	local := NewLocalTransform([3]float32{})
	world := composeTransforms(parentWorld, local)

	var res []EntityId
	for _, prim := range mesh.Primitives {
		material := s.materialFor(materials, scene, prim.Material)
		components := []any{
			local,
			world,
			Parent{Entity: parent},
			Mesh3d{Handle: prim.Mesh},
			MeshMaterial3d[StandardMaterial]{Handle: material},
		}
		if len(mesh.Weights) > 0 {
			components = append(components, MorphWeights{Weights: append([]float32(nil), mesh.Weights...)})
		}
		eid := cmd.AddEntity(components...)
		res = append(res, eid)
		out.all = append(out.all, eid)
	}
	return res
}

func (s *SceneSpawner) materialFor(materials *Assets[StandardMaterial], scene *GltfScene, idx int) Handle[StandardMaterial] {
	if idx >= 0 && idx < len(scene.Materials) {
		return scene.Materials[idx]
	}
	if !s.defaultMaterial.IsValid() {
		s.defaultMaterial = materials.Add(DefaultStandardMaterial())
	}
	return s.defaultMaterial
}
