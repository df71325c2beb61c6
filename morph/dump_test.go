package morph

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gekko "github.com/gekko3d/gekko-morph"
)

func TestDumpGltf(t *testing.T) {
	meshes := gekko.NewAssets[gekko.Mesh]()
	colored := meshes.Add(gekko.Mesh{
		Positions: make([][3]float32, 6),
		Colors:    [][4]float32{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}, {1, 1, 1, 1}, {0, 0, 0, 1}, {0.5, 0.5, 0.5, 1}},
		Indices:   []uint32{0, 1, 2, 3, 4, 5},
	})
	g := &gekko.Gltf{
		Path:   "cube_morph_test.glb",
		Scenes: []gekko.Handle[gekko.GltfScene]{gekko.HandleFromId[gekko.GltfScene]("scene")},
		Meshes: []gekko.GltfMesh{{
			Name: "Cube",
			Primitives: []gekko.GltfPrimitive{
				{Mesh: colored},
				{Mesh: gekko.HandleFromId[gekko.Mesh]("unloaded")},
			},
		}},
	}

	var out bytes.Buffer
	DumpGltf(&out, g, meshes)
	s := out.String()

	assert.Contains(t, s, "Gltf cube_morph_test.glb\n")
	assert.Contains(t, s, "  scenes: 1\n")
	assert.Contains(t, s, "  mesh 0 \"Cube\": 2 primitives\n")
	assert.Contains(t, s, "      POSITION: 6\n")
	assert.Contains(t, s, "      COLOR_0: 6\n")
	assert.NotContains(t, s, "NORMAL")
	assert.Contains(t, s, "      indices: 6\n")
	assert.Contains(t, s, "      first 5 colors:\n        [1.000, 0.000, 0.000, 1.000]\n")
	assert.NotContains(t, s, "[0.500, 0.500, 0.500, 1.000]")
	assert.Contains(t, s, "    primitive 1:\n      (mesh not loaded)\n")
}

func writeTriangleGlb(t *testing.T, path string) {
	t.Helper()
	doc := gltf.NewDocument()
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "Tri",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{
				"POSITION": modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
			},
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "Tri", Mesh: gltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	require.NoError(t, gltf.SaveBinary(doc, path))
}

func TestDumpSystem_StillLoading(t *testing.T) {
	server := gekko.NewAssetServer(t.TempDir())
	var out bytes.Buffer
	dump := &gltfDump{paths: [2]string{"missing.glb", ""}, out: &out}
	input := &gekko.Input{}
	input.JustPressed[gekko.KeyQ] = true
	input.JustPressed[gekko.KeyE] = true

	dumpLoadSystem(server, dump)
	assert.False(t, dump.handles[1].IsValid(), "empty paths are not loaded")

	dumpSystem(input, server, dump)
	assert.Equal(t, "missing.glb is still loading (asset not loaded: loading)\n", out.String())
}

func TestDumpModule(t *testing.T) {
	root := t.TempDir()
	writeTriangleGlb(t, filepath.Join(root, "tri.glb"))

	var out bytes.Buffer
	input := &gekko.Input{}
	app := gekko.NewApp()
	app.Commands().AddResources(input)
	app.UseModules(
		gekko.AssetServerModule{Root: root},
		DumpModule{Paths: [2]string{"missing.glb", "tri.glb"}, Output: &out},
	)
	server := gekko.Resource[gekko.AssetServer](app)

	resolved := func(path string) bool {
		state, _ := gekko.LoadStateOf(server, gekko.Load[gekko.Gltf](server, path))
		return state == gekko.Loaded || state == gekko.Failed
	}
	require.Eventually(t, func() bool {
		app.Step()
		return resolved("missing.glb") && resolved("tri.glb")
	}, 5*time.Second, 10*time.Millisecond)

	out.Reset()
	input.JustPressed[gekko.KeyQ] = true
	input.JustPressed[gekko.KeyE] = true
	app.Step()

	s := out.String()
	assert.Contains(t, s, "missing.glb failed to load:")
	assert.Contains(t, s, "Gltf tri.glb\n")
	assert.Contains(t, s, "  mesh 0 \"Tri\": 1 primitives\n")
	assert.Contains(t, s, "      POSITION: 3\n")
}
