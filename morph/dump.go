package morph

import (
	"errors"
	"fmt"
	"io"
	"os"

	gekko "github.com/gekko3d/gekko-morph"
)

const dumpColors = 5

// DumpGltf writes the structure of a loaded glTF: its scenes, meshes,
// primitives, vertex attributes and the first few vertex colours.
func DumpGltf(w io.Writer, g *gekko.Gltf, meshes *gekko.Assets[gekko.Mesh]) {
	fmt.Fprintf(w, "Gltf %s\n", g.Path)
	fmt.Fprintf(w, "  scenes: %d\n", len(g.Scenes))
	fmt.Fprintf(w, "  meshes: %d\n", len(g.Meshes))
	for mi, gm := range g.Meshes {
		fmt.Fprintf(w, "  mesh %d %q: %d primitives\n", mi, gm.Name, len(gm.Primitives))
		for pi, prim := range gm.Primitives {
			fmt.Fprintf(w, "    primitive %d:\n", pi)
			mesh := meshes.Get(prim.Mesh)
			if mesh == nil {
				fmt.Fprintf(w, "      (mesh not loaded)\n")
				continue
			}
			for _, attr := range mesh.Attributes() {
				fmt.Fprintf(w, "      %s: %d\n", attr, mesh.VertexCount())
			}
			if len(mesh.Indices) > 0 {
				fmt.Fprintf(w, "      indices: %d\n", len(mesh.Indices))
			}
			if !mesh.Has(gekko.AttributeColor) {
				continue
			}
			n := min(dumpColors, len(mesh.Colors))
			fmt.Fprintf(w, "      first %d colors:\n", n)
			for _, c := range mesh.Colors[:n] {
				fmt.Fprintf(w, "        [%.3f, %.3f, %.3f, %.3f]\n", c[0], c[1], c[2], c[3])
			}
		}
	}
}

// DumpModule prints a tracked glTF when its key is pressed: Q for the first
// path, E for the second.
type DumpModule struct {
	Paths  [2]string
	Output io.Writer
}

var dumpKeys = [2]int{gekko.KeyQ, gekko.KeyE}

type gltfDump struct {
	paths   [2]string
	handles [2]gekko.Handle[gekko.Gltf]
	out     io.Writer
}

func (m DumpModule) Install(app *gekko.App, cmd *gekko.Commands) {
	out := m.Output
	if out == nil {
		out = os.Stdout
	}
	cmd.AddResources(&gltfDump{paths: m.Paths, out: out})
	app.UseSystem(
		gekko.System(dumpLoadSystem).
			InStage(gekko.Startup),
	)
	app.UseSystem(
		gekko.System(dumpSystem).
			InStage(gekko.Update).
			RunAlways(),
	)
}

func dumpLoadSystem(server *gekko.AssetServer, dump *gltfDump) {
	for i, p := range dump.paths {
		if p != "" {
			dump.handles[i] = gekko.Load[gekko.Gltf](server, p)
		}
	}
}

func dumpSystem(input *gekko.Input, server *gekko.AssetServer, dump *gltfDump) {
	for i, key := range dumpKeys {
		if !input.JustPressed[key] || !dump.handles[i].IsValid() {
			continue
		}
		g, err := gekko.GetLoaded(server, dump.handles[i])
		switch {
		case err == nil:
			DumpGltf(dump.out, g, server.Meshes)
		case errors.Is(err, gekko.ErrAssetNotLoaded):
			fmt.Fprintf(dump.out, "%s is still loading (%v)\n", dump.paths[i], err)
		default:
			fmt.Fprintf(dump.out, "%s failed to load: %v\n", dump.paths[i], err)
		}
	}
}
