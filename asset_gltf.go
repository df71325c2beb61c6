package gekko

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Gltf is a loaded .gltf/.glb file. Sub-assets live in their own stores and
// are also addressable by label: "Scene0", "Mesh0/Primitive0", "Material0",
// "Image0".
type Gltf struct {
	Path         string
	Scenes       []Handle[GltfScene]
	DefaultScene int
	Meshes       []GltfMesh
	Materials    []Handle[StandardMaterial]
	Images       []Handle[Image]
}

type GltfMesh struct {
	Name       string
	Primitives []GltfPrimitive
	// Default morph target weights, zero-filled to the target count when the
	// file gives none.
	Weights []float32
}

type GltfPrimitive struct {
	Mesh Handle[Mesh]
	// Index into Gltf.Materials, -1 when the primitive has none.
	Material int
}

type GltfNode struct {
	Name      string
	Transform LocalTransformComponent
	// Index into the scene's Meshes, -1 for transform-only nodes.
	Mesh     int
	Children []int
}

// GltfScene is self-contained so it can be spawned without the parent Gltf.
type GltfScene struct {
	Name      string
	Nodes     []GltfNode
	Roots     []int
	Meshes    []GltfMesh
	Materials []Handle[StandardMaterial]
}

// gltfLoad is everything decoded from one file, keyed by label.
type gltfLoad struct {
	gltf      Gltf
	scenes    map[string]GltfScene
	meshes    map[string]Mesh
	materials map[string]StandardMaterial
	images    map[string]Image
}

func SceneLabel(i int) string { return fmt.Sprintf("Scene%d", i) }
func PrimitiveLabel(mesh, prim int) string { return fmt.Sprintf("Mesh%d/Primitive%d", mesh, prim) }
func MaterialLabel(i int) string { return fmt.Sprintf("Material%d", i) }
func ImageLabel(i int) string { return fmt.Sprintf("Image%d", i) }

func loadGltfFile(path string, assetPath string) (*gltfLoad, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return decodeGltf(doc, assetPath, filepath.Dir(path))
}

// decodeGltf converts doc into engine assets. assetPath is the path handles
// are derived from; dir resolves external image URIs.
func decodeGltf(doc *gltf.Document, assetPath string, dir string) (*gltfLoad, error) {
	load := &gltfLoad{
		gltf:      Gltf{Path: assetPath},
		scenes:    make(map[string]GltfScene),
		meshes:    make(map[string]Mesh),
		materials: make(map[string]StandardMaterial),
		images:    make(map[string]Image),
	}

	for i, img := range doc.Images {
		decoded, err := readGltfImage(doc, img, dir)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		load.images[ImageLabel(i)] = decoded
		load.gltf.Images = append(load.gltf.Images, subAssetHandle[Image](assetPath, ImageLabel(i)))
	}

	for i, gm := range doc.Materials {
		load.materials[MaterialLabel(i)] = gltfMaterial(doc, gm, assetPath)
		load.gltf.Materials = append(load.gltf.Materials, subAssetHandle[StandardMaterial](assetPath, MaterialLabel(i)))
	}

	for mi, gm := range doc.Meshes {
		mesh := GltfMesh{Name: gm.Name}
		for _, w := range gm.Weights {
			mesh.Weights = append(mesh.Weights, float32(w))
		}
		prims := make([]Mesh, len(gm.Primitives))
		for pi, prim := range gm.Primitives {
			m, err := readGltfPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			prims[pi] = m
			if extra := len(m.Targets) - len(mesh.Weights); extra > 0 {
				mesh.Weights = append(mesh.Weights, make([]float32, extra)...)
			}
		}
		for pi, prim := range gm.Primitives {
			m := prims[pi]
			m.MorphWeights = mesh.Weights
			label := PrimitiveLabel(mi, pi)
			load.meshes[label] = m

			material := -1
			if prim.Material != nil {
				material = *prim.Material
			}
			mesh.Primitives = append(mesh.Primitives, GltfPrimitive{
				Mesh:     subAssetHandle[Mesh](assetPath, label),
				Material: material,
			})
		}
		load.gltf.Meshes = append(load.gltf.Meshes, mesh)
	}

	nodes := make([]GltfNode, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		nodes[i] = gltfNode(gn)
	}

	for si, gs := range doc.Scenes {
		scene := GltfScene{
			Name:      gs.Name,
			Nodes:     nodes,
			Roots:     append([]int(nil), gs.Nodes...),
			Meshes:    load.gltf.Meshes,
			Materials: load.gltf.Materials,
		}
		load.scenes[SceneLabel(si)] = scene
		load.gltf.Scenes = append(load.gltf.Scenes, subAssetHandle[GltfScene](assetPath, SceneLabel(si)))
	}
	if doc.Scene != nil {
		load.gltf.DefaultScene = *doc.Scene
	}

	return load, nil
}

func gltfNode(gn *gltf.Node) GltfNode {
	node := GltfNode{
		Name:     gn.Name,
		Mesh:     -1,
		Children: append([]int(nil), gn.Children...),
	}
	if gn.Mesh != nil {
		node.Mesh = *gn.Mesh
	}

	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault() // x, y, z, w
	s := gn.ScaleOrDefault()
	node.Transform = LocalTransformComponent{
		Position: mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
		Rotation: mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}},
		Scale:    mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])},
	}
	return node
}

func gltfMaterial(doc *gltf.Document, gm *gltf.Material, assetPath string) StandardMaterial {
	mat := DefaultStandardMaterial()
	pbr := gm.PBRMetallicRoughness
	if pbr == nil {
		return mat
	}

	cf := pbr.BaseColorFactorOrDefault()
	mat.BaseColor = [4]float32{float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3])}
	mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
	mat.Metallic = float32(pbr.MetallicFactorOrDefault())

	if pbr.BaseColorTexture != nil {
		idx := pbr.BaseColorTexture.Index
		if idx < len(doc.Textures) && doc.Textures[idx].Source != nil {
			mat.BaseColorTexture = subAssetHandle[Image](assetPath, ImageLabel(*doc.Textures[idx].Source))
		}
	}
	return mat
}

func readGltfImage(doc *gltf.Document, img *gltf.Image, dir string) (Image, error) {
	switch {
	case img.BufferView != nil:
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return Image{}, fmt.Errorf("buffer view: %w", err)
		}
		return decodeImageBytes(raw)
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return Image{}, fmt.Errorf("data uri: %w", err)
		}
		return decodeImageBytes(raw)
	case img.URI != "":
		f, err := os.Open(filepath.Join(dir, img.URI))
		if err != nil {
			return Image{}, err
		}
		defer f.Close()
		return decodeImage(f)
	}
	return Image{}, fmt.Errorf("image has no source")
}

func readGltfPrimitive(doc *gltf.Document, prim *gltf.Primitive) (Mesh, error) {
	var m Mesh

	posIdx, ok := prim.Attributes[string(AttributePosition)]
	if !ok {
		return m, fmt.Errorf("%w: %s", ErrMissingVertexAttribute, AttributePosition)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return m, fmt.Errorf("positions: %w", err)
	}
	m.Positions = positions

	if idx, ok := prim.Attributes[string(AttributeNormal)]; ok {
		if m.Normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return m, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[string(AttributeUV0)]; ok {
		if m.UV0, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return m, fmt.Errorf("uvs: %w", err)
		}
	}
	if idx, ok := prim.Attributes[string(AttributeColor)]; ok {
		colors, err := modeler.ReadColor(doc, doc.Accessors[idx], nil)
		if err != nil {
			return m, fmt.Errorf("colors: %w", err)
		}
		m.Colors = make([][4]float32, len(colors))
		for i, c := range colors {
			m.Colors[i] = [4]float32{
				float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255,
			}
		}
	}

	for ti, attrs := range prim.Targets {
		target, err := readGltfTarget(doc, attrs)
		if err != nil {
			return m, fmt.Errorf("target %d: %w", ti, err)
		}
		m.Targets = append(m.Targets, target)
	}

	if prim.Indices != nil {
		if m.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return m, fmt.Errorf("indices: %w", err)
		}
	}
	return m, nil
}

func readGltfTarget(doc *gltf.Document, attrs map[string]int) (MorphTarget, error) {
	var target MorphTarget
	var err error
	if idx, ok := attrs[string(AttributePosition)]; ok {
		if target.Positions, err = modeler.ReadPosition(doc, doc.Accessors[idx], nil); err != nil {
			return target, fmt.Errorf("positions: %w", err)
		}
	}
	if idx, ok := attrs[string(AttributeNormal)]; ok {
		if target.Normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return target, fmt.Errorf("normals: %w", err)
		}
	}
	return target, nil
}
