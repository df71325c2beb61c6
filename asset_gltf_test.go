package gekko

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangleDocument is one scene with a parent node and a child carrying a
// coloured, indexed triangle mesh with one morph target weight.
func triangleDocument() *gltf.Document {
	doc := gltf.NewDocument()

	prim := &gltf.Primitive{
		Attributes: map[string]int{
			string(AttributePosition): modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
			string(AttributeNormal):   modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}),
			string(AttributeColor):    modeler.WriteColor(doc, [][4]uint8{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}}),
		},
		Indices:  gltf.Index(modeler.WriteIndices(doc, []uint16{0, 1, 2})),
		Material: gltf.Index(0),
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name:       "Triangle",
		Primitives: []*gltf.Primitive{prim},
		Weights:    []float64{0.25},
	})
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name: "Red",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 0, 0, 1},
		},
	})
	doc.Nodes = append(doc.Nodes,
		&gltf.Node{Name: "Root", Children: []int{1}},
		&gltf.Node{Name: "Tri", Mesh: gltf.Index(0), Translation: [3]float64{1, 2, 3}},
	)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

func TestDecodeGltf_Triangle(t *testing.T) {
	load, err := decodeGltf(triangleDocument(), "tri.glb", "")
	require.NoError(t, err)

	g := load.gltf
	assert.Equal(t, "tri.glb", g.Path)
	require.Len(t, g.Scenes, 1)
	require.Len(t, g.Meshes, 1)
	require.Len(t, g.Materials, 1)
	assert.Equal(t, subAssetHandle[GltfScene]("tri.glb", "Scene0"), g.Scenes[0])

	gm := g.Meshes[0]
	assert.Equal(t, "Triangle", gm.Name)
	assert.Equal(t, []float32{0.25}, gm.Weights)
	require.Len(t, gm.Primitives, 1)
	assert.Equal(t, 0, gm.Primitives[0].Material)
	assert.Equal(t, subAssetHandle[Mesh]("tri.glb", "Mesh0/Primitive0"), gm.Primitives[0].Mesh)

	mesh, ok := load.meshes["Mesh0/Primitive0"]
	require.True(t, ok)
	assert.Equal(t, 3, mesh.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	assert.Equal(t, []float32{0.25}, mesh.MorphWeights)
	assert.True(t, mesh.Has(AttributeNormal))
	assert.False(t, mesh.Has(AttributeUV0))
	require.True(t, mesh.Has(AttributeColor))
	assert.Equal(t, [4]float32{1, 0, 0, 1}, mesh.Colors[0])
	assert.Equal(t, [4]float32{0, 0, 1, 1}, mesh.Colors[2])

	mat := load.materials["Material0"]
	assert.Equal(t, [4]float32{1, 0, 0, 1}, mat.BaseColor)
	assert.False(t, mat.BaseColorTexture.IsValid())

	scene := load.scenes["Scene0"]
	assert.Equal(t, []int{0}, scene.Roots)
	require.Len(t, scene.Nodes, 2)
	assert.Equal(t, -1, scene.Nodes[0].Mesh)
	assert.Equal(t, []int{1}, scene.Nodes[0].Children)
	assert.Equal(t, 0, scene.Nodes[1].Mesh)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, scene.Nodes[1].Transform.Position)
}

func TestDecodeGltf_MissingPosition(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{
				string(AttributeNormal): modeler.WriteNormal(doc, [][3]float32{{0, 1, 0}}),
			},
		}},
	})

	_, err := decodeGltf(doc, "broken.glb", "")
	assert.ErrorIs(t, err, ErrMissingVertexAttribute)
	assert.ErrorContains(t, err, "mesh 0 primitive 0")
}

func TestDecodeGltf_EmbeddedImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	doc := gltf.NewDocument()
	view, err := modeler.WriteImage(doc, "checker", "image/png", &buf)
	require.NoError(t, err)
	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(view)})
	doc.Materials = append(doc.Materials, &gltf.Material{
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
	})

	load, err := decodeGltf(doc, "tex.glb", "")
	require.NoError(t, err)

	decoded := load.images["Image0"]
	assert.Equal(t, uint32(2), decoded.Width)
	assert.Equal(t, uint32(1), decoded.Height)
	assert.Equal(t, []byte{255, 0, 0, 255}, decoded.Pixels[0:4])

	mat := load.materials["Material0"]
	assert.Equal(t, subAssetHandle[Image]("tex.glb", "Image0"), mat.BaseColorTexture)
}

// morphQuadDocument is a two-target mesh without a weights array.
func morphQuadDocument() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "Morph",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{
				string(AttributePosition): modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
				string(AttributeNormal):   modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}),
			},
			Targets: []map[string]int{
				{string(AttributePosition): modeler.WritePosition(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})},
				{
					string(AttributePosition): modeler.WritePosition(doc, [][3]float32{{1, 0, 0}, {0, 0, 0}, {0, 0, 0}}),
					string(AttributeNormal):   modeler.WriteNormal(doc, [][3]float32{{1, 0, -1}, {0, 0, 0}, {0, 0, 0}}),
				},
			},
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "Morph", Mesh: gltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

func TestDecodeGltf_MorphTargetsDefaultWeights(t *testing.T) {
	load, err := decodeGltf(morphQuadDocument(), "morph.glb", "")
	require.NoError(t, err)

	assert.Equal(t, []float32{0, 0}, load.gltf.Meshes[0].Weights, "one zero weight per target")

	mesh := load.meshes["Mesh0/Primitive0"]
	assert.Equal(t, []float32{0, 0}, mesh.MorphWeights)
	require.Len(t, mesh.Targets, 2)
	assert.Equal(t, [3]float32{0, 0, 1}, mesh.Targets[0].Positions[2])
	assert.Nil(t, mesh.Targets[0].Normals)
	assert.Equal(t, [3]float32{1, 0, -1}, mesh.Targets[1].Normals[0])

	morphed := mesh.Morphed([]float32{0.5, 1})
	assert.Equal(t, [3]float32{1, 0, 0.5}, morphed.Positions[0])
	assert.Equal(t, [3]float32{0, 1, 0.5}, morphed.Positions[2])
}
