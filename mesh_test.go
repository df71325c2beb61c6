package gekko

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMesh_Has(t *testing.T) {
	m := &Mesh{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}},
		Normals:   [][3]float32{{0, 1, 0}},
		UV0:       [][2]float32{{0, 0}, {1, 1}},
	}
	assert.True(t, m.Has(AttributePosition))
	assert.False(t, m.Has(AttributeNormal), "one normal for two vertices")
	assert.True(t, m.Has(AttributeUV0))
	assert.False(t, m.Has(AttributeColor))
	assert.Equal(t, []MeshAttribute{AttributePosition, AttributeUV0}, m.Attributes())

	assert.False(t, (&Mesh{}).Has(AttributePosition))
}

func TestMesh_GetLayout(t *testing.T) {
	plane := PlaneMesh(2)

	layout, err := plane.GetLayout(
		VertexAttributeLocation{AttributePosition, 0},
		VertexAttributeLocation{AttributeUV0, 1},
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), layout.ArrayStride)
	assert.Equal(t, "POSITION@0,TEXCOORD_0@1", layout.Key())

	_, err = plane.GetLayout(VertexAttributeLocation{AttributeColor, 3})
	assert.ErrorIs(t, err, ErrMissingVertexAttribute)
	assert.ErrorContains(t, err, "COLOR_0 at location 3")

	_, err = plane.GetLayout(VertexAttributeLocation{"TANGENT", 4})
	assert.ErrorContains(t, err, `unknown vertex attribute "TANGENT"`)
}

func TestMesh_InterleaveFillsDefaults(t *testing.T) {
	m := &Mesh{Positions: [][3]float32{{1, 2, 3}}}
	layout := DefaultVertexLayout()
	assert.Equal(t, uint64(48), layout.ArrayStride)

	data := m.Interleave(layout)
	require.Len(t, data, 48)

	floats := make([]float32, 12)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	assert.Equal(t, []float32{1, 2, 3, 0, 1, 0, 0, 0, 1, 1, 1, 1}, floats)
}

func TestMesh_Morphed(t *testing.T) {
	m := &Mesh{
		Positions: [][3]float32{{0, 0, 0}, {1, 1, 1}},
		Normals:   [][3]float32{{0, 1, 0}, {0, 1, 0}},
		Targets: []MorphTarget{
			{Positions: [][3]float32{{2, 0, 0}, {0, 0, 0}}},
			{Positions: [][3]float32{{0, 4, 0}, {0, 0, 4}}, Normals: [][3]float32{{0, -1, 1}, {0, 0, 0}}},
		},
	}

	assert.Same(t, m, m.Morphed(nil))
	assert.Same(t, m, m.Morphed([]float32{0, 0}))

	morphed := m.Morphed([]float32{0.5, 0.25, 7})
	assert.NotSame(t, m, morphed)
	assert.Equal(t, [3]float32{1, 1, 0}, morphed.Positions[0])
	assert.Equal(t, [3]float32{1, 1, 2}, morphed.Positions[1])
	assert.InDelta(t, 1, float64(morphed.Normals[0][1]*morphed.Normals[0][1]+morphed.Normals[0][2]*morphed.Normals[0][2]), 1e-5, "normals stay unit length")
	assert.Greater(t, morphed.Normals[0][2], float32(0))
	assert.Equal(t, [3]float32{0, 1, 0}, morphed.Normals[1])

	assert.Equal(t, [3]float32{0, 0, 0}, m.Positions[0], "the source mesh is untouched")
	assert.Equal(t, [3]float32{0, 1, 0}, m.Normals[0])

	data := morphed.Interleave(DefaultVertexLayout())
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(data[0:])))
}

func TestMesh_IndicesOrSequential(t *testing.T) {
	m := &Mesh{Positions: make([][3]float32, 3)}
	assert.Equal(t, []uint32{0, 1, 2}, m.IndicesOrSequential())

	plane := PlaneMesh(10)
	assert.Len(t, plane.IndicesOrSequential(), 6)
	assert.Equal(t, [3]float32{-5, 0, -5}, plane.Positions[0])
}

func TestDecodeImage_NonRGBA(t *testing.T) {
	_, err := decodeImageBytes([]byte("not an image"))
	assert.ErrorContains(t, err, "decode image")

	solid := SolidImage(10, 20, 30, 40)
	assert.Equal(t, uint32(1), solid.Width)
	assert.Equal(t, []uint8{10, 20, 30, 40}, solid.Pixels)
	assert.True(t, solid.Srgb)
}
