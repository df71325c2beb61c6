package gekko

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tintUniform struct {
	Color [3]float32
	Pulse float32
}

type tintExtension struct {
	DefaultMaterialExtension
	Strength float32     `gekko:"uniform" binding:"101"`
	Tint     tintUniform `gekko:"uniform" binding:"100"`
	Enabled  bool        `gekko:"uniform" binding:"102"`
	Ignored  float32
}

func readFloat(data []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
}

func TestCollectUniforms_OrderedByBinding(t *testing.T) {
	ext := tintExtension{
		Strength: 0.5,
		Tint:     tintUniform{Color: [3]float32{1, 0.5, 0.25}, Pulse: 2},
		Enabled:  true,
	}

	res, err := collectUniforms(ext)
	require.NoError(t, err)
	require.Len(t, res, 3)

	assert.Equal(t, uint32(100), res[0].binding)
	require.Len(t, res[0].data, 16)
	assert.Equal(t, float32(0.25), readFloat(res[0].data, 2))
	assert.Equal(t, float32(2), readFloat(res[0].data, 3))

	assert.Equal(t, uint32(101), res[1].binding)
	assert.Len(t, res[1].data, 16, "scalars are padded to 16 bytes")
	assert.Equal(t, float32(0.5), readFloat(res[1].data, 0))

	assert.Equal(t, uint32(102), res[2].binding)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(res[2].data))
}

func TestCollectUniforms_Pointer(t *testing.T) {
	res, err := collectUniforms(&tintExtension{Strength: 3})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, float32(3), readFloat(res[1].data, 0))

	res, err = collectUniforms((*tintExtension)(nil))
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestCollectUniforms_Errors(t *testing.T) {
	type duplicate struct {
		A float32 `gekko:"uniform" binding:"100"`
		B float32 `gekko:"uniform" binding:"100"`
	}
	_, err := collectUniforms(duplicate{})
	assert.ErrorContains(t, err, "duplicate uniform binding 100")

	type badTag struct {
		A float32 `gekko:"uniform" binding:"x"`
	}
	_, err = collectUniforms(badTag{})
	assert.ErrorContains(t, err, "uniform A: bad binding tag")

	type wrongType struct {
		A float64 `gekko:"uniform" binding:"100"`
	}
	_, err = collectUniforms(wrongType{})
	assert.ErrorContains(t, err, "unsupported uniform type: float64")

	_, err = collectUniforms(3)
	assert.ErrorContains(t, err, "must be a struct")
}

func TestPadTo16(t *testing.T) {
	assert.Len(t, padTo16(nil), 16)
	assert.Len(t, padTo16(make([]byte, 4)), 16)
	assert.Len(t, padTo16(make([]byte, 16)), 16)
	assert.Len(t, padTo16(make([]byte, 20)), 32)
}

func TestStandardMaterial_UniformBytes(t *testing.T) {
	m := ColorMaterial(0.1, 0.2, 0.3)
	data := m.uniformBytes()
	require.Len(t, data, 32)
	assert.Equal(t, float32(0.2), readFloat(data, 1))
	assert.Equal(t, float32(0.5), readFloat(data, 4))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[24:]))

	m.BaseColorTexture = HandleFromId[Image]("tex")
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(m.uniformBytes()[24:]))
}
