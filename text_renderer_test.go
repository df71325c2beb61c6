package gekko

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextAtlas_BuildVertices(t *testing.T) {
	atlas, err := NewMonoTextAtlas(16)
	require.NoError(t, err)
	require.Equal(t, textAtlasSize, atlas.Image.Bounds().Dx())

	white := [4]float32{1, 1, 1, 1}
	items := []TextItem{{Text: "ab", Position: [2]float32{10, 10}, Scale: 1, Color: white}}

	vertices := atlas.BuildVertices(items, 800, 600)
	require.Len(t, vertices, 12)
	for _, v := range vertices {
		assert.Equal(t, white, v.Color)
		assert.GreaterOrEqual(t, v.Pos[0], float32(-1))
		assert.LessOrEqual(t, v.Pos[1], float32(1))
	}
	assert.Less(t, vertices[0].Pos[0], vertices[6].Pos[0], "second glyph is to the right")

	assert.Empty(t, atlas.BuildVertices(items, 0, 600))
	assert.Len(t, atlas.BuildVertices([]TextItem{{Text: "aé", Scale: 1}}, 800, 600), 6, "runes outside the atlas are skipped")
}

func TestTextAtlas_MeasureText(t *testing.T) {
	atlas, err := NewMonoTextAtlas(16)
	require.NoError(t, err)

	w1, h1 := atlas.MeasureText("a", 1)
	w2, _ := atlas.MeasureText("ab", 1)
	assert.Greater(t, w1, float32(0))
	assert.InDelta(t, 2*w1, w2, 1e-3, "mono glyphs share an advance")

	w3, h3 := atlas.MeasureText("ab\na", 2)
	assert.InDelta(t, 2*w2, w3, 1e-3)
	assert.InDelta(t, 4*h1, h3, 1e-3)
}

func TestTextAtlas_TooLarge(t *testing.T) {
	_, err := NewMonoTextAtlas(300)
	assert.ErrorContains(t, err, "does not fit")

	_, err = NewTextAtlas([]byte("not a font"), 16)
	assert.ErrorContains(t, err, "failed to parse font")
}
