package gekko

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const textAtlasSize = 512

type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// TextItem is one string in pixel coordinates, origin at the top left.
type TextItem struct {
	Text     string
	Position [2]float32
	Scale    float32
	Color    [4]float32
}

type glyphInfo struct {
	uvMin [2]float32
	uvMax [2]float32
	size  [2]float32
	off   [2]float32
	adv   float32
}

// TextAtlas rasterizes printable ASCII into a single alpha texture.
type TextAtlas struct {
	Image  *image.Alpha
	glyphs map[rune]glyphInfo
	face   font.Face
}

// NewMonoTextAtlas builds an atlas from the bundled Go Mono font.
func NewMonoTextAtlas(size float64) (*TextAtlas, error) {
	return NewTextAtlas(gomono.TTF, size)
}

func NewTextAtlas(fontBytes []byte, size float64) (*TextAtlas, error) {
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}

	atlas := image.NewAlpha(image.Rect(0, 0, textAtlasSize, textAtlasSize))
	glyphs := make(map[rune]glyphInfo)

	x, y := 2, 2
	rowHeight := 0
	for r := rune(32); r < 127; r++ {
		bounds, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := bounds.Dx(), bounds.Dy()

		if x+w >= textAtlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}
		if y+h >= textAtlasSize {
			return nil, fmt.Errorf("font size %.0f does not fit a %dpx atlas", size, textAtlasSize)
		}

		draw.Draw(atlas, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)
		glyphs[r] = glyphInfo{
			uvMin: [2]float32{float32(x) / textAtlasSize, float32(y) / textAtlasSize},
			uvMax: [2]float32{float32(x+w) / textAtlasSize, float32(y+h) / textAtlasSize},
			size:  [2]float32{float32(w), float32(h)},
			off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			adv:   float32(adv) / 64, // 26.6 fixed point
		}

		x += w + 4
		rowHeight = max(rowHeight, h)
	}

	return &TextAtlas{
		Image:  atlas,
		glyphs: glyphs,
		face:   face,
	}, nil
}

// BuildVertices lays out items as two triangles per glyph in clip space.
func (ta *TextAtlas) BuildVertices(items []TextItem, screenW, screenH int) []TextVertex {
	vertices := make([]TextVertex, 0, len(items)*6)
	if screenW <= 0 || screenH <= 0 {
		return vertices
	}

	sw, sh := float32(screenW), float32(screenH)
	metrics := ta.face.Metrics()
	ascent := float32(metrics.Ascent.Ceil())
	lineHeight := float32(metrics.Height.Ceil())

	for _, item := range items {
		startX := item.Position[0]
		posX := startX
		posY := item.Position[1] + ascent*item.Scale

		for _, r := range item.Text {
			if r == '\n' {
				posX = startX
				posY += lineHeight * item.Scale
				continue
			}
			g, ok := ta.glyphs[r]
			if !ok {
				continue
			}

			x0 := (posX+g.off[0]*item.Scale)/sw*2 - 1
			y0 := 1 - (posY+g.off[1]*item.Scale)/sh*2
			x1 := (posX+(g.off[0]+g.size[0])*item.Scale)/sw*2 - 1
			y1 := 1 - (posY+(g.off[1]+g.size[1])*item.Scale)/sh*2

			vertices = append(vertices,
				TextVertex{Pos: [2]float32{x0, y0}, UV: [2]float32{g.uvMin[0], g.uvMin[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x1, y0}, UV: [2]float32{g.uvMax[0], g.uvMin[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x0, y1}, UV: [2]float32{g.uvMin[0], g.uvMax[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x1, y0}, UV: [2]float32{g.uvMax[0], g.uvMin[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x1, y1}, UV: [2]float32{g.uvMax[0], g.uvMax[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x0, y1}, UV: [2]float32{g.uvMin[0], g.uvMax[1]}, Color: item.Color},
			)
			posX += g.adv * item.Scale
		}
	}
	return vertices
}

func (ta *TextAtlas) MeasureText(text string, scale float32) (float32, float32) {
	lineHeight := float32(ta.face.Metrics().Height.Ceil())

	maxW, currentW := float32(0), float32(0)
	lines := 1
	for _, r := range text {
		if r == '\n' {
			maxW = max(maxW, currentW)
			currentW = 0
			lines++
			continue
		}
		if g, ok := ta.glyphs[r]; ok {
			currentW += g.adv * scale
		}
	}
	return max(maxW, currentW), lineHeight * scale * float32(lines)
}
