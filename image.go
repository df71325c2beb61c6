package gekko

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Image is tightly packed RGBA8 texel data.
type Image struct {
	Width  uint32
	Height uint32
	Pixels []uint8
	// Srgb marks colour data (base colour) as opposed to linear data.
	Srgb bool
}

// SolidImage is a 1x1 image of the given colour.
func SolidImage(r, g, b, a uint8) Image {
	return Image{Width: 1, Height: 1, Pixels: []uint8{r, g, b, a}, Srgb: true}
}

func decodeImage(r io.Reader) (Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return Image{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*bounds.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	return Image{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pixels: rgba.Pix,
		Srgb:   true,
	}, nil
}

func decodeImageBytes(data []byte) (Image, error) {
	return decodeImage(bytes.NewReader(data))
}
