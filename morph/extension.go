// Package morph contains material extensions that tint meshes by three
// colour weights, and the systems that drive those weights from input.
package morph

import (
	"fmt"

	gekko "github.com/gekko3d/gekko-morph"
)

const (
	MorphShaderPath        = "shaders/morph.wgsl"
	MorphPrepassShaderPath = "shaders/morph_prepass.wgsl"
	SplitMorphShaderPath   = "shaders/morph_split.wgsl"
)

// Channels are the red, green and blue weights, each in [0,1].
type Channels [3]float32

const (
	Red = iota
	Green
	Blue
)

func (c Channels) String() string {
	return fmt.Sprintf("Red: %.2f, Green: %.2f, Blue: %.2f", c[Red], c[Green], c[Blue])
}

// Weighted is implemented by extensions the weight controller can drive.
type Weighted[E any] interface {
	gekko.MaterialExtension
	Channels() Channels
	WithChannels(c Channels) E
}

// MorphUniform is the uniform record at binding 100.
type MorphUniform struct {
	Red   float32
	Green float32
	Blue  float32
}

// MorphExtension keeps its weights in one uniform record and brings its own
// vertex, fragment and shadow prepass shaders.
type MorphExtension struct {
	gekko.DefaultMaterialExtension
	Weights MorphUniform `gekko:"uniform" binding:"100"`
}

type MorphMaterial = gekko.ExtendedMaterial[MorphExtension]

func NewMorphExtension(red, green, blue float32) MorphExtension {
	return MorphExtension{Weights: MorphUniform{Red: red, Green: green, Blue: blue}}
}

func (MorphExtension) VertexShader() string        { return MorphShaderPath }
func (MorphExtension) FragmentShader() string      { return MorphShaderPath }
func (MorphExtension) PrepassVertexShader() string { return MorphPrepassShaderPath }

// morphLayout is the vertex layout the morph shaders read.
var morphLayout = []gekko.VertexAttributeLocation{
	{Attribute: gekko.AttributePosition, Location: 0},
	{Attribute: gekko.AttributeNormal, Location: 1},
	{Attribute: gekko.AttributeUV0, Location: 2},
	{Attribute: gekko.AttributeColor, Location: 3},
}

// Specialize requires every attribute of the morph layout to be present.
func (MorphExtension) Specialize(desc *gekko.PipelineDescriptor, mesh *gekko.Mesh) error {
	layout, err := mesh.GetLayout(morphLayout...)
	if err != nil {
		return fmt.Errorf("morph vertex layout: %w", err)
	}
	desc.Layout = layout
	return nil
}

func (e MorphExtension) Channels() Channels {
	return Channels{e.Weights.Red, e.Weights.Green, e.Weights.Blue}
}

func (e MorphExtension) WithChannels(c Channels) MorphExtension {
	e.Weights = MorphUniform{Red: c[Red], Green: c[Green], Blue: c[Blue]}
	return e
}

// SplitMorphExtension binds each weight on its own and uses the default
// vertex layout and prepass.
type SplitMorphExtension struct {
	gekko.DefaultMaterialExtension
	Red   float32 `gekko:"uniform" binding:"100"`
	Green float32 `gekko:"uniform" binding:"101"`
	Blue  float32 `gekko:"uniform" binding:"102"`
}

type SplitMorphMaterial = gekko.ExtendedMaterial[SplitMorphExtension]

func (SplitMorphExtension) VertexShader() string   { return SplitMorphShaderPath }
func (SplitMorphExtension) FragmentShader() string { return SplitMorphShaderPath }

func (e SplitMorphExtension) Channels() Channels {
	return Channels{e.Red, e.Green, e.Blue}
}

func (e SplitMorphExtension) WithChannels(c Channels) SplitMorphExtension {
	e.Red, e.Green, e.Blue = c[Red], c[Green], c[Blue]
	return e
}
