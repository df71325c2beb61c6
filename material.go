package gekko

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-gl/mathgl/mgl32"
)

type OpaqueRenderMethod int

const (
	OpaqueRenderAuto OpaqueRenderMethod = iota
	OpaqueRenderForward
	OpaqueRenderDeferred
)

// StandardMaterial is the metallic-roughness base material.
type StandardMaterial struct {
	BaseColor          [4]float32 // linear RGBA
	BaseColorTexture   Handle[Image]
	Roughness          float32
	Metallic           float32
	OpaqueRenderMethod OpaqueRenderMethod
}

func DefaultStandardMaterial() StandardMaterial {
	return StandardMaterial{
		BaseColor: [4]float32{1, 1, 1, 1},
		Roughness: 0.5,
		Metallic:  0,
	}
}

func ColorMaterial(r, g, b float32) StandardMaterial {
	m := DefaultStandardMaterial()
	m.BaseColor = [4]float32{r, g, b, 1}
	return m
}

// SrgbToLinear converts one sRGB encoded channel.
func SrgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow((float64(c)+0.055)/1.055, 2.4))
}

// PipelineDescriptor is what a MaterialExtension may adjust before the
// renderer compiles a pipeline for a mesh.
type PipelineDescriptor struct {
	Label          string
	VertexShader   string
	FragmentShader string
	Layout         VertexBufferLayout
}

// MaterialExtension adds uniforms and shaders on top of StandardMaterial.
// Uniform fields are tagged `gekko:"uniform" binding:"N"` with N >= 100
// and land in the material bind group.
type MaterialExtension interface {
	// Shader asset paths; "" keeps the default.
	VertexShader() string
	FragmentShader() string
	PrepassVertexShader() string
	Specialize(desc *PipelineDescriptor, mesh *Mesh) error
}

// DefaultMaterialExtension is meant to be embedded; it keeps every default.
type DefaultMaterialExtension struct{}

func (DefaultMaterialExtension) VertexShader() string        { return "" }
func (DefaultMaterialExtension) FragmentShader() string      { return "" }
func (DefaultMaterialExtension) PrepassVertexShader() string { return "" }
func (DefaultMaterialExtension) Specialize(*PipelineDescriptor, *Mesh) error {
	return nil
}

type ExtendedMaterial[E MaterialExtension] struct {
	Base      StandardMaterial
	Extension E
}

// Material is implemented by StandardMaterial and ExtendedMaterial.
type Material interface {
	materialParts() (StandardMaterial, MaterialExtension)
}

func (m StandardMaterial) materialParts() (StandardMaterial, MaterialExtension) {
	return m, nil
}

func (m ExtendedMaterial[E]) materialParts() (StandardMaterial, MaterialExtension) {
	return m.Base, m.Extension
}

// Mesh3d attaches a mesh asset to an entity.
type Mesh3d struct {
	Handle Handle[Mesh]
}

// MeshMaterial3d attaches a material asset of type M to an entity.
type MeshMaterial3d[M Material] struct {
	Handle Handle[M]
}

// MaterialModule makes entities carrying MeshMaterial3d[M] renderable.
type MaterialModule[M Material] struct{}

func (MaterialModule[M]) Install(app *App, cmd *Commands) {
	if Resource[Assets[M]](app) == nil {
		cmd.AddResources(NewAssets[M]())
	}
	if Resource[RenderQueue](app) == nil {
		cmd.AddResources(&RenderQueue{})
		app.UseSystem(
			System(clearRenderQueueSystem).
				InStage(PostRender).
				RunAlways(),
		)
	}
	app.UseSystem(
		System(queueMaterialSystem[M]).
			InStage(PreRender).
			RunAlways(),
	)
}

// RenderQueue collects the frame's draws. It is rebuilt in PreRender and
// consumed in Render.
type RenderQueue struct {
	items []renderItem
}

type renderItem struct {
	entity          EntityId
	mesh            Handle[Mesh]
	materialType    string
	materialId      AssetId
	materialVersion uint
	standard        StandardMaterial
	extension       MaterialExtension
	model           mgl32.Mat4
	// Copied from the entity's MorphWeights, nil without one.
	morphWeights []float32
}

func (q *RenderQueue) Len() int {
	return len(q.items)
}

func clearRenderQueueSystem(queue *RenderQueue) {
	queue.items = queue.items[:0]
}

func queueMaterialSystem[M Material](cmd *Commands, queue *RenderQueue, materials *Assets[M]) {
	typeName := reflect.TypeFor[M]().String()
	MakeQuery3[Mesh3d, MeshMaterial3d[M], TransformComponent](cmd).Map(func(eid EntityId, mesh *Mesh3d, mat *MeshMaterial3d[M], tr *TransformComponent) bool {
		m := materials.Get(mat.Handle)
		if m == nil {
			return true
		}
		standard, extension := (*m).materialParts()
		var morph []float32
		if w := GetComponent[MorphWeights](cmd, eid); w != nil {
			morph = append([]float32(nil), w.Weights...)
		}
		queue.items = append(queue.items, renderItem{
			entity:          eid,
			mesh:            mesh.Handle,
			materialType:    typeName,
			materialId:      mat.Handle.Id(),
			materialVersion: materials.Version(mat.Handle),
			standard:        standard,
			extension:       extension,
			model:           tr.Matrix(),
			morphWeights:    morph,
		})
		return true
	})
}

func (item renderItem) materialKey() string {
	return fmt.Sprintf("%s/%s", item.materialType, item.materialId)
}
