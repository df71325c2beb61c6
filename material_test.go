package gekko

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type glowExtension struct {
	DefaultMaterialExtension
	Glow float32 `gekko:"uniform" binding:"100"`
}

func (glowExtension) FragmentShader() string { return "shaders/glow.wgsl" }

func TestMaterialModule_QueuesDraws(t *testing.T) {
	app := NewApp()
	app.UseModules(MaterialModule[StandardMaterial]{}, MaterialModule[ExtendedMaterial[glowExtension]]{})
	cmd := app.Commands()

	standard := Resource[Assets[StandardMaterial]](app)
	glow := Resource[Assets[ExtendedMaterial[glowExtension]]](app)
	queue := Resource[RenderQueue](app)
	require.NotNil(t, standard)
	require.NotNil(t, glow)
	require.NotNil(t, queue)

	mesh := HandleFromId[Mesh]("mesh")
	red := standard.Add(ColorMaterial(1, 0, 0))
	bright := glow.Add(ExtendedMaterial[glowExtension]{Base: DefaultStandardMaterial(), Extension: glowExtension{Glow: 2}})

	plain := cmd.AddEntity(Mesh3d{Handle: mesh}, MeshMaterial3d[StandardMaterial]{Handle: red}, NewTransform(mgl32.Vec3{1, 0, 0}))
	glowing := cmd.AddEntity(Mesh3d{Handle: mesh}, MeshMaterial3d[ExtendedMaterial[glowExtension]]{Handle: bright}, NewTransform(mgl32.Vec3{}), MorphWeights{Weights: []float32{0.5}})
	cmd.AddEntity(Mesh3d{Handle: mesh}, MeshMaterial3d[StandardMaterial]{Handle: HandleFromId[StandardMaterial]("gone")}, NewTransform(mgl32.Vec3{}))
	cmd.AddEntity(Mesh3d{Handle: mesh}, MeshMaterial3d[StandardMaterial]{Handle: red})
	app.FlushCommands()

	queueMaterialSystem[StandardMaterial](cmd, queue, standard)
	queueMaterialSystem[ExtendedMaterial[glowExtension]](cmd, queue, glow)
	require.Equal(t, 2, queue.Len(), "missing materials and transforms are skipped")

	first := queue.items[0]
	assert.Equal(t, plain, first.entity)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, first.standard.BaseColor)
	assert.Nil(t, first.extension)
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), first.model)
	assert.Equal(t, "gekko.StandardMaterial/"+string(red.Id()), first.materialKey())
	assert.Nil(t, first.morphWeights)

	second := queue.items[1]
	assert.Equal(t, glowing, second.entity)
	require.IsType(t, glowExtension{}, second.extension)
	assert.Equal(t, float32(2), second.extension.(glowExtension).Glow)
	assert.Equal(t, "shaders/glow.wgsl", second.extension.FragmentShader())
	assert.Equal(t, uint(1), second.materialVersion)
	assert.Equal(t, []float32{0.5}, second.morphWeights)
	GetComponent[MorphWeights](cmd, glowing).Weights[0] = 1
	assert.Equal(t, []float32{0.5}, second.morphWeights, "weights are copied at queue time")

	clearRenderQueueSystem(queue)
	assert.Equal(t, 0, queue.Len())
}

func TestMaterialModule_KeepsExistingStore(t *testing.T) {
	app := NewApp()
	existing := NewAssets[StandardMaterial]()
	app.Commands().AddResources(existing)

	app.UseModules(MaterialModule[StandardMaterial]{})
	assert.Same(t, existing, Resource[Assets[StandardMaterial]](app))
}

func TestMeshBufferKey_PerEntityWhenMorphed(t *testing.T) {
	layout := DefaultVertexLayout()
	plain := &Mesh{Positions: make([][3]float32, 3)}
	targets := &Mesh{Positions: make([][3]float32, 3), Targets: []MorphTarget{{Positions: make([][3]float32, 3)}}}
	a := renderItem{entity: 1, mesh: HandleFromId[Mesh]("m"), morphWeights: []float32{0}}
	b := renderItem{entity: 2, mesh: HandleFromId[Mesh]("m"), morphWeights: []float32{0}}

	assert.Equal(t, meshBufferKey(a, plain, layout), meshBufferKey(b, plain, layout), "meshes without targets share buffers")
	assert.NotEqual(t, meshBufferKey(a, targets, layout), meshBufferKey(b, targets, layout))

	a.morphWeights = nil
	b.morphWeights = nil
	assert.Equal(t, meshBufferKey(a, targets, layout), meshBufferKey(b, targets, layout))
}
