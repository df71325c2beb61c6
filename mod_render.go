package gekko

import (
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gekko-morph/shaders"
)

const (
	materialBindGroup = 2
	// extension uniforms start here in the material bind group
	firstExtensionBinding = 100
)

// RenderModule draws every queued mesh with a forward pass preceded by a
// directional shadow prepass. It requires PlatformWindowModule and
// installs MaterialModule[StandardMaterial].
type RenderModule struct {
	ClearColor    wgpu.Color
	ShadowMapSize uint32
	// ShadowExtent is the half size of the light's orthographic frustum.
	ShadowExtent float32
}

func DefaultRenderSettings() RenderModule {
	return RenderModule{
		ClearColor:    wgpu.Color{R: 0.05, G: 0.05, B: 0.08, A: 1},
		ShadowMapSize: 2048,
		ShadowExtent:  12,
	}
}

type gpuMeshBuffers struct {
	version    uint
	weights    []float32
	vertex     *wgpu.Buffer
	index      *wgpu.Buffer
	indexCount uint32
}

type gpuEntity struct {
	uniform   *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

type gpuMaterial struct {
	version    uint
	textureId  AssetId
	textureVer uint
	standard   *wgpu.Buffer
	extension  map[uint32]*wgpu.Buffer
	bindGroup  *wgpu.BindGroup
}

type gpuTexture struct {
	version uint
	view    *wgpu.TextureView
}

// pipelineSet is the compiled main and prepass pipelines for one material
// type, shader set and vertex layout.
type pipelineSet struct {
	main    *wgpu.RenderPipeline
	prepass *wgpu.RenderPipeline
}

// Renderer owns all GPU state. It is a resource so overlays can hook in.
type Renderer struct {
	settings RenderModule
	gpu      *GpuState

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	shadowTexture *wgpu.Texture
	shadowView    *wgpu.TextureView
	shadowSampler *wgpu.Sampler
	colorSampler  *wgpu.Sampler
	white         *wgpu.TextureView

	viewLayout        *wgpu.BindGroupLayout
	prepassViewLayout *wgpu.BindGroupLayout
	meshLayout        *wgpu.BindGroupLayout

	viewBuffer       *wgpu.Buffer
	viewBindGroup    *wgpu.BindGroup
	prepassBindGroup *wgpu.BindGroup

	meshBuffers     map[string]*gpuMeshBuffers
	entities        map[EntityId]*gpuEntity
	materials       map[string]*gpuMaterial
	textures        map[AssetId]*gpuTexture
	materialLayouts map[string]*wgpu.BindGroupLayout
	pipelines       map[string]*pipelineSet
	failed          map[string]bool

	overlays []Overlay
}

// Overlay draws on top of the frame, after the main pass.
type Overlay interface {
	Prepare(r *Renderer)
	Draw(pass *wgpu.RenderPassEncoder)
}

func (r *Renderer) AddOverlay(o Overlay) {
	r.overlays = append(r.overlays, o)
}

func (r *Renderer) SurfaceFormat() wgpu.TextureFormat {
	return r.gpu.surfaceConfig.Format
}

func (r *Renderer) SurfaceSize() (int, int) {
	return int(r.gpu.surfaceConfig.Width), int(r.gpu.surfaceConfig.Height)
}

func (r *Renderer) Device() *wgpu.Device {
	return r.gpu.device
}

func (r *Renderer) Queue() *wgpu.Queue {
	return r.gpu.queue
}

func (r *Renderer) LinearSampler() *wgpu.Sampler {
	return r.colorSampler
}

func (m RenderModule) Install(app *App, cmd *Commands) {
	window := Resource[WindowState](app)
	if window == nil {
		panic("RenderModule requires PlatformWindowModule")
	}
	defaults := DefaultRenderSettings()
	if m.ShadowMapSize == 0 {
		m.ShadowMapSize = defaults.ShadowMapSize
	}
	if m.ShadowExtent == 0 {
		m.ShadowExtent = defaults.ShadowExtent
	}
	if m.ClearColor == (wgpu.Color{}) {
		m.ClearColor = defaults.ClearColor
	}

	renderer := newRenderer(m, createGpuState(window))
	app.Logger().Infof("Renderer ready, surface format %v", renderer.SurfaceFormat())

	cmd.AddResources(renderer)
	MaterialModule[StandardMaterial]{}.Install(app, cmd)
	app.UseSystem(
		System(renderSystem).
			InStage(Render).
			RunAlways(),
	)
}

func newRenderer(settings RenderModule, gpu *GpuState) *Renderer {
	r := &Renderer{
		settings:        settings,
		gpu:             gpu,
		meshBuffers:     make(map[string]*gpuMeshBuffers),
		entities:        make(map[EntityId]*gpuEntity),
		materials:       make(map[string]*gpuMaterial),
		textures:        make(map[AssetId]*gpuTexture),
		materialLayouts: make(map[string]*wgpu.BindGroupLayout),
		pipelines:       make(map[string]*pipelineSet),
		failed:          make(map[string]bool),
	}

	var err error
	r.shadowSampler, err = gpu.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		Compare:       wgpu.CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	})
	if err != nil {
		panic(err)
	}
	r.colorSampler, err = gpu.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		panic(err)
	}

	white := SolidImage(255, 255, 255, 255)
	r.white = gpu.createTextureFromImage("White Texture", &white)

	r.viewLayout = gpu.createBindGroupLayout("View Layout",
		uniformLayoutEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment),
		textureLayoutEntry(1, wgpu.TextureSampleTypeDepth),
		samplerLayoutEntry(2, wgpu.SamplerBindingTypeComparison),
	)
	r.prepassViewLayout = gpu.createBindGroupLayout("Prepass View Layout",
		uniformLayoutEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment),
	)
	r.meshLayout = gpu.createBindGroupLayout("Mesh Layout",
		uniformLayoutEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment),
	)

	r.viewBuffer = gpu.createUniformBuffer("View Uniform", toUniformBytes(viewUniform{}))
	r.shadowTexture, r.shadowView = gpu.createDepthTarget("Shadow Map", settings.ShadowMapSize, settings.ShadowMapSize, true)
	r.viewBindGroup = gpu.createBindGroup("View", r.viewLayout,
		bufferEntry(0, r.viewBuffer),
		wgpu.BindGroupEntry{Binding: 1, TextureView: r.shadowView},
		wgpu.BindGroupEntry{Binding: 2, Sampler: r.shadowSampler},
	)
	r.prepassBindGroup = gpu.createBindGroup("Prepass View", r.prepassViewLayout,
		bufferEntry(0, r.viewBuffer),
	)

	r.resizeDepth()
	return r
}

func (r *Renderer) resizeDepth() {
	if r.depthTexture != nil {
		r.depthView.Release()
		r.depthTexture.Release()
	}
	r.depthTexture, r.depthView = r.gpu.createDepthTarget("Depth", r.gpu.surfaceConfig.Width, r.gpu.surfaceConfig.Height, false)
}

// frameView is the camera and light state a frame is rendered with.
type frameView struct {
	uniform    viewUniform
	hasCamera  bool
	hasShadows bool
}

func (r *Renderer) collectView(cmd *Commands) frameView {
	var fv frameView
	width, height := r.SurfaceSize()
	aspect := float32(width) / float32(max(height, 1))

	MakeQuery2[CameraComponent, TransformComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, tr *TransformComponent) bool {
		fv.uniform.ViewProj = cam.Projection(aspect).Mul4(ViewMatrix(*tr))
		fv.uniform.CameraPos = [4]float32{tr.Position.X(), tr.Position.Y(), tr.Position.Z(), 1}
		fv.hasCamera = true
		return false
	})

	fv.uniform.LightDir = [4]float32{0, -1, 0, 0}
	MakeQuery2[LightComponent, TransformComponent](cmd).Map(func(eid EntityId, light *LightComponent, tr *TransformComponent) bool {
		if light.Type != LightTypeDirectional {
			return true
		}
		dir := tr.Forward().Normalize()
		fv.uniform.LightDir = [4]float32{dir.X(), dir.Y(), dir.Z(), 0}
		// 10000 lux maps to unit intensity.
		fv.uniform.LightColor = [4]float32{light.Color[0], light.Color[1], light.Color[2], light.Illuminance / 10000}
		fv.uniform.LightViewProj = r.lightViewProj(dir)
		if light.ShadowsEnabled {
			fv.hasShadows = true
			fv.uniform.Params[0] = 1
		}
		return false
	})
	return fv
}

func (r *Renderer) lightViewProj(dir mgl32.Vec3) mgl32.Mat4 {
	e := r.settings.ShadowExtent
	eye := dir.Mul(-2 * e)
	up := mgl32.Vec3{0, 1, 0}
	if abs32(dir.Y()) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, up)
	return glToWgpuClip.Mul4(mgl32.Ortho(-e, e, -e, e, 0.1, 4*e)).Mul4(view)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// preparedDraw is a queued item with every GPU resource resolved.
type preparedDraw struct {
	pipelines *pipelineSet
	mesh      *gpuMeshBuffers
	entity    *gpuEntity
	material  *gpuMaterial
}

func renderSystem(cmd *Commands, r *Renderer, window *WindowState, queue *RenderQueue, server *AssetServer) {
	logger := cmd.Logger()

	if int(r.gpu.surfaceConfig.Width) != window.WindowWidth || int(r.gpu.surfaceConfig.Height) != window.WindowHeight {
		if window.WindowWidth == 0 || window.WindowHeight == 0 {
			return // minimized
		}
		r.gpu.resize(window.WindowWidth, window.WindowHeight)
		r.resizeDepth()
	}

	fv := r.collectView(cmd)
	if err := r.gpu.queue.WriteBuffer(r.viewBuffer, 0, toUniformBytes(fv.uniform)); err != nil {
		logger.Errorf("Writing view uniform: %v", err)
		return
	}

	var draws []preparedDraw
	if fv.hasCamera {
		for _, item := range queue.items {
			draw, ok := r.prepare(cmd, item, server)
			if ok {
				draws = append(draws, draw)
			}
		}
	}
	for _, o := range r.overlays {
		o.Prepare(r)
	}

	nextTexture, err := r.gpu.surface.GetCurrentTexture()
	if err != nil {
		logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()
	view, err := nextTexture.CreateView(nil)
	if err != nil {
		logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := r.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		logger.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}

	shadowPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Shadow Prepass",
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.shadowView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	if fv.hasShadows {
		shadowPass.SetBindGroup(0, r.prepassBindGroup, nil)
		for _, d := range draws {
			shadowPass.SetPipeline(d.pipelines.prepass)
			shadowPass.SetBindGroup(1, d.entity.bindGroup, nil)
			shadowPass.SetBindGroup(materialBindGroup, d.material.bindGroup, nil)
			d.bindBuffers(shadowPass)
		}
	}
	if err := shadowPass.End(); err != nil {
		logger.Errorf("Shadow pass End failed: %v", err)
	}

	mainPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Main Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: r.settings.ClearColor,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	mainPass.SetBindGroup(0, r.viewBindGroup, nil)
	for _, d := range draws {
		mainPass.SetPipeline(d.pipelines.main)
		mainPass.SetBindGroup(1, d.entity.bindGroup, nil)
		mainPass.SetBindGroup(materialBindGroup, d.material.bindGroup, nil)
		d.bindBuffers(mainPass)
	}
	if err := mainPass.End(); err != nil {
		logger.Errorf("Main pass End failed: %v", err)
	}

	if len(r.overlays) > 0 {
		overlayPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: "Overlay Pass",
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:    view,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			}},
		})
		for _, o := range r.overlays {
			o.Draw(overlayPass)
		}
		if err := overlayPass.End(); err != nil {
			logger.Errorf("Overlay pass End failed: %v", err)
		}
	}

	commands, err := encoder.Finish(nil)
	if err != nil {
		logger.Errorf("Encoder Finish failed: %v", err)
		return
	}
	r.gpu.queue.Submit(commands)
	r.gpu.surface.Present()
}

func (d preparedDraw) bindBuffers(pass *wgpu.RenderPassEncoder) {
	pass.SetVertexBuffer(0, d.mesh.vertex, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(d.mesh.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(d.mesh.indexCount, 1, 0, 0, 0)
}

// prepare resolves GPU state for one queued item. Items whose assets are
// still loading are skipped silently; specialization failures are logged
// once per material type and mesh.
func (r *Renderer) prepare(cmd *Commands, item renderItem, server *AssetServer) (preparedDraw, bool) {
	mesh := server.Meshes.Get(item.mesh)
	if mesh == nil || mesh.VertexCount() == 0 {
		return preparedDraw{}, false
	}

	desc := PipelineDescriptor{
		Label:  item.materialType,
		Layout: DefaultVertexLayout(),
	}
	prepassShader := ""
	if item.extension != nil {
		desc.VertexShader = item.extension.VertexShader()
		desc.FragmentShader = item.extension.FragmentShader()
		prepassShader = item.extension.PrepassVertexShader()
		if err := item.extension.Specialize(&desc, mesh); err != nil {
			failKey := item.materialType + "|" + string(item.mesh.Id())
			if !r.failed[failKey] {
				r.failed[failKey] = true
				cmd.Logger().Errorf("Specializing %s for entity %d: %v", item.materialType, item.entity, err)
			}
			return preparedDraw{}, false
		}
	}

	vertexSrc, ok := r.shaderSource(server, desc.VertexShader, shaders.StandardWGSL)
	if !ok {
		return preparedDraw{}, false
	}
	fragmentSrc, ok := r.shaderSource(server, desc.FragmentShader, shaders.StandardWGSL)
	if !ok {
		return preparedDraw{}, false
	}
	prepassSrc, ok := r.shaderSource(server, prepassShader, shaders.PrepassWGSL)
	if !ok {
		return preparedDraw{}, false
	}

	uniforms, err := collectUniforms(item.extension)
	if err == nil && len(uniforms) > 0 && uniforms[0].binding < firstExtensionBinding {
		err = fmt.Errorf("binding %d is reserved, extension bindings start at %d", uniforms[0].binding, firstExtensionBinding)
	}
	if err != nil {
		if !r.failed[item.materialType] {
			r.failed[item.materialType] = true
			cmd.Logger().Errorf("Material %s uniforms: %v", item.materialType, err)
		}
		return preparedDraw{}, false
	}

	pipelineKey := fmt.Sprintf("%s|%s|%s|%s|%s", item.materialType, desc.VertexShader, desc.FragmentShader, prepassShader, desc.Layout.Key())
	pipelines, ok := r.pipelines[pipelineKey]
	if !ok {
		if r.failed[pipelineKey] {
			return preparedDraw{}, false
		}
		pipelines, err = r.createPipelines(desc, item.materialType, uniforms, vertexSrc, fragmentSrc, prepassSrc)
		if err != nil {
			r.failed[pipelineKey] = true
			cmd.Logger().Errorf("Creating pipeline %s: %v", pipelineKey, err)
			return preparedDraw{}, false
		}
		r.pipelines[pipelineKey] = pipelines
	}

	return preparedDraw{
		pipelines: pipelines,
		mesh:      r.meshBuffersFor(item, mesh, desc.Layout, server.Meshes.Version(item.mesh)),
		entity:    r.entityFor(item.entity, item.model),
		material:  r.materialFor(item, uniforms, server),
	}, true
}

// shaderSource returns fallback for an empty path, otherwise the loaded
// shader asset, requesting it on first use.
func (r *Renderer) shaderSource(server *AssetServer, path string, fallback string) (string, bool) {
	if path == "" {
		return fallback, true
	}
	shader := server.Shaders.Get(Load[Shader](server, path))
	if shader == nil {
		return "", false
	}
	return shader.Source, true
}

func (r *Renderer) materialLayout(materialType string, uniforms []uniformBinding) *wgpu.BindGroupLayout {
	if layout, ok := r.materialLayouts[materialType]; ok {
		return layout
	}
	entries := []wgpu.BindGroupLayoutEntry{
		uniformLayoutEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment),
		textureLayoutEntry(1, wgpu.TextureSampleTypeFloat),
		samplerLayoutEntry(2, wgpu.SamplerBindingTypeFiltering),
	}
	for _, u := range uniforms {
		entries = append(entries, uniformLayoutEntry(u.binding, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment))
	}
	layout := r.gpu.createBindGroupLayout(materialType+" Layout", entries...)
	r.materialLayouts[materialType] = layout
	return layout
}

func (r *Renderer) createPipelines(desc PipelineDescriptor, materialType string, uniforms []uniformBinding, vertexSrc, fragmentSrc, prepassSrc string) (*pipelineSet, error) {
	device := r.gpu.device

	vertexModule, err := r.gpu.createShaderModule(desc.Label+" vertex", vertexSrc)
	if err != nil {
		return nil, err
	}
	defer vertexModule.Release()
	fragmentModule, err := r.gpu.createShaderModule(desc.Label+" fragment", fragmentSrc)
	if err != nil {
		return nil, err
	}
	defer fragmentModule.Release()
	prepassModule, err := r.gpu.createShaderModule(desc.Label+" prepass", prepassSrc)
	if err != nil {
		return nil, err
	}
	defer prepassModule.Release()

	mainLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + " Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.viewLayout, r.meshLayout, r.materialLayout(materialType, uniforms)},
	})
	if err != nil {
		return nil, err
	}
	defer mainLayout.Release()

	prepassLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + " Prepass Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.prepassViewLayout, r.meshLayout, r.materialLayout(materialType, uniforms)},
	})
	if err != nil {
		return nil, err
	}
	defer prepassLayout.Release()

	vertexBuffers := []wgpu.VertexBufferLayout{desc.Layout.wgpuLayout()}

	main, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: mainLayout,
		Vertex: wgpu.VertexState{
			Module:     vertexModule,
			EntryPoint: "vs_main",
			Buffers:    vertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fragmentModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    r.gpu.surfaceConfig.Format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	prepass, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Prepass",
		Layout: prepassLayout,
		Vertex: wgpu.VertexState{
			Module:     prepassModule,
			EntryPoint: "vs_main",
			Buffers:    vertexBuffers,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeFront,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              depthFormat,
			DepthWriteEnabled:   true,
			DepthCompare:        wgpu.CompareFunctionLess,
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			DepthBias:           2,
			DepthBiasSlopeScale: 1.5,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		main.Release()
		return nil, err
	}
	return &pipelineSet{main: main, prepass: prepass}, nil
}

// meshBufferKey identifies a vertex buffer. Morphed meshes get one buffer
// per entity since every entity carries its own weights.
func meshBufferKey(item renderItem, mesh *Mesh, layout VertexBufferLayout) string {
	key := string(item.mesh.Id()) + "|" + layout.Key()
	if len(mesh.Targets) > 0 && len(item.morphWeights) > 0 {
		key += fmt.Sprintf("|%d", item.entity)
	}
	return key
}

func (r *Renderer) meshBuffersFor(item renderItem, mesh *Mesh, layout VertexBufferLayout, version uint) *gpuMeshBuffers {
	key := meshBufferKey(item, mesh, layout)
	buffers, ok := r.meshBuffers[key]
	if ok && buffers.version == version {
		if !slices.Equal(buffers.weights, item.morphWeights) {
			r.gpu.queue.WriteBuffer(buffers.vertex, 0, mesh.Morphed(item.morphWeights).Interleave(layout))
			buffers.weights = append(buffers.weights[:0], item.morphWeights...)
		}
		return buffers
	} else if ok {
		buffers.vertex.Release()
		buffers.index.Release()
	}

	indices := mesh.IndicesOrSequential()
	buffers = &gpuMeshBuffers{
		version:    version,
		weights:    append([]float32(nil), item.morphWeights...),
		vertex:     r.gpu.createBuffer("Vertex Buffer", mesh.Morphed(item.morphWeights).Interleave(layout), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst),
		index:      r.gpu.createBuffer("Index Buffer", wgpu.ToBytes(indices), wgpu.BufferUsageIndex),
		indexCount: uint32(len(indices)),
	}
	r.meshBuffers[key] = buffers
	return buffers
}

func (r *Renderer) entityFor(eid EntityId, model mgl32.Mat4) *gpuEntity {
	u := meshUniform{
		Model:  model,
		Normal: model.Inv().Transpose(),
	}
	if e, ok := r.entities[eid]; ok {
		r.gpu.queue.WriteBuffer(e.uniform, 0, toUniformBytes(u))
		return e
	}
	buffer := r.gpu.createUniformBuffer("Mesh Uniform", toUniformBytes(u))
	e := &gpuEntity{
		uniform:   buffer,
		bindGroup: r.gpu.createBindGroup("Mesh", r.meshLayout, bufferEntry(0, buffer)),
	}
	r.entities[eid] = e
	return e
}

func (r *Renderer) textureFor(h Handle[Image], images *Assets[Image]) (*wgpu.TextureView, uint) {
	img := images.Get(h)
	if img == nil {
		return r.white, 0
	}
	version := images.Version(h)
	if tex, ok := r.textures[h.Id()]; ok && tex.version == version {
		return tex.view, version
	} else if ok {
		tex.view.Release()
	}
	view := r.gpu.createTextureFromImage(string(h.Id()), img)
	r.textures[h.Id()] = &gpuTexture{version: version, view: view}
	return view, version
}

// materialFor uploads material uniforms every frame so in-place edits show
// up immediately; the bind group is rebuilt only when its texture changes.
func (r *Renderer) materialFor(item renderItem, uniforms []uniformBinding, server *AssetServer) *gpuMaterial {
	key := item.materialKey()
	texture, textureVer := r.textureFor(item.standard.BaseColorTexture, server.Images)

	mat, ok := r.materials[key]
	if ok && mat.textureId == item.standard.BaseColorTexture.Id() && mat.textureVer == textureVer {
		r.gpu.queue.WriteBuffer(mat.standard, 0, item.standard.uniformBytes())
		for _, u := range uniforms {
			if buf, ok := mat.extension[u.binding]; ok {
				r.gpu.queue.WriteBuffer(buf, 0, u.data)
			}
		}
		mat.version = item.materialVersion
		return mat
	}

	mat = &gpuMaterial{
		version:    item.materialVersion,
		textureId:  item.standard.BaseColorTexture.Id(),
		textureVer: textureVer,
		standard:   r.gpu.createUniformBuffer("Standard Material", item.standard.uniformBytes()),
		extension:  make(map[uint32]*wgpu.Buffer),
	}
	entries := []wgpu.BindGroupEntry{
		bufferEntry(0, mat.standard),
		{Binding: 1, TextureView: texture},
		{Binding: 2, Sampler: r.colorSampler},
	}
	for _, u := range uniforms {
		buf := r.gpu.createUniformBuffer(fmt.Sprintf("Material Extension %d", u.binding), u.data)
		mat.extension[u.binding] = buf
		entries = append(entries, bufferEntry(u.binding, buf))
	}
	mat.bindGroup = r.gpu.createBindGroup(key, r.materialLayout(item.materialType, uniforms), entries...)
	r.materials[key] = mat
	return mat
}
