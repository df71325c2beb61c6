package gekko

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/gekko-morph/shaders"
)

// FrameStats is an exponentially smoothed frame rate.
type FrameStats struct {
	Fps        float32
	FrameTime  float32 // smoothed seconds per frame
	Smoothing  float32 // weight of the newest sample, (0,1]
	frameCount uint64
}

func (s *FrameStats) Record(dt float32) {
	if dt <= 0 {
		return
	}
	s.frameCount++
	if s.frameCount == 1 || s.Smoothing <= 0 || s.Smoothing >= 1 {
		s.FrameTime = dt
	} else {
		s.FrameTime += (dt - s.FrameTime) * s.Smoothing
	}
	s.Fps = 1 / s.FrameTime
}

func (s *FrameStats) Frames() uint64 {
	return s.frameCount
}

// FpsOverlayModule draws the smoothed frame rate in a screen corner.
// Install it after RenderModule; without one it only maintains FrameStats.
type FpsOverlayModule struct {
	FontSize float64
	Color    [4]float32
	// RefreshInterval in seconds between text updates.
	RefreshInterval float32
}

func (m FpsOverlayModule) Install(app *App, cmd *Commands) {
	if m.FontSize == 0 {
		m.FontSize = 32
	}
	if m.Color == ([4]float32{}) {
		m.Color = [4]float32{1, 1, 1, 1}
	}
	if m.RefreshInterval == 0 {
		m.RefreshInterval = 0.1
	}

	cmd.AddResources(&FrameStats{Smoothing: 0.1})
	app.UseSystem(
		System(frameStatsSystem).
			InStage(PostUpdate).
			RunAlways(),
	)

	renderer := Resource[Renderer](app)
	if renderer == nil {
		return
	}
	atlas, err := NewMonoTextAtlas(m.FontSize)
	if err != nil {
		app.Logger().Errorf("FPS overlay disabled: %v", err)
		return
	}
	overlay := &fpsOverlay{
		settings: m,
		atlas:    atlas,
		logger:   app.Logger(),
	}
	renderer.AddOverlay(overlay)
	cmd.AddResources(overlay)
	app.UseSystem(
		System(fpsTextSystem).
			InStage(PreRender).
			RunAlways(),
	)
}

func frameStatsSystem(t *Time, stats *FrameStats) {
	stats.Record(t.DeltaSecs())
}

func fpsTextSystem(t *Time, stats *FrameStats, overlay *fpsOverlay) {
	overlay.sinceRefresh += t.DeltaSecs()
	if overlay.text != "" && overlay.sinceRefresh < overlay.settings.RefreshInterval {
		return
	}
	overlay.sinceRefresh = 0
	overlay.text = FormatFps(stats.Fps)
	overlay.dirty = true
}

func FormatFps(fps float32) string {
	return fmt.Sprintf("FPS: %.0f", fps)
}

type fpsOverlay struct {
	settings     FpsOverlayModule
	atlas        *TextAtlas
	text         string
	dirty        bool
	sinceRefresh float32
	screenW      int
	screenH      int
	logger       Logger
	broken       bool

	pipeline    *wgpu.RenderPipeline
	bindGroup   *wgpu.BindGroup
	vertices    *wgpu.Buffer
	vertexCount uint32
}

func (o *fpsOverlay) Prepare(r *Renderer) {
	if o.broken {
		return
	}
	if o.pipeline == nil {
		if err := o.createResources(r); err != nil {
			o.broken = true
			o.logger.Errorf("FPS overlay disabled: %v", err)
			return
		}
	}

	w, h := r.SurfaceSize()
	if !o.dirty && w == o.screenW && h == o.screenH {
		return
	}
	o.dirty = false
	o.screenW, o.screenH = w, h

	items := []TextItem{{
		Text:     o.text,
		Position: [2]float32{10, 10},
		Scale:    1,
		Color:    o.settings.Color,
	}}
	vertices := o.atlas.BuildVertices(items, w, h)
	o.vertexCount = uint32(len(vertices))
	if len(vertices) == 0 {
		return
	}

	size := uint64(len(vertices)) * uint64(unsafe.Sizeof(TextVertex{}))
	if o.vertices == nil || o.vertices.GetSize() < size {
		if o.vertices != nil {
			o.vertices.Release()
		}
		buffer, err := r.Device().CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Text VB",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			o.vertexCount = 0
			return
		}
		o.vertices = buffer
	}
	r.Queue().WriteBuffer(o.vertices, 0, wgpu.ToBytes(vertices))
}

func (o *fpsOverlay) Draw(pass *wgpu.RenderPassEncoder) {
	if o.pipeline == nil || o.vertexCount == 0 {
		return
	}
	pass.SetPipeline(o.pipeline)
	pass.SetBindGroup(0, o.bindGroup, nil)
	pass.SetVertexBuffer(0, o.vertices, 0, o.vertices.GetSize())
	pass.Draw(o.vertexCount, 1, 0, 0)
}

func (o *fpsOverlay) createResources(r *Renderer) error {
	device := r.Device()
	w, h := o.atlas.Image.Bounds().Dx(), o.atlas.Image.Bounds().Dy()
	extent := wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}

	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Text Atlas",
		Size:          extent,
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}
	defer tex.Release()
	err = r.Queue().WriteTexture(tex.AsImageCopy(), o.atlas.Image.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(w),
		RowsPerImage: uint32(h),
	}, &extent)
	if err != nil {
		return err
	}
	atlasView, err := tex.CreateView(nil)
	if err != nil {
		return err
	}

	module, err := r.gpu.createShaderModule("Text Shader", shaders.TextWGSL)
	if err != nil {
		return err
	}
	defer module.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Text Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(unsafe.Sizeof(TextVertex{})),
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: r.SurfaceFormat(),
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: atlasView},
			{Binding: 1, Sampler: r.LinearSampler()},
		},
	})
	if err != nil {
		pipeline.Release()
		return err
	}
	o.pipeline = pipeline
	o.bindGroup = bindGroup
	return nil
}
