package compositor

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/video"
)

//go:embed shaders/blit.wgsl
var blitShaderSource string

// blitUniformSize is the size of BlitUniforms in blit.wgsl:
// dst_rect (vec4<f32>) + src_rect (vec4<f32>).
const blitUniformSize = 32

// gpuSubmitTimeout bounds the fence wait after each blit submission.
const gpuSubmitTimeout = 5 * time.Second

// gpuState holds the lazily created HAL resources for the texture blit
// path. The device and queue are shared with the surface provider and
// never destroyed here.
type gpuState struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler

	// One pipeline per swapchain format seen so far. Runtimes negotiate
	// a single format per session, so this normally holds one entry.
	pipelines map[gputypes.TextureFormat]hal.RenderPipeline

	uniformBuf hal.Buffer

	// Staging texture holding the most recently uploaded video frame.
	// Recreated when the frame dimensions change.
	frameTex  hal.Texture
	frameView hal.TextureView
	frameW    int
	frameH    int
}

// newGPUState extracts the HAL device and queue from a provider
// exposing HalDevice() any and HalQueue() any. Returns nil if the
// provider does not expose HAL types.
func newGPUState(provider any) *gpuState {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil
	}
	return &gpuState{
		device:    device,
		queue:     queue,
		pipelines: make(map[gputypes.TextureFormat]hal.RenderPipeline),
	}
}

// halView unwraps the HAL texture view behind a target's view. Backends
// that allocate swapchain images as device textures expose the
// underlying view through HalTextureView() any.
func halView(target xr.RenderTarget) (hal.TextureView, bool) {
	hv, ok := target.TextureView().(interface{ HalTextureView() any })
	if !ok {
		return nil, false
	}
	view, ok := hv.HalTextureView().(hal.TextureView)
	return view, ok && view != nil
}

// render clears the target and blits the eye's portion of the frame
// into it. A nil frame encodes the clear alone.
func (g *gpuState) render(target xr.RenderTarget, eye int, layout Layout, frame *video.Frame) error {
	view, ok := halView(target)
	if !ok {
		return ErrUnsupportedTarget
	}
	if err := g.ensurePipeline(target.Format()); err != nil {
		return err
	}

	var bind hal.BindGroup
	if frame != nil {
		if err := g.uploadFrame(frame); err != nil {
			return err
		}
		sr := sourceRect(frame, eye, layout)
		dr := letterbox(target.Width(), target.Height(), sr.Width, sr.Height)
		if !sr.Empty() && !dr.Empty() {
			if err := g.writeUniforms(target, dr, sr, frame); err != nil {
				return err
			}
			b, err := g.createBindGroup()
			if err != nil {
				return err
			}
			bind = b
			defer g.device.DestroyBindGroup(bind)
		}
	}

	return g.encodeBlit(view, target.Format(), bind)
}

// uploadFrame copies the frame pixels into the staging texture,
// recreating it when the dimensions change.
func (g *gpuState) uploadFrame(frame *video.Frame) error {
	if g.frameTex == nil || g.frameW != frame.Width || g.frameH != frame.Height {
		g.destroyFrameTexture()

		//nolint:gosec // G115: frame dimensions are bounded by the decoder
		w, h := uint32(frame.Width), uint32(frame.Height)
		tex, err := g.device.CreateTexture(&hal.TextureDescriptor{
			Label:         "compositor_frame",
			Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        gputypes.TextureFormatRGBA8Unorm,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("compositor: create frame texture: %w", err)
		}
		view, err := g.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         "compositor_frame_view",
			Format:        gputypes.TextureFormatRGBA8Unorm,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			g.device.DestroyTexture(tex)
			return fmt.Errorf("compositor: create frame texture view: %w", err)
		}
		g.frameTex = tex
		g.frameView = view
		g.frameW = frame.Width
		g.frameH = frame.Height
		xr.Logger().Debug("compositor frame texture created",
			"width", frame.Width, "height", frame.Height)
	}

	//nolint:gosec // G115: stride and dimensions are bounded by the decoder
	g.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  g.frameTex,
			MipLevel: 0,
		},
		frame.Data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(frame.Stride),
			RowsPerImage: uint32(frame.Height),
		},
		&hal.Extent3D{Width: uint32(frame.Width), Height: uint32(frame.Height), DepthOrArrayLayers: 1},
	)
	return nil
}

// writeUniforms packs the destination rectangle (clip space) and source
// rectangle (texture space) and uploads them to the uniform buffer.
func (g *gpuState) writeUniforms(target xr.RenderTarget, dr, sr xr.Rect, frame *video.Frame) error {
	if g.uniformBuf == nil {
		buf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "compositor_blit_uniform",
			Size:  blitUniformSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("compositor: create uniform buffer: %w", err)
		}
		g.uniformBuf = buf
	}

	tw, th := float32(target.Width()), float32(target.Height())
	fw, fh := float32(frame.Width), float32(frame.Height)

	data := make([]byte, blitUniformSize)
	le := binary.LittleEndian
	putF32 := func(off int, v float32) { le.PutUint32(data[off:off+4], math.Float32bits(v)) }

	// dst_rect: left-top and right-bottom corners in clip space. Clip
	// space y points up while pixel y points down, hence the flip.
	putF32(0, 2*float32(dr.X)/tw-1)
	putF32(4, 1-2*float32(dr.Y)/th)
	putF32(8, 2*float32(dr.X+dr.Width)/tw-1)
	putF32(12, 1-2*float32(dr.Y+dr.Height)/th)

	// src_rect: the eye's region in normalized texture coordinates.
	putF32(16, float32(sr.X)/fw)
	putF32(20, float32(sr.Y)/fh)
	putF32(24, float32(sr.X+sr.Width)/fw)
	putF32(28, float32(sr.Y+sr.Height)/fh)

	g.queue.WriteBuffer(g.uniformBuf, 0, data)
	return nil
}

// createBindGroup binds the uniform buffer, frame texture, and sampler
// for one blit. The group is rebuilt per frame because the frame
// texture may have been recreated since the last draw.
func (g *gpuState) createBindGroup() (hal.BindGroup, error) {
	bind, err := g.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "compositor_blit_bind",
		Layout: g.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: g.uniformBuf.NativeHandle(), Offset: 0, Size: blitUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: g.frameView.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: g.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compositor: create bind group: %w", err)
	}
	return bind, nil
}

// encodeBlit records the render pass, submits it, and waits for the
// fence. A nil bind group clears the target without drawing.
func (g *gpuState) encodeBlit(view hal.TextureView, format gputypes.TextureFormat, bind hal.BindGroup) error {
	encoder, err := g.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "compositor_encoder",
	})
	if err != nil {
		return fmt.Errorf("compositor: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("compositor_blit"); err != nil {
		return fmt.Errorf("compositor: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "compositor_blit_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	if bind != nil {
		rp.SetPipeline(g.pipelines[format])
		rp.SetBindGroup(0, bind, nil)
		rp.Draw(6, 1, 0, 0)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("compositor: end encoding: %w", err)
	}
	defer g.device.FreeCommandBuffer(cmdBuf)

	fence, err := g.device.CreateFence()
	if err != nil {
		return fmt.Errorf("compositor: create fence: %w", err)
	}
	defer g.device.DestroyFence(fence)

	if err := g.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("compositor: submit: %w", err)
	}
	ok, err := g.device.Wait(fence, 1, gpuSubmitTimeout)
	if err != nil || !ok {
		return fmt.Errorf("compositor: wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// ensurePipeline compiles the blit shader and creates the shared
// layouts on first use, then builds the render pipeline for the given
// target format if it does not exist yet.
func (g *gpuState) ensurePipeline(format gputypes.TextureFormat) error {
	if g.shader == nil {
		spirvBytes, err := naga.Compile(blitShaderSource)
		if err != nil {
			return fmt.Errorf("compositor: compile blit shader: %w", err)
		}
		// SPIR-V is little-endian 32-bit words.
		spirvCode := make([]uint32, len(spirvBytes)/4)
		for i := range spirvCode {
			spirvCode[i] = uint32(spirvBytes[i*4]) |
				uint32(spirvBytes[i*4+1])<<8 |
				uint32(spirvBytes[i*4+2])<<16 |
				uint32(spirvBytes[i*4+3])<<24
		}
		shader, err := g.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "compositor_blit_shader",
			Source: hal.ShaderSource{SPIRV: spirvCode},
		})
		if err != nil {
			return fmt.Errorf("compositor: create shader module: %w", err)
		}
		g.shader = shader
	}

	if g.bindLayout == nil {
		// Binding 0: BlitUniforms (uniform buffer, vertex+fragment)
		// Binding 1: frame texture (texture_2d, fragment)
		// Binding 2: sampler (fragment)
		layout, err := g.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label: "compositor_blit_layout",
			Entries: []gputypes.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
					Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
				},
				{
					Binding:    1,
					Visibility: gputypes.ShaderStageFragment,
					Texture: &gputypes.TextureBindingLayout{
						SampleType:    gputypes.TextureSampleTypeFloat,
						ViewDimension: gputypes.TextureViewDimension2D,
					},
				},
				{
					Binding:    2,
					Visibility: gputypes.ShaderStageFragment,
					Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("compositor: create bind group layout: %w", err)
		}
		g.bindLayout = layout
	}

	if g.pipeLayout == nil {
		layout, err := g.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            "compositor_blit_pipe_layout",
			BindGroupLayouts: []hal.BindGroupLayout{g.bindLayout},
		})
		if err != nil {
			return fmt.Errorf("compositor: create pipeline layout: %w", err)
		}
		g.pipeLayout = layout
	}

	if g.sampler == nil {
		sampler, err := g.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        "compositor_blit_sampler",
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    gputypes.FilterModeLinear,
			MinFilter:    gputypes.FilterModeLinear,
			MipmapFilter: gputypes.FilterModeLinear,
		})
		if err != nil {
			return fmt.Errorf("compositor: create sampler: %w", err)
		}
		g.sampler = sampler
	}

	if _, ok := g.pipelines[format]; !ok {
		pipeline, err := g.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  "compositor_blit_pipeline",
			Layout: g.pipeLayout,
			Vertex: hal.VertexState{
				Module:     g.shader,
				EntryPoint: "vs_main",
			},
			Fragment: &hal.FragmentState{
				Module:     g.shader,
				EntryPoint: "fs_main",
				Targets: []gputypes.ColorTargetState{
					{
						Format:    format,
						WriteMask: gputypes.ColorWriteMaskAll,
					},
				},
			},
			Primitive: gputypes.PrimitiveState{
				Topology: gputypes.PrimitiveTopologyTriangleList,
				CullMode: gputypes.CullModeNone,
			},
			Multisample: gputypes.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
		})
		if err != nil {
			return fmt.Errorf("compositor: create blit pipeline: %w", err)
		}
		g.pipelines[format] = pipeline
		xr.Logger().Debug("compositor blit pipeline created", "format", format)
	}
	return nil
}

// destroyFrameTexture releases the staging texture and its view.
func (g *gpuState) destroyFrameTexture() {
	if g.frameView != nil {
		g.device.DestroyTextureView(g.frameView)
		g.frameView = nil
	}
	if g.frameTex != nil {
		g.device.DestroyTexture(g.frameTex)
		g.frameTex = nil
	}
	g.frameW, g.frameH = 0, 0
}

// destroy releases all resources in reverse creation order. The shared
// device and queue are left untouched.
func (g *gpuState) destroy() {
	if g.device == nil {
		return
	}
	for format, p := range g.pipelines {
		g.device.DestroyRenderPipeline(p)
		delete(g.pipelines, format)
	}
	if g.pipeLayout != nil {
		g.device.DestroyPipelineLayout(g.pipeLayout)
		g.pipeLayout = nil
	}
	if g.bindLayout != nil {
		g.device.DestroyBindGroupLayout(g.bindLayout)
		g.bindLayout = nil
	}
	if g.shader != nil {
		g.device.DestroyShaderModule(g.shader)
		g.shader = nil
	}
	if g.sampler != nil {
		g.device.DestroySampler(g.sampler)
		g.sampler = nil
	}
	g.destroyFrameTexture()
	if g.uniformBuf != nil {
		g.device.DestroyBuffer(g.uniformBuf)
		g.uniformBuf = nil
	}
}
