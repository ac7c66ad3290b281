package vulkan

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// RenderPass is the main render pass: one color attachment presented to
// the surface and one depth attachment. Area holds x, y, w, h.
type RenderPass struct {
	dev    Device
	Handle Handle

	ColorFormat Format
	DepthFormat Format

	Area       mgl32.Vec4
	ClearColor mgl32.Vec4
	Depth      float32
	Stencil    uint32
}

func NewRenderPass(dev Device, colorFormat, depthFormat Format, area, clearColor mgl32.Vec4, depth float32, stencil uint32) (*RenderPass, error) {
	h, res := dev.CreateRenderPass(RenderPassCreateInfo{
		ColorFormat: colorFormat,
		DepthFormat: depthFormat,
	})
	if res != Success {
		return nil, resultError("create render pass", res)
	}
	return &RenderPass{
		dev:         dev,
		Handle:      h,
		ColorFormat: colorFormat,
		DepthFormat: depthFormat,
		Area:        area,
		ClearColor:  clearColor,
		Depth:       depth,
		Stencil:     stencil,
	}, nil
}

// Rebuild replaces the pass with one for new attachment formats, keeping
// the area and clear values. Framebuffers made for the old pass must be
// destroyed first. On failure the old pass is kept.
func (rp *RenderPass) Rebuild(colorFormat, depthFormat Format) error {
	h, res := rp.dev.CreateRenderPass(RenderPassCreateInfo{
		ColorFormat: colorFormat,
		DepthFormat: depthFormat,
	})
	if res != Success {
		return resultError("create render pass", res)
	}
	rp.Destroy()
	rp.Handle = h
	rp.ColorFormat = colorFormat
	rp.DepthFormat = depthFormat
	return nil
}

// SetExtent resizes the render area to cover the whole framebuffer.
func (rp *RenderPass) SetExtent(width, height uint32) {
	rp.Area = mgl32.Vec4{0, 0, float32(width), float32(height)}
}

// Begin starts the pass on cb, targeting fb.
func (rp *RenderPass) Begin(cb *CommandBuffer, fb *Framebuffer) error {
	if cb.State() != CommandBufferRecording {
		return fmt.Errorf("%w: begin render pass on command buffer in state %s", ErrInvalidState, cb.State())
	}
	if fb == nil || fb.Handle == NullHandle {
		return fmt.Errorf("%w: begin render pass without framebuffer", ErrInvalidState)
	}
	rp.dev.CmdBeginRenderPass(cb.Handle, RenderPassBeginInfo{
		RenderPass:  rp.Handle,
		Framebuffer: fb.Handle,
		Area: Rect{
			X:      int32(rp.Area.X()),
			Y:      int32(rp.Area.Y()),
			Width:  uint32(rp.Area.Z()),
			Height: uint32(rp.Area.W()),
		},
		ClearColor: rp.ClearColor,
		Depth:      rp.Depth,
		Stencil:    rp.Stencil,
	})
	return nil
}

func (rp *RenderPass) End(cb *CommandBuffer) {
	rp.dev.CmdEndRenderPass(cb.Handle)
}

func (rp *RenderPass) Destroy() {
	if rp.Handle != NullHandle {
		rp.dev.DestroyRenderPass(rp.Handle)
	}
	rp.Handle = NullHandle
}
