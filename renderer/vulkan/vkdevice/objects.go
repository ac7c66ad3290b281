package vkdevice

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"

	rv "github.com/hellhand/koengine/renderer/vulkan"
)

func (d *Device) CreateFence(signaled bool) (rv.Handle, rv.Result) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if res := vk.CreateFence(d.device, &info, nil, &fence); res != vk.Success {
		return rv.NullHandle, rv.Result(res)
	}
	return d.fences.put(fence), rv.Success
}

func (d *Device) DestroyFence(f rv.Handle) {
	if fence, ok := d.fences.take(f); ok {
		vk.DestroyFence(d.device, fence, nil)
	}
}

func (d *Device) WaitForFence(f rv.Handle, timeout uint64) rv.Result {
	fence, _ := d.fences.get(f)
	return rv.Result(vk.WaitForFences(d.device, 1, []vk.Fence{fence}, vk.True, timeout))
}

func (d *Device) ResetFence(f rv.Handle) rv.Result {
	fence, _ := d.fences.get(f)
	return rv.Result(vk.ResetFences(d.device, 1, []vk.Fence{fence}))
}

func (d *Device) CreateSemaphore() (rv.Handle, rv.Result) {
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var sem vk.Semaphore
	if res := vk.CreateSemaphore(d.device, &info, nil, &sem); res != vk.Success {
		return rv.NullHandle, rv.Result(res)
	}
	return d.semaphores.put(sem), rv.Success
}

func (d *Device) DestroySemaphore(s rv.Handle) {
	if sem, ok := d.semaphores.take(s); ok {
		vk.DestroySemaphore(d.device, sem, nil)
	}
}

func (d *Device) AllocateCommandBuffer(primary bool) (rv.Handle, rv.Result) {
	level := vk.CommandBufferLevelPrimary
	if !primary {
		level = vk.CommandBufferLevelSecondary
	}
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              level,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(d.device, &allocInfo, buffers); res != vk.Success {
		return rv.NullHandle, rv.Result(res)
	}
	return d.commandBuffers.put(buffers[0]), rv.Success
}

func (d *Device) FreeCommandBuffer(cb rv.Handle) {
	if buf, ok := d.commandBuffers.take(cb); ok {
		vk.FreeCommandBuffers(d.device, d.commandPool, 1, []vk.CommandBuffer{buf})
	}
}

func (d *Device) BeginCommandBuffer(cb rv.Handle, usage rv.CommandBufferUsage) rv.Result {
	buf, _ := d.commandBuffers.get(cb)
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(usage),
	}
	return rv.Result(vk.BeginCommandBuffer(buf, &beginInfo))
}

func (d *Device) EndCommandBuffer(cb rv.Handle) rv.Result {
	buf, _ := d.commandBuffers.get(cb)
	return rv.Result(vk.EndCommandBuffer(buf))
}

func (d *Device) ResetCommandBuffer(cb rv.Handle) rv.Result {
	buf, _ := d.commandBuffers.get(cb)
	return rv.Result(vk.ResetCommandBuffer(buf, 0))
}

func (d *Device) CmdSetViewport(cb rv.Handle, vp rv.Viewport) {
	buf, _ := d.commandBuffers.get(cb)
	vk.CmdSetViewport(buf, 0, 1, []vk.Viewport{{
		X:        vp.X,
		Y:        vp.Y,
		Width:    vp.Width,
		Height:   vp.Height,
		MinDepth: vp.MinDepth,
		MaxDepth: vp.MaxDepth,
	}})
}

func (d *Device) CmdSetScissor(cb rv.Handle, r rv.Rect) {
	buf, _ := d.commandBuffers.get(cb)
	vk.CmdSetScissor(buf, 0, 1, []vk.Rect2D{toRect(r)})
}

func (d *Device) CmdBeginRenderPass(cb rv.Handle, info rv.RenderPassBeginInfo) {
	buf, _ := d.commandBuffers.get(cb)
	rp, _ := d.renderPasses.get(info.RenderPass)
	fb, _ := d.framebuffers.get(info.Framebuffer)

	c := info.ClearColor
	clearValues := []vk.ClearValue{
		vk.NewClearValue([]float32{c.X(), c.Y(), c.Z(), c.W()}),
		vk.NewClearDepthStencil(info.Depth, info.Stencil),
	}
	vk.CmdBeginRenderPass(buf, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      rp,
		Framebuffer:     fb,
		RenderArea:      toRect(info.Area),
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)
}

func (d *Device) CmdEndRenderPass(cb rv.Handle) {
	buf, _ := d.commandBuffers.get(cb)
	vk.CmdEndRenderPass(buf)
}

func (d *Device) CreateSwapchain(info rv.SwapchainCreateInfo) (rv.Handle, []rv.Handle, rv.Result) {
	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surface,
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vk.Format(info.Format.Format),
		ImageColorSpace:  vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      toExtent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     vk.Swapchain(vk.NullHandle),
	}
	if d.queues.graphicsFamily != d.queues.presentFamily {
		indices := []uint32{d.queues.graphicsFamily, d.queues.presentFamily}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = uint32(len(indices))
		createInfo.PQueueFamilyIndices = indices
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	if res := vk.CreateSwapchain(d.device, &createInfo, nil, &swapchain); res != vk.Success {
		return rv.NullHandle, nil, rv.Result(res)
	}

	var count uint32
	vk.GetSwapchainImages(d.device, swapchain, &count, nil)
	images := make([]vk.Image, count)
	if res := vk.GetSwapchainImages(d.device, swapchain, &count, images); res != vk.Success {
		vk.DestroySwapchain(d.device, swapchain, nil)
		return rv.NullHandle, nil, rv.Result(res)
	}

	h := d.swapchains.put(swapchain)
	ids := make([]rv.Handle, len(images))
	for i, img := range images {
		ids[i] = d.images.put(deviceImage{image: img})
	}
	d.swapchainImages[h] = ids
	return h, ids, rv.Success
}

func (d *Device) DestroySwapchain(sc rv.Handle) {
	swapchain, ok := d.swapchains.take(sc)
	if !ok {
		return
	}
	for _, img := range d.swapchainImages[sc] {
		d.images.take(img)
	}
	delete(d.swapchainImages, sc)
	vk.DestroySwapchain(d.device, swapchain, nil)
}

func (d *Device) AcquireNextImage(sc rv.Handle, timeout uint64, sem, fence rv.Handle) (uint32, rv.Result) {
	swapchain, _ := d.swapchains.get(sc)
	s, _ := d.semaphores.get(sem)
	f, _ := d.fences.get(fence)
	var index uint32
	res := vk.AcquireNextImage(d.device, swapchain, timeout, s, f, &index)
	return index, rv.Result(res)
}

// CreateImage creates a 2D optimally tiled image in device local memory.
func (d *Device) CreateImage(info rv.ImageCreateInfo) (rv.Handle, rv.Result) {
	img, mem, err := d.createImage(info.Width, info.Height, vk.Format(info.Format), vk.ImageTilingOptimal,
		vk.ImageUsageFlags(info.Usage), vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		d.log.Error("create image", "err", err)
		return rv.NullHandle, failedResult(err)
	}
	return d.images.put(deviceImage{image: img, memory: mem, owned: true}), rv.Success
}

func (d *Device) createImage(width, height uint32, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, properties vk.MemoryPropertyFlagBits) (vk.Image, vk.DeviceMemory, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var image vk.Image
	if res := vk.CreateImage(d.device, &createInfo, nil, &image); res != vk.Success {
		return vk.Image(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), &rv.ResultError{Op: "create image", Result: rv.Result(res)}
	}

	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, image, &memRequirements)
	memRequirements.Deref()

	memoryType, err := d.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyImage(d.device, image, nil)
		return vk.Image(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryType,
	}

	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.device, &allocInfo, nil, &memory); res != vk.Success {
		vk.DestroyImage(d.device, image, nil)
		return vk.Image(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), &rv.ResultError{Op: "allocate image memory", Result: rv.Result(res)}
	}
	if res := vk.BindImageMemory(d.device, image, memory, 0); res != vk.Success {
		vk.FreeMemory(d.device, memory, nil)
		vk.DestroyImage(d.device, image, nil)
		return vk.Image(vk.NullHandle), vk.DeviceMemory(vk.NullHandle), &rv.ResultError{Op: "bind image memory", Result: rv.Result(res)}
	}
	return image, memory, nil
}

// failedResult extracts the VkResult carried by err. Failures that never
// reached the driver report VK_ERROR_INITIALIZATION_FAILED.
func failedResult(err error) rv.Result {
	var rerr *rv.ResultError
	if errors.As(err, &rerr) {
		return rerr.Result
	}
	return rv.ErrorInitializationFailed
}

func (d *Device) DestroyImage(img rv.Handle) {
	di, ok := d.images.get(img)
	if !ok || !di.owned {
		return
	}
	d.images.take(img)
	vk.DestroyImage(d.device, di.image, nil)
	vk.FreeMemory(d.device, di.memory, nil)
}

func (d *Device) CreateImageView(img rv.Handle, format rv.Format, aspect rv.ImageAspect) (rv.Handle, rv.Result) {
	di, ok := d.images.get(img)
	if !ok {
		return rv.NullHandle, rv.ErrorInitializationFailed
	}
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    di.image,
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(d.device, &viewInfo, nil, &view); res != vk.Success {
		return rv.NullHandle, rv.Result(res)
	}
	return d.imageViews.put(view), rv.Success
}

func (d *Device) DestroyImageView(v rv.Handle) {
	if view, ok := d.imageViews.take(v); ok {
		vk.DestroyImageView(d.device, view, nil)
	}
}

// CreateRenderPass builds the main pass: a cleared color attachment that
// ends up presentable and a cleared depth attachment.
func (d *Device) CreateRenderPass(info rv.RenderPassCreateInfo) (rv.Handle, rv.Result) {
	colorAttachment := vk.AttachmentDescription{
		Format:         vk.Format(info.ColorFormat),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
	}
	depthAttachment := vk.AttachmentDescription{
		Format:         vk.Format(info.DepthFormat),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	colorRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	depthRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorRef},
		PDepthStencilAttachment: &depthRef,
	}
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}

	attachments := []vk.AttachmentDescription{colorAttachment, depthAttachment}
	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	var rp vk.RenderPass
	if res := vk.CreateRenderPass(d.device, &createInfo, nil, &rp); res != vk.Success {
		return rv.NullHandle, rv.Result(res)
	}
	return d.renderPasses.put(rp), rv.Success
}

func (d *Device) DestroyRenderPass(h rv.Handle) {
	if rp, ok := d.renderPasses.take(h); ok {
		vk.DestroyRenderPass(d.device, rp, nil)
	}
}

func (d *Device) CreateFramebuffer(renderPass rv.Handle, attachments []rv.Handle, width, height uint32) (rv.Handle, rv.Result) {
	rp, _ := d.renderPasses.get(renderPass)
	views := make([]vk.ImageView, len(attachments))
	for i, a := range attachments {
		views[i], _ = d.imageViews.get(a)
	}
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           width,
		Height:          height,
		Layers:          1,
	}
	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(d.device, &createInfo, nil, &fb); res != vk.Success {
		return rv.NullHandle, rv.Result(res)
	}
	return d.framebuffers.put(fb), rv.Success
}

func (d *Device) DestroyFramebuffer(h rv.Handle) {
	if fb, ok := d.framebuffers.take(h); ok {
		vk.DestroyFramebuffer(d.device, fb, nil)
	}
}

func (d *Device) QueueSubmit(queue rv.Handle, info rv.SubmitInfo, fence rv.Handle) rv.Result {
	q, _ := d.queueIDs.get(queue)
	buf, _ := d.commandBuffers.get(info.CommandBuffer)
	wait, _ := d.semaphores.get(info.WaitSemaphore)
	signal, _ := d.semaphores.get(info.SignalSemaphore)
	f, _ := d.fences.get(fence)

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(info.WaitStage)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{buf},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal},
	}
	return rv.Result(vk.QueueSubmit(q, 1, []vk.SubmitInfo{submitInfo}, f))
}

func (d *Device) QueuePresent(queue rv.Handle, info rv.PresentInfo) rv.Result {
	q, _ := d.queueIDs.get(queue)
	wait, _ := d.semaphores.get(info.WaitSemaphore)
	swapchain, _ := d.swapchains.get(info.Swapchain)
	return rv.Result(vk.QueuePresent(q, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		PImageIndices:      []uint32{info.ImageIndex},
	}))
}

func toRect(r rv.Rect) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.X, Y: r.Y},
		Extent: vk.Extent2D{Width: r.Width, Height: r.Height},
	}
}
