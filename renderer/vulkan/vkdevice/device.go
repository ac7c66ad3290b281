// Package vkdevice implements the frame core's Device on top of the Vulkan
// API: instance and validation layers, surface, physical and logical
// device, queues and the graphics command pool.
package vkdevice

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/hellhand/koengine/internal/logging"
	"github.com/hellhand/koengine/internal/teardown"
	rv "github.com/hellhand/koengine/renderer/vulkan"
)

var (
	// ErrValidationUnavailable is returned by Open when validation was
	// requested but VK_LAYER_KHRONOS_validation is not installed.
	ErrValidationUnavailable = errors.New("vkdevice: requested validation layers not available")

	// ErrNoSuitableDevice means no GPU offers graphics and present queues,
	// the swapchain extension and at least one surface format and present
	// mode.
	ErrNoSuitableDevice = errors.New("vkdevice: no suitable GPU found")
)

var (
	validationLayers = []string{"VK_LAYER_KHRONOS_validation\x00"}
	deviceExtensions = []string{"VK_KHR_swapchain\x00"}
)

// Platform is the windowing layer: it knows which instance extensions the
// window system needs and how to create a surface for its window.
type Platform interface {
	RequiredInstanceExtensions() []string
	InstanceProcAddr() unsafe.Pointer
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

type Config struct {
	AppName    string
	Validation bool
	Logger     *slog.Logger
}

type queueFamilyIndices struct {
	graphicsFamily uint32
	presentFamily  uint32
	hasGraphics    bool
	hasPresent     bool
}

func (q queueFamilyIndices) complete() bool { return q.hasGraphics && q.hasPresent }

// Device is a logical Vulkan device bound to one window surface. It is not
// safe for concurrent use.
type Device struct {
	log     *slog.Logger
	cleanup *teardown.Stack

	instance       vk.Instance
	debugCallback  vk.DebugReportCallback
	surface        vk.Surface
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	queues         queueFamilyIndices
	graphicsQueue  vk.Queue
	presentQueue   vk.Queue
	commandPool    vk.CommandPool

	ids            handles
	queueIDs       *table[vk.Queue]
	fences         *table[vk.Fence]
	semaphores     *table[vk.Semaphore]
	commandBuffers *table[vk.CommandBuffer]
	swapchains     *table[vk.Swapchain]
	images         *table[deviceImage]
	imageViews     *table[vk.ImageView]
	renderPasses   *table[vk.RenderPass]
	framebuffers   *table[vk.Framebuffer]

	// Swapchain images are owned by their swapchain and only registered
	// here so views can refer to them.
	swapchainImages map[rv.Handle][]rv.Handle

	graphicsQueueID rv.Handle
	presentQueueID  rv.Handle
}

// deviceImage is an image together with the memory bound to it. Swapchain
// images have no memory of their own.
type deviceImage struct {
	image  vk.Image
	memory vk.DeviceMemory
	owned  bool
}

var _ rv.Device = (*Device)(nil)

// Open loads the Vulkan loader through p and creates the instance, debug
// callback, surface, logical device and command pool. On failure every
// object created so far is destroyed.
func Open(p Platform, cfg Config) (*Device, error) {
	log := logging.OrNop(cfg.Logger)
	d := &Device{
		log:             log,
		cleanup:         teardown.New(log),
		swapchainImages: map[rv.Handle][]rv.Handle{},
	}
	d.queueIDs = newTable[vk.Queue](&d.ids)
	d.fences = newTable[vk.Fence](&d.ids)
	d.semaphores = newTable[vk.Semaphore](&d.ids)
	d.commandBuffers = newTable[vk.CommandBuffer](&d.ids)
	d.swapchains = newTable[vk.Swapchain](&d.ids)
	d.images = newTable[deviceImage](&d.ids)
	d.imageViews = newTable[vk.ImageView](&d.ids)
	d.renderPasses = newTable[vk.RenderPass](&d.ids)
	d.framebuffers = newTable[vk.Framebuffer](&d.ids)

	if err := d.open(p, cfg); err != nil {
		d.cleanup.Release()
		return nil, err
	}
	return d, nil
}

func (d *Device) open(p Platform, cfg Config) error {
	vk.SetGetInstanceProcAddr(p.InstanceProcAddr())
	if err := vk.Init(); err != nil {
		return fmt.Errorf("vulkan init: %w", err)
	}
	if err := d.createInstance(p, cfg); err != nil {
		return err
	}
	d.cleanup.Push("instance", func() { vk.DestroyInstance(d.instance, nil) })
	if err := vk.InitInstance(d.instance); err != nil {
		return fmt.Errorf("vkInitInstance: %w", err)
	}

	if cfg.Validation {
		if err := d.setupDebugCallback(); err != nil {
			return err
		}
		d.cleanup.Push("debug callback", func() { vk.DestroyDebugReportCallback(d.instance, d.debugCallback, nil) })
	}

	surface, err := p.CreateSurface(d.instance)
	if err != nil {
		return fmt.Errorf("create window surface: %w", err)
	}
	d.surface = surface
	d.cleanup.Push("surface", func() { vk.DestroySurface(d.instance, d.surface, nil) })

	if err := d.pickPhysicalDevice(); err != nil {
		return err
	}
	if err := d.createLogicalDevice(cfg.Validation); err != nil {
		return err
	}
	d.cleanup.Push("logical device", func() { vk.DestroyDevice(d.device, nil) })

	if err := d.createCommandPool(); err != nil {
		return err
	}
	d.cleanup.Push("command pool", func() { vk.DestroyCommandPool(d.device, d.commandPool, nil) })
	return nil
}

// Close destroys the command pool, the logical device, the surface, the
// debug callback and the instance, in that order.
func (d *Device) Close() {
	if n := d.liveObjects(); n > 0 {
		d.log.Warn("closing device with live objects", "count", n)
	}
	d.cleanup.Release()
}

func (d *Device) liveObjects() int {
	return d.fences.len() + d.semaphores.len() + d.commandBuffers.len() +
		d.swapchains.len() + d.imageViews.len() + d.renderPasses.len() + d.framebuffers.len()
}

func (d *Device) GraphicsQueue() rv.Handle { return d.graphicsQueueID }
func (d *Device) PresentQueue() rv.Handle  { return d.presentQueueID }

func (d *Device) WaitIdle() rv.Result {
	return rv.Result(vk.DeviceWaitIdle(d.device))
}

// QuerySwapchainSupport re-reads what the surface supports on the selected
// GPU. The result changes when the window is resized.
func (d *Device) QuerySwapchainSupport() (rv.SwapchainSupport, error) {
	caps, formats, modes, err := d.surfaceSupport(d.physicalDevice)
	if err != nil {
		return rv.SwapchainSupport{}, err
	}
	support := rv.SwapchainSupport{
		Capabilities: rv.SurfaceCapabilities{
			MinImageCount:    caps.MinImageCount,
			MaxImageCount:    caps.MaxImageCount,
			CurrentExtent:    fromExtent(caps.CurrentExtent),
			MinImageExtent:   fromExtent(caps.MinImageExtent),
			MaxImageExtent:   fromExtent(caps.MaxImageExtent),
			CurrentTransform: uint32(caps.CurrentTransform),
		},
	}
	for _, f := range formats {
		support.Formats = append(support.Formats, rv.SurfaceFormat{
			Format:     rv.Format(f.Format),
			ColorSpace: rv.ColorSpace(f.ColorSpace),
		})
	}
	for _, m := range modes {
		support.PresentModes = append(support.PresentModes, rv.PresentMode(m))
	}
	return support, nil
}

func (d *Device) surfaceSupport(pd vk.PhysicalDevice) (vk.SurfaceCapabilities, []vk.SurfaceFormat, []vk.PresentMode, error) {
	var caps vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(pd, d.surface, &caps); res != vk.Success {
		return caps, nil, nil, fmt.Errorf("surface capabilities: %w", vk.Error(res))
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var formats []vk.SurfaceFormat
	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(pd, d.surface, &formatCount, nil)
	if formatCount > 0 {
		formats = make([]vk.SurfaceFormat, formatCount)
		vk.GetPhysicalDeviceSurfaceFormats(pd, d.surface, &formatCount, formats)
		for i := range formats {
			formats[i].Deref()
		}
	}

	var modes []vk.PresentMode
	var presentCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(pd, d.surface, &presentCount, nil)
	if presentCount > 0 {
		modes = make([]vk.PresentMode, presentCount)
		vk.GetPhysicalDeviceSurfacePresentModes(pd, d.surface, &presentCount, modes)
	}
	return caps, formats, modes, nil
}

// DetectDepthFormat returns the first depth format usable as an optimally
// tiled depth/stencil attachment.
func (d *Device) DetectDepthFormat() (rv.Format, error) {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	f, err := d.findSupportedFormat(candidates, vk.ImageTilingOptimal, vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
	if err != nil {
		return rv.FormatUndefined, err
	}
	return rv.Format(f), nil
}

func (d *Device) findSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	for _, format := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(d.physicalDevice, format, &props)
		props.Deref()
		if tiling == vk.ImageTilingLinear && props.LinearTilingFeatures&features == features {
			return format, nil
		}
		if tiling == vk.ImageTilingOptimal && props.OptimalTilingFeatures&features == features {
			return format, nil
		}
	}
	return 0, errors.New("no supported format found")
}

func (d *Device) findMemoryType(typeFilter uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.physicalDevice, &memProps)
	memProps.Deref()

	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memoryType := memProps.MemoryTypes[i]
		memoryType.Deref()
		if typeFilter&(1<<i) != 0 && memoryType.PropertyFlags&vk.MemoryPropertyFlags(properties) == vk.MemoryPropertyFlags(properties) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no memory type for filter %#x: %w", typeFilter,
		&rv.ResultError{Op: "find memory type", Result: rv.ErrorFeatureNotPresent})
}

func fromExtent(e vk.Extent2D) rv.Extent {
	return rv.Extent{Width: e.Width, Height: e.Height}
}

func toExtent(e rv.Extent) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}
