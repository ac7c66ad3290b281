package vkdevice

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) pickPhysicalDevice() error {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(d.instance, &count, nil); res != vk.Success {
		return fmt.Errorf("enumerate physical devices: %w", vk.Error(res))
	}
	if count == 0 {
		return ErrNoSuitableDevice
	}
	devices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(d.instance, &count, devices); res != vk.Success {
		return fmt.Errorf("enumerate physical devices list: %w", vk.Error(res))
	}

	bestScore := int32(-1)
	for _, dev := range devices {
		q := d.findQueueFamilies(dev)
		if !q.complete() {
			continue
		}
		if !deviceExtensionsSupported(dev) {
			continue
		}
		_, formats, modes, err := d.surfaceSupport(dev)
		if err != nil || len(formats) == 0 || len(modes) == 0 {
			continue
		}
		name, score := deviceScore(dev)
		d.log.Debug("candidate GPU", "name", name, "score", score)
		if score > bestScore {
			bestScore = score
			d.physicalDevice = dev
			d.queues = q
		}
	}
	if bestScore < 0 {
		return ErrNoSuitableDevice
	}
	name, _ := deviceScore(d.physicalDevice)
	d.log.Info("selected GPU", "name", name,
		"graphics_family", d.queues.graphicsFamily, "present_family", d.queues.presentFamily)
	return nil
}

// deviceScore prefers discrete GPUs over integrated ones.
func deviceScore(device vk.PhysicalDevice) (string, int32) {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &props)
	props.Deref()
	name := vk.ToString(props.DeviceName[:])

	switch props.DeviceType {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return name, 1000
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return name, 500
	default:
		return name, 100
	}
}

func deviceExtensionsSupported(device vk.PhysicalDevice) bool {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return false
	}
	props := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, props); res != vk.Success {
		return false
	}
	supported := make(map[string]bool)
	for i := range props {
		props[i].Deref()
		supported[vk.ToString(props[i].ExtensionName[:])] = true
	}
	return containsAll(supported, deviceExtensions)
}

func (d *Device) findQueueFamilies(device vk.PhysicalDevice) queueFamilyIndices {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, props)

	var indices queueFamilyIndices
	for i := range props {
		props[i].Deref()
		if !indices.hasGraphics && props[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			indices.graphicsFamily = uint32(i)
			indices.hasGraphics = true
		}
		var present vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), d.surface, &present)
		if present == vk.True && (!indices.hasPresent || uint32(i) == indices.graphicsFamily) {
			indices.presentFamily = uint32(i)
			indices.hasPresent = true
		}
		if indices.complete() && indices.graphicsFamily == indices.presentFamily {
			break
		}
	}
	return indices
}

func (d *Device) createLogicalDevice(validation bool) error {
	queueInfos := []vk.DeviceQueueCreateInfo{}
	families := []uint32{d.queues.graphicsFamily}
	if d.queues.presentFamily != d.queues.graphicsFamily {
		families = append(families, d.queues.presentFamily)
	}
	for _, family := range families {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PQueueCreateInfos:       queueInfos,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		PpEnabledExtensionNames: deviceExtensions,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
	}
	if validation {
		createInfo.EnabledLayerCount = uint32(len(validationLayers))
		createInfo.PpEnabledLayerNames = validationLayers
	}

	if res := vk.CreateDevice(d.physicalDevice, &createInfo, nil, &d.device); res != vk.Success {
		return fmt.Errorf("create logical device: %w", vk.Error(res))
	}

	vk.GetDeviceQueue(d.device, d.queues.graphicsFamily, 0, &d.graphicsQueue)
	vk.GetDeviceQueue(d.device, d.queues.presentFamily, 0, &d.presentQueue)
	d.graphicsQueueID = d.queueIDs.put(d.graphicsQueue)
	d.presentQueueID = d.queueIDs.put(d.presentQueue)
	return nil
}

func (d *Device) createCommandPool() error {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.queues.graphicsFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(d.device, &poolInfo, nil, &d.commandPool); res != vk.Success {
		return fmt.Errorf("create command pool: %w", vk.Error(res))
	}
	return nil
}
