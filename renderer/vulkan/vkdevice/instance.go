package vkdevice

import (
	"fmt"
	"strings"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) createInstance(p Platform, cfg Config) error {
	if cfg.Validation && !validationLayersSupported() {
		return ErrValidationUnavailable
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(cfg.AppName),
		ApplicationVersion: vk.MakeVersion(0, 1, 0),
		PEngineName:        "Koengine\x00",
		EngineVersion:      vk.MakeVersion(0, 1, 0),
		ApiVersion:         vk.MakeVersion(1, 1, 0),
	}

	extensions := safeStrings(p.RequiredInstanceExtensions())
	if cfg.Validation {
		extensions = append(extensions, "VK_EXT_debug_report\x00")
	}
	d.log.Debug("instance extensions", "names", strings.Join(trimStrings(extensions), ","))

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}
	if cfg.Validation {
		createInfo.EnabledLayerCount = uint32(len(validationLayers))
		createInfo.PpEnabledLayerNames = validationLayers
	}

	if res := vk.CreateInstance(&createInfo, nil, &d.instance); res != vk.Success {
		return fmt.Errorf("create instance: %w", vk.Error(res))
	}
	d.log.Info("vulkan instance created", "validation", cfg.Validation)
	return nil
}

func validationLayersSupported() bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return false
	}
	props := make([]vk.LayerProperties, count)
	if vk.EnumerateInstanceLayerProperties(&count, props) != vk.Success {
		return false
	}
	supported := make(map[string]bool)
	for i := range props {
		props[i].Deref()
		supported[vk.ToString(props[i].LayerName[:])] = true
	}
	return containsAll(supported, validationLayers)
}

// setupDebugCallback routes validation layer reports to the logger.
func (d *Device) setupDebugCallback() error {
	createInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(
			vk.DebugReportErrorBit |
				vk.DebugReportWarningBit |
				vk.DebugReportPerformanceWarningBit),
		PfnCallback: d.debugReport,
	}
	if res := vk.CreateDebugReportCallback(d.instance, &createInfo, nil, &d.debugCallback); res != vk.Success {
		return fmt.Errorf("create debug callback: %w", vk.Error(res))
	}
	return nil
}

func (d *Device) debugReport(flags vk.DebugReportFlags, _ vk.DebugReportObjectType, _ uint64, _ uint, messageCode int32, layerPrefix string, message string, _ unsafe.Pointer) vk.Bool32 {
	attrs := []any{"layer", layerPrefix, "code", messageCode}
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		d.log.Error(message, attrs...)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		d.log.Warn(message, attrs...)
	default:
		d.log.Debug(message, attrs...)
	}
	return vk.False
}

// safeString null-terminates s for the C side of the bindings.
func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

func trimStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = strings.TrimSuffix(s, "\x00")
	}
	return out
}

// containsAll reports whether every name in want is in supported. want may
// be null-terminated; supported keys are not.
func containsAll(supported map[string]bool, want []string) bool {
	for _, name := range trimStrings(want) {
		if !supported[name] {
			return false
		}
	}
	return true
}
