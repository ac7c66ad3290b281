package vulkan

import (
	"errors"
	"fmt"
)

// Result is a VkResult code. The values match the Vulkan headers so device
// implementations can convert directly.
type Result int32

const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
	EventSet                  Result = 3
	EventReset                Result = 4
	Incomplete                Result = 5
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorMemoryMapFailed      Result = -5
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorTooManyObjects       Result = -10
	ErrorFormatNotSupported   Result = -11
	ErrorFragmentedPool       Result = -12
	ErrorSurfaceLost          Result = -1000000000
	ErrorNativeWindowInUse    Result = -1000000001
	Suboptimal                Result = 1000001003
	ErrorOutOfDate            Result = -1000001004
	ErrorValidationFailed     Result = -1000011001
)

var resultNames = map[Result]string{
	Success:                   "VK_SUCCESS",
	NotReady:                  "VK_NOT_READY",
	Timeout:                   "VK_TIMEOUT",
	EventSet:                  "VK_EVENT_SET",
	EventReset:                "VK_EVENT_RESET",
	Incomplete:                "VK_INCOMPLETE",
	ErrorOutOfHostMemory:      "VK_ERROR_OUT_OF_HOST_MEMORY",
	ErrorOutOfDeviceMemory:    "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	ErrorInitializationFailed: "VK_ERROR_INITIALIZATION_FAILED",
	ErrorDeviceLost:           "VK_ERROR_DEVICE_LOST",
	ErrorMemoryMapFailed:      "VK_ERROR_MEMORY_MAP_FAILED",
	ErrorLayerNotPresent:      "VK_ERROR_LAYER_NOT_PRESENT",
	ErrorExtensionNotPresent:  "VK_ERROR_EXTENSION_NOT_PRESENT",
	ErrorFeatureNotPresent:    "VK_ERROR_FEATURE_NOT_PRESENT",
	ErrorIncompatibleDriver:   "VK_ERROR_INCOMPATIBLE_DRIVER",
	ErrorTooManyObjects:       "VK_ERROR_TOO_MANY_OBJECTS",
	ErrorFormatNotSupported:   "VK_ERROR_FORMAT_NOT_SUPPORTED",
	ErrorFragmentedPool:       "VK_ERROR_FRAGMENTED_POOL",
	ErrorSurfaceLost:          "VK_ERROR_SURFACE_LOST_KHR",
	ErrorNativeWindowInUse:    "VK_ERROR_NATIVE_WINDOW_IN_USE_KHR",
	Suboptimal:                "VK_SUBOPTIMAL_KHR",
	ErrorOutOfDate:            "VK_ERROR_OUT_OF_DATE_KHR",
	ErrorValidationFailed:     "VK_ERROR_VALIDATION_FAILED_EXT",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("VkResult(%d)", int32(r))
}

// IsSuccess reports whether r is a non-error code.
func (r Result) IsSuccess() bool { return r >= 0 }

var (
	// ErrTimeout is matched by a wait or acquire that ran out of time.
	ErrTimeout = errors.New("vulkan: timeout")

	// ErrOutOfDate is matched when the surface no longer matches the
	// swapchain (VK_ERROR_OUT_OF_DATE_KHR) or matches it only
	// suboptimally. The swapchain must be recreated.
	ErrOutOfDate = errors.New("vulkan: swapchain out of date")

	// ErrDeviceLost is matched by VK_ERROR_DEVICE_LOST.
	ErrDeviceLost = errors.New("vulkan: device lost")

	// ErrInvalidState means an operation was called out of order.
	ErrInvalidState = errors.New("vulkan: invalid state")

	// ErrZeroExtent means the drawable surface has a zero dimension,
	// typically because the window is minimized.
	ErrZeroExtent = errors.New("vulkan: zero-sized surface")
)

// ResultError is a failed device operation.
type ResultError struct {
	Op     string
	Result Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Result)
}

// Is maps result codes onto the package's sentinel errors.
func (e *ResultError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Result == Timeout || e.Result == NotReady
	case ErrOutOfDate:
		return e.Result == ErrorOutOfDate || e.Result == Suboptimal
	case ErrDeviceLost:
		return e.Result == ErrorDeviceLost
	}
	return false
}

func resultError(op string, res Result) error {
	return &ResultError{Op: op, Result: res}
}
