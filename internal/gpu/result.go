package gpu

import "fmt"

// Result is a Vulkan result code. Non-success values satisfy error.
type Result int32

const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
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
	ErrorSurfaceLost          Result = -1000000000
	ErrorNativeWindowInUse    Result = -1000000001
	Suboptimal                Result = 1000001003
	ErrorOutOfDate            Result = -1000001004
)

var resultNames = map[Result]string{
	Success:                   "success",
	NotReady:                  "not ready",
	Timeout:                   "timeout",
	Incomplete:                "incomplete",
	ErrorOutOfHostMemory:      "out of host memory",
	ErrorOutOfDeviceMemory:    "out of device memory",
	ErrorInitializationFailed: "initialization failed",
	ErrorDeviceLost:           "device lost",
	ErrorMemoryMapFailed:      "memory map failed",
	ErrorLayerNotPresent:      "layer not present",
	ErrorExtensionNotPresent:  "extension not present",
	ErrorFeatureNotPresent:    "feature not present",
	ErrorIncompatibleDriver:   "incompatible driver",
	ErrorSurfaceLost:          "surface lost",
	ErrorNativeWindowInUse:    "native window in use",
	Suboptimal:                "suboptimal swapchain",
	ErrorOutOfDate:            "swapchain out of date",
}

func (r Result) Error() string {
	if name, ok := resultNames[r]; ok {
		return "vulkan: " + name
	}
	return fmt.Sprintf("vulkan: result %d", int32(r))
}

// Err returns nil for Success and the result itself otherwise.
func (r Result) Err() error {
	if r == Success {
		return nil
	}
	return r
}

// Stale reports whether the swapchain no longer matches its surface and
// must be rebuilt before it can be presented to again.
func (r Result) Stale() bool {
	return r == ErrorOutOfDate
}
