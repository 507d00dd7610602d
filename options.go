package wsurf

import (
	"reflect"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wsurf/visual"
)

// Option configures a Display during Open.
//
// Example:
//
//	// Software only, RGB565 windows
//	d, err := wsurf.Open(ws, backend,
//	    wsurf.WithForceSoftware(),
//	    wsurf.WithFormats(visual.NewFormatSet(visual.RGB565)))
type Option func(*displayOptions)

// displayOptions holds optional configuration for Open.
type displayOptions struct {
	forceSoftware bool
	formats       visual.FormatSet
	caps          Capability
	capsSet       bool
	crossDevice   bool
	modifiers     [visual.Count][]uint64
	swapInterval  int
}

// defaultOptions returns the default display options.
func defaultOptions() displayOptions {
	return displayOptions{
		formats:      visual.DefaultFormats,
		swapInterval: 1,
	}
}

// WithForceSoftware skips GPU initialization and opens a software display.
func WithForceSoftware() Option {
	return func(o *displayOptions) {
		o.forceSoftware = true
	}
}

// WithFormats sets the visuals the window system accepts. The default is
// visual.DefaultFormats.
func WithFormats(s visual.FormatSet) Option {
	return func(o *displayOptions) {
		o.formats = s
	}
}

// WithCapabilities overrides the buffer import capabilities reported by the
// window system.
func WithCapabilities(c Capability) Option {
	return func(o *displayOptions) {
		o.caps = c
		o.capsSet = true
	}
}

// WithCrossDevice declares that rendering and presentation happen on
// different devices. Every presented image is then copied into a linear
// image first, which requires a backend that implements ImageBlitter.
func WithCrossDevice(cross bool) Option {
	return func(o *displayOptions) {
		o.crossDevice = cross
	}
}

// WithDevices sets cross-device mode by comparing the device that renders
// with the device that presents.
func WithDevices(render, present gpucontext.DeviceProvider) Option {
	return func(o *displayOptions) {
		o.crossDevice = !sameDevice(render, present)
	}
}

// WithModifiers registers format modifiers for visual idx. Images of that
// visual are created through ModifierImageCreator when the backend has it.
func WithModifiers(idx int, mods ...uint64) Option {
	return func(o *displayOptions) {
		if idx < 0 || idx >= visual.Count {
			return
		}
		o.modifiers[idx] = append([]uint64(nil), mods...)
	}
}

// WithSwapInterval sets the initial swap interval of new window surfaces,
// clamped to [0, 1].
func WithSwapInterval(n int) Option {
	return func(o *displayOptions) {
		o.swapInterval = clampInterval(n)
	}
}

// sameDevice reports whether two providers hand out the same device. A
// missing provider means the default device, which matches anything.
func sameDevice(a, b gpucontext.DeviceProvider) bool {
	if a == nil || b == nil {
		return true
	}
	da, db := a.Device(), b.Device()
	ta := reflect.TypeOf(da)
	if ta != reflect.TypeOf(db) {
		return false
	}
	if ta == nil {
		return true
	}
	if !ta.Comparable() {
		return false
	}
	return da == db
}
