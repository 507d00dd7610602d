package wsurf

import (
	"image"

	"github.com/gogpu/wsurf/visual"
)

// Capability flags describe how the window system can import GPU buffers.
type Capability uint32

const (
	// CapPrime means drawables can be created from PRIME file descriptors.
	CapPrime Capability = 1 << iota

	// CapName means drawables can be created from exported buffer names.
	CapName
)

// Has reports whether all flags in f are set.
func (c Capability) Has(f Capability) bool {
	return c&f == f
}

// Windowing is the window system a display presents to.
type Windowing interface {
	// Capabilities reports the buffer import mechanisms available.
	Capabilities() Capability

	// CreateMemDrawable wraps CPU memory laid out in visual v.
	CreateMemDrawable(width, height int, v visual.Visual, pix []byte, stride int) (Drawable, error)

	// CreateDrawableFromName imports a buffer by exported name.
	CreateDrawableFromName(name uint32, width, height, stride int, format visual.FourCC) (Drawable, error)

	// CreateDrawableFromPrime imports a buffer by PRIME file descriptor. The
	// caller keeps ownership of fd.
	CreateDrawableFromPrime(fd, width, height, stride, offset int, format visual.FourCC) (Drawable, error)

	// CreateDrawableFromHandle imports a buffer by kernel handle.
	CreateDrawableFromHandle(handle uint32, width, height, stride int, format visual.FourCC) (Drawable, error)

	// MapDumbBuffer maps size bytes of the kernel dumb buffer behind handle
	// into the process.
	MapDumbBuffer(handle uint32, size int) ([]byte, error)

	// UnmapDumbBuffer releases a mapping returned by MapDumbBuffer.
	UnmapDumbBuffer(mem []byte) error
}

// Window is a native window a surface is bound to.
type Window interface {
	// ClientRect returns the current client area size. It is queried before
	// every frame and treated as ground truth.
	ClientRect() (width, height int)

	// PrivateDC returns the drawing context that presents onto the window.
	PrivateDC() DrawingContext

	// SetNotifier registers n for resize and destroy notifications, replacing
	// any previous notifier. Nil unregisters.
	SetNotifier(n WindowNotifier)
}

// WindowNotifier receives window events.
type WindowNotifier interface {
	WindowResized(width, height int)
	WindowDestroyed()
}

// DrawingContext is the presentation target of a window.
type DrawingContext interface {
	// SetClipRects restricts subsequent blits to rects, in top-down window
	// coordinates. Nil removes the clip.
	SetClipRects(rects []image.Rectangle)

	// Blit copies the top-left width×height pixels of src onto the window.
	Blit(src Drawable, width, height int) error
}

// Drawable is a window system handle wrapping pixel memory.
type Drawable interface {
	Destroy() error
}
