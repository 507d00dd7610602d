package wsurf

import (
	"image"

	"github.com/gogpu/wsurf/visual"
)

// Image is an opaque backend image.
type Image any

// BackendDrawable is an opaque backend drawable, one per surface.
type BackendDrawable any

// ImageUsage flags describe how a backend image is used.
type ImageUsage uint32

const (
	// UsageShare makes the image exportable to the window system.
	UsageShare ImageUsage = 1 << iota

	// UsageBackBuffer marks a color buffer the backend renders into.
	UsageBackBuffer

	// UsageLinear asks for a linear, scanout friendly layout.
	UsageLinear
)

// ImageAttrib selects a value returned by ImageBackend.QueryImage.
type ImageAttrib int

const (
	AttribName ImageAttrib = iota
	AttribHandle
	AttribFD
	AttribStride
	AttribOffset
	AttribFormat
	AttribFourCC
	AttribNumPlanes
	AttribWidth
	AttribHeight
)

// Format modifiers.
const (
	ModLinear  uint64 = 0
	ModInvalid uint64 = 0x00ffffffffffffff
)

// BackendConfig is a framebuffer config reported by the backend.
type BackendConfig interface {
	Masks() visual.Masks
}

// SRGBConfig is implemented by configs that can render sRGB encoded output.
type SRGBConfig interface {
	SRGBCapable() bool
}

// Backend is the rendering backend of a display.
//
// CreateDrawable receives the surface as loader. Backends type-assert it to
// ImageLoader, BufferLoader or SoftwareLoader to obtain buffers.
type Backend interface {
	Configs() []BackendConfig
	CreateDrawable(cfg BackendConfig, loader any) (BackendDrawable, error)
	DestroyDrawable(d BackendDrawable)
}

// ImageBackend is a backend that renders into shareable images. Only an
// ImageBackend can drive a GPU display.
type ImageBackend interface {
	Backend
	CreateImage(width, height int, format visual.ImageFormat, usage ImageUsage) (Image, error)
	DestroyImage(img Image)
	QueryImage(img Image, attr ImageAttrib) (int, bool)
}

// ModifierImageCreator creates images with an explicit modifier list.
type ModifierImageCreator interface {
	CreateImageWithModifiers(width, height int, format visual.ImageFormat, modifiers []uint64) (Image, error)
}

// ImageBlitter copies between images, converting the pixel format.
type ImageBlitter interface {
	BlitImage(dst, src Image, dstRect, srcRect image.Rectangle, flush bool) error
}

// Flusher flushes pending rendering into a drawable before a swap.
type Flusher interface {
	Flush(d BackendDrawable)
}

// Invalidator is told that a drawable's buffers changed.
type Invalidator interface {
	Invalidate(d BackendDrawable)
}

// Swapper is implemented by software backends; SwapBuffers makes the backend
// call PutImage with the finished frame.
type Swapper interface {
	SwapBuffers(d BackendDrawable) error
}

// LocalBufferAllocator provides ancillary buffers, such as depth, for the
// name based loader.
type LocalBufferAllocator interface {
	AllocateLocalBuffer(a Attachment, bitsPerPixel, width, height int) (Buffer, error)
}
