package wsurf

import (
	"fmt"

	"github.com/gogpu/wsurf/visual"
)

// ImageLoader is the loader contract of image based GPU backends.
type ImageLoader interface {
	// GetBuffers returns the back image and the surface size, allocating or
	// reallocating the back buffer as needed.
	GetBuffers() (img Image, width, height int, err error)

	// FlushFrontBuffer is called when the backend renders to the front
	// buffer. Window surfaces are always double buffered, so it does nothing.
	FlushFrontBuffer()
}

// Attachment names a buffer requested through BufferLoader.
type Attachment int

const (
	AttachmentFrontLeft Attachment = iota
	AttachmentBackLeft
	AttachmentDepth
	AttachmentStencil
	AttachmentDepthStencil
)

// AttachmentRequest asks for one attachment with the given pixel size.
type AttachmentRequest struct {
	Attachment   Attachment
	BitsPerPixel int
}

// Buffer describes a buffer returned through BufferLoader.
type Buffer struct {
	Attachment Attachment
	Name       uint32
	Pitch      int
	Cpp        int
	Flags      uint32
}

// BufferLoader is the loader contract of name based GPU backends.
type BufferLoader interface {
	GetBuffersWithFormat(reqs []AttachmentRequest) (buffers []Buffer, width, height int, err error)
}

// SoftwareLoader is the loader contract of software backends.
type SoftwareLoader interface {
	// GetDrawableInfo returns the drawable geometry, reacting to resizes.
	GetDrawableInfo() (x, y, width, height int)

	// GetImage copies a region of the front buffer into dst, with rows packed
	// at w×bpp bytes.
	GetImage(x, y, w, h int, dst []byte)

	// PutImage presents a region with rows packed at w×bpp bytes.
	PutImage(x, y, w, h int, data []byte) error

	// PutImage2 presents a region whose rows are stride bytes apart.
	PutImage2(x, y, w, h, stride int, data []byte) error
}

var (
	_ ImageLoader    = (*Surface)(nil)
	_ BufferLoader   = (*Surface)(nil)
	_ SoftwareLoader = (*Surface)(nil)
)

// GetBuffers implements ImageLoader.
func (s *Surface) GetBuffers() (Image, int, int, error) {
	if err := s.acquireBack(); err != nil {
		return nil, 0, 0, s.record(err)
	}
	return s.pool.Get(s.back).image, s.width, s.height, nil
}

// FlushFrontBuffer implements ImageLoader.
func (s *Surface) FlushFrontBuffer() {
	Logger().Debug("wsurf: front buffer flush ignored on double buffered surface")
}

// GetBuffersWithFormat implements BufferLoader. The back left attachment is
// the surface's back image; every other attachment comes from the backend's
// LocalBufferAllocator.
func (s *Surface) GetBuffersWithFormat(reqs []AttachmentRequest) ([]Buffer, int, int, error) {
	out := make([]Buffer, 0, len(reqs))
	for _, r := range reqs {
		if r.Attachment == AttachmentBackLeft {
			b, err := s.backBufferName()
			if err != nil {
				return nil, 0, 0, s.record(err)
			}
			out = append(out, b)
			continue
		}
		alloc, ok := s.display.backend.(LocalBufferAllocator)
		if !ok {
			return nil, 0, 0, s.record(fmt.Errorf("%w: no allocator for attachment %d", ErrAllocFailed, r.Attachment))
		}
		b, err := alloc.AllocateLocalBuffer(r.Attachment, r.BitsPerPixel, s.width, s.height)
		if err != nil {
			return nil, 0, 0, s.record(fmt.Errorf("%w: attachment %d: %w", ErrAllocFailed, r.Attachment, err))
		}
		out = append(out, b)
	}
	return out, s.width, s.height, nil
}

func (s *Surface) backBufferName() (Buffer, error) {
	if err := s.acquireBack(); err != nil {
		return Buffer{}, err
	}
	ib := s.display.images
	img := s.pool.Get(s.back).image
	name, ok := ib.QueryImage(img, AttribName)
	if !ok {
		return Buffer{}, fmt.Errorf("%w: back image has no name", ErrAllocFailed)
	}
	pitch, ok := ib.QueryImage(img, AttribStride)
	if !ok {
		return Buffer{}, fmt.Errorf("%w: back image has no stride", ErrAllocFailed)
	}
	return Buffer{
		Attachment: AttachmentBackLeft,
		Name:       uint32(name),
		Pitch:      pitch,
		Cpp:        visual.At(s.visual).BytesPerPixel(),
	}, nil
}
