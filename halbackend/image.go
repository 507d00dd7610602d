//go:build !nogpu

package halbackend

import (
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/wsurf"
)

// Image is a color buffer: a texture and the readback buffer the window
// system reads.
type Image struct {
	id            uint32
	width, height int
	visual        int
	usage         wsurf.ImageUsage

	// stride is the row pitch of buf, aligned for texture copies.
	stride int
	tex    hal.Texture
	buf    hal.Buffer
	mapped bool
}

// Texture returns the texture to render into.
func (i *Image) Texture() hal.Texture { return i.tex }

// Bounds returns the image rectangle.
func (i *Image) Bounds() image.Rectangle { return image.Rect(0, 0, i.width, i.height) }

// Visual returns the visual index of the image.
func (i *Image) Visual() int { return i.visual }

// Usage returns the usage the image was created with.
func (i *Image) Usage() wsurf.ImageUsage { return i.usage }

func (i *Image) encodeReadback(enc hal.CommandEncoder) {
	enc.CopyTextureToBuffer(i.tex, i.buf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: uint32(i.stride), RowsPerImage: uint32(i.height)},
		TextureBase:  hal.ImageCopyTexture{Texture: i.tex, Aspect: gputypes.TextureAspectAll},
		Size:         hal.Extent3D{Width: uint32(i.width), Height: uint32(i.height), DepthOrArrayLayers: 1},
	}})
}
