// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package visual describes the pixel formats a window surface can present.
//
// The table is small and fixed. Entries are addressed by index, and the index
// doubles as the bit position in a [FormatSet], so the order of the table is
// part of the contract: index 4 is always XRGB8888, index 6 is always RGB565.
//
// Three codes identify a format:
//
//   - FourCC: the windowing system's layout code ('XR24', 'RG16', ...)
//   - ImageFormat: the rendering backend's image enumerant
//   - Masks: the red, green, blue and alpha bit masks of one pixel
//
// For every supported format the FourCC and the backend's image FourCC are the
// same number, so a backend image can be matched by either code.
package visual

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// FourCC is a four-character pixel layout code, little endian.
type FourCC uint32

// NewFourCC packs four characters into a FourCC.
func NewFourCC(a, b, c, d byte) FourCC {
	return FourCC(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// String returns the four characters of the code.
func (f FourCC) String() string {
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

// Layout codes of the formats in the table.
var (
	FourCCXRGB2101010 = NewFourCC('X', 'R', '3', '0')
	FourCCARGB2101010 = NewFourCC('A', 'R', '3', '0')
	FourCCXBGR2101010 = NewFourCC('X', 'B', '3', '0')
	FourCCABGR2101010 = NewFourCC('A', 'B', '3', '0')
	FourCCXRGB8888    = NewFourCC('X', 'R', '2', '4')
	FourCCARGB8888    = NewFourCC('A', 'R', '2', '4')
	FourCCRGB565      = NewFourCC('R', 'G', '1', '6')
)

// ImageFormat is a rendering backend image format enumerant.
type ImageFormat uint32

// Backend image formats. The numbering follows the DRI image interface.
const (
	ImageFormatRGB565      ImageFormat = 0x1001
	ImageFormatXRGB8888    ImageFormat = 0x1002
	ImageFormatARGB8888    ImageFormat = 0x1003
	ImageFormatNone        ImageFormat = 0x1008
	ImageFormatXRGB2101010 ImageFormat = 0x1009
	ImageFormatARGB2101010 ImageFormat = 0x100a
	ImageFormatXBGR2101010 ImageFormat = 0x1010
	ImageFormatABGR2101010 ImageFormat = 0x1011
)

// String returns the format name.
func (f ImageFormat) String() string {
	if f == ImageFormatNone {
		return "NONE"
	}
	if i, ok := IndexFromImageFormat(f); ok {
		return table[i].Name
	}
	return fmt.Sprintf("ImageFormat(%#x)", uint32(f))
}

// Masks holds the red, green, blue and alpha bit masks of a pixel.
type Masks [4]uint32

// Red returns the red channel mask.
func (m Masks) Red() uint32 { return m[0] }

// Green returns the green channel mask.
func (m Masks) Green() uint32 { return m[1] }

// Blue returns the blue channel mask.
func (m Masks) Blue() uint32 { return m[2] }

// Alpha returns the alpha channel mask. Zero means the format has no alpha.
func (m Masks) Alpha() uint32 { return m[3] }

// Visual is one entry of the format table.
type Visual struct {
	// Name is a human readable tag.
	Name string

	// FourCC is the windowing system layout code.
	FourCC FourCC

	// Format is the backend image format.
	Format ImageFormat

	// AltFormat is a same-precision format with a different channel order
	// that the backend can convert into, or ImageFormatNone.
	AltFormat ImageFormat

	// BitsPerPixel is the storage size of one pixel.
	BitsPerPixel int

	// Masks are the channel masks, used both for lookup and for creating
	// memory drawables.
	Masks Masks
}

// BytesPerPixel returns BitsPerPixel / 8.
func (v Visual) BytesPerPixel() int {
	return v.BitsPerPixel / 8
}

// HasAlpha reports whether the format stores an alpha channel.
func (v Visual) HasAlpha() bool {
	return v.Masks.Alpha() != 0
}

// TextureFormat returns the WebGPU texture format with the same memory
// layout, or gputypes.TextureFormatUndefined when there is none.
func (v Visual) TextureFormat() gputypes.TextureFormat {
	switch v.Format {
	case ImageFormatXRGB8888, ImageFormatARGB8888:
		// 0x00RRGGBB in a little endian word is B, G, R, A in memory.
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return gputypes.TextureFormatUndefined
	}
}

// Indices of the table entries.
const (
	XRGB2101010 = iota
	ARGB2101010
	XBGR2101010
	ABGR2101010
	XRGB8888
	ARGB8888
	RGB565
)

var table = [...]Visual{
	XRGB2101010: {
		Name:         "XRGB2101010",
		FourCC:       FourCCXRGB2101010,
		Format:       ImageFormatXRGB2101010,
		AltFormat:    ImageFormatXBGR2101010,
		BitsPerPixel: 32,
		Masks:        Masks{0x3ff00000, 0x000ffc00, 0x000003ff, 0x00000000},
	},
	ARGB2101010: {
		Name:         "ARGB2101010",
		FourCC:       FourCCARGB2101010,
		Format:       ImageFormatARGB2101010,
		AltFormat:    ImageFormatABGR2101010,
		BitsPerPixel: 32,
		Masks:        Masks{0x3ff00000, 0x000ffc00, 0x000003ff, 0xc0000000},
	},
	XBGR2101010: {
		Name:         "XBGR2101010",
		FourCC:       FourCCXBGR2101010,
		Format:       ImageFormatXBGR2101010,
		AltFormat:    ImageFormatXRGB2101010,
		BitsPerPixel: 32,
		Masks:        Masks{0x000003ff, 0x000ffc00, 0x3ff00000, 0x00000000},
	},
	ABGR2101010: {
		Name:         "ABGR2101010",
		FourCC:       FourCCABGR2101010,
		Format:       ImageFormatABGR2101010,
		AltFormat:    ImageFormatARGB2101010,
		BitsPerPixel: 32,
		Masks:        Masks{0x000003ff, 0x000ffc00, 0x3ff00000, 0xc0000000},
	},
	XRGB8888: {
		Name:         "XRGB8888",
		FourCC:       FourCCXRGB8888,
		Format:       ImageFormatXRGB8888,
		AltFormat:    ImageFormatNone,
		BitsPerPixel: 32,
		Masks:        Masks{0x00ff0000, 0x0000ff00, 0x000000ff, 0x00000000},
	},
	ARGB8888: {
		Name:         "ARGB8888",
		FourCC:       FourCCARGB8888,
		Format:       ImageFormatARGB8888,
		AltFormat:    ImageFormatNone,
		BitsPerPixel: 32,
		Masks:        Masks{0x00ff0000, 0x0000ff00, 0x000000ff, 0xff000000},
	},
	RGB565: {
		Name:         "RGB565",
		FourCC:       FourCCRGB565,
		Format:       ImageFormatRGB565,
		AltFormat:    ImageFormatNone,
		BitsPerPixel: 16,
		Masks:        Masks{0xf800, 0x07e0, 0x001f, 0x0000},
	},
}

// Count is the number of entries in the table.
const Count = len(table)

// The table must fit in a FormatSet.
var _ [MaxFormats - Count]struct{}

// At returns the visual at index i. It panics if i is out of range.
func At(i int) Visual {
	return table[i]
}

// All returns a copy of the table.
func All() []Visual {
	out := make([]Visual, Count)
	copy(out, table[:])
	return out
}

// IndexFromMasks returns the index of the visual whose four masks equal m.
func IndexFromMasks(m Masks) (int, bool) {
	for i := range table {
		if table[i].Masks == m {
			return i, true
		}
	}
	return -1, false
}

// IndexFromFourCC returns the index of the visual with the given layout code.
func IndexFromFourCC(code FourCC) (int, bool) {
	for i := range table {
		if table[i].FourCC == code {
			return i, true
		}
	}
	return -1, false
}

// IndexFromImageFormat returns the index of the visual with the given backend
// image format. ImageFormatNone never matches.
func IndexFromImageFormat(f ImageFormat) (int, bool) {
	for i := range table {
		if table[i].Format == f {
			return i, true
		}
	}
	return -1, false
}

// IndexFromName returns the index of the visual with the given name.
func IndexFromName(name string) (int, bool) {
	for i := range table {
		if table[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// Stride returns the tightly packed row size in bytes of a buffer of the
// given width in visual i.
func Stride(i, width int) int {
	return width * table[i].BytesPerPixel()
}
