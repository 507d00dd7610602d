package visual

import (
	"encoding/binary"
	"image"
	"image/color"
	"math/bits"
)

// Image is a draw.Image view of raw little endian pixels laid out in one of
// the table's visuals. It owns no memory: Pix usually aliases a shared memory
// region or a backend image mapping.
type Image struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
	Visual Visual
}

// NewImage wraps pix as a w×h image of visual index idx with the given row
// stride. It returns nil when pix is too small.
func NewImage(idx, w, h, stride int, pix []byte) *Image {
	v := table[idx]
	if w < 0 || h < 0 || stride < w*v.BytesPerPixel() {
		return nil
	}
	if h > 0 && len(pix) < (h-1)*stride+w*v.BytesPerPixel() {
		return nil
	}
	return &Image{Pix: pix, Stride: stride, Rect: image.Rect(0, 0, w, h), Visual: v}
}

// ColorModel implements image.Image.
func (p *Image) ColorModel() color.Model { return color.RGBA64Model }

// Bounds implements image.Image.
func (p *Image) Bounds() image.Rectangle { return p.Rect }

// PixOffset returns the index of the first byte of pixel (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*p.Visual.BytesPerPixel()
}

// At implements image.Image.
func (p *Image) At(x, y int) color.Color {
	return p.RGBA64At(x, y)
}

// RGBA64At returns the pixel at (x, y) widened to 16 bits per channel.
// Formats without alpha report opaque pixels.
func (p *Image) RGBA64At(x, y int) color.RGBA64 {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA64{}
	}
	px := p.load(p.PixOffset(x, y))
	m := p.Visual.Masks
	c := color.RGBA64{
		R: extract(px, m.Red()),
		G: extract(px, m.Green()),
		B: extract(px, m.Blue()),
		A: 0xffff,
	}
	if m.Alpha() != 0 {
		c.A = extract(px, m.Alpha())
	}
	return c
}

// Set implements draw.Image.
func (p *Image) Set(x, y int, c color.Color) {
	r, g, b, a := c.RGBA()
	p.SetRGBA64(x, y, color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: uint16(a)})
}

// SetRGBA64 stores c at (x, y), narrowing each channel to its mask width.
func (p *Image) SetRGBA64(x, y int, c color.RGBA64) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	m := p.Visual.Masks
	px := insert(c.R, m.Red()) | insert(c.G, m.Green()) | insert(c.B, m.Blue())
	if m.Alpha() != 0 {
		px |= insert(c.A, m.Alpha())
	}
	p.store(p.PixOffset(x, y), px)
}

// Opaque reports whether every pixel is fully opaque.
func (p *Image) Opaque() bool {
	if !p.Visual.HasAlpha() {
		return true
	}
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		for x := p.Rect.Min.X; x < p.Rect.Max.X; x++ {
			if p.RGBA64At(x, y).A != 0xffff {
				return false
			}
		}
	}
	return true
}

func (p *Image) load(off int) uint32 {
	if p.Visual.BitsPerPixel == 16 {
		return uint32(binary.LittleEndian.Uint16(p.Pix[off:]))
	}
	return binary.LittleEndian.Uint32(p.Pix[off:])
}

func (p *Image) store(off int, px uint32) {
	if p.Visual.BitsPerPixel == 16 {
		binary.LittleEndian.PutUint16(p.Pix[off:], uint16(px))
		return
	}
	binary.LittleEndian.PutUint32(p.Pix[off:], px)
}

// extract pulls the channel selected by mask out of px and scales it to 16 bits
// by bit replication.
func extract(px, mask uint32) uint16 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	v := (px & mask) >> shift
	out := uint32(0)
	for filled := 0; filled < 16; filled += width {
		out = out<<width | v
	}
	return uint16(out >> (width*((16+width-1)/width) - 16))
}

// insert narrows a 16 bit channel value to the mask width and positions it.
func insert(v uint16, mask uint32) uint32 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	return (uint32(v) >> (16 - width) << shift) & mask
}
