// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package halbackend is a wsurf image backend on gogpu/wgpu HAL devices.
//
// Every image is a HAL texture the client renders into, paired with a
// host-visible readback buffer. The readback buffer is what the window system
// sees: it is exported as a kernel handle and mapped through MapHandle, the
// way a dumb buffer would be.
package halbackend

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/wsurf"
	"github.com/gogpu/wsurf/visual"
)

// copyPitchAlignment is the row alignment required for texture to buffer
// copies.
const copyPitchAlignment = 256

var (
	// ErrUnsupportedFormat is returned for image formats without a texture
	// format.
	ErrUnsupportedFormat = errors.New("halbackend: unsupported image format")

	// ErrUnknownHandle is returned by MapHandle for handles of destroyed or
	// foreign images.
	ErrUnknownHandle = errors.New("halbackend: unknown handle")
)

// config is a framebuffer config of a visual the backend renders.
type config struct {
	index int
	srgb  bool
}

func (c config) Masks() visual.Masks { return visual.At(c.index).Masks }
func (c config) SRGBCapable() bool   { return c.srgb }

// Backend implements wsurf.ImageBackend, wsurf.ImageBlitter, wsurf.Flusher,
// wsurf.Invalidator and wsurf.ModifierImageCreator.
type Backend struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue

	images map[uint32]*Image
	nextID uint32
}

var (
	_ wsurf.ImageBackend         = (*Backend)(nil)
	_ wsurf.ImageBlitter         = (*Backend)(nil)
	_ wsurf.Flusher              = (*Backend)(nil)
	_ wsurf.Invalidator          = (*Backend)(nil)
	_ wsurf.ModifierImageCreator = (*Backend)(nil)
)

// New returns a backend rendering on device and queue.
func New(device hal.Device, queue hal.Queue) (*Backend, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("halbackend: nil device or queue")
	}
	return &Backend{
		device: device,
		queue:  queue,
		images: make(map[uint32]*Image),
	}, nil
}

// NewFromProvider returns a backend on the HAL device of a shared device
// provider. The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func NewFromProvider(provider any) (*Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("halbackend: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("halbackend: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("halbackend: provider HalQueue is not hal.Queue")
	}
	return New(device, queue)
}

// Configs returns one config per 32-bit visual, plus an sRGB capable one for
// XRGB8888.
func (b *Backend) Configs() []wsurf.BackendConfig {
	return []wsurf.BackendConfig{
		config{index: visual.XRGB8888},
		config{index: visual.ARGB8888},
		config{index: visual.XRGB8888, srgb: true},
	}
}

// Drawable is the backend side of a surface.
type Drawable struct {
	config wsurf.BackendConfig
	loader wsurf.ImageLoader
	stale  bool
}

// Loader returns the loader the drawable pulls buffers from.
func (d *Drawable) Loader() wsurf.ImageLoader { return d.loader }

// Stale reports whether the window changed since the last call, and resets
// the flag.
func (d *Drawable) Stale() bool {
	s := d.stale
	d.stale = false
	return s
}

// CreateDrawable implements wsurf.Backend. The loader must be a
// wsurf.ImageLoader.
func (b *Backend) CreateDrawable(cfg wsurf.BackendConfig, loader any) (wsurf.BackendDrawable, error) {
	l, ok := loader.(wsurf.ImageLoader)
	if !ok {
		return nil, fmt.Errorf("halbackend: loader %T is not an image loader", loader)
	}
	return &Drawable{config: cfg, loader: l}, nil
}

// DestroyDrawable implements wsurf.Backend.
func (b *Backend) DestroyDrawable(wsurf.BackendDrawable) {}

// Invalidate implements wsurf.Invalidator.
func (b *Backend) Invalidate(d wsurf.BackendDrawable) {
	if drw, ok := d.(*Drawable); ok {
		drw.stale = true
	}
}

// Flush implements wsurf.Flusher. It copies the back image into its readback
// buffer so the window system sees the finished frame.
func (b *Backend) Flush(d wsurf.BackendDrawable) {
	drw, ok := d.(*Drawable)
	if !ok {
		return
	}
	img, _, _, err := drw.loader.GetBuffers()
	if err != nil {
		wsurf.Logger().Warn("halbackend: flush without back buffer", "err", err)
		return
	}
	if err := b.readback(img.(*Image)); err != nil {
		wsurf.Logger().Warn("halbackend: flush", "err", err)
	}
}

// CreateImage implements wsurf.ImageBackend.
func (b *Backend) CreateImage(w, h int, format visual.ImageFormat, usage wsurf.ImageUsage) (wsurf.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("halbackend: image size %dx%d", w, h)
	}
	idx, ok := visual.IndexFromImageFormat(format)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	v := visual.At(idx)
	tf := v.TextureFormat()
	if tf == gputypes.TextureFormatUndefined {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}

	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "wsurf_color",
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        tf,
		Usage: gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("halbackend: create texture: %w", err)
	}

	stride := alignPitch(w * v.BytesPerPixel())
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "wsurf_readback",
		Size:  uint64(stride) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return nil, fmt.Errorf("halbackend: create readback buffer: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	img := &Image{
		id:     b.nextID,
		width:  w,
		height: h,
		visual: idx,
		usage:  usage,
		stride: stride,
		tex:    tex,
		buf:    buf,
	}
	b.images[img.id] = img
	return img, nil
}

// CreateImageWithModifiers implements wsurf.ModifierImageCreator. Only the
// linear layout is supported.
func (b *Backend) CreateImageWithModifiers(w, h int, format visual.ImageFormat, mods []uint64) (wsurf.Image, error) {
	if !slices.Contains(mods, wsurf.ModLinear) {
		return nil, fmt.Errorf("halbackend: no supported modifier in %#x", mods)
	}
	return b.CreateImage(w, h, format, wsurf.UsageShare|wsurf.UsageLinear)
}

// DestroyImage implements wsurf.ImageBackend.
func (b *Backend) DestroyImage(img wsurf.Image) {
	i, ok := img.(*Image)
	if !ok || i == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, live := b.images[i.id]; !live {
		return
	}
	delete(b.images, i.id)
	if i.mapped {
		if err := b.device.UnmapBuffer(i.buf); err != nil {
			wsurf.Logger().Warn("halbackend: unmap readback buffer", "err", err)
		}
	}
	b.device.DestroyBuffer(i.buf)
	b.device.DestroyTexture(i.tex)
}

// QueryImage implements wsurf.ImageBackend. Images have no PRIME descriptor
// and no exported name; they are shared through their handle.
func (b *Backend) QueryImage(img wsurf.Image, attr wsurf.ImageAttrib) (int, bool) {
	i, ok := img.(*Image)
	if !ok || i == nil {
		return 0, false
	}
	v := visual.At(i.visual)
	switch attr {
	case wsurf.AttribHandle:
		return int(i.id), true
	case wsurf.AttribStride:
		return i.stride, true
	case wsurf.AttribOffset:
		return 0, true
	case wsurf.AttribFormat:
		return int(v.Format), true
	case wsurf.AttribFourCC:
		return int(v.FourCC), true
	case wsurf.AttribNumPlanes:
		return 1, true
	case wsurf.AttribWidth:
		return i.width, true
	case wsurf.AttribHeight:
		return i.height, true
	}
	return 0, false
}

// BlitImage implements wsurf.ImageBlitter. The copy lands in dst's texture
// and its readback buffer.
func (b *Backend) BlitImage(dst, src wsurf.Image, dstRect, srcRect image.Rectangle, flush bool) error {
	d, ok1 := dst.(*Image)
	s, ok2 := src.(*Image)
	if !ok1 || !ok2 {
		return fmt.Errorf("halbackend: blit between foreign images")
	}
	r := srcRect.Intersect(s.Bounds())
	dr := dstRect.Intersect(d.Bounds())
	size := image.Pt(min(r.Dx(), dr.Dx()), min(r.Dy(), dr.Dy()))
	if size.X <= 0 || size.Y <= 0 {
		return nil
	}

	return b.submit("wsurf_blit", flush, func(enc hal.CommandEncoder) {
		transition(enc, s.tex, gputypes.TextureUsageRenderAttachment, gputypes.TextureUsageCopySrc)
		enc.CopyTextureToTexture(s.tex, d.tex, []hal.TextureCopy{{
			SrcBase: hal.ImageCopyTexture{Texture: s.tex, Origin: origin(r.Min), Aspect: gputypes.TextureAspectAll},
			DstBase: hal.ImageCopyTexture{Texture: d.tex, Origin: origin(dr.Min), Aspect: gputypes.TextureAspectAll},
			Size:    hal.Extent3D{Width: uint32(size.X), Height: uint32(size.Y), DepthOrArrayLayers: 1},
		}})
		transition(enc, s.tex, gputypes.TextureUsageCopySrc, gputypes.TextureUsageRenderAttachment)
		d.encodeReadback(enc)
	})
}

// Upload writes CPU pixels into the image's texture. Rows of pix are stride
// bytes apart.
func (b *Backend) Upload(img wsurf.Image, pix []byte, stride int) error {
	i, ok := img.(*Image)
	if !ok {
		return fmt.Errorf("halbackend: upload to foreign image")
	}
	return b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: i.tex, Aspect: gputypes.TextureAspectAll},
		pix,
		&hal.ImageDataLayout{BytesPerRow: uint32(stride), RowsPerImage: uint32(i.height)},
		&hal.Extent3D{Width: uint32(i.width), Height: uint32(i.height), DepthOrArrayLayers: 1},
	)
}

// MapHandle maps the readback buffer of the image with the given handle. It
// serves as the dumb buffer mapper of a window system.
func (b *Backend) MapHandle(handle uint32, size int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.images[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, handle)
	}
	if size <= 0 || size > i.stride*i.height {
		return nil, fmt.Errorf("halbackend: map %d bytes of a %d byte buffer", size, i.stride*i.height)
	}
	m, err := b.device.MapBuffer(i.buf, 0, uint64(size))
	if err != nil {
		return nil, fmt.Errorf("halbackend: map readback buffer: %w", err)
	}
	i.mapped = true
	return unsafe.Slice((*byte)(m.Ptr), size), nil //nolint:gosec // mapping covers size bytes
}

// UnmapHandle releases a mapping made by MapHandle.
func (b *Backend) UnmapHandle(handle uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.images[handle]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, handle)
	}
	if !i.mapped {
		return nil
	}
	i.mapped = false
	return b.device.UnmapBuffer(i.buf)
}

// Live returns the number of images not yet destroyed.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.images)
}

// Close destroys every remaining image. The device stays open.
func (b *Backend) Close() {
	b.mu.Lock()
	imgs := make([]*Image, 0, len(b.images))
	for _, i := range b.images {
		imgs = append(imgs, i)
	}
	b.mu.Unlock()
	for _, i := range imgs {
		b.DestroyImage(i)
	}
}

func (b *Backend) readback(i *Image) error {
	return b.submit("wsurf_readback", true, func(enc hal.CommandEncoder) {
		transition(enc, i.tex, gputypes.TextureUsageRenderAttachment, gputypes.TextureUsageCopySrc)
		i.encodeReadback(enc)
		transition(enc, i.tex, gputypes.TextureUsageCopySrc, gputypes.TextureUsageRenderAttachment)
	})
}

// submit records commands with record, submits them and, when wait is set,
// waits for the device to go idle.
func (b *Backend) submit(label string, wait bool, record func(enc hal.CommandEncoder)) error {
	enc, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("halbackend: create encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("halbackend: begin encoding: %w", err)
	}
	record(enc)
	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("halbackend: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmd)

	if _, err := b.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("halbackend: submit: %w", err)
	}
	if !wait {
		return nil
	}
	if err := b.device.WaitIdle(); err != nil {
		return fmt.Errorf("halbackend: wait for GPU: %w", err)
	}
	return nil
}

func transition(enc hal.CommandEncoder, tex hal.Texture, from, to gputypes.TextureUsage) {
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
	}})
}

func origin(p image.Point) hal.Origin3D {
	return hal.Origin3D{X: uint32(p.X), Y: uint32(p.Y)}
}

func alignPitch(n int) int {
	return (n + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}
