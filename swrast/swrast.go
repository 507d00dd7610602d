// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package swrast is a software rendering backend for wsurf.
//
// Frames are drawn by a RenderFunc into CPU memory laid out in the surface's
// visual and handed to the surface through its SoftwareLoader.
package swrast

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/wsurf"
	"github.com/gogpu/wsurf/visual"
)

// RenderFunc draws one frame. dst holds the previous frame on entry.
type RenderFunc func(dst draw.Image)

type config struct {
	index int
}

func (c config) Masks() visual.Masks { return visual.At(c.index).Masks }

// Backend implements wsurf.Backend and wsurf.Swapper.
type Backend struct {
	formats []int
	render  RenderFunc
}

var (
	_ wsurf.Backend = (*Backend)(nil)
	_ wsurf.Swapper = (*Backend)(nil)
)

// New returns a backend drawing with render in the given visuals. Without
// visuals it offers XRGB8888, ARGB8888 and RGB565.
func New(render RenderFunc, formats ...int) *Backend {
	if len(formats) == 0 {
		formats = []int{visual.XRGB8888, visual.ARGB8888, visual.RGB565}
	}
	return &Backend{formats: formats, render: render}
}

// Configs implements wsurf.Backend.
func (b *Backend) Configs() []wsurf.BackendConfig {
	out := make([]wsurf.BackendConfig, 0, len(b.formats))
	for _, i := range b.formats {
		out = append(out, config{index: i})
	}
	return out
}

// Drawable is the backend side of a software surface.
type Drawable struct {
	visual int
	loader wsurf.SoftwareLoader
	back   []byte
	frames int
}

// Frames returns the number of frames presented.
func (d *Drawable) Frames() int { return d.frames }

// CreateDrawable implements wsurf.Backend. The loader must be a
// wsurf.SoftwareLoader.
func (b *Backend) CreateDrawable(cfg wsurf.BackendConfig, loader any) (wsurf.BackendDrawable, error) {
	l, ok := loader.(wsurf.SoftwareLoader)
	if !ok {
		return nil, fmt.Errorf("swrast: loader %T is not a software loader", loader)
	}
	idx, ok := visual.IndexFromMasks(cfg.Masks())
	if !ok {
		return nil, fmt.Errorf("swrast: config masks %v match no visual", cfg.Masks())
	}
	return &Drawable{visual: idx, loader: l}, nil
}

// DestroyDrawable implements wsurf.Backend.
func (b *Backend) DestroyDrawable(d wsurf.BackendDrawable) {
	if drw, ok := d.(*Drawable); ok {
		drw.back = nil
	}
}

// SwapBuffers implements wsurf.Swapper. It renders a full frame and presents
// it.
func (b *Backend) SwapBuffers(d wsurf.BackendDrawable) error {
	drw, ok := d.(*Drawable)
	if !ok {
		return fmt.Errorf("swrast: foreign drawable %T", d)
	}
	_, _, w, h := drw.loader.GetDrawableInfo()
	return b.present(drw, image.Rect(0, 0, w, h), w, h)
}

// SwapRegion renders a frame and presents only r. Pixels outside r keep the
// previous frame.
func (b *Backend) SwapRegion(d wsurf.BackendDrawable, r image.Rectangle) error {
	drw, ok := d.(*Drawable)
	if !ok {
		return fmt.Errorf("swrast: foreign drawable %T", d)
	}
	_, _, w, h := drw.loader.GetDrawableInfo()
	return b.present(drw, r.Intersect(image.Rect(0, 0, w, h)), w, h)
}

func (b *Backend) present(drw *Drawable, r image.Rectangle, w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: empty drawable %dx%d", wsurf.ErrAllocFailed, w, h)
	}
	stride := visual.Stride(drw.visual, w)
	if size := stride * h; len(drw.back) != size {
		drw.back = make([]byte, size)
	}
	drw.loader.GetImage(0, 0, w, h, drw.back)

	img := visual.NewImage(drw.visual, w, h, stride, drw.back)
	if b.render != nil {
		b.render(img)
	}
	if r.Empty() {
		return nil
	}

	off := img.PixOffset(r.Min.X, r.Min.Y)
	if err := drw.loader.PutImage2(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), stride, drw.back[off:]); err != nil {
		return err
	}
	drw.frames++
	wsurf.Logger().Debug("swrast: frame presented", "frame", drw.frames, "rect", r)
	return nil
}
