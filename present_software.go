// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wsurf

import (
	"fmt"

	"github.com/gogpu/wsurf/internal/shm"
	"github.com/gogpu/wsurf/visual"
)

// softwarePresenter presents CPU memory. The software backend pulls and
// pushes pixels through the SoftwareLoader methods of the surface.
type softwarePresenter struct {
	s *Surface
}

func (p *softwarePresenter) alloc(cb *colorBuffer) error {
	s := p.s
	stride := visual.Stride(s.visual, s.width)
	size := stride * s.height

	mem, err := shm.New(size)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAllocFailed, err)
	}
	cb.mem = mem
	cb.width, cb.height, cb.stride = s.width, s.height, stride

	drw, err := s.display.ws.CreateMemDrawable(s.width, s.height, visual.At(s.visual), mem.Bytes(), stride)
	if err != nil {
		return fmt.Errorf("%w: memory drawable: %w", ErrAllocFailed, err)
	}
	cb.drawable = drw

	Logger().Debug("wsurf: software buffer allocated",
		"width", s.width, "height", s.height, "stride", stride, "size", size)
	return nil
}

// swap asks the backend to hand over the finished frame through PutImage.
func (p *softwarePresenter) swap([]Rect) error {
	sw, ok := p.s.display.backend.(Swapper)
	if !ok {
		return nil
	}
	return sw.SwapBuffers(p.s.drawable)
}

// bufferAge is always 0: software frames are redrawn in full.
func (p *softwarePresenter) bufferAge() (int, error) {
	return 0, nil
}

// GetDrawableInfo implements SoftwareLoader.
func (s *Surface) GetDrawableInfo() (x, y, width, height int) {
	if !s.destroyed {
		s.checkResize()
	}
	return 0, 0, s.width, s.height
}

// GetImage implements SoftwareLoader. Without a front buffer dst is zeroed.
func (s *Surface) GetImage(x, y, w, h int, dst []byte) {
	bpp := visual.At(s.visual).BytesPerPixel()
	s.readFront(x, y, w, h, w*bpp, dst)
}

// ReadImage returns a copy of a region of the front buffer, rows packed at
// w×bpp bytes.
func (s *Surface) ReadImage(x, y, w, h int) []byte {
	if w <= 0 || h <= 0 {
		return nil
	}
	stride := visual.Stride(s.visual, w)
	dst := make([]byte, stride*h)
	s.readFront(x, y, w, h, stride, dst)
	return dst
}

// readFront copies a region of the front buffer into dst, whose rows are
// dstStride bytes apart. The copy is clamped to the front buffer.
func (s *Surface) readFront(x, y, w, h, dstStride int, dst []byte) {
	if w <= 0 || h <= 0 || dstStride <= 0 {
		return
	}
	bpp := visual.At(s.visual).BytesPerPixel()
	copyWidth := w * bpp

	if !s.current.Valid() || x < 0 || y < 0 {
		clear(dst[:min(len(dst), h*dstStride)])
		return
	}
	cb := s.pool.Get(s.current)
	src := cb.mem.Bytes()
	if src == nil {
		clear(dst[:min(len(dst), h*dstStride)])
		return
	}

	xOffset := x * bpp
	copyWidth = min(copyWidth, cb.stride-xOffset)
	h = min(h, cb.height-y)
	for row := 0; row < h && copyWidth > 0; row++ {
		d := row * dstStride
		if d+copyWidth > len(dst) {
			break
		}
		o := (y+row)*cb.stride + xOffset
		copy(dst[d:d+copyWidth], src[o:o+copyWidth])
	}
}

// PutImage implements SoftwareLoader.
func (s *Surface) PutImage(x, y, w, h int, data []byte) error {
	return s.PutImage2(x, y, w, h, visual.Stride(s.visual, w), data)
}

// PutImage2 implements SoftwareLoader. It writes a region into the back
// buffer and presents it. A region narrower than the buffer is first merged
// into a copy of the front buffer so undamaged pixels survive.
func (s *Surface) PutImage2(x, y, w, h, stride int, data []byte) error {
	if x < 0 || y < 0 || w < 0 || h < 0 || stride < 0 {
		return s.record(fmt.Errorf("%w: put image %d,%d %dx%d", ErrBadParameter, x, y, w, h))
	}
	if s.display.kind != KindSoftware {
		return s.record(fmt.Errorf("%w: put image on a %v display", ErrBadParameter, s.display.kind))
	}
	if err := s.acquireBack(); err != nil {
		return s.record(err)
	}

	bpp := visual.At(s.visual).BytesPerPixel()
	cb := s.pool.Get(s.back)
	dst := cb.mem.Bytes()
	copyWidth := w * bpp
	if copyWidth < cb.stride {
		s.readFront(0, 0, s.width, s.height, cb.stride, dst)
	}

	xOffset := x * bpp
	copyWidth = min(copyWidth, cb.stride-xOffset)
	h = min(h, cb.height-y)
	for row := 0; row < h && copyWidth > 0; row++ {
		o := row * stride
		if o+copyWidth > len(data) {
			break
		}
		d := (y+row)*cb.stride + xOffset
		copy(dst[d:d+copyWidth], data[o:o+copyWidth])
	}
	return s.record(s.commitBackBuffer())
}

// commitBackBuffer makes the back buffer current and blits it onto the
// window unclipped. The previous front buffer is unlocked afterwards.
func (s *Surface) commitBackBuffer() error {
	prev := s.promote()
	defer s.pool.Unlock(prev)

	if s.window == nil {
		return nil
	}
	cb := s.pool.Get(s.current)
	dc := s.window.PrivateDC()
	dc.SetClipRects(nil)
	if err := dc.Blit(cb.drawable, cb.width, cb.height); err != nil {
		return fmt.Errorf("%w: blit: %w", ErrBadNativeWindow, err)
	}
	return nil
}
