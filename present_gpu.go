// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wsurf

import (
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/wsurf/internal/slot"
	"github.com/gogpu/wsurf/visual"
)

// gpuPresenter presents backend images. Each buffer's image is wrapped in a
// native drawable the first time it is presented and the drawable is kept
// for as long as the image lives.
type gpuPresenter struct {
	s *Surface
}

func (p *gpuPresenter) alloc(cb *colorBuffer) error {
	s := p.s
	v := visual.At(s.visual)
	cb.width, cb.height = s.width, s.height

	img, err := p.createImage(v.Format, s.display.opts.modifiers[s.visual], !s.crossDevice)
	if err != nil {
		return fmt.Errorf("%w: back image %v %dx%d: %w", ErrAllocFailed, v.Format, s.width, s.height, err)
	}
	cb.image = img

	if s.crossDevice {
		target := s.config.target
		lin, err := p.createLinear(visual.At(target).Format, s.display.opts.modifiers[target])
		if err != nil {
			return fmt.Errorf("%w: linear copy: %w", ErrAllocFailed, err)
		}
		cb.linearCopy = lin
	}

	Logger().Debug("wsurf: back image allocated", "format", v.Format,
		"width", s.width, "height", s.height, "linearCopy", cb.linearCopy != nil)
	return nil
}

// createImage uses the modifier aware call when the backend has one and
// modifiers are registered for the format, and plain creation otherwise.
func (p *gpuPresenter) createImage(format visual.ImageFormat, mods []uint64, linear bool) (Image, error) {
	d := p.s.display
	if mc, ok := d.backend.(ModifierImageCreator); ok && len(mods) > 0 {
		return mc.CreateImageWithModifiers(p.s.width, p.s.height, format, mods)
	}
	usage := UsageShare | UsageBackBuffer
	if linear {
		usage |= UsageLinear
	}
	return d.images.CreateImage(p.s.width, p.s.height, format, usage)
}

func (p *gpuPresenter) createLinear(format visual.ImageFormat, mods []uint64) (Image, error) {
	d := p.s.display
	if mc, ok := d.backend.(ModifierImageCreator); ok && slices.Contains(mods, ModLinear) {
		return mc.CreateImageWithModifiers(p.s.width, p.s.height, format, []uint64{ModLinear})
	}
	return d.images.CreateImage(p.s.width, p.s.height, format, UsageShare|UsageLinear)
}

// createNativeDrawable wraps the image the window will show, trying PRIME,
// exported names and kernel handles in that order. When the handle cannot be
// imported either, the dumb buffer behind it is mapped and wrapped as CPU
// memory; the buffer is then marked degraded.
func (p *gpuPresenter) createNativeDrawable(cb *colorBuffer) error {
	s := p.s
	d := s.display
	ws := d.ws
	ib := d.images
	log := Logger()

	src := cb.image
	if s.crossDevice {
		src = cb.linearCopy
	}
	stride, ok := ib.QueryImage(src, AttribStride)
	if !ok {
		return fmt.Errorf("%w: image has no stride", ErrAllocFailed)
	}
	offset, _ := ib.QueryImage(src, AttribOffset)
	target := visual.At(s.config.target)
	fourcc := target.FourCC
	if code, ok := ib.QueryImage(src, AttribFourCC); ok {
		fourcc = visual.FourCC(code)
	}
	w, h := cb.width, cb.height
	cb.stride = stride

	if d.caps.Has(CapPrime) {
		if fd, ok := ib.QueryImage(src, AttribFD); ok {
			drw, err := ws.CreateDrawableFromPrime(fd, w, h, stride, offset, fourcc)
			if cerr := closeFD(fd); cerr != nil {
				log.Warn("wsurf: close prime fd", "err", cerr)
			}
			if err == nil {
				cb.drawable = drw
				return nil
			}
			log.Debug("wsurf: prime import failed", "err", err)
		}
	}

	if d.caps.Has(CapName) {
		if name, ok := ib.QueryImage(src, AttribName); ok {
			drw, err := ws.CreateDrawableFromName(uint32(name), w, h, stride, fourcc)
			if err == nil {
				cb.drawable = drw
				return nil
			}
			log.Debug("wsurf: name import failed", "err", err)
		}
	}

	handle, ok := ib.QueryImage(src, AttribHandle)
	if !ok {
		return fmt.Errorf("%w: image cannot be exported", ErrAllocFailed)
	}
	drw, err := ws.CreateDrawableFromHandle(uint32(handle), w, h, stride, fourcc)
	if err == nil {
		cb.drawable = drw
		return nil
	}
	log.Debug("wsurf: handle import failed", "err", err)

	mem, merr := ws.MapDumbBuffer(uint32(handle), stride*h)
	if merr != nil {
		return fmt.Errorf("%w: import handle: %w; map dumb buffer: %w", ErrAllocFailed, err, merr)
	}
	v := target
	if i, ok := visual.IndexFromFourCC(fourcc); ok {
		v = visual.At(i)
	}
	drw, err = ws.CreateMemDrawable(w, h, v, mem, stride)
	if err != nil {
		if uerr := ws.UnmapDumbBuffer(mem); uerr != nil {
			log.Warn("wsurf: unmap dumb buffer", "err", uerr)
		}
		return fmt.Errorf("%w: wrap dumb buffer: %w", ErrAllocFailed, err)
	}
	cb.drawable = drw
	cb.dumb = mem
	cb.degraded = true
	log.Warn("wsurf: presenting through mapped dumb buffer", "handle", handle, "width", w, "height", h)
	return nil
}

// swap presents the back buffer. Every step that can fail runs before the
// back buffer is promoted, so a failed swap leaves the previous front buffer
// current and returns the back buffer to the pool.
func (p *gpuPresenter) swap(damage []Rect) error {
	s := p.s
	d := s.display

	// A swap without a prior GetBuffers acquires a back buffer here. One
	// already held is presented as rendered, never reacquired.
	if !s.back.Valid() {
		if err := s.acquireBack(); err != nil {
			return err
		}
	}
	cb := s.pool.Get(s.back)

	if cb.drawable == nil {
		if err := p.createNativeDrawable(cb); err != nil {
			p.abandonBack()
			return err
		}
	}

	if f, ok := d.backend.(Flusher); ok {
		f.Flush(s.drawable)
	}
	if s.crossDevice {
		r := image.Rect(0, 0, cb.width, cb.height)
		if err := d.backend.(ImageBlitter).BlitImage(cb.linearCopy, cb.image, r, r, true); err != nil {
			p.abandonBack()
			return fmt.Errorf("%w: blit to linear copy: %w", ErrAllocFailed, err)
		}
	}

	s.pool.AgeAll()
	prev := s.promote()
	defer s.pool.Unlock(prev)

	dc := s.window.PrivateDC()
	dc.SetClipRects(damageClip(damage, cb.height))
	if inv, ok := d.backend.(Invalidator); ok {
		inv.Invalidate(s.drawable)
	}
	if err := dc.Blit(cb.drawable, cb.width, cb.height); err != nil {
		return fmt.Errorf("%w: blit: %w", ErrBadNativeWindow, err)
	}
	return nil
}

// abandonBack returns the back buffer to the pool idle.
func (p *gpuPresenter) abandonBack() {
	s := p.s
	s.pool.Unlock(s.back)
	s.back = slot.None
}

func (p *gpuPresenter) bufferAge() (int, error) {
	s := p.s
	if err := s.acquireBack(); err != nil {
		return 0, err
	}
	return s.pool.Age(s.back), nil
}
