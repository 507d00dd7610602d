// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wsurf

import (
	"github.com/gogpu/wsurf/internal/shm"
	"github.com/gogpu/wsurf/internal/slot"
)

// colorBuffer is the content of one pool entry. A GPU buffer owns image and,
// on cross-device displays, linearCopy; a software buffer owns mem. Either
// kind owns the native drawable wrapping what the window is shown.
type colorBuffer struct {
	width, height int
	stride        int

	image      Image
	linearCopy Image
	drawable   Drawable
	mem        *shm.Region

	// dumb is set when the drawable wraps a mapped dumb buffer because the
	// window system could not import the image directly.
	dumb     []byte
	degraded bool
}

func (s *Surface) newPool() *slot.Pool[colorBuffer] {
	return slot.New(slot.Hooks[colorBuffer]{
		Backed:       backed,
		Free:         s.freeBuffer,
		FreeDrawable: s.freeDrawable,
	})
}

func backed(cb *colorBuffer) bool {
	return cb.image != nil || cb.linearCopy != nil || cb.drawable != nil || cb.mem != nil
}

// reusable reports whether cb can serve as back buffer without reallocation.
func (s *Surface) reusable(cb *colorBuffer) bool {
	if cb.width != s.width || cb.height != s.height {
		return false
	}
	if s.display.kind == KindSoftware {
		return cb.mem != nil && cb.drawable != nil
	}
	return cb.image != nil && (!s.crossDevice || cb.linearCopy != nil)
}

// freeDrawable destroys the native drawable and any dumb buffer mapping
// behind it. The image stays for reuse.
func (s *Surface) freeDrawable(cb *colorBuffer) {
	if cb.drawable != nil {
		if err := cb.drawable.Destroy(); err != nil {
			Logger().Warn("wsurf: destroy drawable", "err", err)
		}
		cb.drawable = nil
	}
	if cb.dumb != nil {
		if err := s.display.ws.UnmapDumbBuffer(cb.dumb); err != nil {
			Logger().Warn("wsurf: unmap dumb buffer", "err", err)
		}
		cb.dumb = nil
	}
	cb.degraded = false
}

// freeBuffer releases everything cb owns and resets it.
func (s *Surface) freeBuffer(cb *colorBuffer) {
	s.freeDrawable(cb)
	if s.display.images != nil {
		if cb.image != nil {
			s.display.images.DestroyImage(cb.image)
		}
		if cb.linearCopy != nil {
			s.display.images.DestroyImage(cb.linearCopy)
		}
	}
	if cb.mem != nil {
		if err := cb.mem.Close(); err != nil {
			Logger().Warn("wsurf: unmap color buffer", "err", err)
		}
	}
	*cb = colorBuffer{}
}
