// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wsurf

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/wsurf/internal/slot"
)

// Rect is a damage rectangle with a bottom-left origin, as passed to
// SwapBuffersWithDamage.
type Rect struct {
	X, Y, Width, Height int
}

// Surface is a rendering surface bound to a window or a pbuffer.
//
// The surface owns four color buffers. The backend renders into the back
// buffer; the window shows the current one. Both are locked while referenced,
// so acquiring a back buffer never returns the current buffer.
type Surface struct {
	display *Display
	config  *Config
	window  Window
	pbuffer bool

	drawable BackendDrawable

	// width and height follow the window's client area, refreshed before
	// every frame.
	width, height int
	visual        int
	crossDevice   bool

	pool          *slot.Pool[colorBuffer]
	back, current slot.Index
	path          presenter

	swapInterval int
	destroyed    bool
}

func newSurface(d *Display, cfg *Config, win Window) *Surface {
	s := &Surface{
		display:      d,
		config:       cfg,
		window:       win,
		visual:       cfg.visual,
		crossDevice:  d.crossDevice,
		back:         slot.None,
		current:      slot.None,
		swapInterval: d.opts.swapInterval,
	}
	s.pool = s.newPool()
	if d.kind == KindGPU {
		s.path = &gpuPresenter{s: s}
	} else {
		s.path = &softwarePresenter{s: s}
	}
	return s
}

func (s *Surface) createBackendDrawable() error {
	drw, err := s.display.backend.CreateDrawable(s.config.backend, s)
	if err != nil {
		return fmt.Errorf("%w: create backend drawable: %w", ErrBadMatch, err)
	}
	s.drawable = drw
	return nil
}

// Size returns the surface size as of the last frame or resize notification.
func (s *Surface) Size() (width, height int) {
	return s.width, s.height
}

// Config returns the config the surface was created with.
func (s *Surface) Config() *Config { return s.config }

// Drawable returns the backend drawable of the surface.
func (s *Surface) Drawable() BackendDrawable { return s.drawable }

// SwapInterval returns the swap interval.
func (s *Surface) SwapInterval() int { return s.swapInterval }

// SetSwapInterval sets the swap interval, clamped to [0, 1].
func (s *Surface) SetSwapInterval(n int) error {
	if s.destroyed {
		return s.record(ErrBadSurface)
	}
	s.swapInterval = clampInterval(n)
	return s.record(nil)
}

func clampInterval(n int) int {
	return min(max(n, 0), 1)
}

// SwapBuffers presents the back buffer.
func (s *Surface) SwapBuffers() error {
	return s.SwapBuffersWithDamage(nil)
}

// SwapBuffersWithDamage presents the back buffer, limiting the update to
// rects when any are given. Swapping a pbuffer does nothing.
func (s *Surface) SwapBuffersWithDamage(rects []Rect) error {
	if s.destroyed {
		return s.record(ErrBadSurface)
	}
	if s.pbuffer {
		return s.record(nil)
	}
	if s.window == nil {
		return s.record(ErrBadNativeWindow)
	}
	return s.record(s.path.swap(rects))
}

// QueryBufferAge returns the number of frames since the back buffer's
// contents were presented, or 0 when they are undefined.
func (s *Surface) QueryBufferAge() (int, error) {
	if s.destroyed {
		return 0, s.record(ErrBadSurface)
	}
	age, err := s.path.bufferAge()
	return age, s.record(err)
}

// Degraded reports whether the front buffer is shown through a mapped dumb
// buffer because the window system could not import the GPU image.
func (s *Surface) Degraded() bool {
	if !s.current.Valid() {
		return false
	}
	return s.pool.Get(s.current).degraded
}

// Destroy unregisters the window notifier and frees every buffer, in use or
// not, then destroys the backend drawable.
func (s *Surface) Destroy() error {
	if s.destroyed {
		return s.record(ErrBadSurface)
	}
	s.destroyed = true
	if s.window != nil {
		s.window.SetNotifier(nil)
		s.window = nil
	}
	s.pool.Destroy()
	s.back, s.current = slot.None, slot.None
	if s.drawable != nil {
		s.display.backend.DestroyDrawable(s.drawable)
		s.drawable = nil
	}
	delete(s.display.surfaces, s)
	return s.record(nil)
}

func (s *Surface) record(err error) error {
	return s.display.record(err)
}

// checkResize compares the cached size with the window's live client area
// and drops every buffer on mismatch.
func (s *Surface) checkResize() {
	if s.window == nil {
		return
	}
	w, h := s.window.ClientRect()
	if w == s.width && h == s.height {
		return
	}
	Logger().Debug("wsurf: window resized", "from", image.Pt(s.width, s.height), "to", image.Pt(w, h))
	s.invalidate(w, h)
}

// invalidate makes every buffer stale, drops current, and adopts the new
// size immediately. A back buffer held by a frame in progress stays locked:
// it is presented at its old size and freed when unlocked.
func (s *Surface) invalidate(w, h int) {
	s.pool.InvalidateAll()
	s.pool.Unlock(s.current)
	s.current = slot.None
	s.width, s.height = w, h
}

// acquireBack makes sure a back buffer is locked. A back buffer already
// held is kept as is; resizes are picked up by the next frame.
func (s *Surface) acquireBack() error {
	if s.destroyed {
		return ErrBadSurface
	}
	if !s.pbuffer && s.window == nil {
		return ErrBadNativeWindow
	}
	if s.back.Valid() {
		return nil
	}
	s.checkResize()
	if s.width <= 0 || s.height <= 0 {
		return fmt.Errorf("%w: empty surface %dx%d", ErrAllocFailed, s.width, s.height)
	}

	i, err := s.pool.Acquire(s.reusable, s.path.alloc)
	if err != nil {
		if !errors.Is(err, ErrAllocFailed) {
			err = fmt.Errorf("%w: %w", ErrAllocFailed, err)
		}
		return err
	}
	s.back = i
	s.pool.Compact()
	return nil
}

// promote makes the back buffer current and returns the previous current
// buffer, which the caller unlocks once presentation is done.
func (s *Surface) promote() slot.Index {
	prev := s.current
	s.current = s.back
	s.back = slot.None
	s.pool.SetAge(s.current, 1)
	return prev
}

// windowHooks forwards window events to a surface.
type windowHooks struct {
	s *Surface
}

// WindowResized adopts the new size early when no frame is in progress. The
// lazy check in acquireBack remains authoritative.
func (h windowHooks) WindowResized(w, ht int) {
	s := h.s
	if s.destroyed {
		return
	}
	if !s.back.Valid() && (w != s.width || ht != s.height) {
		s.invalidate(w, ht)
	}
	if inv, ok := s.display.backend.(Invalidator); ok {
		inv.Invalidate(s.drawable)
	}
}

// WindowDestroyed detaches the window and gives up the native drawables.
func (h windowHooks) WindowDestroyed() {
	s := h.s
	if s.destroyed || s.window == nil {
		return
	}
	s.window = nil
	for i := slot.Index(0); i < slot.Count; i++ {
		s.pool.Release(i)
	}
	Logger().Debug("wsurf: window destroyed under surface")
}

// damageClip converts bottom-left damage rects into top-down clip rects for a
// surface of the given height. No damage means no clip.
func damageClip(rects []Rect, height int) []image.Rectangle {
	if len(rects) == 0 {
		return nil
	}
	out := make([]image.Rectangle, 0, len(rects))
	for _, r := range rects {
		top := height - r.Y - r.Height
		out = append(out, image.Rect(r.X, top, r.X+r.Width, top+r.Height))
	}
	return out
}
