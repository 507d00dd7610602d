// Package memwin is an in-memory window system for wsurf.
//
// Windows are RGBA framebuffers. Drawables wrap CPU memory; GPU images are
// reached by mapping their kernel handle through a Mapper, so memwin never
// imports PRIME descriptors or exported names.
package memwin

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/gogpu/wsurf"
	"github.com/gogpu/wsurf/visual"
)

var (
	// ErrUnsupported is returned for buffer imports memwin cannot perform.
	ErrUnsupported = errors.New("memwin: import not supported")

	// ErrNoMapper is returned by MapDumbBuffer when the system has no Mapper.
	ErrNoMapper = errors.New("memwin: no dumb buffer mapper")
)

// Mapper maps the memory behind a kernel buffer handle.
type Mapper interface {
	MapHandle(handle uint32, size int) ([]byte, error)
	UnmapHandle(handle uint32) error
}

// System implements wsurf.Windowing.
type System struct {
	mu     sync.Mutex
	mapper Mapper
	mapped map[*byte]uint32
	live   int
}

var _ wsurf.Windowing = (*System)(nil)

// Option configures a System.
type Option func(*System)

// WithMapper sets the mapper used for dumb buffers.
func WithMapper(m Mapper) Option {
	return func(s *System) {
		s.mapper = m
	}
}

// New returns an empty window system.
func New(opts ...Option) *System {
	s := &System{mapped: make(map[*byte]uint32)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capabilities implements wsurf.Windowing.
func (s *System) Capabilities() wsurf.Capability { return 0 }

// CreateMemDrawable implements wsurf.Windowing.
func (s *System) CreateMemDrawable(w, h int, v visual.Visual, pix []byte, stride int) (wsurf.Drawable, error) {
	idx, ok := visual.IndexFromFourCC(v.FourCC)
	if !ok {
		return nil, fmt.Errorf("memwin: unknown layout %v", v.FourCC)
	}
	img := visual.NewImage(idx, w, h, stride, pix)
	if img == nil {
		return nil, fmt.Errorf("memwin: %d bytes too small for %dx%d stride %d", len(pix), w, h, stride)
	}
	s.mu.Lock()
	s.live++
	s.mu.Unlock()
	return &Drawable{sys: s, img: img}, nil
}

// CreateDrawableFromName implements wsurf.Windowing.
func (s *System) CreateDrawableFromName(uint32, int, int, int, visual.FourCC) (wsurf.Drawable, error) {
	return nil, fmt.Errorf("%w: name", ErrUnsupported)
}

// CreateDrawableFromPrime implements wsurf.Windowing.
func (s *System) CreateDrawableFromPrime(int, int, int, int, int, visual.FourCC) (wsurf.Drawable, error) {
	return nil, fmt.Errorf("%w: prime", ErrUnsupported)
}

// CreateDrawableFromHandle implements wsurf.Windowing. Without a kernel mode
// setting device handles cannot be imported; callers fall back to
// MapDumbBuffer.
func (s *System) CreateDrawableFromHandle(uint32, int, int, int, visual.FourCC) (wsurf.Drawable, error) {
	return nil, fmt.Errorf("%w: handle", ErrUnsupported)
}

// MapDumbBuffer implements wsurf.Windowing.
func (s *System) MapDumbBuffer(handle uint32, size int) ([]byte, error) {
	if s.mapper == nil {
		return nil, ErrNoMapper
	}
	mem, err := s.mapper.MapHandle(handle, size)
	if err != nil {
		return nil, err
	}
	if len(mem) == 0 {
		return nil, fmt.Errorf("memwin: empty mapping of handle %d", handle)
	}
	s.mu.Lock()
	s.mapped[&mem[0]] = handle
	s.mu.Unlock()
	return mem, nil
}

// UnmapDumbBuffer implements wsurf.Windowing.
func (s *System) UnmapDumbBuffer(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	s.mu.Lock()
	handle, ok := s.mapped[&mem[0]]
	delete(s.mapped, &mem[0])
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("memwin: unmap of unknown mapping")
	}
	return s.mapper.UnmapHandle(handle)
}

// Live returns the number of drawables not yet destroyed.
func (s *System) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Mapped returns the number of dumb buffers currently mapped.
func (s *System) Mapped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mapped)
}

// Drawable is CPU memory a window can show.
type Drawable struct {
	sys       *System
	img       *visual.Image
	destroyed bool
}

// Image returns the pixels of the drawable.
func (d *Drawable) Image() *visual.Image { return d.img }

// Destroy implements wsurf.Drawable.
func (d *Drawable) Destroy() error {
	if d.destroyed {
		return nil
	}
	d.destroyed = true
	d.sys.mu.Lock()
	d.sys.live--
	d.sys.mu.Unlock()
	return nil
}

// Window is an in-memory window with an RGBA framebuffer.
type Window struct {
	mu       sync.Mutex
	fb       *image.RGBA
	notifier wsurf.WindowNotifier
	dc       *DC
	closed   bool
}

var _ wsurf.Window = (*Window)(nil)

// NewWindow returns a window with a w×h client area.
func NewWindow(w, h int) *Window {
	win := &Window{fb: image.NewRGBA(image.Rect(0, 0, w, h))}
	win.dc = &DC{win: win}
	return win
}

// ClientRect implements wsurf.Window.
func (w *Window) ClientRect() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.fb.Bounds()
	return b.Dx(), b.Dy()
}

// PrivateDC implements wsurf.Window.
func (w *Window) PrivateDC() wsurf.DrawingContext { return w.dc }

// SetNotifier implements wsurf.Window.
func (w *Window) SetNotifier(n wsurf.WindowNotifier) {
	w.mu.Lock()
	w.notifier = n
	w.mu.Unlock()
}

// Resize changes the client area, keeping the overlapping pixels, and
// notifies the surface.
func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	fb := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Copy(fb, image.Point{}, w.fb, w.fb.Bounds(), draw.Src, nil)
	w.fb = fb
	n := w.notifier
	w.mu.Unlock()

	if n != nil {
		n.WindowResized(width, height)
	}
}

// Close destroys the window and notifies the surface.
func (w *Window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	n := w.notifier
	w.notifier = nil
	w.mu.Unlock()

	if n != nil {
		n.WindowDestroyed()
	}
}

// Snapshot returns a copy of the framebuffer.
func (w *Window) Snapshot() *image.RGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := image.NewRGBA(w.fb.Bounds())
	copy(out.Pix, w.fb.Pix)
	return out
}

// Blits returns the number of blits the window received.
func (w *Window) Blits() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dc.blits
}

// DC is the drawing context of a Window.
type DC struct {
	win   *Window
	clip  []image.Rectangle
	blits int
}

// SetClipRects implements wsurf.DrawingContext.
func (dc *DC) SetClipRects(rects []image.Rectangle) {
	dc.win.mu.Lock()
	dc.clip = append(dc.clip[:0], rects...)
	dc.win.mu.Unlock()
}

// Blit implements wsurf.DrawingContext. Only the clip rects are updated when
// any are set.
func (dc *DC) Blit(src wsurf.Drawable, w, h int) error {
	d, ok := src.(*Drawable)
	if !ok {
		return fmt.Errorf("memwin: foreign drawable %T", src)
	}
	if d.destroyed {
		return fmt.Errorf("memwin: blit of destroyed drawable")
	}

	win := dc.win
	win.mu.Lock()
	defer win.mu.Unlock()
	if win.closed {
		return fmt.Errorf("memwin: window closed")
	}

	area := image.Rect(0, 0, w, h).Intersect(d.img.Bounds()).Intersect(win.fb.Bounds())
	rects := dc.clip
	if len(rects) == 0 {
		rects = []image.Rectangle{area}
	}
	for _, r := range rects {
		r = r.Intersect(area)
		if r.Empty() {
			continue
		}
		draw.Draw(win.fb, r, d.img, r.Min, draw.Src)
	}
	dc.blits++
	return nil
}
