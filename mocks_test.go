package wsurf

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/wsurf/visual"
)

var errMock = errors.New("mock failure")

// mockDrawable is a native drawable created by mockWindowing.
type mockDrawable struct {
	kind      string
	width     int
	height    int
	stride    int
	pix       []byte
	format    visual.FourCC
	destroyed bool
}

func (d *mockDrawable) Destroy() error {
	d.destroyed = true
	return nil
}

// mockWindowing implements Windowing and records every drawable it creates.
type mockWindowing struct {
	caps       Capability
	failPrime  bool
	failName   bool
	failHandle bool
	failMap    bool
	failMem    bool

	drawables []*mockDrawable
	mapped    int
}

func newMockWindowing() *mockWindowing {
	return &mockWindowing{}
}

func (w *mockWindowing) Capabilities() Capability { return w.caps }

func (w *mockWindowing) add(d *mockDrawable) *mockDrawable {
	w.drawables = append(w.drawables, d)
	return d
}

func (w *mockWindowing) CreateMemDrawable(width, height int, v visual.Visual, pix []byte, stride int) (Drawable, error) {
	if w.failMem {
		return nil, errMock
	}
	return w.add(&mockDrawable{kind: "mem", width: width, height: height, stride: stride, pix: pix, format: v.FourCC}), nil
}

func (w *mockWindowing) CreateDrawableFromName(_ uint32, width, height, stride int, f visual.FourCC) (Drawable, error) {
	if w.failName {
		return nil, errMock
	}
	return w.add(&mockDrawable{kind: "name", width: width, height: height, stride: stride, format: f}), nil
}

func (w *mockWindowing) CreateDrawableFromPrime(_, width, height, stride, _ int, f visual.FourCC) (Drawable, error) {
	if w.failPrime {
		return nil, errMock
	}
	return w.add(&mockDrawable{kind: "prime", width: width, height: height, stride: stride, format: f}), nil
}

func (w *mockWindowing) CreateDrawableFromHandle(_ uint32, width, height, stride int, f visual.FourCC) (Drawable, error) {
	if w.failHandle {
		return nil, errMock
	}
	return w.add(&mockDrawable{kind: "handle", width: width, height: height, stride: stride, format: f}), nil
}

func (w *mockWindowing) MapDumbBuffer(_ uint32, size int) ([]byte, error) {
	if w.failMap {
		return nil, errMock
	}
	w.mapped++
	return make([]byte, size), nil
}

func (w *mockWindowing) UnmapDumbBuffer([]byte) error {
	w.mapped--
	return nil
}

// live returns the drawables not yet destroyed.
func (w *mockWindowing) live() []*mockDrawable {
	var out []*mockDrawable
	for _, d := range w.drawables {
		if !d.destroyed {
			out = append(out, d)
		}
	}
	return out
}

// mockDC records clip rects and blits.
type mockDC struct {
	clip     []image.Rectangle
	blits    []*mockDrawable
	failBlit bool
}

func (dc *mockDC) SetClipRects(rects []image.Rectangle) { dc.clip = rects }

func (dc *mockDC) Blit(src Drawable, _, _ int) error {
	if dc.failBlit {
		return errMock
	}
	dc.blits = append(dc.blits, src.(*mockDrawable))
	return nil
}

func (dc *mockDC) last() *mockDrawable {
	if len(dc.blits) == 0 {
		return nil
	}
	return dc.blits[len(dc.blits)-1]
}

// mockWindow implements Window with a settable client size.
type mockWindow struct {
	width, height int
	notifier      WindowNotifier
	dc            mockDC
}

func newMockWindow(w, h int) *mockWindow {
	return &mockWindow{width: w, height: h}
}

func (w *mockWindow) ClientRect() (int, int)       { return w.width, w.height }
func (w *mockWindow) PrivateDC() DrawingContext    { return &w.dc }
func (w *mockWindow) SetNotifier(n WindowNotifier) { w.notifier = n }

// mockConfig implements BackendConfig and SRGBConfig.
type mockConfig struct {
	masks visual.Masks
	srgb  bool
}

func (c mockConfig) Masks() visual.Masks { return c.masks }
func (c mockConfig) SRGBCapable() bool   { return c.srgb }

func configsFor(indices ...int) []BackendConfig {
	out := make([]BackendConfig, 0, len(indices))
	for _, i := range indices {
		out = append(out, mockConfig{masks: visual.At(i).Masks})
	}
	return out
}

type mockBackendDrawable struct {
	loader any
}

// mockBackend is a software backend: it has configs and drawables but cannot
// create images. SwapBuffers runs onSwap with the surface loader.
type mockBackend struct {
	configs      []BackendConfig
	failDrawable bool
	drawables    []*mockBackendDrawable
	destroyed    int
	swaps        int
	onSwap       func(l SoftwareLoader) error
}

func newMockBackend(indices ...int) *mockBackend {
	return &mockBackend{configs: configsFor(indices...)}
}

func (b *mockBackend) Configs() []BackendConfig { return b.configs }

func (b *mockBackend) CreateDrawable(_ BackendConfig, loader any) (BackendDrawable, error) {
	if b.failDrawable {
		return nil, errMock
	}
	d := &mockBackendDrawable{loader: loader}
	b.drawables = append(b.drawables, d)
	return d, nil
}

func (b *mockBackend) DestroyDrawable(BackendDrawable) { b.destroyed++ }

func (b *mockBackend) SwapBuffers(d BackendDrawable) error {
	b.swaps++
	if b.onSwap == nil {
		return nil
	}
	return b.onSwap(d.(*mockBackendDrawable).loader.(SoftwareLoader))
}

// mockImage is an image created by mockGPUBackend.
type mockImage struct {
	id        int
	width     int
	height    int
	format    visual.ImageFormat
	usage     ImageUsage
	mods      []uint64
	stride    int
	destroyed bool
}

// mockGPUBackend implements ImageBackend, ImageBlitter, Flusher and
// Invalidator.
type mockGPUBackend struct {
	*mockBackend
	images      []*mockImage
	failCreate  bool
	noFD        bool
	noName      bool
	noHandle    bool
	failBlit    bool
	flushes     int
	invalidates int
	blits       [][2]*mockImage
}

func newMockGPUBackend(indices ...int) *mockGPUBackend {
	return &mockGPUBackend{mockBackend: newMockBackend(indices...)}
}

func (b *mockGPUBackend) newImage(w, h int, f visual.ImageFormat) (*mockImage, error) {
	if b.failCreate {
		return nil, errMock
	}
	i, ok := visual.IndexFromImageFormat(f)
	if !ok {
		return nil, errMock
	}
	img := &mockImage{id: len(b.images) + 1, width: w, height: h, format: f, stride: visual.Stride(i, w)}
	b.images = append(b.images, img)
	return img, nil
}

func (b *mockGPUBackend) CreateImage(w, h int, f visual.ImageFormat, usage ImageUsage) (Image, error) {
	img, err := b.newImage(w, h, f)
	if err != nil {
		return nil, err
	}
	img.usage = usage
	return img, nil
}

func (b *mockGPUBackend) DestroyImage(img Image) { img.(*mockImage).destroyed = true }

func (b *mockGPUBackend) QueryImage(img Image, attr ImageAttrib) (int, bool) {
	m := img.(*mockImage)
	switch attr {
	case AttribName:
		return 100 + m.id, !b.noName
	case AttribHandle:
		return m.id, !b.noHandle
	case AttribFD:
		return 1000 + m.id, !b.noFD
	case AttribStride:
		return m.stride, true
	case AttribOffset:
		return 0, true
	case AttribFourCC:
		i, _ := visual.IndexFromImageFormat(m.format)
		return int(visual.At(i).FourCC), true
	case AttribFormat:
		return int(m.format), true
	case AttribNumPlanes:
		return 1, true
	case AttribWidth:
		return m.width, true
	case AttribHeight:
		return m.height, true
	}
	return 0, false
}

func (b *mockGPUBackend) BlitImage(dst, src Image, _, _ image.Rectangle, _ bool) error {
	if b.failBlit {
		return errMock
	}
	b.blits = append(b.blits, [2]*mockImage{dst.(*mockImage), src.(*mockImage)})
	return nil
}

func (b *mockGPUBackend) Flush(BackendDrawable)      { b.flushes++ }
func (b *mockGPUBackend) Invalidate(BackendDrawable) { b.invalidates++ }

// liveImages returns the images not yet destroyed.
func (b *mockGPUBackend) liveImages() []*mockImage {
	var out []*mockImage
	for _, img := range b.images {
		if !img.destroyed {
			out = append(out, img)
		}
	}
	return out
}

// mockModifierBackend adds modifier aware image creation.
type mockModifierBackend struct {
	*mockGPUBackend
	modCalls int
}

func (b *mockModifierBackend) CreateImageWithModifiers(w, h int, f visual.ImageFormat, mods []uint64) (Image, error) {
	b.modCalls++
	img, err := b.newImage(w, h, f)
	if err != nil {
		return nil, err
	}
	img.mods = append([]uint64(nil), mods...)
	return img, nil
}

// stubFDs replaces closeFD for the duration of the test and returns the
// descriptors it was asked to close.
func stubFDs(t *testing.T) *[]int {
	t.Helper()
	var closed []int
	orig := closeFD
	closeFD = func(fd int) error {
		closed = append(closed, fd)
		return nil
	}
	t.Cleanup(func() { closeFD = orig })
	return &closed
}

// openGPU opens a GPU display on a mock backend.
func openGPU(t *testing.T, ws *mockWindowing, be Backend, opts ...Option) *Display {
	t.Helper()
	d, err := Open(ws, be, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.Kind() != KindGPU {
		t.Fatalf("Kind() = %v, want gpu", d.Kind())
	}
	t.Cleanup(func() { _ = d.Terminate() })
	return d
}

// openSoftware opens a software display on a mock backend.
func openSoftware(t *testing.T, ws *mockWindowing, be Backend, opts ...Option) *Display {
	t.Helper()
	d, err := Open(ws, be, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.Kind() != KindSoftware {
		t.Fatalf("Kind() = %v, want software", d.Kind())
	}
	t.Cleanup(func() { _ = d.Terminate() })
	return d
}

func windowSurface(t *testing.T, d *Display, idx int, win Window) *Surface {
	t.Helper()
	cfg, ok := d.ChooseConfig(idx)
	if !ok {
		t.Fatalf("no config for %s", visual.At(idx).Name)
	}
	s, err := d.CreateWindowSurface(cfg, win, nil)
	if err != nil {
		t.Fatalf("CreateWindowSurface: %v", err)
	}
	return s
}

// frame acquires a back buffer through the loader and presents it.
func frame(t *testing.T, s *Surface, damage ...Rect) {
	t.Helper()
	if _, _, _, err := s.GetBuffers(); err != nil {
		t.Fatalf("GetBuffers: %v", err)
	}
	if err := s.SwapBuffersWithDamage(damage); err != nil {
		t.Fatalf("SwapBuffers: %v", err)
	}
}
