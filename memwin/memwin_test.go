package memwin

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/wsurf/visual"
)

type recordingNotifier struct {
	resized   []image.Point
	destroyed int
}

func (n *recordingNotifier) WindowResized(w, h int) { n.resized = append(n.resized, image.Pt(w, h)) }
func (n *recordingNotifier) WindowDestroyed()       { n.destroyed++ }

type fakeMapper struct {
	mem      map[uint32][]byte
	unmapped []uint32
}

func (m *fakeMapper) MapHandle(handle uint32, size int) ([]byte, error) {
	b, ok := m.mem[handle]
	if !ok {
		return nil, errors.New("no such handle")
	}
	return b[:size], nil
}

func (m *fakeMapper) UnmapHandle(handle uint32) error {
	m.unmapped = append(m.unmapped, handle)
	return nil
}

// solid returns XRGB8888 pixels of one color.
func solid(w, h int, r, g, b byte) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2] = b, g, r
	}
	return pix
}

func TestBlit(t *testing.T) {
	sys := New()
	d, err := sys.CreateMemDrawable(4, 4, visual.At(visual.XRGB8888), solid(4, 4, 0xff, 0, 0), 16)
	if err != nil {
		t.Fatalf("CreateMemDrawable: %v", err)
	}
	win := NewWindow(4, 4)
	if err := win.PrivateDC().Blit(d, 4, 4); err != nil {
		t.Fatalf("Blit: %v", err)
	}

	fb := win.Snapshot()
	want := color.RGBA{R: 0xff, A: 0xff}
	if got := fb.RGBAAt(3, 3); got != want {
		t.Errorf("pixel (3,3) = %v, want %v", got, want)
	}
	if win.Blits() != 1 {
		t.Errorf("Blits() = %d, want 1", win.Blits())
	}
}

func TestBlitClipped(t *testing.T) {
	sys := New()
	d, _ := sys.CreateMemDrawable(4, 4, visual.At(visual.XRGB8888), solid(4, 4, 0, 0xff, 0), 16)
	win := NewWindow(4, 4)
	dc := win.PrivateDC()

	dc.SetClipRects([]image.Rectangle{image.Rect(0, 0, 2, 1)})
	if err := dc.Blit(d, 4, 4); err != nil {
		t.Fatalf("Blit: %v", err)
	}
	fb := win.Snapshot()
	if got := fb.RGBAAt(1, 0); got.G != 0xff {
		t.Errorf("pixel inside clip = %v", got)
	}
	if got := fb.RGBAAt(2, 0); got != (color.RGBA{}) {
		t.Errorf("pixel outside clip = %v, want untouched", got)
	}
	if got := fb.RGBAAt(0, 1); got != (color.RGBA{}) {
		t.Errorf("pixel below clip = %v, want untouched", got)
	}

	dc.SetClipRects(nil)
	if err := dc.Blit(d, 4, 4); err != nil {
		t.Fatalf("Blit: %v", err)
	}
	if got := win.Snapshot().RGBAAt(3, 3); got.G != 0xff {
		t.Errorf("unclipped blit left (3,3) = %v", got)
	}
}

func TestBlitRGB565(t *testing.T) {
	sys := New()
	pix := make([]byte, 2*2*2)
	for i := 0; i < len(pix); i += 2 {
		pix[i], pix[i+1] = 0x1f, 0x00 // blue
	}
	d, err := sys.CreateMemDrawable(2, 2, visual.At(visual.RGB565), pix, 4)
	if err != nil {
		t.Fatalf("CreateMemDrawable: %v", err)
	}
	win := NewWindow(2, 2)
	if err := win.PrivateDC().Blit(d, 2, 2); err != nil {
		t.Fatalf("Blit: %v", err)
	}
	if got := win.Snapshot().RGBAAt(0, 0); got != (color.RGBA{B: 0xff, A: 0xff}) {
		t.Errorf("pixel = %v, want opaque blue", got)
	}
}

func TestBlitErrors(t *testing.T) {
	sys := New()
	d, _ := sys.CreateMemDrawable(2, 2, visual.At(visual.XRGB8888), make([]byte, 16), 8)
	win := NewWindow(2, 2)

	win.Close()
	if err := win.PrivateDC().Blit(d, 2, 2); err == nil {
		t.Error("Blit on closed window succeeded")
	}

	win2 := NewWindow(2, 2)
	_ = d.Destroy()
	if err := win2.PrivateDC().Blit(d, 2, 2); err == nil {
		t.Error("Blit of destroyed drawable succeeded")
	}
}

func TestCreateMemDrawableTooSmall(t *testing.T) {
	sys := New()
	if _, err := sys.CreateMemDrawable(4, 4, visual.At(visual.XRGB8888), make([]byte, 10), 16); err == nil {
		t.Error("CreateMemDrawable accepted a short buffer")
	}
	if sys.Live() != 0 {
		t.Errorf("Live() = %d, want 0", sys.Live())
	}
}

func TestDrawableLifetime(t *testing.T) {
	sys := New()
	d, _ := sys.CreateMemDrawable(1, 1, visual.At(visual.ARGB8888), make([]byte, 4), 4)
	if sys.Live() != 1 {
		t.Fatalf("Live() = %d, want 1", sys.Live())
	}
	_ = d.Destroy()
	_ = d.Destroy()
	if sys.Live() != 0 {
		t.Errorf("Live() = %d after double destroy, want 0", sys.Live())
	}
}

func TestImportsUnsupported(t *testing.T) {
	sys := New()
	f := visual.At(visual.XRGB8888).FourCC
	if _, err := sys.CreateDrawableFromName(1, 4, 4, 16, f); !errors.Is(err, ErrUnsupported) {
		t.Errorf("CreateDrawableFromName = %v", err)
	}
	if _, err := sys.CreateDrawableFromPrime(3, 4, 4, 16, 0, f); !errors.Is(err, ErrUnsupported) {
		t.Errorf("CreateDrawableFromPrime = %v", err)
	}
	if _, err := sys.CreateDrawableFromHandle(1, 4, 4, 16, f); !errors.Is(err, ErrUnsupported) {
		t.Errorf("CreateDrawableFromHandle = %v", err)
	}
	if sys.Capabilities() != 0 {
		t.Errorf("Capabilities() = %v, want none", sys.Capabilities())
	}
}

func TestMapDumbBuffer(t *testing.T) {
	if _, err := New().MapDumbBuffer(1, 16); !errors.Is(err, ErrNoMapper) {
		t.Errorf("MapDumbBuffer without mapper = %v, want ErrNoMapper", err)
	}

	m := &fakeMapper{mem: map[uint32][]byte{7: make([]byte, 64)}}
	sys := New(WithMapper(m))
	mem, err := sys.MapDumbBuffer(7, 32)
	if err != nil {
		t.Fatalf("MapDumbBuffer: %v", err)
	}
	if len(mem) != 32 || sys.Mapped() != 1 {
		t.Errorf("mapped %d bytes, %d mappings", len(mem), sys.Mapped())
	}
	if _, err := sys.MapDumbBuffer(8, 32); err == nil {
		t.Error("MapDumbBuffer of unknown handle succeeded")
	}

	if err := sys.UnmapDumbBuffer(mem); err != nil {
		t.Fatalf("UnmapDumbBuffer: %v", err)
	}
	if sys.Mapped() != 0 || len(m.unmapped) != 1 || m.unmapped[0] != 7 {
		t.Errorf("after unmap: %d mappings, unmapped %v", sys.Mapped(), m.unmapped)
	}
	if err := sys.UnmapDumbBuffer(mem); err == nil {
		t.Error("second UnmapDumbBuffer succeeded")
	}
}

func TestWindowNotifications(t *testing.T) {
	win := NewWindow(10, 10)
	n := &recordingNotifier{}
	win.SetNotifier(n)

	win.Resize(20, 5)
	if w, h := win.ClientRect(); w != 20 || h != 5 {
		t.Errorf("ClientRect() = %dx%d, want 20x5", w, h)
	}
	if len(n.resized) != 1 || n.resized[0] != image.Pt(20, 5) {
		t.Errorf("resize notifications %v", n.resized)
	}

	win.Close()
	win.Close()
	if n.destroyed != 1 {
		t.Errorf("WindowDestroyed called %d times, want 1", n.destroyed)
	}
}

func TestResizeKeepsPixels(t *testing.T) {
	sys := New()
	d, _ := sys.CreateMemDrawable(2, 2, visual.At(visual.XRGB8888), solid(2, 2, 0, 0, 0xff), 8)
	win := NewWindow(2, 2)
	if err := win.PrivateDC().Blit(d, 2, 2); err != nil {
		t.Fatal(err)
	}
	win.Resize(3, 1)
	fb := win.Snapshot()
	if got := fb.RGBAAt(1, 0); got.B != 0xff {
		t.Errorf("kept pixel = %v", got)
	}
	if got := fb.RGBAAt(2, 0); got != (color.RGBA{}) {
		t.Errorf("new pixel = %v, want zero", got)
	}
}
