package visual

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

func TestIndexFromMasksRoundTrip(t *testing.T) {
	for i, v := range All() {
		got, ok := IndexFromMasks(v.Masks)
		if !ok || got != i {
			t.Errorf("IndexFromMasks(%s) = %d, %v; want %d, true", v.Name, got, ok, i)
		}
	}
}

func TestIndexFromFourCC(t *testing.T) {
	for i, v := range All() {
		got, ok := IndexFromFourCC(v.FourCC)
		if !ok || got != i {
			t.Errorf("IndexFromFourCC(%s) = %d, %v; want %d, true", v.FourCC, got, ok, i)
		}
	}
	if _, ok := IndexFromFourCC(NewFourCC('Y', 'U', 'Y', 'V')); ok {
		t.Error("IndexFromFourCC(YUYV) found an entry")
	}
}

func TestAltFormatsResolve(t *testing.T) {
	for _, v := range All() {
		if v.AltFormat == ImageFormatNone {
			continue
		}
		i, ok := IndexFromImageFormat(v.AltFormat)
		if !ok {
			t.Errorf("%s: alt format %v is not in the table", v.Name, v.AltFormat)
			continue
		}
		alt := At(i)
		if alt.BitsPerPixel != v.BitsPerPixel {
			t.Errorf("%s: alt %s has %d bpp, want %d", v.Name, alt.Name, alt.BitsPerPixel, v.BitsPerPixel)
		}
	}
}

func TestIndexFromImageFormatNone(t *testing.T) {
	if i, ok := IndexFromImageFormat(ImageFormatNone); ok {
		t.Errorf("IndexFromImageFormat(NONE) = %d, want not found", i)
	}
}

func TestIndexFromMasksUnknown(t *testing.T) {
	tests := []struct {
		name  string
		masks Masks
	}{
		{"BGR888", Masks{0x0000ff, 0x00ff00, 0xff0000, 0}},
		{"RGB555", Masks{0x7c00, 0x03e0, 0x001f, 0}},
		{"zero", Masks{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if i, ok := IndexFromMasks(tt.masks); ok {
				t.Errorf("IndexFromMasks = %d, want not found", i)
			}
		})
	}
}

func TestStride(t *testing.T) {
	tests := []struct {
		idx, width, want int
	}{
		{RGB565, 100, 200},
		{RGB565, 50, 100},
		{XRGB8888, 100, 400},
		{ABGR2101010, 3, 12},
	}
	for _, tt := range tests {
		if got := Stride(tt.idx, tt.width); got != tt.want {
			t.Errorf("Stride(%s, %d) = %d, want %d", At(tt.idx).Name, tt.width, got, tt.want)
		}
	}
}

func TestTableOrder(t *testing.T) {
	want := []string{"XRGB2101010", "ARGB2101010", "XBGR2101010", "ABGR2101010", "XRGB8888", "ARGB8888", "RGB565"}
	if Count != len(want) {
		t.Fatalf("Count = %d, want %d", Count, len(want))
	}
	for i, name := range want {
		if At(i).Name != name {
			t.Errorf("At(%d).Name = %q, want %q", i, At(i).Name, name)
		}
		if j, ok := IndexFromName(name); !ok || j != i {
			t.Errorf("IndexFromName(%q) = %d, %v", name, j, ok)
		}
	}
}

func TestFourCCString(t *testing.T) {
	if got := FourCCXRGB8888.String(); got != "XR24" {
		t.Errorf("FourCCXRGB8888 = %q, want XR24", got)
	}
	if got := FourCCRGB565.String(); got != "RG16" {
		t.Errorf("FourCCRGB565 = %q, want RG16", got)
	}
}

func TestImageFormatString(t *testing.T) {
	tests := []struct {
		f    ImageFormat
		want string
	}{
		{ImageFormatNone, "NONE"},
		{ImageFormatARGB8888, "ARGB8888"},
		{ImageFormat(0x2000), "ImageFormat(0x2000)"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestTextureFormat(t *testing.T) {
	if got := At(XRGB8888).TextureFormat(); got != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("XRGB8888.TextureFormat() = %v", got)
	}
	if got := At(RGB565).TextureFormat(); got != gputypes.TextureFormatUndefined {
		t.Errorf("RGB565.TextureFormat() = %v, want undefined", got)
	}
}

func TestFormatSet(t *testing.T) {
	s := DefaultFormats
	if s.Len() != 3 {
		t.Fatalf("DefaultFormats.Len() = %d, want 3", s.Len())
	}
	for _, i := range []int{XRGB8888, ARGB8888, RGB565} {
		if !s.Has(i) {
			t.Errorf("DefaultFormats missing %s", At(i).Name)
		}
	}
	if s.Has(XRGB2101010) {
		t.Error("DefaultFormats has XRGB2101010")
	}
	s = s.With(XBGR2101010).Without(ARGB8888)
	got := s.Indices()
	want := []int{XBGR2101010, XRGB8888, RGB565}
	if len(got) != len(want) {
		t.Fatalf("Indices() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Indices()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if s.Has(-1) || s.Has(MaxFormats) {
		t.Error("out of range index reported present")
	}
	if got := NewFormatSet(XRGB8888, 99).String(); got != "{XRGB8888}" {
		t.Errorf("String() = %q", got)
	}
}

func TestImageRoundTrip(t *testing.T) {
	tests := []struct {
		idx int
		c   color.RGBA64
	}{
		{XRGB8888, color.RGBA64{R: 0xffff, G: 0x8080, B: 0, A: 0xffff}},
		{ARGB8888, color.RGBA64{R: 0x1010, G: 0x2020, B: 0x3030, A: 0x8080}},
		{RGB565, color.RGBA64{R: 0xffff, G: 0, B: 0xffff, A: 0xffff}},
		{XBGR2101010, color.RGBA64{R: 0xffff, G: 0, B: 0, A: 0xffff}},
		{ARGB2101010, color.RGBA64{R: 0, G: 0xffff, B: 0, A: 0xffff}},
	}
	for _, tt := range tests {
		t.Run(At(tt.idx).Name, func(t *testing.T) {
			stride := Stride(tt.idx, 2)
			img := NewImage(tt.idx, 2, 2, stride, make([]byte, 2*stride))
			if img == nil {
				t.Fatal("NewImage returned nil")
			}
			img.SetRGBA64(1, 1, tt.c)
			if got := img.RGBA64At(1, 1); got != tt.c {
				t.Errorf("RGBA64At = %v, want %v", got, tt.c)
			}
			if got := img.RGBA64At(0, 0); got.R != 0 || got.G != 0 || got.B != 0 {
				t.Errorf("untouched pixel = %v", got)
			}
		})
	}
}

func TestImagePixelLayout(t *testing.T) {
	pix := make([]byte, 4)
	img := NewImage(XRGB8888, 1, 1, 4, pix)
	img.Set(0, 0, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff})
	want := []byte{0x33, 0x22, 0x11, 0x00}
	for i := range want {
		if pix[i] != want[i] {
			t.Fatalf("pix = % x, want % x", pix, want)
		}
	}

	pix16 := make([]byte, 2)
	img = NewImage(RGB565, 1, 1, 2, pix16)
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	if pix16[0] != 0x00 || pix16[1] != 0xf8 {
		t.Errorf("RGB565 red = % x, want 00 f8", pix16)
	}
}

func TestNewImageTooSmall(t *testing.T) {
	if img := NewImage(XRGB8888, 4, 4, 16, make([]byte, 20)); img != nil {
		t.Error("NewImage accepted a short buffer")
	}
	if img := NewImage(XRGB8888, 4, 4, 8, make([]byte, 64)); img != nil {
		t.Error("NewImage accepted a stride narrower than a row")
	}
}

func TestImageDraw(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(src, src.Bounds(), image.NewUniform(color.RGBA{B: 0xff, A: 0xff}), image.Point{}, draw.Src)

	stride := Stride(RGB565, 4)
	dst := NewImage(RGB565, 4, 4, stride, make([]byte, 4*stride))
	draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
	if got := dst.RGBA64At(3, 3); got.B != 0xffff || got.R != 0 {
		t.Errorf("drawn pixel = %v, want blue", got)
	}
	if !dst.Opaque() {
		t.Error("RGB565 image should be opaque")
	}
}
