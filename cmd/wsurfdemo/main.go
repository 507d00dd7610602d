// Command wsurfdemo presents a few frames to an in-memory window and saves
// the window contents as PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/image/draw"

	"github.com/gogpu/wsurf"
	"github.com/gogpu/wsurf/halbackend"
	"github.com/gogpu/wsurf/memwin"
	"github.com/gogpu/wsurf/swrast"
	"github.com/gogpu/wsurf/visual"
)

func main() {
	var (
		width   = flag.Int("width", 320, "window width")
		height  = flag.Int("height", 240, "window height")
		frames  = flag.Int("frames", 3, "frames to present")
		resize  = flag.String("resize", "", "resize the window to WxH after the first frame")
		format  = flag.String("format", "XRGB8888", "surface visual")
		config  = flag.String("config", "", "YAML display settings")
		useGPU  = flag.Bool("gpu", false, "present through the HAL image backend (noop device)")
		output  = flag.String("output", "wsurf.png", "output file")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		wsurf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var opts []wsurf.Option
	if *config != "" {
		st, err := wsurf.LoadSettings(*config)
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
		if opts, err = st.Options(); err != nil {
			log.Fatalf("Invalid settings: %v", err)
		}
	}
	idx, ok := visual.IndexFromName(*format)
	if !ok {
		log.Fatalf("Unknown format %q", *format)
	}

	win := memwin.NewWindow(*width, *height)
	frame := 0
	render := func(dst draw.Image) {
		drawGradient(dst, frame)
	}

	var (
		sys     *memwin.System
		backend wsurf.Backend
		hb      *halbackend.Backend
	)
	if *useGPU {
		var err error
		hb, err = openHAL()
		if err != nil {
			log.Fatalf("Failed to open HAL device: %v", err)
		}
		defer hb.Close()
		sys, backend = memwin.New(memwin.WithMapper(hb)), hb
	} else {
		sys, backend = memwin.New(), swrast.New(render)
	}

	d, err := wsurf.Open(sys, backend, opts...)
	if err != nil {
		log.Fatalf("Failed to open display: %v", err)
	}
	defer func() { _ = d.Terminate() }()

	cfg, ok := d.ChooseConfig(idx)
	if !ok {
		log.Fatalf("No %s config on the %v display", *format, d.Kind())
	}
	s, err := d.CreateWindowSurface(cfg, win, nil)
	if err != nil {
		log.Fatalf("Failed to create surface: %v (%v)", err, d.GetError())
	}

	for frame = 0; frame < *frames; frame++ {
		if frame == 1 && *resize != "" {
			var w, h int
			if _, err := fmt.Sscanf(*resize, "%dx%d", &w, &h); err != nil {
				log.Fatalf("Bad -resize %q: %v", *resize, err)
			}
			win.Resize(w, h)
		}
		if hb != nil {
			if err := uploadFrame(hb, s, render); err != nil {
				log.Fatalf("Frame %d: %v", frame, err)
			}
		}
		if err := s.SwapBuffers(); err != nil {
			log.Fatalf("Frame %d: swap failed: %v (%v)", frame, err, d.GetError())
		}
	}

	if err := savePNG(*output, win.Snapshot()); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	w, h := s.Size()
	log.Printf("Presented %d frames on a %v display, saved %s (%dx%d, degraded=%v)\n",
		*frames, d.Kind(), *output, w, h, s.Degraded())
}

func openHAL() (*halbackend.Backend, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no adapter")
	}
	dev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return nil, err
	}
	return halbackend.New(dev.Device, dev.Queue)
}

// uploadFrame renders on the CPU and uploads the result into the back image.
func uploadFrame(hb *halbackend.Backend, s *wsurf.Surface, render func(draw.Image)) error {
	img, w, h, err := s.GetBuffers()
	if err != nil {
		return err
	}
	idx := img.(*halbackend.Image).Visual()
	stride := visual.Stride(idx, w)
	pix := make([]byte, stride*h)
	render(visual.NewImage(idx, w, h, stride, pix))
	return hb.Upload(img, pix, stride)
}

func drawGradient(dst draw.Image, frame int) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, color.RGBA{
				R: uint8(255 * x / max(b.Dx(), 1)),
				G: uint8(255 * y / max(b.Dy(), 1)),
				B: uint8(frame * 60),
				A: 0xff,
			})
		}
	}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
