// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wsurf

import (
	"fmt"

	"github.com/gogpu/wsurf/visual"
)

// Kind is the presentation path of a display.
type Kind int

const (
	// KindGPU presents backend images through native drawables.
	KindGPU Kind = iota

	// KindSoftware presents CPU memory filled by a software backend.
	KindSoftware
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindGPU:
		return "gpu"
	case KindSoftware:
		return "software"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Colorspace selects the encoding of a window surface.
type Colorspace int

const (
	ColorspaceLinear Colorspace = iota
	ColorspaceSRGB
)

// SurfaceAttribs are the optional attributes of a window surface.
type SurfaceAttribs struct {
	Colorspace Colorspace
}

// Display binds a window system to a rendering backend.
//
// A Display and its surfaces are not safe for concurrent use. The format
// table and support set are fixed at Open and may be read from anywhere.
type Display struct {
	ws      Windowing
	backend Backend
	images  ImageBackend // nil on software displays

	kind        Kind
	opts        displayOptions
	caps        Capability
	crossDevice bool

	configs []*Config
	counts  [visual.Count]int

	surfaces   map[*Surface]struct{}
	lastErr    Code
	terminated bool
}

// Open initializes a display. Unless WithForceSoftware is given it first
// tries the GPU path, which needs an ImageBackend (and an ImageBlitter when
// cross-device). If that fails it falls back to the software path.
func Open(ws Windowing, backend Backend, opts ...Option) (*Display, error) {
	if ws == nil || backend == nil {
		return nil, ErrBadDisplay
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := &Display{
		ws:       ws,
		backend:  backend,
		opts:     o,
		caps:     ws.Capabilities(),
		surfaces: make(map[*Surface]struct{}),
		lastErr:  CodeSuccess,
	}
	if o.capsSet {
		d.caps = o.caps
	}

	log := Logger()
	propagateLogger(log, backend, ws)

	if !o.forceSoftware {
		err := d.initGPU()
		if err == nil {
			log.Info("wsurf: display initialized", "kind", d.kind, "configs", len(d.configs),
				"crossDevice", d.crossDevice, "formats", o.formats)
			return d, nil
		}
		log.Warn("wsurf: GPU initialization failed, using software path", "err", err)
	}

	if err := d.initSoftware(); err != nil {
		return nil, err
	}
	log.Info("wsurf: display initialized", "kind", d.kind, "configs", len(d.configs), "formats", o.formats)
	return d, nil
}

func (d *Display) initGPU() error {
	images, ok := d.backend.(ImageBackend)
	if !ok {
		return fmt.Errorf("%w: backend cannot create images", ErrNotInitialized)
	}
	if d.opts.crossDevice {
		if _, ok := d.backend.(ImageBlitter); !ok {
			return fmt.Errorf("%w: cross-device rendering needs image blits", ErrNotInitialized)
		}
	}
	n, err := negotiateConfigs(d, d.backend.Configs(), d.opts.formats, d.opts.crossDevice)
	if err != nil {
		return err
	}
	d.kind = KindGPU
	d.images = images
	d.crossDevice = d.opts.crossDevice
	d.configs, d.counts = n.configs, n.counts
	return nil
}

func (d *Display) initSoftware() error {
	n, err := negotiateConfigs(d, d.backend.Configs(), d.opts.formats, false)
	if err != nil {
		return err
	}
	d.kind = KindSoftware
	d.images = nil
	d.crossDevice = false
	d.configs, d.counts = n.configs, n.counts
	return nil
}

// Kind returns the presentation path chosen at Open.
func (d *Display) Kind() Kind { return d.kind }

// CrossDevice reports whether rendering and presentation devices differ.
func (d *Display) CrossDevice() bool { return d.crossDevice }

// Capabilities returns the buffer import capabilities in effect.
func (d *Display) Capabilities() Capability { return d.caps }

// Formats returns the visuals the window system accepts.
func (d *Display) Formats() visual.FormatSet { return d.opts.formats }

// Configs returns the advertised configs.
func (d *Display) Configs() []*Config {
	out := make([]*Config, len(d.configs))
	copy(out, d.configs)
	return out
}

// ConfigCount returns how many configs render in visual idx.
func (d *Display) ConfigCount(idx int) int {
	if idx < 0 || idx >= visual.Count {
		return 0
	}
	return d.counts[idx]
}

// ChooseConfig returns the first config that renders in visual idx.
func (d *Display) ChooseConfig(idx int) (*Config, bool) {
	for _, c := range d.configs {
		if c.visual == idx {
			return c, true
		}
	}
	return nil, false
}

// GetError returns the code of the last failing call and resets it to
// CodeSuccess.
func (d *Display) GetError() Code {
	c := d.lastErr
	d.lastErr = CodeSuccess
	return c
}

// record stores the code of err and returns err.
func (d *Display) record(err error) error {
	d.lastErr = CodeOf(err)
	return err
}

// CreateWindowSurface creates a surface presenting to win.
func (d *Display) CreateWindowSurface(cfg *Config, win Window, attrs *SurfaceAttribs) (*Surface, error) {
	if d.terminated {
		return nil, d.record(ErrNotInitialized)
	}
	if win == nil {
		return nil, d.record(ErrBadNativeWindow)
	}
	if err := d.checkConfig(cfg, attrs); err != nil {
		return nil, d.record(err)
	}

	s := newSurface(d, cfg, win)
	s.width, s.height = win.ClientRect()
	if err := s.createBackendDrawable(); err != nil {
		return nil, d.record(err)
	}
	win.SetNotifier(windowHooks{s: s})
	d.surfaces[s] = struct{}{}

	Logger().Debug("wsurf: window surface created", "visual", cfg.Visual().Name,
		"width", s.width, "height", s.height, "kind", d.kind)
	return s, d.record(nil)
}

// CreatePbufferSurface creates an off-screen surface. Swaps on it do nothing.
func (d *Display) CreatePbufferSurface(cfg *Config, width, height int) (*Surface, error) {
	if d.terminated {
		return nil, d.record(ErrNotInitialized)
	}
	if width < 0 || height < 0 {
		return nil, d.record(fmt.Errorf("%w: pbuffer size %dx%d", ErrBadParameter, width, height))
	}
	if err := d.checkConfig(cfg, nil); err != nil {
		return nil, d.record(err)
	}

	s := newSurface(d, cfg, nil)
	s.pbuffer = true
	s.width, s.height = width, height
	if err := s.createBackendDrawable(); err != nil {
		return nil, d.record(err)
	}
	d.surfaces[s] = struct{}{}
	return s, d.record(nil)
}

// CreatePixmapSurface always fails: the window system has no pixmaps.
func (d *Display) CreatePixmapSurface(*Config, any) (*Surface, error) {
	return nil, d.record(fmt.Errorf("%w: pixmap surfaces", ErrBadParameter))
}

// CreatePixmapImage always fails: the window system has no pixmaps.
func (d *Display) CreatePixmapImage(any) (Image, error) {
	return nil, d.record(fmt.Errorf("%w: pixmap images", ErrBadParameter))
}

// Terminate destroys every surface of the display. Further surface creation
// fails with ErrNotInitialized.
func (d *Display) Terminate() error {
	if d.terminated {
		return nil
	}
	for s := range d.surfaces {
		_ = s.Destroy()
	}
	d.terminated = true
	d.configs = nil
	return nil
}

func (d *Display) checkConfig(cfg *Config, attrs *SurfaceAttribs) error {
	if cfg == nil || cfg.display != d {
		return fmt.Errorf("%w: config does not belong to this display", ErrBadMatch)
	}
	if attrs != nil && attrs.Colorspace == ColorspaceSRGB {
		sc, ok := cfg.backend.(SRGBConfig)
		if !ok || !sc.SRGBCapable() {
			return fmt.Errorf("%w: config is not sRGB capable", ErrBadMatch)
		}
	}
	return nil
}
