// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wsurf

import (
	"fmt"

	"github.com/gogpu/wsurf/visual"
)

// Config is a framebuffer config advertised by a Display. It pairs a backend
// config with the visual it renders in and the visual it is presented in.
type Config struct {
	display *Display
	backend BackendConfig
	visual  int
	target  int
}

// Backend returns the backend config.
func (c *Config) Backend() BackendConfig { return c.backend }

// VisualIndex returns the index of the visual the backend renders in.
func (c *Config) VisualIndex() int { return c.visual }

// Visual returns the visual the backend renders in.
func (c *Config) Visual() visual.Visual { return visual.At(c.visual) }

// TargetIndex returns the index of the visual the window receives. It
// differs from VisualIndex only for configs that are converted through the
// alternate format on cross-device displays.
func (c *Config) TargetIndex() int { return c.target }

// Converted reports whether presentation converts to another visual.
func (c *Config) Converted() bool { return c.target != c.visual }

// negotiation is the outcome of matching backend configs to visuals.
type negotiation struct {
	configs []*Config
	counts  [visual.Count]int
}

// negotiateConfigs registers a display config for every backend config whose
// masks equal those of a supported visual. On cross-device displays a config
// that matched nothing is still registered when the alternate format of its
// own visual belongs to a supported visual; presentation then converts into
// that visual. The alternate of an alternate is never followed.
func negotiateConfigs(d *Display, bcs []BackendConfig, support visual.FormatSet, crossDevice bool) (negotiation, error) {
	var n negotiation
	log := Logger()

	for _, bc := range bcs {
		if bc == nil {
			continue
		}
		masks := bc.Masks()
		assigned := false
		for _, j := range support.Indices() {
			if j >= visual.Count || visual.At(j).Masks != masks {
				continue
			}
			n.configs = append(n.configs, &Config{display: d, backend: bc, visual: j, target: j})
			n.counts[j]++
			assigned = true
		}
		if assigned || !crossDevice {
			continue
		}

		c, ok := visual.IndexFromMasks(masks)
		if !ok {
			continue
		}
		s, ok := visual.IndexFromImageFormat(visual.At(c).AltFormat)
		if !ok || !support.Has(s) {
			continue
		}
		n.configs = append(n.configs, &Config{display: d, backend: bc, visual: c, target: s})
		n.counts[c]++
		log.Debug("wsurf: config converted for presentation",
			"visual", visual.At(c).Name, "target", visual.At(s).Name)
	}

	for _, i := range support.Indices() {
		if i < visual.Count && n.counts[i] == 0 {
			log.Debug("wsurf: no backend config supports native format", "visual", visual.At(i).Name)
		}
	}

	if len(n.configs) == 0 {
		return n, fmt.Errorf("%w: %d backend configs, formats %v", ErrUnsupportedFormat, len(bcs), support)
	}
	return n, nil
}
