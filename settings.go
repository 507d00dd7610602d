package wsurf

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/wsurf/visual"
)

// Settings is the optional YAML form of the display options.
//
//	force_software: false
//	cross_device: true
//	formats: [XRGB8888, XBGR2101010]
//	capabilities: [prime, name]
//	swap_interval: 0
//	modifiers:
//	  XRGB8888: [0]
type Settings struct {
	ForceSoftware bool                `yaml:"force_software,omitempty"`
	CrossDevice   bool                `yaml:"cross_device,omitempty"`
	Formats       []string            `yaml:"formats,omitempty"`
	Capabilities  []string            `yaml:"capabilities,omitempty"`
	SwapInterval  *int                `yaml:"swap_interval,omitempty"`
	Modifiers     map[string][]uint64 `yaml:"modifiers,omitempty"`
}

// LoadSettings reads a settings file. A missing file yields empty settings.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("wsurf: read settings: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes YAML settings.
func ParseSettings(data []byte) (*Settings, error) {
	var st Settings
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("wsurf: parse settings: %w", err)
	}
	return &st, nil
}

// Options converts the settings into display options. Unknown format or
// capability names are reported as ErrBadParameter.
func (st *Settings) Options() ([]Option, error) {
	var opts []Option
	if st.ForceSoftware {
		opts = append(opts, WithForceSoftware())
	}
	if st.CrossDevice {
		opts = append(opts, WithCrossDevice(true))
	}
	if len(st.Formats) > 0 {
		var set visual.FormatSet
		for _, name := range st.Formats {
			i, ok := visual.IndexFromName(strings.TrimSpace(name))
			if !ok {
				return nil, fmt.Errorf("%w: unknown format %q", ErrBadParameter, name)
			}
			set = set.With(i)
		}
		opts = append(opts, WithFormats(set))
	}
	if st.Capabilities != nil {
		var caps Capability
		for _, name := range st.Capabilities {
			switch strings.ToLower(strings.TrimSpace(name)) {
			case "prime":
				caps |= CapPrime
			case "name":
				caps |= CapName
			default:
				return nil, fmt.Errorf("%w: unknown capability %q", ErrBadParameter, name)
			}
		}
		opts = append(opts, WithCapabilities(caps))
	}
	if st.SwapInterval != nil {
		opts = append(opts, WithSwapInterval(*st.SwapInterval))
	}

	names := make([]string, 0, len(st.Modifiers))
	for name := range st.Modifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		i, ok := visual.IndexFromName(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown format %q", ErrBadParameter, name)
		}
		opts = append(opts, WithModifiers(i, st.Modifiers[name]...))
	}
	return opts, nil
}
