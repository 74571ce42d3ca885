package composite

import (
	"fmt"
	"strings"
)

// Resolution is the linear divisor the volume is rendered at.
type Resolution int

// Render resolutions.
const (
	Full    Resolution = 1
	Half    Resolution = 2
	Quarter Resolution = 4
)

// ParseResolution converts a config string to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(s) {
	case "", "full":
		return Full, nil
	case "half":
		return Half, nil
	case "quarter":
		return Quarter, nil
	}
	return Full, fmt.Errorf("unknown resolution %q", s)
}

func (r Resolution) String() string {
	switch r {
	case Full:
		return "full"
	case Half:
		return "half"
	case Quarter:
		return "quarter"
	}
	return fmt.Sprintf("Resolution(%d)", int(r))
}

// Filter is the reconstruction filter of the upscale passes.
type Filter int

// Upscale filters.
const (
	Bilinear Filter = iota
	Bicubic
)

// ParseFilter converts a config string to a Filter.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "bilinear":
		return Bilinear, nil
	case "", "bicubic":
		return Bicubic, nil
	}
	return Bilinear, fmt.Errorf("unknown upscale filter %q", s)
}

func (f Filter) String() string {
	switch f {
	case Bilinear:
		return "bilinear"
	case Bicubic:
		return "bicubic"
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// DebugView replaces the blended output with one raw input.
type DebugView int

// Debug views.
const (
	ViewNone DebugView = iota
	ViewAlbedo
	ViewMask
	ViewSmokeDepth
	ViewSceneDepth
)

var debugViewNames = []string{"none", "albedo", "mask", "smoke-depth", "scene-depth"}

// ParseDebugView converts a config string to a DebugView.
func ParseDebugView(s string) (DebugView, error) {
	if s == "" {
		return ViewNone, nil
	}
	for i, name := range debugViewNames {
		if strings.EqualFold(s, name) {
			return DebugView(i), nil
		}
	}
	return ViewNone, fmt.Errorf("unknown debug view %q", s)
}

func (v DebugView) String() string {
	if int(v) >= 0 && int(v) < len(debugViewNames) {
		return debugViewNames[v]
	}
	return fmt.Sprintf("DebugView(%d)", int(v))
}

// Config holds the compositor settings.
type Config struct {
	Resolution Resolution
	Filter     Filter
	Sharpness  float32 // 0..1, bicubic only
	DepthAware bool    // reject smoke behind opaque geometry
	DebugView  DebugView
	DepthRange float32 // depth mapped to white in the depth debug views
}

// DefaultConfig renders at half resolution with a bicubic upscale.
func DefaultConfig() Config {
	return Config{
		Resolution: Half,
		Filter:     Bicubic,
		Sharpness:  0.5,
		DepthAware: true,
		DepthRange: 30,
	}
}
