package voxel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/voxsmoke/pkg/math"
)

// Ease remaps linear growth progress in [0,1] to the radius interpolation factor.
// Every curve maps 0 to 0 and 1 to 1 and is non-decreasing in between.
type Ease func(x float32) float32

// DefaultEase is the curve used when none is configured.
const DefaultEase = "quad-out"

var eases = map[string]Ease{
	"linear": func(x float32) float32 {
		return math.Saturate(x)
	},
	"quad-out": func(x float32) float32 {
		x = math.Saturate(x)
		return 1 - (1-x)*(1-x)
	},
	"cubic-out": func(x float32) float32 {
		x = math.Saturate(x)
		r := 1 - x
		return 1 - r*r*r
	},
	// 1 - 1/(2x³+1) only reaches 2/3 at x=1; the 1.5 factor rescales it to end at 1.
	"reciprocal-cubic": func(x float32) float32 {
		x = math.Saturate(x)
		return (1 - 1/(2*x*x*x+1)) * 1.5
	},
}

// LookupEase returns the named curve.
func LookupEase(name string) (Ease, error) {
	if name == "" {
		name = DefaultEase
	}
	e, ok := eases[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown ease %q (have %s)", name, strings.Join(EaseNames(), ", "))
	}
	return e, nil
}

// EaseNames lists the registered curves, sorted.
func EaseNames() []string {
	names := make([]string, 0, len(eases))
	for name := range eases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
