package noise

import (
	"fmt"
	"strings"
)

// AbsMode selects where the absolute-value fold is applied.
type AbsMode int

const (
	// AbsNone keeps plain value noise.
	AbsNone AbsMode = iota
	// AbsWhileSumming folds every octave before it is accumulated (ridged look).
	AbsWhileSumming
	// AbsOnSum folds the accumulated sum once.
	AbsOnSum
)

var absModeNames = map[AbsMode]string{
	AbsNone:         "none",
	AbsWhileSumming: "while-summing",
	AbsOnSum:        "on-sum",
}

func (m AbsMode) String() string {
	if s, ok := absModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("AbsMode(%d)", int(m))
}

// ParseAbsMode converts a config string to an AbsMode.
func ParseAbsMode(s string) (AbsMode, error) {
	for m, name := range absModeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	if s == "" {
		return AbsNone, nil
	}
	return AbsNone, fmt.Errorf("unknown abs mode %q", s)
}

// Params are baked into the volume at generation time.
type Params struct {
	Resolution  int     // voxels per axis
	Octaves     int     // layers of value noise
	CellSize    int     // voxels per lattice cell in the first octave
	Frequency   float32 // lattice frequency multiplier per octave
	Persistence float32 // amplitude multiplier per octave
	Warp        float32 // domain warp magnitude in voxels
	Add         float32 // bias added after summing
	Invert      bool
	Seed        uint32
	AbsMode     AbsMode
	Clamp       bool
}

// DefaultParams returns the parameters used when nothing else is configured.
func DefaultParams() Params {
	return Params{
		Resolution:  128,
		Octaves:     4,
		CellSize:    32,
		Frequency:   2,
		Persistence: 0.5,
		Warp:        0,
		Add:         0,
		Seed:        1,
		AbsMode:     AbsNone,
		Clamp:       true,
	}
}

// normalized fills degenerate values with safe ones.
func (p Params) normalized() Params {
	if p.Resolution < 1 {
		p.Resolution = 1
	}
	if p.Octaves < 1 {
		p.Octaves = 1
	}
	if p.CellSize < 1 {
		p.CellSize = 1
	}
	if p.CellSize > p.Resolution {
		p.CellSize = p.Resolution
	}
	if p.Frequency <= 0 {
		p.Frequency = 1
	}
	return p
}
