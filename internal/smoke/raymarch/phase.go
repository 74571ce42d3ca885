package raymarch

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// Phase selects the angular scattering model.
type Phase int

// Phase functions.
const (
	HenyeyGreenstein Phase = iota
	Mie
	Rayleigh
)

var phaseNames = map[Phase]string{
	HenyeyGreenstein: "henyey-greenstein",
	Mie:              "mie",
	Rayleigh:         "rayleigh",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase converts a config string to a Phase. "hg" is accepted for Henyey-Greenstein.
func ParsePhase(s string) (Phase, error) {
	s = strings.ToLower(s)
	if s == "hg" || s == "" {
		return HenyeyGreenstein, nil
	}
	for p, name := range phaseNames {
		if s == name {
			return p, nil
		}
	}
	return HenyeyGreenstein, fmt.Errorf("unknown phase function %q", s)
}

// Eval returns the phase value for the cosine of the scattering angle.
// Every model integrates to 1 over the sphere. Rayleigh ignores g.
func (p Phase) Eval(cosTheta, g float32) float32 {
	switch p {
	case Mie:
		// Cornette-Shanks
		g2 := g * g
		denom := (2 + g2) * pow15(1+g2-2*g*cosTheta)
		return 3 / (8 * math32.Pi) * (1 - g2) * (1 + cosTheta*cosTheta) / denom
	case Rayleigh:
		return 3 / (16 * math32.Pi) * (1 + cosTheta*cosTheta)
	default:
		g2 := g * g
		return (1 - g2) / (4 * math32.Pi * pow15(1+g2-2*g*cosTheta))
	}
}

func pow15(x float32) float32 {
	return x * math32.Sqrt(x)
}
