package minutiae

import "fmt"

// Kind distinguishes ridge endings from ridge splits.
type Kind uint8

const (
	Termination Kind = iota
	Bifurcation
)

func (k Kind) String() string {
	switch k {
	case Termination:
		return "termination"
	case Bifurcation:
		return "bifurcation"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "termination":
		*k = Termination
	case "bifurcation":
		*k = Bifurcation
	default:
		return fmt.Errorf("unknown minutia kind %q", text)
	}
	return nil
}

// Minutia is a resolved ridge landmark. Theta is the ridge-flow direction in
// radians, y axis pointing up.
type Minutia struct {
	X     int     `json:"x" cbor:"1,keyasint"`
	Y     int     `json:"y" cbor:"2,keyasint"`
	Kind  Kind    `json:"kind" cbor:"3,keyasint"`
	Theta float64 `json:"theta" cbor:"4,keyasint"`
}

// RidgeAngle is the outcome of a ridge trace: either unresolved or a resolved
// angle. The zero value is unresolved.
type RidgeAngle struct {
	angle    float64
	resolved bool
}

func Unresolved() RidgeAngle            { return RidgeAngle{} }
func Resolved(angle float64) RidgeAngle { return RidgeAngle{angle: angle, resolved: true} }

func (a RidgeAngle) Value() (float64, bool) { return a.angle, a.resolved }

func (a RidgeAngle) IsResolved() bool { return a.resolved }

func (a RidgeAngle) String() string {
	if !a.resolved {
		return "unresolved"
	}
	return fmt.Sprintf("%.4f", a.angle)
}
