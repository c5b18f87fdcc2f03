package transform

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSV is a color in hue (degrees), saturation [0,1] and value [0,1].
type HSV struct {
	H float64 `json:"h" toml:"h"`
	S float64 `json:"s" toml:"s"`
	V float64 `json:"v" toml:"v"`
}

// Base is the color resolved for a mesh whose ancestors set no override.
var Base = HSV{H: 0, S: 0, V: 1}

// ParseHex parses a "#rrggbb" color.
func ParseHex(hex string) (HSV, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return HSV{}, fmt.Errorf("transform: invalid color %q: %w", hex, err)
	}
	h, s, v := c.Hsv()
	return HSV{H: h, S: s, V: v}, nil
}

// Hex formats the color as "#rrggbb".
func (c HSV) Hex() string {
	return colorful.Hsv(normalizeHue(c.H), c.S, c.V).Clamped().Hex()
}

func (c HSV) apply(op colorOp) HSV {
	if op.override {
		return HSV{H: normalizeHue(op.hsv.H), S: op.hsv.S, V: op.hsv.V}
	}
	return HSV{
		H: normalizeHue(c.H + op.hsv.H),
		S: c.S * op.hsv.S,
		V: c.V * op.hsv.V,
	}
}

func normalizeHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// colorOp is either an absolute override or a relative delta. For a delta,
// hsv holds (hue add, saturation factor, value factor).
type colorOp struct {
	override bool
	hsv      HSV
}

func neutralDelta() colorOp {
	return colorOp{hsv: HSV{H: 0, S: 1, V: 1}}
}

// compose returns the operator equivalent to applying outer, then inner.
// The innermost override always wins.
func (outer colorOp) compose(inner colorOp) colorOp {
	switch {
	case inner.override:
		return inner
	case outer.override:
		return colorOp{override: true, hsv: HSV{
			H: outer.hsv.H + inner.hsv.H,
			S: outer.hsv.S * inner.hsv.S,
			V: outer.hsv.V * inner.hsv.V,
		}}
	default:
		return colorOp{hsv: HSV{
			H: outer.hsv.H + inner.hsv.H,
			S: outer.hsv.S * inner.hsv.S,
			V: outer.hsv.V * inner.hsv.V,
		}}
	}
}

func (op colorOp) equals(o colorOp, tolerance float64) bool {
	return op.override == o.override &&
		math.Abs(op.hsv.H-o.hsv.H) <= tolerance &&
		math.Abs(op.hsv.S-o.hsv.S) <= tolerance &&
		math.Abs(op.hsv.V-o.hsv.V) <= tolerance
}
