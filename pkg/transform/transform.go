// Package transform defines the transform algebra used by rule expansion.
// A Transform pairs a spatial affine matrix with a color operator. Transforms
// compose associatively (but not commutatively) and are applied to mesh
// vertices only when an expanded mesh is emitted.
package transform

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/lucasb-eyer/go-colorful"
)

// Transform is an immutable spatial + color operator.
// The zero value is not valid; use Identity or one of the constructors.
type Transform struct {
	spatial sdf.M44
	color   colorOp
}

// Identity returns the neutral transform: identity matrix, neutral color delta.
func Identity() Transform {
	return Transform{spatial: sdf.Identity3d(), color: neutralDelta()}
}

// Compose returns the transform that applies inner first and outer second.
// In a rule tree, outer is the ancestor's accumulated transform and inner is
// the child's local transform.
func Compose(outer, inner Transform) Transform {
	return Transform{
		spatial: outer.spatial.Mul(inner.spatial),
		color:   outer.color.compose(inner.color),
	}
}

// Then is shorthand for Compose(t, inner).
func (t Transform) Then(inner Transform) Transform {
	return Compose(t, inner)
}

// Chain composes ts left to right into a single transform, so the last
// transform is applied to a point first. An empty chain is the identity.
func Chain(ts ...Transform) Transform {
	acc := Identity()
	for _, t := range ts {
		acc = Compose(acc, t)
	}
	return acc
}

// ApplyTo transforms a point by the spatial matrix.
func (t Transform) ApplyTo(p v3.Vec) v3.Vec {
	return t.spatial.MulPosition(p)
}

// ApplyToNormal transforms a surface normal. Translation is ignored and the
// result is renormalized. For non-uniform scales the normal is mapped by the
// cofactor of the linear part, which keeps it perpendicular to the surface.
func (t Transform) ApplyToNormal(n v3.Vec) v3.Vec {
	if n.Length() == 0 {
		return n
	}
	a := perpendicular(n)
	b := n.Cross(a)
	// a x b == n, and cof(M)(a x b) == (Ma) x (Mb).
	out := t.applyToDirection(a).Cross(t.applyToDirection(b))
	if out.Length() == 0 {
		return out
	}
	return out.Normalize()
}

// applyToDirection maps a direction vector through the linear part only.
func (t Transform) applyToDirection(d v3.Vec) v3.Vec {
	return t.spatial.MulPosition(d).Sub(t.spatial.MulPosition(v3.Vec{}))
}

// perpendicular returns a unit vector perpendicular to n.
func perpendicular(n v3.Vec) v3.Vec {
	axis := v3.Vec{X: 1}
	if math.Abs(n.X) > math.Abs(n.Y) {
		axis = v3.Vec{Y: 1}
	}
	return n.Cross(axis).Normalize()
}

// Spatial returns the spatial matrix.
func (t Transform) Spatial() sdf.M44 {
	return t.spatial
}

// ColorOverride reports the absolute color set by this transform, if any.
func (t Transform) ColorOverride() (HSV, bool) {
	if t.color.override {
		return t.color.hsv, true
	}
	return HSV{}, false
}

// ResolvedColor folds the color operator onto the base color (white) and
// returns the absolute output color. It is only meant for emission time.
func (t Transform) ResolvedColor() colorful.Color {
	c := Base.apply(t.color)
	return colorful.Hsv(c.H, c.S, c.V).Clamped()
}

// Resolved returns the absolute HSV color after folding onto the base color.
func (t Transform) Resolved() HSV {
	return Base.apply(t.color)
}

// Equals reports whether two transforms match within tolerance.
func (t Transform) Equals(o Transform, tolerance float64) bool {
	return t.spatial.Equals(o.spatial, tolerance) && t.color.equals(o.color, tolerance)
}

// ---------------------------------------------------------------------------
// Spatial constructors
// ---------------------------------------------------------------------------

func spatial(m sdf.M44) Transform {
	return Transform{spatial: m, color: neutralDelta()}
}

// Translate moves by (x, y, z).
func Translate(x, y, z float64) Transform {
	return spatial(sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z}))
}

// TranslateX moves along the x axis.
func TranslateX(x float64) Transform { return Translate(x, 0, 0) }

// TranslateY moves along the y axis.
func TranslateY(y float64) Transform { return Translate(0, y, 0) }

// TranslateZ moves along the z axis.
func TranslateZ(z float64) Transform { return Translate(0, 0, z) }

// Scale scales uniformly about the origin of the current frame.
func Scale(factor float64) Transform {
	return ScaleXYZ(factor, factor, factor)
}

// ScaleXYZ scales each axis independently.
func ScaleXYZ(x, y, z float64) Transform {
	return spatial(sdf.Scale3d(v3.Vec{X: x, Y: y, Z: z}))
}

// RotateX rotates about the x axis by a signed angle in degrees.
func RotateX(degrees float64) Transform {
	return spatial(sdf.RotateX(radians(degrees)))
}

// RotateY rotates about the y axis by a signed angle in degrees.
func RotateY(degrees float64) Transform {
	return spatial(sdf.RotateY(radians(degrees)))
}

// RotateZ rotates about the z axis by a signed angle in degrees.
func RotateZ(degrees float64) Transform {
	return spatial(sdf.RotateZ(radians(degrees)))
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// ---------------------------------------------------------------------------
// Color constructors
// ---------------------------------------------------------------------------

// Color overrides the color of everything below it in the rule tree, unless a
// descendant sets its own override.
func Color(c HSV) Transform {
	return Transform{spatial: sdf.Identity3d(), color: colorOp{override: true, hsv: c}}
}

// ColorHex is Color for a "#rrggbb" string.
func ColorHex(hex string) (Transform, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return Transform{}, err
	}
	return Color(c), nil
}

// Hue adds delta degrees to the current hue.
func Hue(delta float64) Transform {
	return Transform{spatial: sdf.Identity3d(), color: colorOp{hsv: HSV{H: delta, S: 1, V: 1}}}
}

// Saturation multiplies the current saturation by factor.
func Saturation(factor float64) Transform {
	return Transform{spatial: sdf.Identity3d(), color: colorOp{hsv: HSV{H: 0, S: factor, V: 1}}}
}

// Value multiplies the current value (brightness) by factor.
func Value(factor float64) Transform {
	return Transform{spatial: sdf.Identity3d(), color: colorOp{hsv: HSV{H: 0, S: 1, V: factor}}}
}
