package transform

import (
	"math"
	"testing"
)

func hsvClose(a, b HSV) bool {
	return math.Abs(a.H-b.H) < 1e-9 && math.Abs(a.S-b.S) < 1e-9 && math.Abs(a.V-b.V) < 1e-9
}

func TestOverridePrecedence(t *testing.T) {
	red := HSV{H: 0, S: 1, V: 1}
	tf := Compose(Hue(10), Color(red))
	if got := tf.Resolved(); !hsvClose(got, red) {
		t.Errorf("Resolved() = %v, want %v", got, red)
	}
	r, g, b := tf.ResolvedColor().RGB255()
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("ResolvedColor() = (%d,%d,%d), want (255,0,0)", r, g, b)
	}
}

func TestInnermostOverrideWins(t *testing.T) {
	blue := HSV{H: 240, S: 1, V: 1}
	green := HSV{H: 120, S: 1, V: 1}
	tf := Chain(Color(blue), Hue(30), Color(green))
	if got := tf.Resolved(); !hsvClose(got, green) {
		t.Errorf("Resolved() = %v, want %v", got, green)
	}
}

func TestDeltaAfterOverride(t *testing.T) {
	tf := Chain(Color(HSV{H: 350, S: 0.8, V: 1}), Hue(20), Saturation(0.5), Value(0.5))
	want := HSV{H: 10, S: 0.4, V: 0.5}
	if got := tf.Resolved(); !hsvClose(got, want) {
		t.Errorf("Resolved() = %v, want %v", got, want)
	}
	c, ok := tf.ColorOverride()
	if !ok {
		t.Fatal("expected override")
	}
	if !hsvClose(c, HSV{H: 370, S: 0.4, V: 0.5}) {
		t.Errorf("ColorOverride() = %v", c)
	}
}

func TestDeltasCombine(t *testing.T) {
	tf := Chain(Hue(10), Hue(15), Value(0.5), Value(0.5))
	// Base is white, so the deltas only show in value.
	want := HSV{H: 25, S: 0, V: 0.25}
	if got := tf.Resolved(); !hsvClose(got, want) {
		t.Errorf("Resolved() = %v, want %v", got, want)
	}
	if _, ok := tf.ColorOverride(); ok {
		t.Error("unexpected override")
	}
}

func TestHueWraps(t *testing.T) {
	tf := Chain(Color(HSV{H: 10, S: 1, V: 1}), Hue(-40))
	if got := tf.Resolved().H; math.Abs(got-330) > 1e-9 {
		t.Errorf("hue = %v, want 330", got)
	}
}

func TestColorHex(t *testing.T) {
	tf, err := ColorHex("#00ff00")
	if err != nil {
		t.Fatalf("ColorHex: %v", err)
	}
	if got := tf.ResolvedColor().Hex(); got != "#00ff00" {
		t.Errorf("hex = %s, want #00ff00", got)
	}
	if _, err := ColorHex("not-a-color"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestHSVHex(t *testing.T) {
	if got := (HSV{H: 0, S: 0, V: 1}).Hex(); got != "#ffffff" {
		t.Errorf("white hex = %s", got)
	}
	if got := (HSV{H: 360, S: 1, V: 1}).Hex(); got != "#ff0000" {
		t.Errorf("red hex = %s", got)
	}
}
