package colour

import (
	"math"
	"testing"
)

func TestDistanceIdentity(t *testing.T) {
	colours := []RGBA{
		Opaque(0, 0, 0),
		Opaque(255, 255, 255),
		Opaque(0x2c, 0x33, 0x37),
		Opaque(255, 0, 0),
		RGBA{R: 12, G: 200, B: 99, A: 10},
	}
	for _, c := range colours {
		if d := Distance(c, c); d != 0 {
			t.Errorf("Distance(%s, %s) = %f, want 0", c.Key(), c.Key(), d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]RGBA{
		{Opaque(0x2c, 0x33, 0x37), Opaque(0x2c, 0x33, 0x39)},
		{Opaque(255, 0, 0), Opaque(0, 0, 255)},
		{Opaque(10, 200, 30), Opaque(240, 5, 128)},
		{Opaque(0, 0, 0), Opaque(255, 255, 255)},
	}
	for _, p := range pairs {
		if d1, d2 := Distance(p[0], p[1]), Distance(p[1], p[0]); d1 != d2 {
			t.Errorf("Distance not symmetric for %s/%s: %f vs %f", p[0].Key(), p[1].Key(), d1, d2)
		}
	}
}

func TestDistanceValues(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "one blue step at low red", a: "#2C3337", b: "#2C3338", want: 1.6805},
		{name: "two blue steps at low red", a: "#2C3337", b: "#2C3339", want: 3.3611},
		{name: "one green step", a: "#336699", b: "#336799", want: 2.0},
		{name: "red vs blue", a: "#FF0000", b: "#0000FF", want: 569.9746},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(MustParse(tt.a), MustParse(tt.b))
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Distance(%s, %s) = %.4f, want %.4f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsVisuallySimilar(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "rounding drift merges", a: "#2C3337", b: "#2C3338", want: true},
		{name: "two steps stays apart", a: "#2C3337", b: "#2C3339", want: false},
		{name: "distinct hues", a: "#FF0000", b: "#0000FF", want: false},
		{name: "identical", a: "#1e73be", b: "#1E73BE", want: true},
		{name: "one green step is below threshold", a: "#336699", b: "#336799", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsVisuallySimilar(MustParse(tt.a), MustParse(tt.b), DefaultMergeThreshold)
			if got != tt.want {
				t.Errorf("IsVisuallySimilar(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsVisuallySimilarStrictThreshold(t *testing.T) {
	a, b := MustParse("#336699"), MustParse("#336799")
	if IsVisuallySimilar(a, b, 2.0) {
		t.Error("distance equal to threshold must not count as similar")
	}
}
