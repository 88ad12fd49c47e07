package spectrum

import (
	"math"
	"testing"
)

func TestMagnitude(t *testing.T) {
	in := []complex128{complex(3, 4), complex(0, 0), complex(-1, 0)}

	out := Magnitude(in)
	want := []float64{5, 0, 1}

	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Fatalf("Magnitude[%d] = %g, want %g", i, out[i], want[i])
		}
	}

	if Magnitude(nil) != nil {
		t.Fatal("empty input must return nil")
	}
}

func TestPower(t *testing.T) {
	in := []complex128{complex(3, 4), complex(1, 1)}

	out := Power(in)
	want := []float64{25, 2}

	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Fatalf("Power[%d] = %g, want %g", i, out[i], want[i])
		}
	}
}

func TestPowerFromParts(t *testing.T) {
	re := []float64{3, 1}
	im := []float64{4, 1}
	dst := make([]float64, 2)

	PowerFromParts(dst, re, im)

	if dst[0] != 25 || dst[1] != 2 {
		t.Fatalf("PowerFromParts = %v, want [25 2]", dst)
	}
}
