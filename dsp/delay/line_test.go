package delay

import (
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for size=0")
	}

	if _, err := New(-1); err == nil {
		t.Fatal("expected error for size=-1")
	}
}

func TestReadWrite(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	if d.Len() != 8 {
		t.Fatalf("Len: got %d want 8", d.Len())
	}

	for i := 0; i < 8; i++ {
		d.Write(float64(i))
	}

	// delay 0 is the most recent sample.
	for delay := 0; delay < 8; delay++ {
		want := float64(7 - delay)
		if got := d.Read(delay); got != want {
			t.Fatalf("Read(%d): got %v want %v", delay, got, want)
		}
	}
}

func TestWrapAround(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		d.Write(float64(i))
	}

	if got := d.Read(0); got != 9 {
		t.Fatalf("Read(0) after wrap: got %v want 9", got)
	}

	if got := d.Read(3); got != 6 {
		t.Fatalf("Read(3) after wrap: got %v want 6", got)
	}
}

func TestReadFractionalLinearOnRamp(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 16; i++ {
		d.Write(float64(i))
	}

	// Linear interpolation is exact on a ramp.
	for _, delay := range []float64{0.0, 0.5, 1.25, 7.75} {
		want := 15 - delay
		if got := d.ReadFractionalLinear(delay); math.Abs(got-want) > 1e-12 {
			t.Fatalf("ReadFractionalLinear(%v): got %v want %v", delay, got, want)
		}
	}
}

func TestReadFractionalHermiteOnRamp(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 16; i++ {
		d.Write(float64(i))
	}

	// Hermite interpolation also reproduces a ramp exactly.
	for _, delay := range []float64{1.0, 2.5, 6.75, 12.0} {
		want := 15 - delay
		if got := d.ReadFractional(delay); math.Abs(got-want) > 1e-12 {
			t.Fatalf("ReadFractional(%v): got %v want %v", delay, got, want)
		}
	}
}

func TestReadFractionalClamps(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 8; i++ {
		d.Write(1)
	}

	// Out-of-range delays clamp instead of reading stale slots.
	if got := d.ReadFractional(100); got != 1 {
		t.Fatalf("clamped read: got %v want 1", got)
	}

	if got := d.ReadFractionalLinear(-3); got != 1 {
		t.Fatalf("negative delay read: got %v want 1", got)
	}
}

func TestReset(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		d.Write(0.5)
	}

	d.Reset()

	for delay := 0; delay < 4; delay++ {
		if got := d.Read(delay); got != 0 {
			t.Fatalf("Read(%d) after Reset: got %v want 0", delay, got)
		}
	}
}
