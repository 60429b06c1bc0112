package types

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"exact", 10.00, 10.00},
		{"half up", 1.005, 1.01},
		{"half up negative", -1.005, -1.01},
		{"item total", 3 * 9.995, 29.99},
		{"truncates down", 2.554, 2.55},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round2(tt.in); got != tt.want {
				t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(10, 2); got != 5.0 {
		t.Errorf("SafeDivide(10, 2) = %v, want 5", got)
	}
	if got := SafeDivide(10, 0); got != 0.0 {
		t.Errorf("SafeDivide(10, 0) = %v, want 0", got)
	}
	if got := SafeDivide(10, 0, 5.0); got != 5.0 {
		t.Errorf("SafeDivide(10, 0, 5) = %v, want 5", got)
	}
	// Divisor that only rounds to zero must also take the fallback path.
	if got := SafeDivide(10, 0.004, -1); got != -1 {
		t.Errorf("SafeDivide(10, 0.004, -1) = %v, want -1", got)
	}
}

func TestIsFloatZero(t *testing.T) {
	if !IsFloatZero(0.004) {
		t.Error("0.004 rounds to zero at 2 decimals")
	}
	if IsFloatZero(0.005) {
		t.Error("0.005 rounds to 0.01, not zero")
	}
}

func TestIsFloatEquals(t *testing.T) {
	if !IsFloatEquals(0.1+0.2, 0.3) {
		t.Error("0.1+0.2 must equal 0.3 after rounding")
	}
	if IsFloatEquals(1.004, 1.011) {
		t.Error("1.00 must not equal 1.01")
	}
}
