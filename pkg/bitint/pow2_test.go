package bitint

import "testing"

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		input int
		want  bool
	}{
		{1, true},
		{2, true},
		{1024, true},
		{4096, true},
		{0, false},
		{-8, false},
		{3, false},
		{4095, false},
		{4097, false},
	}

	for _, tt := range tests {
		if got := IsPowerOfTwo(tt.input); got != tt.want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		input int
		want  int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{4, 4},
		{5, 8},
		{1000, 1024},
		{4096, 4096},
	}

	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.input); got != tt.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
