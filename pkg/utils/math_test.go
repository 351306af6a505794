package utils

import (
	"testing"
)

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n    int
		want bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{64, true},
		{100, false},
		{-4, false},
	}
	for _, tt := range tests {
		if got := IsPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestCeilToPowerOfTwo(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 2},
		{1, 2},
		{2, 2},
		{3, 4},
		{5, 8},
		{64, 64},
		{100, 128},
		{1025, 2048},
	}
	for _, tt := range tests {
		if got := CeilToPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("CeilToPowerOfTwo(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
