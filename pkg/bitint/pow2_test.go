// SPDX-License-Identifier: MIT
package bitint

import (
	"fmt"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-10, 1},     // Negative number
		{0, 1},       // Zero
		{1, 1},       // Smallest power
		{8, 8},       // Already power of two
		{10, 16},     // Not power of two
		{1000, 1024}, // Large number
		{3, 4},       // Small non-power
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			if got := NextPowerOfTwo(tt.n); got != tt.expected {
				t.Errorf("NextPowerOfTwo(%d) = %d, expected %d", tt.n, got, tt.expected)
			}
		})
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected bool
	}{
		{-8, false},
		{0, false},
		{1, true},
		{7, false},
		{8, true},
		{512, true},
		{600, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.n), func(t *testing.T) {
			if got := IsPowerOfTwo(tt.n); got != tt.expected {
				t.Errorf("IsPowerOfTwo(%d) = %v, expected %v", tt.n, got, tt.expected)
			}
		})
	}
}

func TestFitPowerOfTwo(t *testing.T) {
	tests := []struct {
		size, lo, hi int
		expected     int
	}{
		{500, 64, 4096, 512},
		{10, 64, 4096, 64},
		{9000, 64, 4096, 4096},
		{1024, 64, 4096, 1024},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d in [%d,%d]", tt.size, tt.lo, tt.hi), func(t *testing.T) {
			if got := FitPowerOfTwo(tt.size, tt.lo, tt.hi); got != tt.expected {
				t.Errorf("FitPowerOfTwo(%d, %d, %d) = %d, expected %d", tt.size, tt.lo, tt.hi, got, tt.expected)
			}
		})
	}
}

func BenchmarkNextPowerOfTwo(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NextPowerOfTwo(i)
	}
}
