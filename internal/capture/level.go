// SPDX-License-Identifier: MIT
package capture

import "math"

const maxInt32 = math.MaxInt32

// Peak returns the largest absolute sample in buffer. It is branchless in the
// loop and never allocates, so it is safe inside the stream callback.
func Peak(buffer []int32) int32 {
	var peak int32
	for _, sample := range buffer {
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - peak
		peak += (diff & (diff >> 31)) ^ diff
	}
	return peak
}

// Silent reports whether a peak level in [0, 1] is under threshold.
// Recordings this quiet usually mean the wrong input device.
func Silent(level, threshold float64) bool {
	return level < min(max(threshold, 0), 1)
}
