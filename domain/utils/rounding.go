package utils

import "math"

// FloorTo floors a value at the given number of decimal places. Reward
// earnings are floored, never rounded, so proportional distribution can
// never over-allocate the pool.
func FloorTo(value float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Floor(value*scale) / scale
}
