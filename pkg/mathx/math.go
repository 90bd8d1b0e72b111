// Package mathx provides small float helpers used by the volume engines.
// All functions are pure; rolling state stays in the engines themselves.
package mathx

import "math"

// Clamp limits v to the inclusive range [lo, hi].
// If lo > hi the bounds are swapped.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundN rounds v to n decimal places (half away from zero).
func RoundN(v float64, n int) float64 {
	pow := math.Pow(10, float64(n))
	return math.Round(v*pow) / pow
}

// Mean returns the arithmetic mean of vs, or 0 for an empty slice.
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// StdDev returns the population standard deviation of vs.
// Fewer than two samples yield 0.
func StdDev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	avg := Mean(vs)
	var acc float64
	for _, v := range vs {
		d := v - avg
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(vs)))
}
