package stats

import (
	"math"

	"StableBench/internal/domain/models"
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// VWAP computes the volume-weighted average price across venue quotes.
// Falls back to an unweighted mean when no volume is reported.
func VWAP(quotes []models.VenueQuote) float64 {
	if len(quotes) == 0 {
		return 0
	}
	var pv, vol float64
	for _, q := range quotes {
		pv += q.Price * q.Volume
		vol += q.Volume
	}
	if vol > 0 {
		return pv / vol
	}
	var sum float64
	for _, q := range quotes {
		sum += q.Price
	}
	return sum / float64(len(quotes))
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation, 0 with fewer than 2 points.
func StdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	v := ss / float64(n-1)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// ZScore standardizes v against the series. A degenerate (constant)
// series yields 0 rather than Inf.
func ZScore(v float64, series []float64) float64 {
	sd := StdDev(series)
	if sd == 0 {
		return 0
	}
	return (v - Mean(series)) / sd
}

// Slope returns the per-period momentum of the series over the trailing
// `periods` steps: (last - value periods back) / periods. Returns 0 when
// the series is too short.
func Slope(series []float64, periods int) float64 {
	if periods <= 0 || len(series) <= periods {
		return 0
	}
	last := series[len(series)-1]
	base := series[len(series)-1-periods]
	return (last - base) / float64(periods)
}

// ExcessKurtosis computes sample excess kurtosis (normal = 0). Returns 0
// with fewer than 4 points; callers gate on constituent count before
// trusting the result.
func ExcessKurtosis(xs []float64) float64 {
	n := float64(len(xs))
	if n < 4 {
		return 0
	}
	m := Mean(xs)
	var m2, m4 float64
	for _, x := range xs {
		d := x - m
		m2 += d * d
		m4 += d * d * d * d
	}
	m2 /= n
	if m2 == 0 {
		return 0
	}
	m4 /= n
	return m4/(m2*m2) - 3
}

// NormalizeKurtosis maps excess kurtosis onto [0,1) with a configurable
// half-point scale: k/(k+scale). Negative excess kurtosis (thin tails)
// maps to 0.
func NormalizeKurtosis(k, scale float64) float64 {
	if k <= 0 || scale <= 0 {
		return 0
	}
	return k / (k + scale)
}

// ShannonEntropy computes entropy in nats over weights that are
// normalized internally. Zero-sum input yields 0.
func ShannonEntropy(weights []float64) float64 {
	var sum float64
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum == 0 {
		return 0
	}
	var h float64
	for _, w := range weights {
		if w <= 0 {
			continue
		}
		p := w / sum
		h -= p * math.Log(p)
	}
	return h
}

// Concentration converts the entropy of a distribution over n buckets to
// a fragility measure in [0,1]: 1 when everything sits in one bucket,
// 0 when perfectly spread. Scaled by log(n) so it is comparable across
// changing constituent counts.
func Concentration(weights []float64) float64 {
	n := 0
	for _, w := range weights {
		if w > 0 {
			n++
		}
	}
	if n <= 1 {
		return 1
	}
	h := ShannonEntropy(weights)
	return Clamp(1-h/math.Log(float64(n)), 0, 1)
}
