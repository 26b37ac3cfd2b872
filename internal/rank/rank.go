// Package rank estimates how many singular values of a noisy matrix carry
// signal.
package rank

import (
	"math"
	"sort"
)

// Estimates collects every estimator's answer for one spectrum.
type Estimates struct {
	GavishDonoho        int `json:"gavish_donoho"`
	GavishDonohoUnknown int `json:"gavish_donoho_unknown"`
	Energy90            int `json:"energy_90"`
	KMeans              int `json:"kmeans"`
}

// Estimate runs all estimators. sigma <= 0 means the noise level is unknown;
// GavishDonoho then falls back to the median-based threshold.
func Estimate(s []float64, m, n int, sigma float64) Estimates {
	e := Estimates{
		GavishDonohoUnknown: GavishDonohoUnknown(s, m, n),
		Energy90:            Energy(s, 0.9),
		KMeans:              KMeans(s),
	}
	if sigma > 0 {
		e.GavishDonoho = GavishDonoho(s, m, n, sigma)
	} else {
		e.GavishDonoho = e.GavishDonohoUnknown
	}
	return e
}

func aspect(m, n int) (beta float64, large int) {
	lo, hi := min(m, n), max(m, n)
	if hi == 0 {
		return 0, 0
	}
	return float64(lo) / float64(hi), hi
}

// Lambda is the optimal hard threshold coefficient for known noise,
// λ*(β) = sqrt(2(β+1) + 8β / ((β+1) + sqrt(β² + 14β + 1))).
func Lambda(beta float64) float64 {
	return math.Sqrt(2*(beta+1) + 8*beta/((beta+1)+math.Sqrt(beta*beta+14*beta+1)))
}

// Omega approximates the threshold coefficient for unknown noise,
// ω(β) ≈ 0.56β³ - 0.95β² + 1.82β + 1.43.
func Omega(beta float64) float64 {
	return 0.56*beta*beta*beta - 0.95*beta*beta + 1.82*beta + 1.43
}

// GavishDonoho counts singular values above λ*(β)·sqrt(max(m, n))·σ.
func GavishDonoho(s []float64, m, n int, sigma float64) int {
	beta, large := aspect(m, n)
	return countAbove(s, Lambda(beta)*math.Sqrt(float64(large))*sigma)
}

// GavishDonohoUnknown counts singular values above ω(β)·median(σ).
func GavishDonohoUnknown(s []float64, m, n int) int {
	if len(s) == 0 {
		return 0
	}
	beta, _ := aspect(m, n)
	return countAbove(s, Omega(beta)*Median(s))
}

// Median returns the middle value of s, the mean of the two middle values
// when len(s) is even, and 0 for an empty s.
func Median(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sorted := append([]float64(nil), s...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Energy returns the smallest k whose leading singular values hold at least
// fraction of Σσ².
func Energy(s []float64, fraction float64) int {
	var total float64
	for _, v := range s {
		total += v * v
	}
	if total == 0 {
		return 0
	}
	var acc float64
	for i, v := range s {
		acc += v * v
		if acc/total >= fraction {
			return i + 1
		}
	}
	return len(s)
}

// KMeans splits log10 singular values into a signal and a noise cluster and
// returns the size of the signal cluster. Only values above the median take
// part; the median itself anchors the noise cluster, so the lower half of a
// noise bulk, which reaches towards zero, cannot pull the split down. When
// nothing exceeds the median every value counts as signal.
func KMeans(s []float64) int {
	if len(s) == 0 || s[0] == 0 {
		return 0
	}
	med := Median(s)
	floor := s[0] * 1e-16
	logs := []float64{math.Log10(math.Max(med, floor))}
	for _, v := range s {
		if v > med {
			logs = append(logs, math.Log10(math.Max(v, floor)))
		}
	}
	if len(logs) == 1 {
		var k int
		for _, v := range s {
			if v >= med {
				k++
			}
		}
		return k
	}
	var k int
	for _, high := range oneDimKmeans(logs)[1:] {
		if high {
			k++
		}
	}
	return k
}

func countAbove(s []float64, tau float64) int {
	var k int
	for _, v := range s {
		if v > tau {
			k++
		}
	}
	return k
}
