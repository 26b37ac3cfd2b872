package rank

import "math"

type averageStore struct {
	sum   float64
	count int
}

func (s *averageStore) add(value float64) {
	s.sum += value
	s.count += 1
}

func (s *averageStore) average() float64 { return s.sum / float64(s.count) }

// oneDimKmeans performs k-means clustering on one-dimensional data with k=2.
// It initializes the two centers at the minimum and maximum, assigns each
// value to the nearer center and moves the centers to the cluster means until
// the midpoint threshold stabilizes.
//
// The returned slice is true for members of the high cluster.
func oneDimKmeans(values []float64) []bool {
	var isHigh []bool
	var center = func() [2]float64 {
		var lo, hi float64 = values[0], values[0]
		for _, v := range values {
			lo = min(lo, v)
			hi = max(hi, v)
		}
		return [2]float64{hi, lo}
	}()
	if center[0] == center[1] {
		// a single cluster; everything sits at the threshold
		isHigh = make([]bool, len(values))
		for i := range isHigh {
			isHigh[i] = true
		}
		return isHigh
	}
	etol := math.Pow10(-6)
	for range 300 {
		isHigh = make([]bool, len(values))
		threshold := (center[0] + center[1]) / 2.
		var highs, lows averageStore
		for i, v := range values {
			if threshold <= v {
				isHigh[i] = true
				highs.add(v)
			} else {
				lows.add(v)
			}
		}
		center = [2]float64{highs.average(), lows.average()}
		if diff := math.Abs((center[0]+center[1])/2. - threshold); diff < etol {
			break
		}
	}
	return isHigh
}
