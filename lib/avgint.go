package lib

import "math"

// AverageInt64 running minimum, maximum, mean and deviation over int64
// samples like allocation sizes or latencies. Mean and variance are
// updated in a single pass using Welford's method, so large samples
// don't overflow a sum of squares.
type AverageInt64 struct {
	n    int64
	min  int64
	max  int64
	sum  int64
	mean float64
	m2   float64 // sum of squared distance from the running mean
}

// Add a sample.
func (av *AverageInt64) Add(sample int64) {
	if av.n == 0 || sample < av.min {
		av.min = sample
	}
	if av.n == 0 || sample > av.max {
		av.max = sample
	}
	av.n++
	av.sum += sample
	delta := float64(sample) - av.mean
	av.mean += delta / float64(av.n)
	av.m2 += delta * (float64(sample) - av.mean)
}

// Min sample added so far.
func (av *AverageInt64) Min() int64 {
	return av.min
}

// Max sample added so far.
func (av *AverageInt64) Max() int64 {
	return av.max
}

// Samples count.
func (av *AverageInt64) Samples() int64 {
	return av.n
}

// Sum of samples.
func (av *AverageInt64) Sum() int64 {
	return av.sum
}

// Mean of samples, truncated.
func (av *AverageInt64) Mean() int64 {
	return int64(av.mean)
}

// Variance population variance of samples, truncated.
func (av *AverageInt64) Variance() int64 {
	return int64(av.variance())
}

// SD standard deviation of samples, truncated.
func (av *AverageInt64) SD() int64 {
	return int64(math.Sqrt(av.variance()))
}

func (av *AverageInt64) variance() float64 {
	if av.n == 0 {
		return 0
	}
	return av.m2 / float64(av.n)
}

// Stats return a map of all the computed values.
func (av *AverageInt64) Stats() map[string]interface{} {
	return map[string]interface{}{
		"samples":     av.Samples(),
		"sum":         av.Sum(),
		"min":         av.Min(),
		"max":         av.Max(),
		"mean":        av.Mean(),
		"variance":    av.Variance(),
		"stddeviance": av.SD(),
	}
}
