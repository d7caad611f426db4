package lib

import "math"
import "sort"
import "fmt"
import "strings"
import "strconv"

// HistogramInt64 bucketed distribution of int64 samples, like allocation
// sizes or latencies, over the range [from, till) with fixed width buckets.
// Samples below `from` land in the first bucket and samples at or above
// `till` in the last bucket.
type HistogramInt64 struct {
	AverageInt64
	buckets []int64
	from    int64
	till    int64
	width   int64
}

// NewhistogramInt64 return a new histogram object.
func NewhistogramInt64(from, till, width int64) *HistogramInt64 {
	if width <= 0 {
		panicerr("histogram width %v must be positive", width)
	}
	from = (from / width) * width
	till = (till / width) * width
	if till < from {
		panicerr("histogram till(%v) < from(%v)", till, from)
	}
	h := &HistogramInt64{from: from, till: till, width: width}
	h.buckets = make([]int64, 1+((till-from)/width)+1)
	return h
}

// Add a sample to this histogram.
func (h *HistogramInt64) Add(sample int64) {
	h.AverageInt64.Add(sample)
	h.buckets[h.bucket(sample)]++
}

func (h *HistogramInt64) bucket(sample int64) int {
	if sample < h.from {
		return 0
	} else if sample >= h.till {
		return len(h.buckets) - 1
	}
	return int((sample-h.from)/h.width) + 1
}

// Percentile return the upper edge of the bucket that holds the p-th
// percentile, 0 < p <= 100. For samples beyond `till` return Max().
func (h *HistogramInt64) Percentile(p float64) int64 {
	if h.n == 0 {
		return 0
	}
	want := int64(math.Ceil((p / 100) * float64(h.n)))
	cumm := int64(0)
	for i, count := range h.buckets {
		if cumm += count; cumm >= want {
			if i == len(h.buckets)-1 {
				return h.Max()
			}
			return h.from + (int64(i) * h.width)
		}
	}
	return h.Max()
}

// Clone copies the entire instance.
func (h *HistogramInt64) Clone() *HistogramInt64 {
	newh := *h
	newh.buckets = make([]int64, len(h.buckets))
	copy(newh.buckets, h.buckets)
	return &newh
}

// Stats return cumulative counts keyed by bucket's upper edge, the last
// non-empty bucket is keyed as "+".
func (h *HistogramInt64) Stats() map[string]int64 {
	m := make(map[string]int64)
	last := -1
	for i := len(h.buckets) - 1; i >= 0; i-- {
		if h.buckets[i] > 0 {
			last = i
			break
		}
	}
	cumm := int64(0)
	for j := 0; j <= last; j++ {
		cumm += h.buckets[j]
		if j == last {
			m["+"] = cumm
			continue
		}
		m[strconv.Itoa(int(h.from+(int64(j)*h.width)))] = cumm
	}
	return m
}

// Fullstats includes mean,variance,stddeviance in the Stats().
func (h *HistogramInt64) Fullstats() map[string]interface{} {
	stats := h.AverageInt64.Stats()
	hmap := make(map[string]interface{})
	for k, v := range h.Stats() {
		hmap[k] = v
	}
	stats["histogram"] = hmap
	return stats
}

// Logstring return Fullstats as loggable string, keys sorted.
func (h *HistogramInt64) Logstring() string {
	stats := h.AverageInt64.Stats()
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ss := []string{}
	for _, key := range keys {
		ss = append(ss, fmt.Sprintf(`"%v": %v`, key, stats[key]))
	}

	histogram := h.Stats()
	edges := []int{}
	for k := range histogram {
		if k == "+" {
			continue
		}
		n, _ := strconv.Atoi(k)
		edges = append(edges, n)
	}
	sort.Ints(edges)
	hs := []string{}
	for _, edge := range edges {
		ks := strconv.Itoa(edge)
		hs = append(hs, fmt.Sprintf(`"%v": %v`, ks, histogram[ks]))
	}
	hs = append(hs, fmt.Sprintf(`"+": %v`, histogram["+"]))
	ss = append(ss, fmt.Sprintf(`"histogram": {%v}`, strings.Join(hs, ",")))
	return "{" + strings.Join(ss, ",") + "}"
}
