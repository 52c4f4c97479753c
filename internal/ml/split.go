package ml

import (
	"sort"
	"time"
)

// TimeOrderedSplit partitions row indices into a training cohort (timestamp
// at or before the cutoff) and an evaluation cohort (after). The split is an
// explicit function of the cutoff, never of storage row order; a random
// split would leak future behavior into training and is deliberately not
// offered.
func TimeOrderedSplit(timestamps []time.Time, cutoff time.Time) (train, test []int) {
	for i, ts := range timestamps {
		if ts.After(cutoff) {
			test = append(test, i)
		} else {
			train = append(train, i)
		}
	}
	return train, test
}

// MedianCutoff returns a cutoff that puts roughly the earlier half of the
// timestamps in the training cohort; used when no cutoff is configured.
func MedianCutoff(timestamps []time.Time) time.Time {
	if len(timestamps) == 0 {
		return time.Time{}
	}
	sorted := append([]time.Time(nil), timestamps...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Before(sorted[b]) })
	return sorted[len(sorted)/2]
}
