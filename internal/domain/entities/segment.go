package entities

import (
	"fmt"
)

// Canonical three-tier segment labels.
const (
	SegmentLowValue  = "Low value"
	SegmentMidValue  = "Mid value"
	SegmentHighValue = "High value"
)

// Segment assigns a customer to a value tier. The label is always derived
// from the cluster's rank by mean monetary value; the raw cluster index the
// algorithm produced is never exposed.
type Segment struct {
	CustomerID       string  `json:"customer_id" db:"customer_id"`
	Label            string  `json:"label" db:"label"`
	CentroidDistance float64 `json:"centroid_distance" db:"centroid_distance"`
}

// ValueTierLabels returns k labels ordered from lowest to highest mean
// monetary value. Three tiers use the canonical Low/Mid/High names; other
// widths fall back to numbered tiers with the top tier always "High value".
func ValueTierLabels(k int) []string {
	switch k {
	case 1:
		return []string{SegmentHighValue}
	case 2:
		return []string{SegmentLowValue, SegmentHighValue}
	case 3:
		return []string{SegmentLowValue, SegmentMidValue, SegmentHighValue}
	}
	labels := make([]string, k)
	for i := 0; i < k-1; i++ {
		labels[i] = fmt.Sprintf("Value tier %d of %d", i+1, k)
	}
	labels[k-1] = SegmentHighValue
	return labels
}
