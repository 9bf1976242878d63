package artifact

import (
	"strings"
	"time"
)

// Metrics are quality numbers declared by the training run. All fields are
// optional: stores accumulate artifacts whose metadata is partial or missing,
// and an absent metric must never be confused with a zero one.
type Metrics struct {
	RMSE *float64 `json:"rmse,omitempty"`
	MAE  *float64 `json:"mae,omitempty"`
	R2   *float64 `json:"r2,omitempty"`
}

// Descriptor is the metadata of one candidate trained model. Produced by a
// store scan; valid for a single resolution call.
type Descriptor struct {
	ID              string    `json:"id"`
	StorageLocation string    `json:"storage_location"`
	LastModified    time.Time `json:"last_modified"`
	Metrics         Metrics   `json:"metrics"`
	ModelType       string    `json:"model_type,omitempty"`
}

// HasMetric reports whether the descriptor declares a comparable quality
// metric
func (d Descriptor) HasMetric() bool {
	return d.Metrics.RMSE != nil
}

// ShortID returns a display prefix of the artifact identifier
func (d Descriptor) ShortID() string {
	if len(d.ID) <= 8 {
		return d.ID
	}
	return d.ID[:8]
}

// Compare orders two descriptors, best first. metricTier selects the ranking
// tier: when true, declared RMSE ascending wins and entries without a metric
// rank behind entries with one; when false, recency (LastModified descending)
// decides. Ties always break by ID ascending so resolution is deterministic.
//
// The tier is an explicit argument rather than inferred per pair: the caller
// decides once, for the whole candidate set, whether any entry declares a
// metric. Defaulting a missing metric to zero would make an unevaluated
// artifact look best, so that case is structurally impossible here.
func Compare(a, b Descriptor, metricTier bool) int {
	if metricTier {
		switch {
		case a.HasMetric() && !b.HasMetric():
			return -1
		case !a.HasMetric() && b.HasMetric():
			return 1
		case a.HasMetric() && b.HasMetric():
			if *a.Metrics.RMSE != *b.Metrics.RMSE {
				if *a.Metrics.RMSE < *b.Metrics.RMSE {
					return -1
				}
				return 1
			}
		}
	} else {
		if !a.LastModified.Equal(b.LastModified) {
			if a.LastModified.After(b.LastModified) {
				return -1
			}
			return 1
		}
	}

	return strings.Compare(a.ID, b.ID)
}
