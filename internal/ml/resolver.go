package ml

import (
	"context"
	"sort"

	"tripcast/internal/domain/artifact"
	"tripcast/internal/metrics"
	"tripcast/pkg/errors"
	"tripcast/pkg/logger"
)

// Resolver selects the best candidate artifact from a store
type Resolver struct {
	store artifact.Store
	log   *logger.Logger
}

// NewResolver creates a resolver over an artifact store
func NewResolver(store artifact.Store) *Resolver {
	return &Resolver{
		store: store,
		log:   logger.Get().With("component", "model_resolver"),
	}
}

// ResolveBest scans the store and returns the top-ranked artifact descriptor.
//
// Ranking is two-tier: when at least one structurally valid entry declares a
// quality metric, entries rank by RMSE ascending (unevaluated entries behind
// evaluated ones); otherwise every entry ranks by last-modified descending.
// Ties break by ID ascending. Returns ErrNoArtifactsFound when the store is
// empty or no entry carries a loadable payload.
func (r *Resolver) ResolveBest(ctx context.Context) (artifact.Descriptor, error) {
	candidates, err := r.store.ListCandidates(ctx)
	if err != nil {
		metrics.ArtifactScans.WithLabelValues("error").Inc()
		return artifact.Descriptor{}, errors.Wrap(err, "artifact store scan failed")
	}
	metrics.ArtifactScans.WithLabelValues("success").Inc()

	valid := candidates[:0:0]
	for _, c := range candidates {
		if !r.store.HasModelPayload(ctx, c.StorageLocation) {
			r.log.Warnw("Skipping artifact without loadable payload",
				"artifact_id", c.ID, "location", c.StorageLocation)
			continue
		}
		valid = append(valid, c)
	}

	if len(valid) == 0 {
		return artifact.Descriptor{}, errors.ErrNoArtifactsFound
	}

	// Decide the ranking tier once for the whole candidate set
	metricTier := false
	for _, c := range valid {
		if c.HasMetric() {
			metricTier = true
			break
		}
	}

	sort.Slice(valid, func(i, j int) bool {
		return artifact.Compare(valid[i], valid[j], metricTier) < 0
	})

	best := valid[0]
	r.log.Infow("Resolved best artifact",
		"artifact_id", best.ID,
		"candidates", len(valid),
		"metric_tier", metricTier,
		"last_modified", best.LastModified)

	return best, nil
}
