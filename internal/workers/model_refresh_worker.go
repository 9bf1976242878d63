package workers

import (
	"context"
	"time"

	"tripcast/internal/domain/artifact"
	"tripcast/internal/ml"
	"tripcast/pkg/errors"
)

// ModelSwapper is the slice of the prediction service the refresh worker
// drives: inspect the cached model, replace it when a better artifact exists.
type ModelSwapper interface {
	CachedDescriptor() *artifact.Descriptor
	Reload(ctx context.Context) (*ml.LoadedModel, error)
}

// BestResolver picks the current best artifact from the store
type BestResolver interface {
	ResolveBest(ctx context.Context) (artifact.Descriptor, error)
}

// ModelRefreshWorker periodically re-resolves the best artifact and hot-swaps
// the served model when the winner changed. A failed swap leaves the current
// model serving.
type ModelRefreshWorker struct {
	*BaseWorker
	resolver BestResolver
	service  ModelSwapper
}

// NewModelRefreshWorker creates the model refresh worker
func NewModelRefreshWorker(resolver BestResolver, service ModelSwapper, interval time.Duration, enabled bool) *ModelRefreshWorker {
	return &ModelRefreshWorker{
		BaseWorker: NewBaseWorker("model_refresh", interval, enabled),
		resolver:   resolver,
		service:    service,
	}
}

// Run compares the store's best artifact against the cached model and
// reloads when they differ
func (w *ModelRefreshWorker) Run(ctx context.Context) error {
	start := time.Now()

	best, err := w.resolver.ResolveBest(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrNoArtifactsFound) {
			w.Log().Debug("No artifacts in store, nothing to refresh")
			w.RecordRun(time.Since(start))
			return nil
		}
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "resolve best artifact")
	}

	cached := w.service.CachedDescriptor()
	if cached != nil && cached.ID == best.ID && cached.LastModified.Equal(best.LastModified) {
		w.Log().Debugw("Cached model is current", "artifact_id", cached.ID)
		w.RecordRun(time.Since(start))
		return nil
	}

	model, err := w.service.Reload(ctx)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "reload model")
	}

	w.Log().Infow("Model refreshed",
		"artifact_id", model.Descriptor.ID,
		"model_version", model.Descriptor.ShortID(),
		"strategy", model.Strategy,
	)
	w.RecordRun(time.Since(start))
	return nil
}
