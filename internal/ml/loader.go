package ml

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"tripcast/internal/domain/artifact"
	"tripcast/internal/metrics"
	"tripcast/pkg/errors"
	"tripcast/pkg/logger"
)

// Loader materializes a runnable predictor from a resolved artifact by trying
// an ordered chain of strategies. Strategy failures are logged and recorded
// but non-fatal; only exhausting the chain fails the load. Each attempt runs
// under its own deadline so one corrupt artifact cannot stall resolution.
type Loader struct {
	strategies     []Strategy
	attemptTimeout time.Duration
	log            *logger.Logger
}

// NewLoader creates a loader with the given strategy chain
func NewLoader(strategies []Strategy, attemptTimeout time.Duration) *Loader {
	return &Loader{
		strategies:     strategies,
		attemptTimeout: attemptTimeout,
		log:            logger.Get().With("component", "model_loader"),
	}
}

// DefaultStrategies returns the production chain: native on-disk format
// first, then the run registry indirection, then raw weight deserialization.
func DefaultStrategies(registryRoot string, store artifact.Store) []Strategy {
	return []Strategy{
		&DirectPathStrategy{},
		&RegistryStrategy{Root: registryRoot},
		&RawWeightsStrategy{Store: store},
	}
}

// Load tries each strategy in order and returns the first success
func (l *Loader) Load(ctx context.Context, desc artifact.Descriptor) (*LoadedModel, error) {
	failures := &errors.MultiError{}

	for _, s := range l.strategies {
		predictor, err := l.attempt(ctx, s, desc)
		if err != nil {
			l.log.Warnw("Load strategy failed",
				"strategy", s.Name(), "artifact_id", desc.ID, "error", err)
			metrics.ModelLoadAttempts.WithLabelValues(s.Name(), "error").Inc()
			failures.Add(errors.Wrapf(err, "strategy %s", s.Name()))
			continue
		}

		l.log.Infow("Model loaded",
			"strategy", s.Name(), "artifact_id", desc.ID)
		metrics.ModelLoadAttempts.WithLabelValues(s.Name(), "success").Inc()

		return &LoadedModel{
			Predictor:  predictor,
			Descriptor: desc,
			Strategy:   s.Name(),
		}, nil
	}

	return nil, errors.Wrapf(errors.ErrModelLoad,
		"all %d strategies exhausted for artifact %s: %v",
		len(l.strategies), desc.ID, failures.ToError())
}

// attempt runs one strategy under the per-attempt deadline
func (l *Loader) attempt(ctx context.Context, s Strategy, desc artifact.Descriptor) (Predictor, error) {
	ctx, cancel := context.WithTimeout(ctx, l.attemptTimeout)
	defer cancel()

	type result struct {
		predictor Predictor
		err       error
	}
	done := make(chan result, 1)

	go func() {
		p, err := s.Load(ctx, desc)
		done <- result{p, err}
	}()

	select {
	case res := <-done:
		return res.predictor, res.err
	case <-ctx.Done():
		// Reap a late success so its session does not leak
		go func() {
			if res := <-done; res.predictor != nil {
				res.predictor.Close()
			}
		}()
		return nil, errors.Wrapf(errors.ErrTimeout, "strategy %s attempt", s.Name())
	}
}

// DirectPathStrategy loads the model blob straight from the artifact's
// storage location in its native on-disk format
type DirectPathStrategy struct{}

func (s *DirectPathStrategy) Name() string { return "direct_path" }

func (s *DirectPathStrategy) Load(ctx context.Context, desc artifact.Descriptor) (Predictor, error) {
	path := filepath.Join(desc.StorageLocation, artifact.PayloadONNX)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "no native payload at %s", path)
	}
	return LoadONNXModel(path)
}

// RegistryStrategy resolves the artifact through the run registry: artifacts
// registered under a run id keep a second copy at
// <root>/<run_id>/artifacts/<payload>. Covers stores whose primary location
// has drifted while the registry entry survived.
type RegistryStrategy struct {
	Root string
}

func (s *RegistryStrategy) Name() string { return "registry_uri" }

func (s *RegistryStrategy) Load(ctx context.Context, desc artifact.Descriptor) (Predictor, error) {
	if s.Root == "" {
		return nil, errors.New("no registry root configured")
	}
	path := filepath.Join(s.Root, desc.ID, "artifacts", artifact.PayloadONNX)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "artifact %s not registered", desc.ID)
	}
	return LoadONNXModel(path)
}

// RawWeightsStrategy deserializes the lowest-level serialized blob directly,
// bypassing the model-format wrapper. Last resort for artifacts whose runtime
// payload is corrupt but whose exported weights survived.
type RawWeightsStrategy struct {
	Store artifact.Store
}

func (s *RawWeightsStrategy) Name() string { return "raw_weights" }

func (s *RawWeightsStrategy) Load(ctx context.Context, desc artifact.Descriptor) (Predictor, error) {
	blob, err := s.Store.LoadBlob(ctx, desc.StorageLocation)
	if err != nil {
		return nil, errors.Wrap(err, "blob read failed")
	}
	return DecodeLinearModel(blob)
}
