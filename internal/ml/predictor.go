package ml

import (
	"context"

	"tripcast/internal/domain/artifact"
)

// Predictor is a runnable model: a fixed-order feature vector in, a predicted
// trip duration in minutes out.
type Predictor interface {
	Infer(features []float64) (float64, error)
	Close()
}

// LoadedModel wraps a runnable predictor with the descriptor it came from and
// the strategy that produced it. Owned by the orchestrator's cache.
type LoadedModel struct {
	Predictor  Predictor
	Descriptor artifact.Descriptor
	Strategy   string
}

// Strategy is one way of materializing a predictor from a resolved artifact.
// Strategies are tried in order; a failure advances the chain.
type Strategy interface {
	Name() string
	Load(ctx context.Context, desc artifact.Descriptor) (Predictor, error)
}
