package prediction

import (
	"context"
	"sync"

	"tripcast/internal/metrics"
	"tripcast/internal/ml"
)

// loadFunc resolves and loads the current best model
type loadFunc func(ctx context.Context) (*ml.LoadedModel, error)

// loadCall is one in-flight resolve+load shared by every caller that arrives
// while it runs
type loadCall struct {
	done  chan struct{}
	model *ml.LoadedModel
	err   error
}

// modelCache holds the process-wide loaded model. Cold-cache callers
// single-flight the resolve+load: exactly one scan of the artifact store per
// miss, with concurrent callers waiting on the in-flight result (or its
// failure) instead of scanning again.
//
// Predictors of replaced models are deliberately never closed: in-flight
// inference may still hold them, and reloads are rare enough that retaining
// superseded sessions for the process lifetime is the simpler contract.
type modelCache struct {
	mu       sync.Mutex
	model    *ml.LoadedModel
	inflight *loadCall
}

// get returns the cached model, or nil
func (c *modelCache) get() *ml.LoadedModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// getOrLoad returns the cached model, populating it through load on a miss
func (c *modelCache) getOrLoad(ctx context.Context, load loadFunc) (*ml.LoadedModel, error) {
	c.mu.Lock()
	if c.model != nil {
		model := c.model
		c.mu.Unlock()
		return model, nil
	}
	if c.inflight != nil {
		call := c.inflight
		c.mu.Unlock()
		return c.wait(ctx, call)
	}

	call := &loadCall{done: make(chan struct{})}
	c.inflight = call
	c.mu.Unlock()

	model, err := load(ctx)

	c.mu.Lock()
	if err == nil {
		c.model = model
		metrics.ModelCached.Set(1)
	}
	call.model, call.err = model, err
	c.inflight = nil
	c.mu.Unlock()
	close(call.done)

	return model, err
}

// reload forces exactly one fresh resolve+load. The previous model stays in
// place unless the new load succeeds; the error is returned to the reload
// caller either way. An in-flight load is allowed to settle first so two
// loads never run concurrently.
func (c *modelCache) reload(ctx context.Context, load loadFunc) (*ml.LoadedModel, error) {
	for {
		c.mu.Lock()
		if c.inflight == nil {
			break
		}
		call := c.inflight
		c.mu.Unlock()
		select {
		case <-call.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &loadCall{done: make(chan struct{})}
	c.inflight = call
	c.mu.Unlock()

	model, err := load(ctx)

	c.mu.Lock()
	if err == nil {
		c.model = model
		metrics.ModelCached.Set(1)
	}
	// Waiters that piggybacked on the reload get whatever is now cached;
	// the load failure itself belongs to the reload caller
	call.model = c.model
	if c.model == nil {
		call.err = err
	}
	c.inflight = nil
	c.mu.Unlock()
	close(call.done)

	if err != nil {
		return nil, err
	}
	return model, nil
}

// wait blocks on an in-flight load and reuses its outcome
func (c *modelCache) wait(ctx context.Context, call *loadCall) (*ml.LoadedModel, error) {
	select {
	case <-call.done:
		return call.model, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
