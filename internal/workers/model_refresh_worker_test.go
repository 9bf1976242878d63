package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripcast/internal/domain/artifact"
	"tripcast/internal/ml"
	"tripcast/pkg/errors"
)

type mockResolver struct {
	desc artifact.Descriptor
	err  error
}

func (r *mockResolver) ResolveBest(ctx context.Context) (artifact.Descriptor, error) {
	if r.err != nil {
		return artifact.Descriptor{}, r.err
	}
	return r.desc, nil
}

type mockSwapper struct {
	cached      *artifact.Descriptor
	reloadErr   error
	reloadCalls atomic.Int32
}

func (s *mockSwapper) CachedDescriptor() *artifact.Descriptor {
	return s.cached
}

func (s *mockSwapper) Reload(ctx context.Context) (*ml.LoadedModel, error) {
	s.reloadCalls.Add(1)
	if s.reloadErr != nil {
		return nil, s.reloadErr
	}
	return &ml.LoadedModel{Descriptor: *s.cached, Strategy: "direct_path"}, nil
}

var refreshDesc = artifact.Descriptor{
	ID:           "a1b2c3d4e5f6",
	LastModified: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
}

func TestModelRefresh_ReloadsWhenNothingCached(t *testing.T) {
	resolver := &mockResolver{desc: refreshDesc}
	swapper := &warmSwapper{result: refreshDesc}

	worker := NewModelRefreshWorker(resolver, swapper, time.Minute, true)

	require.NoError(t, worker.Run(context.Background()))
	assert.Equal(t, int32(1), swapper.reloadCalls.Load(), "cold cache warms on first pass")
}

// warmSwapper reports no cached model and accepts one reload
type warmSwapper struct {
	result      artifact.Descriptor
	reloadCalls atomic.Int32
}

func (s *warmSwapper) CachedDescriptor() *artifact.Descriptor { return nil }

func (s *warmSwapper) Reload(ctx context.Context) (*ml.LoadedModel, error) {
	s.reloadCalls.Add(1)
	return &ml.LoadedModel{Descriptor: s.result, Strategy: "direct_path"}, nil
}

func TestModelRefresh_SkipsWhenCachedModelIsCurrent(t *testing.T) {
	resolver := &mockResolver{desc: refreshDesc}
	cached := refreshDesc
	swapper := &mockSwapper{cached: &cached}

	worker := NewModelRefreshWorker(resolver, swapper, time.Minute, true)

	require.NoError(t, worker.Run(context.Background()))
	assert.Equal(t, int32(0), swapper.reloadCalls.Load())
}

func TestModelRefresh_ReloadsWhenBestChanged(t *testing.T) {
	newer := refreshDesc
	newer.ID = "ffffffff0000"
	resolver := &mockResolver{desc: newer}

	cached := refreshDesc
	swapper := &trackingSwapper{cached: &cached, next: newer}

	worker := NewModelRefreshWorker(resolver, swapper, time.Minute, true)

	require.NoError(t, worker.Run(context.Background()))
	assert.Equal(t, int32(1), swapper.reloadCalls.Load())
	assert.Equal(t, "ffffffff0000", swapper.cached.ID)
}

// trackingSwapper holds an old cached descriptor and swaps on reload
type trackingSwapper struct {
	cached      *artifact.Descriptor
	next        artifact.Descriptor
	reloadCalls atomic.Int32
}

func (s *trackingSwapper) CachedDescriptor() *artifact.Descriptor { return s.cached }

func (s *trackingSwapper) Reload(ctx context.Context) (*ml.LoadedModel, error) {
	s.reloadCalls.Add(1)
	s.cached = &s.next
	return &ml.LoadedModel{Descriptor: s.next, Strategy: "direct_path"}, nil
}

func TestModelRefresh_NoArtifactsIsNotAnError(t *testing.T) {
	resolver := &mockResolver{err: errors.ErrNoArtifactsFound}
	swapper := &mockSwapper{}

	worker := NewModelRefreshWorker(resolver, swapper, time.Minute, true)

	require.NoError(t, worker.Run(context.Background()))
	assert.Equal(t, int32(0), swapper.reloadCalls.Load())
	assert.Equal(t, int64(1), worker.Health().RunCount)
	assert.Equal(t, int64(0), worker.Health().ErrorCount)
}

func TestModelRefresh_ResolveFailureIsRecorded(t *testing.T) {
	resolver := &mockResolver{err: errors.New("store unreachable")}
	worker := NewModelRefreshWorker(resolver, &mockSwapper{}, time.Minute, true)

	require.Error(t, worker.Run(context.Background()))
	assert.Equal(t, int64(1), worker.Health().ErrorCount)
}

func TestModelRefresh_ReloadFailureIsRecorded(t *testing.T) {
	resolver := &mockResolver{desc: refreshDesc}
	swapper := &mockSwapper{reloadErr: errors.Wrap(errors.ErrModelLoad, "exhausted")}

	worker := NewModelRefreshWorker(resolver, swapper, time.Minute, true)

	require.Error(t, worker.Run(context.Background()))
	assert.Equal(t, int32(1), swapper.reloadCalls.Load())
	assert.Equal(t, int64(1), worker.Health().ErrorCount)
}
