package ml

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripcast/internal/domain/artifact"
	"tripcast/pkg/errors"
)

// fakeStore is an in-memory artifact.Store for resolver and loader tests
type fakeStore struct {
	candidates []artifact.Descriptor
	listErr    error
	noPayload  map[string]bool // storage locations without a loadable payload
	blobs      map[string][]byte
	blobErr    error
}

func (s *fakeStore) ListCandidates(ctx context.Context) ([]artifact.Descriptor, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.candidates, nil
}

func (s *fakeStore) HasModelPayload(ctx context.Context, storageLocation string) bool {
	return !s.noPayload[storageLocation]
}

func (s *fakeStore) LoadBlob(ctx context.Context, storageLocation string) ([]byte, error) {
	if s.blobErr != nil {
		return nil, s.blobErr
	}
	return s.blobs[storageLocation], nil
}

func rmse(v float64) *float64 {
	return &v
}

func TestResolveBest_MetricBeatsRecency(t *testing.T) {
	store := &fakeStore{
		candidates: []artifact.Descriptor{
			{
				ID:              "recent-unevaluated",
				StorageLocation: "/a",
				LastModified:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			},
			{
				ID:              "old-evaluated",
				StorageLocation: "/b",
				LastModified:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				Metrics:         artifact.Metrics{RMSE: rmse(4.2)},
			},
		},
	}

	best, err := NewResolver(store).ResolveBest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old-evaluated", best.ID)
}

func TestResolveBest_LowestRMSEWins(t *testing.T) {
	store := &fakeStore{
		candidates: []artifact.Descriptor{
			{ID: "worse", StorageLocation: "/a", Metrics: artifact.Metrics{RMSE: rmse(5.1)}},
			{ID: "best", StorageLocation: "/b", Metrics: artifact.Metrics{RMSE: rmse(3.9)}},
			{ID: "middle", StorageLocation: "/c", Metrics: artifact.Metrics{RMSE: rmse(4.2)}},
		},
	}

	best, err := NewResolver(store).ResolveBest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "best", best.ID)
}

func TestResolveBest_RecencyWhenNoMetrics(t *testing.T) {
	store := &fakeStore{
		candidates: []artifact.Descriptor{
			{ID: "old", StorageLocation: "/a", LastModified: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "new", StorageLocation: "/b", LastModified: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	best, err := NewResolver(store).ResolveBest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", best.ID)
}

func TestResolveBest_TieBreaksByID(t *testing.T) {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		candidates: []artifact.Descriptor{
			{ID: "model-b", StorageLocation: "/b", LastModified: ts, Metrics: artifact.Metrics{RMSE: rmse(4.2)}},
			{ID: "model-a", StorageLocation: "/a", LastModified: ts, Metrics: artifact.Metrics{RMSE: rmse(4.2)}},
		},
	}

	best, err := NewResolver(store).ResolveBest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "model-a", best.ID)
}

func TestResolveBest_EmptyStore(t *testing.T) {
	_, err := NewResolver(&fakeStore{}).ResolveBest(context.Background())
	assert.ErrorIs(t, err, errors.ErrNoArtifactsFound)
}

func TestResolveBest_SkipsEntriesWithoutPayload(t *testing.T) {
	store := &fakeStore{
		candidates: []artifact.Descriptor{
			{ID: "broken", StorageLocation: "/broken", Metrics: artifact.Metrics{RMSE: rmse(1.0)}},
			{ID: "loadable", StorageLocation: "/ok", Metrics: artifact.Metrics{RMSE: rmse(9.0)}},
		},
		noPayload: map[string]bool{"/broken": true},
	}

	best, err := NewResolver(store).ResolveBest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "loadable", best.ID)
}

func TestResolveBest_AllEntriesWithoutPayload(t *testing.T) {
	store := &fakeStore{
		candidates: []artifact.Descriptor{
			{ID: "broken", StorageLocation: "/broken"},
		},
		noPayload: map[string]bool{"/broken": true},
	}

	_, err := NewResolver(store).ResolveBest(context.Background())
	assert.ErrorIs(t, err, errors.ErrNoArtifactsFound)
}

func TestResolveBest_ScanError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("disk on fire")}

	_, err := NewResolver(store).ResolveBest(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, errors.ErrNoArtifactsFound)
	assert.Contains(t, err.Error(), "artifact store scan failed")
}
