package fsstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tripcast/internal/domain/artifact"
	"tripcast/pkg/errors"
	"tripcast/pkg/logger"
)

// Compile-time check
var _ artifact.Store = (*Store)(nil)

// artifactDirPrefix marks model directories inside the store root
const artifactDirPrefix = "m-"

// metaFile is the optional per-artifact metadata sidecar
const metaFile = "meta.json"

// Store is a filesystem-backed artifact store. Layout:
//
//	<root>/m-<id>/artifacts/model.onnx     native payload
//	<root>/m-<id>/artifacts/weights.json   raw serialized weights
//	<root>/m-<id>/artifacts/meta.json      optional declared metrics
//
// Metadata is frequently partial: meta.json may be absent or malformed, in
// which case the entry is still listed with whatever the filesystem knows.
type Store struct {
	root string
	log  *logger.Logger
}

// New creates a store rooted at dir
func New(root string) *Store {
	return &Store{
		root: root,
		log:  logger.Get().With("component", "fs_artifact_store"),
	}
}

// meta mirrors the training pipeline's metadata sidecar
type meta struct {
	ModelType string   `json:"model_type"`
	RMSE      *float64 `json:"rmse"`
	MAE       *float64 `json:"mae"`
	R2        *float64 `json:"r2"`
}

// ListCandidates scans the store root for artifact directories
func (s *Store) ListCandidates(ctx context.Context) ([]artifact.Descriptor, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			// An absent store is an empty store, not a scan failure
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading artifact store root %s", s.root)
	}

	var candidates []artifact.Descriptor
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), artifactDirPrefix) {
			continue
		}

		id := strings.TrimPrefix(entry.Name(), artifactDirPrefix)
		location := filepath.Join(s.root, entry.Name(), "artifacts")

		desc := artifact.Descriptor{
			ID:              id,
			StorageLocation: location,
			LastModified:    s.payloadModTime(location),
		}

		// Declared metrics are optional; a malformed sidecar degrades to
		// no-metric metadata rather than dropping the entry
		if m, err := s.readMeta(location); err == nil && m != nil {
			desc.ModelType = m.ModelType
			desc.Metrics = artifact.Metrics{RMSE: m.RMSE, MAE: m.MAE, R2: m.R2}
		} else if err != nil {
			s.log.Warnw("Ignoring malformed artifact metadata",
				"artifact_id", id, "error", err)
		}

		candidates = append(candidates, desc)
	}

	return candidates, nil
}

// HasModelPayload reports whether the location holds at least one loadable
// payload file
func (s *Store) HasModelPayload(ctx context.Context, storageLocation string) bool {
	for _, name := range []string{artifact.PayloadONNX, artifact.PayloadRawWeights} {
		if info, err := os.Stat(filepath.Join(storageLocation, name)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// LoadBlob reads the raw serialized weights at a storage location
func (s *Store) LoadBlob(ctx context.Context, storageLocation string) ([]byte, error) {
	blob, err := os.ReadFile(filepath.Join(storageLocation, artifact.PayloadRawWeights))
	if err != nil {
		return nil, errors.Wrapf(err, "reading raw blob at %s", storageLocation)
	}
	return blob, nil
}

// payloadModTime returns the newest payload file's mtime, or the directory's
// own mtime when no payload exists
func (s *Store) payloadModTime(location string) (t time.Time) {
	for _, name := range []string{artifact.PayloadONNX, artifact.PayloadRawWeights} {
		if info, err := os.Stat(filepath.Join(location, name)); err == nil {
			if info.ModTime().After(t) {
				t = info.ModTime()
			}
		}
	}
	if t.IsZero() {
		if info, err := os.Stat(location); err == nil {
			t = info.ModTime()
		}
	}
	return t
}

func (s *Store) readMeta(location string) (*meta, error) {
	data, err := os.ReadFile(filepath.Join(location, metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "decoding meta.json")
	}
	return &m, nil
}
