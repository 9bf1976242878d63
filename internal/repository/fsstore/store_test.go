package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeArtifact lays out one artifact directory under root
func writeArtifact(t *testing.T, root, id string, files map[string]string) string {
	t.Helper()

	location := filepath.Join(root, "m-"+id, "artifacts")
	require.NoError(t, os.MkdirAll(location, 0o755))

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(location, name), []byte(content), 0o644))
	}
	return location
}

func TestListCandidates(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, root, "alpha", map[string]string{
		"model.onnx": "binary",
		"meta.json":  `{"model_type":"xgboost","rmse":4.2,"mae":2.1}`,
	})
	writeArtifact(t, root, "beta", map[string]string{
		"weights.json": `{"coefficients":[1],"intercept":0}`,
	})

	store := New(root)
	candidates, err := store.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	byID := map[string]int{candidates[0].ID: 0, candidates[1].ID: 1}

	alpha := candidates[byID["alpha"]]
	assert.Equal(t, "xgboost", alpha.ModelType)
	require.NotNil(t, alpha.Metrics.RMSE)
	assert.Equal(t, 4.2, *alpha.Metrics.RMSE)
	assert.False(t, alpha.LastModified.IsZero())

	beta := candidates[byID["beta"]]
	assert.Nil(t, beta.Metrics.RMSE)
	assert.False(t, beta.HasMetric())
}

func TestListCandidates_MissingRootIsEmpty(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "does-not-exist"))

	candidates, err := store.ListCandidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestListCandidates_IgnoresForeignEntries(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, root, "real", map[string]string{"model.onnx": "x"})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tmp-scratch"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("hi"), 0o644))

	store := New(root)
	candidates, err := store.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "real", candidates[0].ID)
}

func TestListCandidates_MalformedMetaDegradesToNoMetric(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, root, "broken-meta", map[string]string{
		"model.onnx": "binary",
		"meta.json":  "{not json",
	})

	store := New(root)
	candidates, err := store.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.False(t, candidates[0].HasMetric())
}

func TestHasModelPayload(t *testing.T) {
	root := t.TempDir()
	store := New(root)
	ctx := context.Background()

	onnxOnly := writeArtifact(t, root, "onnx", map[string]string{"model.onnx": "x"})
	weightsOnly := writeArtifact(t, root, "weights", map[string]string{"weights.json": "{}"})
	metaOnly := writeArtifact(t, root, "meta", map[string]string{"meta.json": "{}"})

	assert.True(t, store.HasModelPayload(ctx, onnxOnly))
	assert.True(t, store.HasModelPayload(ctx, weightsOnly))
	assert.False(t, store.HasModelPayload(ctx, metaOnly), "metadata alone is not loadable")
	assert.False(t, store.HasModelPayload(ctx, filepath.Join(root, "nowhere")))
}

func TestLoadBlob(t *testing.T) {
	root := t.TempDir()
	store := New(root)
	ctx := context.Background()

	location := writeArtifact(t, root, "raw", map[string]string{
		"weights.json": `{"coefficients":[1,2],"intercept":3}`,
	})

	blob, err := store.LoadBlob(ctx, location)
	require.NoError(t, err)
	assert.JSONEq(t, `{"coefficients":[1,2],"intercept":3}`, string(blob))

	_, err = store.LoadBlob(ctx, filepath.Join(root, "nowhere"))
	assert.Error(t, err)
}
