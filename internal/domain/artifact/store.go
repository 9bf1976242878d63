package artifact

import "context"

// Payload file names inside an artifact's storage location. An entry is
// structurally valid when at least one of them is present.
const (
	PayloadONNX       = "model.onnx"
	PayloadRawWeights = "weights.json"
)

// Store is the external system holding candidate trained models. The serving
// core only ever reads from it.
type Store interface {
	// ListCandidates enumerates every artifact entry the store knows about,
	// including entries with partial or missing metadata
	ListCandidates(ctx context.Context) ([]Descriptor, error)

	// HasModelPayload reports whether a storage location contains the minimum
	// loadable model blob. Structural check only, no metric involved.
	HasModelPayload(ctx context.Context, storageLocation string) bool

	// LoadBlob reads the lowest-level serialized model blob at a storage
	// location
	LoadBlob(ctx context.Context, storageLocation string) ([]byte, error)
}
