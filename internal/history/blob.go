// Package history persists invoice snapshots to a single-key blob store, the
// server-side analogue of the browser's local storage: one flat JSON array
// under one fixed key, with a practical capacity ceiling.
package history

import "context"

// BlobStore reads and writes the one serialized collection. Load returns
// (nil, nil) when nothing has been stored yet.
type BlobStore interface {
	Load(ctx context.Context) ([]byte, error)
	Store(ctx context.Context, data []byte) error
}
