package port

import (
	"context"
	"io"
)

// MediaStore is the object store holding uploaded videos. The orchestrator
// fetches an upload's object into its work dir before decoding; a nil store
// means file paths are plain local paths.
type MediaStore interface {
	FetchVideo(ctx context.Context, objectKey string, destPath string) error
	StoreVideo(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}
