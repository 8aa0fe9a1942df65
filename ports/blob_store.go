package ports

import "context"

// BlobStore defines named, overwrite-on-put byte storage for model artifacts
type BlobStore interface {
	// Put replaces the blob stored under name
	Put(ctx context.Context, name string, data []byte) error
	// Get returns core.ErrNotFound when name has never been stored
	Get(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	// List returns stored names in lexical order
	List(ctx context.Context) ([]string, error)
}
