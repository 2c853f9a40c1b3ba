package ttsdal

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
)

const (
	// the public OEDI data lake
	DefaultBucketName = "oedi-data-lake"
	DefaultBasePrefix = "tracking-the-sun"

	ParquetFileSuffix = ".parquet"
)

type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjStore is a read-only view onto one bucket of an object store.
type ObjStore interface {
	// ListKeys lists every object under prefix, recursively.
	ListKeys(ctx context.Context, prefix string) ([]ObjectInfo, errorsx.Error)
	// GetObject fetches a whole object. It returns errorsx.ObjectNotFound
	// (compare with ==) when the key does not exist.
	GetObject(ctx context.Context, key string) ([]byte, error)
}
