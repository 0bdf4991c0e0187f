// Package storage puts generated artifacts into an object store and hands out
// time-limited download links for them.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrMissingSigner indicates signed URL support is not configured.
	ErrMissingSigner = errors.New("storage: signed url signer not configured")
	// ErrBucketRequired is returned when a driver is built without a bucket.
	ErrBucketRequired = errors.New("storage: bucket is required")
)

// Storage stores objects in a single bucket chosen at construction.
type Storage interface {
	io.Closer

	// Put stores r under key.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// PresignGet returns a URL that downloads key until expiry elapses.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	// Size is the content length, or -1 when unknown.
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}
