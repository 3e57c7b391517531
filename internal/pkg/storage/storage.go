// Package storage uploads objects and hands out time-limited download links
// on S3, MinIO or Google Cloud Storage.
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
	// ErrBucketRequired is returned when bucket or key is empty.
	ErrBucketRequired = errors.New("storage: bucket and key are required")
)

// Storage is the object storage surface used by the service.
type Storage interface {
	io.Closer

	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// PutOptions configures an upload. A Size of zero means unknown length.
type PutOptions struct {
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

func checkTarget(bucket, key string) error {
	if bucket == "" || key == "" {
		return ErrBucketRequired
	}
	return nil
}
