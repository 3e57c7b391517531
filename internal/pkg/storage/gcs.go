package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client *gcs.Client

	signerAccessID string
	signerKey      []byte
}

// GCSOptions configures the GCS client.
//
// Without CredentialsJSON the client uses Application Default Credentials.
// PresignGet needs SignerAccessID and SignerPrivateKey.
type GCSOptions struct {
	CredentialsJSON []byte
	Endpoint        string
	WithoutAuth     bool

	SignerAccessID   string
	SignerPrivateKey []byte
}

// NewGCS builds the client from opts.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	var clientOpts []option.ClientOption
	if opts.WithoutAuth {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	if len(opts.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, opts.CredentialsJSON, gcs.ScopeReadWrite)
		if err != nil {
			return nil, fmt.Errorf("storage: gcs credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs new client: %w", err)
	}

	return &GCSAdapter{
		client:         client,
		signerAccessID: opts.SignerAccessID,
		signerKey:      opts.SignerPrivateKey,
	}, nil
}

// PutObject streams r into the object and waits for the upload to finish.
func (g *GCSAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	if err := checkTarget(bucket, key); err != nil {
		return ObjectInfo{}, err
	}

	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata

	if _, err := io.Copy(w, r); err != nil {
		//nolint:errcheck // the copy error wins
		_ = w.Close()
		return ObjectInfo{}, fmt.Errorf("storage: gcs write: %w", err)
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("storage: gcs close: %w", err)
	}

	attrs := w.Attrs()
	return ObjectInfo{Bucket: bucket, Key: key, Size: attrs.Size, ETag: attrs.Etag}, nil
}

// PresignGet returns a V4 signed URL.
func (g *GCSAdapter) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if err := checkTarget(bucket, key); err != nil {
		return "", err
	}
	if g.signerAccessID == "" || len(g.signerKey) == 0 {
		return "", ErrMissingSigner
	}

	return gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		Scheme:         gcs.SigningSchemeV4,
		Method:         http.MethodGet,
		Expires:        time.Now().Add(expiry),
		GoogleAccessID: g.signerAccessID,
		PrivateKey:     g.signerKey,
	})
}

// Close closes the GCS client.
func (g *GCSAdapter) Close() error {
	return g.client.Close()
}
