package storage

import (
	"context"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	bucket string
	client *gcs.Client
	signer *gcsSigner
}

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	Bucket string
	// ClientOptions override the default credentials, endpoint or user agent.
	ClientOptions []option.ClientOption
	// GoogleAccessID and PrivateKey sign download URLs; without them
	// PresignGet returns ErrMissingSigner.
	GoogleAccessID string
	PrivateKey     []byte
}

type gcsSigner struct {
	accessID   string
	privateKey []byte
}

// NewGCS constructs a GCS adapter. Without ClientOptions it uses application
// default credentials.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	if opts.Bucket == "" {
		return nil, ErrBucketRequired
	}

	client, err := gcs.NewClient(ctx, opts.ClientOptions...)
	if err != nil {
		return nil, err
	}

	var signer *gcsSigner
	if opts.GoogleAccessID != "" && len(opts.PrivateKey) > 0 {
		signer = &gcsSigner{accessID: opts.GoogleAccessID, privateKey: opts.PrivateKey}
	}

	return &GCSAdapter{bucket: opts.Bucket, client: client, signer: signer}, nil
}

// Put uploads r to the adapter's bucket.
func (g *GCSAdapter) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return ObjectInfo{}, err
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, err
	}

	attrs := w.Attrs()
	info := ObjectInfo{Bucket: g.bucket, Key: key, Size: n}
	if attrs != nil {
		info.ETag = attrs.Etag
	}
	return info, nil
}

// PresignGet returns a V4 signed URL for downloading key.
func (g *GCSAdapter) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if g.signer == nil {
		return "", ErrMissingSigner
	}
	return gcs.SignedURL(g.bucket, key, &gcs.SignedURLOptions{
		GoogleAccessID: g.signer.accessID,
		PrivateKey:     g.signer.privateKey,
		Method:         http.MethodGet,
		Expires:        time.Now().Add(expiry),
		Scheme:         gcs.SigningSchemeV4,
	})
}

// Close releases the GCS client.
func (g *GCSAdapter) Close() error {
	return g.client.Close()
}
