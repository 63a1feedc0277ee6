package productsink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/price-predictor/internal/domain/catalog"
)

// ObjectStoreSink uploads the run's CSV to an S3 compatible bucket (R2, MinIO, S3).
type ObjectStoreSink struct {
	client *minio.Client
	bucket string
	prefix string
}

// ObjectStoreOptions configures NewObjectStoreSink.
type ObjectStoreOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

// NewObjectStoreSink constructs the sink.
func NewObjectStoreSink(opts ObjectStoreOptions) (*ObjectStoreSink, error) {
	endpoint := sanitizeEndpoint(opts.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	useSSL := opts.UseSSL
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(opts.Endpoint)), "http://") {
		useSSL = false
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       useSSL,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	return &ObjectStoreSink{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

func (s *ObjectStoreSink) Name() string { return catalog.SinkObjectStore }

func (s *ObjectStoreSink) Write(ctx context.Context, snap catalog.Snapshot) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}
	var buf bytes.Buffer
	if err := encodeCSV(&buf, snap.Table); err != nil {
		return err
	}
	key := objectKey(s.prefix, snap.Run.ID)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType:      "text/csv",
		DisableMultipart: buf.Len() < 5*1024*1024,
		UserMetadata: map[string]string{
			"source":     snap.Run.Source,
			"scraped-at": snap.Run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStoreSink) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

func objectKey(prefix, runID string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return runID + ".csv"
	}
	return path.Join(prefix, runID+".csv")
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

var _ catalog.Sink = (*ObjectStoreSink)(nil)
