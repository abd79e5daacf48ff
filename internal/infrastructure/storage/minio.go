package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hszk-dev/vidvault/internal/domain/repository"
	"github.com/hszk-dev/vidvault/internal/infrastructure/metrics"
)

const (
	blobKeyPrefix = "blobs/"

	metaOriginalName = "Original-Name"
	metaChecksum     = "Sha256"

	defaultContentType = "application/octet-stream"

	// DefaultPartSize is the multipart chunk size used when none is configured.
	DefaultPartSize uint64 = 16 << 20
)

// objectReader abstracts minio.Object for testability.
// *minio.Object satisfies this interface.
type objectReader interface {
	io.ReadCloser
	Stat() (minio.ObjectInfo, error)
}

// minioClient defines the subset of MinIO operations the blob store relies on.
type minioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (objectReader, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// minioClientAdapter wraps *minio.Client to implement minioClient interface.
// *minio.Client.GetObject returns *minio.Object, which is narrowed to objectReader here.
type minioClientAdapter struct {
	client *minio.Client
}

func (a *minioClientAdapter) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return a.client.BucketExists(ctx, bucketName)
}

func (a *minioClientAdapter) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return a.client.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

func (a *minioClientAdapter) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (objectReader, error) {
	return a.client.GetObject(ctx, bucketName, objectName, opts)
}

func (a *minioClientAdapter) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return a.client.RemoveObject(ctx, bucketName, objectName, opts)
}

func (a *minioClientAdapter) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return a.client.StatObject(ctx, bucketName, objectName, opts)
}

// ClientConfig holds configuration for the MinIO client.
type ClientConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PartSize  uint64 // Multipart chunk size in bytes; zero means DefaultPartSize
}

// Client wraps a MinIO client and implements repository.BlobStore.
// Blobs are stored as objects under blobs/<id>; uploads larger than the part size are chunked.
type Client struct {
	client   minioClient
	bucket   string
	partSize uint64
}

// NewClient creates a new MinIO client.
// It verifies the bucket exists during initialization to fail fast on misconfiguration.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return newClientWithMinioClient(ctx, &minioClientAdapter{client: client}, cfg.Bucket, cfg.PartSize)
}

// newClientWithMinioClient creates a Client with a given minioClient implementation.
// This is used for dependency injection in tests.
func newClientWithMinioClient(ctx context.Context, client minioClient, bucket string, partSize uint64) (*Client, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", repository.ErrBucketNotFound, bucket)
	}

	if partSize == 0 {
		partSize = DefaultPartSize
	}

	return &Client{
		client:   client,
		bucket:   bucket,
		partSize: partSize,
	}, nil
}

// Put stores content under a newly generated blob ID.
// The original name and a SHA-256 checksum are kept as object metadata.
func (c *Client) Put(ctx context.Context, name string, content []byte) (uuid.UUID, error) {
	if len(content) == 0 {
		return uuid.Nil, repository.ErrEmptyBlob
	}

	id := uuid.New()
	sum := sha256.Sum256(content)

	_, err := c.client.PutObject(ctx, c.bucket, objectKey(id), bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentTypeFor(name),
		PartSize:    c.partSize,
		UserMetadata: map[string]string{
			metaOriginalName: url.QueryEscape(name),
			metaChecksum:     hex.EncodeToString(sum[:]),
		},
	})
	if err != nil {
		observe(metrics.BlobOpPut, metrics.BlobStatusError)
		return uuid.Nil, fmt.Errorf("failed to upload blob: %w", err)
	}

	observe(metrics.BlobOpPut, metrics.BlobStatusSuccess)
	metrics.BlobBytesTotal.WithLabelValues(metrics.BlobDirectionIn).Add(float64(len(content)))

	return id, nil
}

// Get returns the full content of a blob.
func (c *Client) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, objectKey(id), minio.GetObjectOptions{})
	if err != nil {
		observe(metrics.BlobOpGet, metrics.BlobStatusError)
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}
	defer obj.Close()

	// GetObject returns a lazy reader that doesn't fail until read.
	if _, err := obj.Stat(); err != nil {
		if isNoSuchKey(err) {
			observe(metrics.BlobOpGet, metrics.BlobStatusNotFound)
			return nil, repository.ErrBlobNotFound
		}
		observe(metrics.BlobOpGet, metrics.BlobStatusError)
		return nil, fmt.Errorf("failed to stat blob: %w", err)
	}

	content, err := io.ReadAll(obj)
	if err != nil {
		observe(metrics.BlobOpGet, metrics.BlobStatusError)
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	observe(metrics.BlobOpGet, metrics.BlobStatusSuccess)
	metrics.BlobBytesTotal.WithLabelValues(metrics.BlobDirectionOut).Add(float64(len(content)))

	return content, nil
}

// Stat returns the metadata recorded for a blob at upload time.
func (c *Client) Stat(ctx context.Context, id uuid.UUID) (*repository.BlobInfo, error) {
	info, err := c.client.StatObject(ctx, c.bucket, objectKey(id), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			observe(metrics.BlobOpStat, metrics.BlobStatusNotFound)
			return nil, repository.ErrBlobNotFound
		}
		observe(metrics.BlobOpStat, metrics.BlobStatusError)
		return nil, fmt.Errorf("failed to stat blob: %w", err)
	}

	name := info.UserMetadata[metaOriginalName]
	if unescaped, err := url.QueryUnescape(name); err == nil {
		name = unescaped
	}

	observe(metrics.BlobOpStat, metrics.BlobStatusSuccess)
	return &repository.BlobInfo{
		ID:         id,
		FileName:   name,
		Length:     info.Size,
		UploadedAt: info.LastModified,
		Checksum:   info.UserMetadata[metaChecksum],
	}, nil
}

// Delete removes a blob. A blob that is already gone is not an error.
func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	err := c.client.RemoveObject(ctx, c.bucket, objectKey(id), minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		observe(metrics.BlobOpDelete, metrics.BlobStatusError)
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	observe(metrics.BlobOpDelete, metrics.BlobStatusSuccess)
	return nil
}

// Ping verifies the MinIO connection is alive by checking bucket access.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to ping minio: %w", err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

func objectKey(id uuid.UUID) string {
	return blobKeyPrefix + id.String()
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func observe(op, status string) {
	metrics.BlobOperationsTotal.WithLabelValues(op, status).Inc()
}

// Compile-time verification that Client implements repository.BlobStore.
var _ repository.BlobStore = (*Client)(nil)
