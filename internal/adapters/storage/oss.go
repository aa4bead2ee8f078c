package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// OSSConfig configures an OSSFileStorage
type OSSConfig struct {
	Endpoint    string
	Bucket      string
	Region      string
	UseSSL      bool
	Credentials Credentials

	// PathStyle addresses the bucket in the path instead of the host name.
	// OSS only accepts virtual-hosted requests; S3 fakes usually need path style.
	PathStyle bool
	Transport http.RoundTripper
}

// OSSFileStorage implements FileStorage on the S3-compatible API of Aliyun OSS
type OSSFileStorage struct {
	client *minio.Client
	bucket string
}

// NewOSSFileStorage creates a bucket client authenticated with STS credentials
func NewOSSFileStorage(cfg OSSConfig) (*OSSFileStorage, error) {
	lookup := minio.BucketLookupDNS
	if cfg.PathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(
			cfg.Credentials.AccessKeyID,
			cfg.Credentials.AccessKeySecret,
			cfg.Credentials.SecurityToken,
		),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: lookup,
		Transport:    cfg.Transport,
	})
	if err != nil {
		return nil, NewStorageError("NewOSSFileStorage", "", err)
	}

	return &OSSFileStorage{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Store implements FileStorage.Store
func (s *OSSFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if key == "" {
		return NewStorageError("Store", key, ErrInvalidKey)
	}

	putOpts := minio.PutObjectOptions{ContentType: "application/octet-stream"}
	if opts != nil {
		if opts.ContentType != "" {
			putOpts.ContentType = opts.ContentType
		}
		putOpts.UserMetadata = opts.Metadata
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), putOpts)
	if err != nil {
		return NewStorageError("Store", key, translateError(err))
	}
	return nil
}

// Retrieve implements FileStorage.Retrieve
func (s *OSSFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, NewStorageError("Retrieve", key, ErrInvalidKey)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, NewStorageError("Retrieve", key, translateError(err))
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, NewStorageError("Retrieve", key, translateError(err))
	}
	return data, nil
}

// Close implements FileStorage.Close
func (s *OSSFileStorage) Close() error {
	// The minio client holds no resources that need releasing
	return nil
}

// translateError maps S3 error codes onto the package sentinels
func translateError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return ErrFileNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %s", ErrPermissionDenied, resp.Message)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}
