package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"wopiproxy/internal/model"
	"wopiproxy/internal/ports"
)

// S3Backend implements ports.StorageNode against an S3-compatible endpoint,
// with per-request credentials taken from the model.Storage row rather than
// from process-wide configuration, since each tenant owns its own bucket.
type S3Backend struct{}

func NewS3Backend() *S3Backend {
	return &S3Backend{}
}

func (b *S3Backend) client(ctx context.Context, st *model.Storage) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(st.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(st.AccessKey, st.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: loading aws config: %v", model.ErrStorageFailure, err)
	}

	opts := func(o *s3.Options) {
		if st.Endpoint != "" {
			o.BaseEndpoint = aws.String(st.Endpoint)
			o.UsePathStyle = true
		}
	}

	return s3.NewFromConfig(cfg, opts), nil
}

func (b *S3Backend) key(st *model.Storage, path string) string {
	return st.RootPath + path
}

func (b *S3Backend) Stat(ctx context.Context, st *model.Storage, path string) (ports.FileInfo, error) {
	client, err := b.client(ctx, st)
	if err != nil {
		return ports.FileInfo{}, err
	}

	out, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(st.Bucket),
		Key:    aws.String(b.key(st, path)),
	})
	if err != nil {
		if isNotFound(err) {
			return ports.FileInfo{}, model.ErrNotFound
		}
		return ports.FileInfo{}, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}

	version := ""
	if out.VersionId != nil {
		version = *out.VersionId
	}
	lastModified := aws.ToTime(out.LastModified)

	return ports.FileInfo{
		Size:         aws.ToInt64(out.ContentLength),
		Version:      version,
		LastModified: lastModified,
	}, nil
}

func (b *S3Backend) Open(ctx context.Context, st *model.Storage, path string) (io.ReadCloser, error) {
	client, err := b.client(ctx, st)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(st.Bucket),
		Key:    aws.String(b.key(st, path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}

	return out.Body, nil
}

func (b *S3Backend) Write(ctx context.Context, st *model.Storage, path string, content io.Reader, size int64) (ports.FileInfo, error) {
	client, err := b.client(ctx, st)
	if err != nil {
		return ports.FileInfo{}, err
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(content, buf); err != nil && size > 0 {
		return ports.FileInfo{}, fmt.Errorf("%w: reading upload body: %v", model.ErrStorageFailure, err)
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(st.Bucket),
		Key:    aws.String(b.key(st, path)),
		Body:   bytes.NewReader(buf),
	})
	if err != nil {
		return ports.FileInfo{}, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}

	return b.Stat(ctx, st, path)
}

func (b *S3Backend) Capabilities() model.Capabilities {
	return model.Capabilities{
		Read:           true,
		Write:          true,
		Delete:         false,
		Versioning:     true,
		VersionListing: true,
		VersionAccess:  false,
		PresignedURLs:  true,
	}
}

// PresignGet returns a time-limited URL for downloading the object directly
// from the bucket, letting GetFile redirect instead of proxying bytes.
func (b *S3Backend) PresignGet(ctx context.Context, st *model.Storage, path string, ttl time.Duration) (string, error) {
	client, err := b.client(ctx, st)
	if err != nil {
		return "", err
	}

	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(st.Bucket),
		Key:    aws.String(b.key(st, path)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("%w: presigning get: %v", model.ErrStorageFailure, err)
	}
	return req.URL, nil
}

func (b *S3Backend) Versions(ctx context.Context, st *model.Storage, path string) ([]ports.FileInfo, error) {
	client, err := b.client(ctx, st)
	if err != nil {
		return nil, err
	}

	out, err := client.ListObjectVersions(ctx, &s3.ListObjectVersionsInput{
		Bucket: aws.String(st.Bucket),
		Prefix: aws.String(b.key(st, path)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}

	versions := make([]ports.FileInfo, 0, len(out.Versions))
	for _, v := range out.Versions {
		versions = append(versions, ports.FileInfo{
			Size:         aws.ToInt64(v.Size),
			Version:      aws.ToString(v.VersionId),
			LastModified: aws.ToTime(v.LastModified),
		})
	}
	return versions, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
