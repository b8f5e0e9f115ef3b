// Package storage keeps backup snapshots in S3 or an S3-compatible store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pageza/larder/backend/config"
	"github.com/pageza/larder/backend/internal/backup"
)

// ErrObjectNotFound is returned by Get for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectAPI is the part of the S3 client the archive uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Archive implements backup.Archive over one bucket.
type S3Archive struct {
	client  ObjectAPI
	bucket  string
	presign func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var _ backup.Archive = (*S3Archive)(nil)

// NewS3Archive uses the client and bucket from the shared S3 configuration.
func NewS3Archive(cfg *config.S3Config) *S3Archive {
	return &S3Archive{
		client:  cfg.Client,
		bucket:  cfg.BucketName,
		presign: cfg.GeneratePresignedURL,
	}
}

// NewS3ArchiveWithClient is for callers that bring their own client.
func NewS3ArchiveWithClient(client ObjectAPI, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket}
}

func (a *S3Archive) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	log.Printf("[Storage] uploaded s3://%s/%s (%d bytes)", a.bucket, key, size)
	return nil
}

func (a *S3Archive) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	return out.Body, nil
}

// List returns every object under prefix, following continuation tokens.
func (a *S3Archive) List(ctx context.Context, prefix string) ([]backup.ObjectInfo, error) {
	var objects []backup.ObjectInfo
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	}
	for {
		out, err := a.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			info := backup.ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			objects = append(objects, info)
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return objects, nil
		}
		input.ContinuationToken = out.NextContinuationToken
	}
}

// DownloadURL returns a presigned GET URL for key.
func (a *S3Archive) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if a.presign == nil {
		return "", errors.New("presigned URLs are not available for this archive")
	}
	return a.presign(ctx, key, ttl)
}
