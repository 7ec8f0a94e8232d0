package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"resize-server/internal/config"
	"resize-server/internal/infrastructure/metrics"
)

// S3Storage keeps image files in S3-compatible storage using
// <user_id>/<image_id>/<filename> keys, so an image "directory" is a key
// prefix. The existence check before an origin write is not atomic the way
// the local backend's directory create is; the metadata index's unique
// constraint remains the final de-duplication point on this backend.
type S3Storage struct {
	bucket string
	client *s3.Client
	log    zerolog.Logger
}

func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()

	bucket := strings.TrimSpace(cfg.S3Bucket)
	accessKey := strings.TrimSpace(cfg.S3AccessKeyID)
	secretKey := strings.TrimSpace(cfg.S3SecretKey)
	if bucket == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("IMAGE_S3_BUCKET and credentials are required for the s3 backend")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.S3Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.S3Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.S3Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return &S3Storage{
		bucket: bucket,
		client: client,
		log:    logger,
	}, nil
}

func objectKey(userID, imageID, filename string) string {
	return userID + "/" + imageID + "/" + filename
}

// CreateImage writes the first file of an image after checking that no
// object exists under the image prefix.
func (s *S3Storage) CreateImage(ctx context.Context, userID, imageID, filename string, data []byte) error {
	prefix := userID + "/" + imageID + "/"
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		metrics.RecordStorageOperation("create_image", "error")
		return fmt.Errorf("list image prefix: %w", err)
	}
	if len(out.Contents) > 0 {
		metrics.RecordStorageOperation("create_image", "error")
		return fmt.Errorf("image prefix %s: %w", prefix, fs.ErrExist)
	}
	return s.WriteFile(ctx, userID, imageID, filename, data)
}

// WriteFile stores one object under the image prefix.
func (s *S3Storage) WriteFile(ctx context.Context, userID, imageID, filename string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(userID, imageID, filename)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		metrics.RecordStorageOperation("write_file", "error")
		return fmt.Errorf("put object: %w", err)
	}
	metrics.RecordStorageOperation("write_file", "success")
	return nil
}

// Read returns the raw bytes of one stored object.
func (s *S3Storage) Read(ctx context.Context, userID, imageID, filename string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(userID, imageID, filename)),
	})
	if err != nil {
		metrics.RecordStorageOperation("read", "error")
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("object %s: %w", objectKey(userID, imageID, filename), fs.ErrNotExist)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		metrics.RecordStorageOperation("read", "error")
		return nil, fmt.Errorf("read object body: %w", err)
	}
	metrics.RecordStorageOperation("read", "success")
	return data, nil
}

// DeleteFile removes a single object.
func (s *S3Storage) DeleteFile(ctx context.Context, userID, imageID, filename string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(userID, imageID, filename)),
	})
	if err != nil {
		metrics.RecordStorageOperation("delete_file", "error")
		return fmt.Errorf("delete object: %w", err)
	}
	metrics.RecordStorageOperation("delete_file", "success")
	return nil
}

// DeleteImageDir removes every object under the image prefix.
func (s *S3Storage) DeleteImageDir(ctx context.Context, userID, imageID string) error {
	return s.deletePrefix(ctx, userID+"/"+imageID+"/", "delete_image_dir")
}

// DeleteUserDir removes every object under the user prefix. An empty prefix
// listing is a no-op success.
func (s *S3Storage) DeleteUserDir(ctx context.Context, userID string) error {
	return s.deletePrefix(ctx, userID+"/", "delete_user_dir")
}

func (s *S3Storage) deletePrefix(ctx context.Context, prefix, operation string) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			metrics.RecordStorageOperation(operation, "error")
			return fmt.Errorf("list prefix %s: %w", prefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}
		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}
		_, err = s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			metrics.RecordStorageOperation(operation, "error")
			return fmt.Errorf("delete prefix %s: %w", prefix, err)
		}
	}
	metrics.RecordStorageOperation(operation, "success")
	return nil
}

// Health performs a simple HeadBucket request.
func (s *S3Storage) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
