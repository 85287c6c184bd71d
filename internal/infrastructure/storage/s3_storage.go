// Package storage keeps product images in S3-compatible object storage.
// Browsers upload and download directly through presigned URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	auctionapp "github.com/bidhouse/backend/internal/application/auction"
	"github.com/bidhouse/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ auctionapp.ImageStorage = (*S3ImageStorage)(nil)

var errKeyRequired = errors.New("storage key is required")

// S3ImageStorage implements auctionapp.ImageStorage with the AWS SDK v2.
// Works against AWS S3 and S3-compatible servers such as MinIO.
type S3ImageStorage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	uploadExpiry  time.Duration
	viewExpiry    time.Duration
	logger        *zap.Logger
}

// S3ImageStorageOption configures S3ImageStorage
type S3ImageStorageOption func(*S3ImageStorage)

func WithLogger(logger *zap.Logger) S3ImageStorageOption {
	return func(s *S3ImageStorage) {
		s.logger = logger
	}
}

// NewS3ImageStorage builds the client from configuration. An empty endpoint
// targets AWS itself.
func NewS3ImageStorage(ctx context.Context, cfg *config.StorageConfig, opts ...S3ImageStorageOption) (*S3ImageStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3ImageStorage{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		uploadExpiry:  cfg.UploadURLExpiry,
		viewExpiry:    cfg.ViewURLExpiry,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.uploadExpiry <= 0 {
		s.uploadExpiry = 15 * time.Minute
	}
	if s.viewExpiry <= 0 {
		s.viewExpiry = time.Hour
	}
	return s, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *S3ImageStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating image bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// GenerateUploadURL presigns a PUT for key restricted to contentType
func (s *S3ImageStorage) GenerateUploadURL(ctx context.Context, key, contentType string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errKeyRequired
	}
	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.uploadExpiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign upload: %w", err)
	}
	return req.URL, time.Now().Add(s.uploadExpiry), nil
}

// GenerateViewURL presigns a GET for key
func (s *S3ImageStorage) GenerateViewURL(ctx context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errKeyRequired
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.viewExpiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, time.Now().Add(s.viewExpiry), nil
}

// ObjectExists reports whether the browser actually finished the upload
func (s *S3ImageStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errKeyRequired
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		// some S3-compatible servers return a generic API error
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object: %w", err)
	}
	return true, nil
}

func (s *S3ImageStorage) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return errKeyRequired
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *S3ImageStorage) Bucket() string {
	return s.bucket
}
