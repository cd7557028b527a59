package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"video-research-backend/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ContentStore puts and gets large binary objects (uploaded media, generated
// audio chunks) by key.
type ContentStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// S3ContentStore is the S3-backed content store
type S3ContentStore struct {
	s3Client *s3.Client
	bucket   string
}

func NewS3ContentStore(bucket string) (*S3ContentStore, error) {
	log := logger.New().WithField("component", "content-store")

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	log.WithField("region", region).WithField("bucket", bucket).Info("initialized S3 content store")

	return &S3ContentStore{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucket,
	}, nil
}

// Put uploads an object to the bucket
func (cs *S3ContentStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := cs.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(cs.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %v", key, err)
	}
	return nil
}

// Get downloads an object from the bucket
func (cs *S3ContentStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := cs.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(cs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %v", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", key, err)
	}
	return data, nil
}

// PresignGet generates a time-limited download URL for an object
func (cs *S3ContentStore) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(cs.s3Client)
	presigned, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(cs.bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %v", key, err)
	}
	return presigned.URL, nil
}
