// internal/s3/cleaner.go
package s3

import (
	"context"
	"fmt"

	"rental-admin-console/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ObjectAPI is the part of *s3.Client the cleaner needs.
type ObjectAPI interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Cleaner removes objects whose keys were replaced or dropped from a draft.
type Cleaner struct {
	Client ObjectAPI
	Bucket string
	logger *zap.Logger
}

func NewCleaner(cfg config.S3Config, logger *zap.Logger) (*Cleaner, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	sdkConfig, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewCleanerWithClient(s3.NewFromConfig(sdkConfig), cfg.Bucket, logger), nil
}

func NewCleanerWithClient(client ObjectAPI, bucket string, logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{Client: client, Bucket: bucket, logger: logger}
}

// Remove deletes key from the bucket. Failures are logged and returned; callers treat them as best effort.
func (c *Cleaner) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := c.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		c.logger.Warn("failed to delete object", zap.String("bucket", c.Bucket), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}
	c.logger.Info("deleted replaced object", zap.String("key", key))
	return nil
}
