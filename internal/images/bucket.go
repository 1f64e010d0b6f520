package images

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// BucketConfig describes an S3-compatible bucket (AWS S3, Cloudflare R2, MinIO).
type BucketConfig struct {
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicDomain    string
	MaxBytes        int64
}

// BucketCodec uploads the image and returns its public URL.
type BucketCodec struct {
	client       ObjectPutter
	bucket       string
	publicDomain string
	maxBytes     int64
}

// NewBucketCodec builds an S3 client from static credentials.
func NewBucketCodec(ctx context.Context, cfg BucketConfig) (*BucketCodec, error) {
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("missing bucket settings (S3_BUCKET, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY, S3_ENDPOINT)")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("bucket config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return NewBucketCodecWithClient(client, cfg), nil
}

// NewBucketCodecWithClient wires an existing client.
func NewBucketCodecWithClient(client ObjectPutter, cfg BucketConfig) *BucketCodec {
	return &BucketCodec{
		client:       client,
		bucket:       cfg.Bucket,
		publicDomain: strings.TrimRight(cfg.PublicDomain, "/"),
		maxBytes:     cfg.MaxBytes,
	}
}

// Encode uploads the file under products/ and returns its public URL.
func (c *BucketCodec) Encode(ctx context.Context, f File) (string, error) {
	data, mt, err := readImage(f, c.maxBytes)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("products/%s%s", uuid.New().String(), mt.Extension())
	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(c.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(mt.String()),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", f.Filename(), err)
	}
	return fmt.Sprintf("%s/%s/%s", c.publicDomain, c.bucket, key), nil
}
