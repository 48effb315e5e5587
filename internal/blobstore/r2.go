package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	conf "github.com/seolyze/imageaudit/internal/config"
)

var ErrRetryExhausted = errors.New("upload retries exhausted")

// R2 persists optimized images in a Cloudflare R2 bucket exposed behind a
// public base URL. Uploads are synchronous with bounded, jittered retries;
// concurrency is the scheduler's concern, not the store's.
type R2 struct {
	bucket        string
	publicBaseURL string

	maxRetries     int
	retryBaseDelay time.Duration

	uploader *manager.Uploader
}

func NewR2(cfg *conf.R2Config) (*R2, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretKey, "",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
		o.UsePathStyle = true
	})

	return &R2{
		bucket:         cfg.BucketName,
		publicBaseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		maxRetries:     3,
		retryBaseDelay: 300 * time.Millisecond,
		uploader:       manager.NewUploader(client),
	}, nil
}

// Save uploads the payload under key and returns its public reference.
func (r *R2) Save(ctx context.Context, key, contentType string, payload []byte) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxRetries+1; attempt++ {
		_, lastErr = r.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(r.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(payload),
			ContentType: aws.String(contentType),
		})
		if lastErr == nil {
			return r.publicBaseURL + "/" + key, nil
		}
		if attempt > r.maxRetries {
			break
		}

		timer := time.NewTimer(r.backoffDelay(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("%w: upload %s: %v", ErrRetryExhausted, key, lastErr)
}

// backoff with jitter
func (r *R2) backoffDelay(attempt int) time.Duration {
	backoff := r.retryBaseDelay << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(r.retryBaseDelay)))
	return backoff + jitter
}
