package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// R2Store saves testimonials to Cloudflare R2 (S3-compatible object storage).
type R2Store struct {
	client    *s3.Client
	bucket    string
	publicURL string // e.g. "https://pub-xxx.r2.dev"
}

// R2Options configures NewR2Store.
type R2Options struct {
	AccountID string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// NewR2Store creates an R2Store for the given Cloudflare account.
func NewR2Store(ctx context.Context, opts R2Options) (*R2Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("r2: bucket is required")
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", opts.AccountID)

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = endpoint + "/" + opts.Bucket
	}

	return &R2Store{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Save uploads file under key. Seekable bodies (multipart uploads) are sized
// up front; anything else is counted while streaming.
func (s *R2Store) Save(ctx context.Context, key string, file io.Reader, contentType string) (*FileInfo, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	var size int64
	var counter *countingReader
	if rs, ok := file.(io.ReadSeeker); ok {
		if size, err = seekSize(rs); err != nil {
			return nil, err
		}
		input.Body = rs
		input.ContentLength = aws.Int64(size)
	} else {
		counter = &countingReader{r: file}
		input.Body = counter
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("r2 put object: %w", err)
	}
	if counter != nil {
		size = counter.n
	}

	return &FileInfo{
		Key:      key,
		URL:      s.URL(key),
		FileName: baseName(key),
		FileSize: size,
		FileType: contentType,
	}, nil
}

func seekSize(rs io.ReadSeeker) (int64, error) {
	cur, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("seek body: %w", err)
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek body: %w", err)
	}
	if _, err := rs.Seek(cur, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek body: %w", err)
	}
	return end - cur, nil
}

// Delete removes key from the bucket. Returns nil if the object doesn't exist.
func (s *R2Store) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	var nsk *types.NoSuchKey
	if err != nil && !errors.As(err, &nsk) {
		return fmt.Errorf("r2 delete object: %w", err)
	}
	return nil
}

// URL returns the public R2 URL for key.
func (s *R2Store) URL(key string) string {
	return s.publicURL + "/" + strings.TrimLeft(key, "/")
}
