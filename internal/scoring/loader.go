package scoring

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// Fetcher retrieves the raw artifact bytes for a location
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FileFetcher reads artifacts from the local filesystem
type FileFetcher struct{}

// Fetch reads the file at location
func (FileFetcher) Fetch(_ context.Context, location string) ([]byte, error) {
	return os.ReadFile(location)
}

// S3Fetcher downloads artifacts addressed as s3://bucket/key
type S3Fetcher struct {
	downloader *manager.Downloader
}

// NewS3Fetcher builds a fetcher from the default AWS credential chain
func NewS3Fetcher(ctx context.Context, region string) (*S3Fetcher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &S3Fetcher{downloader: manager.NewDownloader(s3.NewFromConfig(cfg))}, nil
}

// Fetch downloads the whole object into memory
func (f *S3Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}

	buf := manager.NewWriteAtBuffer([]byte{})
	if _, err := f.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", location, err)
	}
	return buf.Bytes(), nil
}

// ParseS3Location splits s3://bucket/key
func ParseS3Location(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 location: %s", location)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 location must be s3://bucket/key: %s", location)
	}
	return bucket, key, nil
}

// IsS3Location reports whether location uses the s3 scheme
func IsS3Location(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// Load fetches, decodes and validates the artifact at location and returns a ready Scorer.
// Every failure wraps ErrModelUnavailable.
func Load(ctx context.Context, fetcher Fetcher, location string) (*Scorer, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: no artifact location configured", ErrModelUnavailable)
	}

	data, err := fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	artifact, err := DecodeArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	model, err := artifact.Model()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return NewScorer(model, artifact.Version), nil
}
