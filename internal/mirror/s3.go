package mirror

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options selects the destination and AWS profile. Empty values fall back to
// the standard AWS config/credential chain.
type Options struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	UsePathStyle bool
}

// PutObjectAPI is the slice of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror uploads the dataset file to S3 after it changes.
type S3Mirror struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3 creates a mirror using the default AWS configuration chain.
func NewS3(ctx context.Context, opts Options) (*S3Mirror, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
	})
	return NewS3WithClient(c, opts.Bucket, opts.Prefix), nil
}

// NewS3WithClient creates a mirror around an existing client.
func NewS3WithClient(client PutObjectAPI, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key used for a local file.
func (m *S3Mirror) Key(localPath string) string {
	return path.Join(m.prefix, filepath.Base(localPath))
}

// Publish uploads the file at localPath and returns its s3:// URI.
func (m *S3Mirror) Publish(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	key := m.Key(localPath)
	in := &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := contentType(localPath); ct != "" {
		in.ContentType = aws.String(ct)
	}

	if _, err := m.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("uploading s3://%s/%s: %w", m.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", m.bucket, key), nil
}

func contentType(p string) string {
	switch filepath.Ext(p) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	}
	return mime.TypeByExtension(filepath.Ext(p))
}
