package provider

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/binderlink/binderlink/internal/errors"
)

// ObjectGetter is the subset of the S3 client used to fetch registries.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source loads a registry document stored as an S3 object. The format is
// picked from the object key extension.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
}

// Load fetches and decodes the registry object.
func (s S3Source) Load(ctx context.Context) (*Registry, error) {
	format, err := FormatFromPath(s.Key)
	if err != nil {
		return nil, err
	}

	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, errors.New("E130").WithDetailf("s3://%s/%s", s.Bucket, s.Key).Wrap(err)
	}
	defer out.Body.Close()

	return Read(out.Body, format)
}

// S3Options configures the S3 client used by S3Source.
type S3Options struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// NewS3Client builds an S3 client. Credentials come from the standard
// AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN variables;
// without them requests are anonymous, which suits public buckets.
func NewS3Client(o S3Options) *s3.Client {
	region := o.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: o.UsePathStyle,
		Credentials:  envCredentials(),
	}
	if o.Endpoint != "" {
		opts.BaseEndpoint = aws.String(o.Endpoint)
	}
	return s3.New(opts)
}

func envCredentials() aws.CredentialsProvider {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")
	return aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "environment",
		}, nil
	}))
}
