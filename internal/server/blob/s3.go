package blob

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Seams for tests: the presign calls are package variables so tests can
// observe inputs and inject failures without a live S3 endpoint.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignPostObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignPostOptions)) (*s3.PresignedPostRequest, error) {
		return pc.PresignPostObject(ctx, in, optFns...)
	}
)

// S3Config holds the settings needed to reach the S3-compatible backend.
type S3Config struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
	Validity     time.Duration
}

// S3Presigner issues presigned URLs against an S3-compatible object store
// (MinIO in development).
type S3Presigner struct {
	cfg S3Config
}

// NewS3Presigner constructs an S3Presigner from the given settings.
func NewS3Presigner(cfg S3Config) *S3Presigner {
	return &S3Presigner{cfg: cfg}
}

func (p *S3Presigner) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.cfg.User,
			p.cfg.Password,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(p.cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignGet returns a presigned GET URL for key.
func (p *S3Presigner) PresignGet(ctx context.Context, key string) (string, error) {
	presignClient, err := p.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &p.cfg.Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(p.cfg.Validity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// PresignPut returns a presigned PUT credential for key.
func (p *S3Presigner) PresignPut(ctx context.Context, key string, contentType string) (*UploadCredential, error) {
	presignClient, err := p.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &p.cfg.Bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(p.cfg.Validity))
	if err != nil {
		return nil, err
	}

	return &UploadCredential{
		URL:       req.URL,
		Method:    req.Method,
		Key:       key,
		ExpiresIn: p.cfg.Validity,
	}, nil
}

// PresignPost returns a POST policy credential for key. The policy carries a
// content-length-range condition, so the store itself rejects uploads over
// maxSize even if the declared size was a lie.
func (p *S3Presigner) PresignPost(ctx context.Context, key string, contentType string, declaredSize, maxSize int64) (*UploadCredential, error) {
	presignClient, err := p.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	req, err := presignPostObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &p.cfg.Bucket,
		Key:         &key,
		ContentType: &contentType,
	}, func(o *s3.PresignPostOptions) {
		o.Expires = p.cfg.Validity
		o.Conditions = []interface{}{
			[]interface{}{"content-length-range", int64(1), maxSize},
		}
	})
	if err != nil {
		return nil, err
	}

	return &UploadCredential{
		URL:       req.URL,
		Method:    "POST",
		Fields:    req.Values,
		Key:       key,
		ExpiresIn: p.cfg.Validity,
	}, nil
}
