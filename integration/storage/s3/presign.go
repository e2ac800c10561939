package s3

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignClient is the subset of *s3.PresignClient the Presigner needs.
type PresignClient interface {
	PresignGetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// HeadClient checks that an object exists before a URL is handed out.
type HeadClient interface {
	HeadObject(ctx context.Context, params *s3aws.HeadObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadObjectOutput, error)
}

// Download is a time-limited URL for one object.
type Download struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Presigner hands out presigned GET URLs for resource files.
type Presigner struct {
	presign PresignClient
	head    HeadClient
	bucket  string
	expiry  time.Duration
	now     func() time.Time
}

// Option configures a Presigner.
type Option func(*options)

type options struct {
	httpClient *http.Client
	presign    PresignClient
	head       HeadClient
}

// WithHTTPClient sets the HTTP client used by the AWS SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClients replaces the SDK clients, mainly for tests. head may be nil
// to skip the existence check.
func WithClients(presign PresignClient, head HeadClient) Option {
	return func(o *options) {
		o.presign = presign
		o.head = head
	}
}

// New builds a Presigner. Static credentials are used when both keys are
// set, otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config, opts ...Option) (*Presigner, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	p := &Presigner{
		presign: o.presign,
		head:    o.head,
		bucket:  cfg.Bucket,
		expiry:  cfg.URLExpiry,
		now:     time.Now,
	}
	if p.expiry <= 0 {
		p.expiry = 15 * time.Minute
	}
	if p.presign != nil {
		return p, nil
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}
	if o.httpClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(o.httpClient))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	client := s3aws.NewFromConfig(awsCfg, func(so *s3aws.Options) {
		if cfg.Endpoint != "" {
			so.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		so.UsePathStyle = cfg.ForcePathStyle
	})
	p.presign = s3aws.NewPresignClient(client)
	p.head = client

	return p, nil
}

// PresignDownload returns a GET URL for key that forces a download named filename.
func (p *Presigner) PresignDownload(ctx context.Context, key, filename string) (*Download, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	if p.head != nil {
		_, err := p.head.HeadObject(ctx, &s3aws.HeadObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, classifyS3Error(err, "head object")
		}
	}

	if filename == "" {
		filename = path.Base(key)
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})

	req, err := p.presign.PresignGetObject(ctx, &s3aws.GetObjectInput{
		Bucket:                     aws.String(p.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(disposition),
	}, s3aws.WithPresignExpires(p.expiry))
	if err != nil {
		return nil, classifyS3Error(err, "presign get object")
	}

	return &Download{URL: req.URL, ExpiresAt: p.now().Add(p.expiry)}, nil
}
