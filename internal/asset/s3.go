package asset

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Config configures an S3 or S3-compatible (R2, MinIO) bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS itself
	AccessKey string
	SecretKey string
	PublicURL string // base URL objects are served from
}

// objectAPI is the part of *s3.S3 the host uses.
type objectAPI interface {
	GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
	DeleteObjectsWithContext(ctx aws.Context, in *s3.DeleteObjectsInput, opts ...request.Option) (*s3.DeleteObjectsOutput, error)
}

// uploaderAPI is the part of *s3manager.Uploader the host uses.
type uploaderAPI interface {
	UploadWithContext(ctx aws.Context, in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Host stores assets in a bucket.
type S3Host struct {
	client    objectAPI
	uploader  uploaderAPI
	bucket    string
	publicURL string
}

// NewS3Host opens an aws-sdk session for cfg. Static credentials are used
// when both keys are set, otherwise the SDK's default chain applies.
func NewS3Host(cfg S3Config) (*S3Host, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("asset: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsConfig := &aws.Config{Region: aws.String(region)}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("asset: creating S3 session: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}

	return &S3Host{
		client:    s3.New(sess),
		uploader:  s3manager.NewUploader(sess),
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}, nil
}

func (h *S3Host) Upload(ctx context.Context, u Upload) (*Asset, error) {
	a := newAsset(u)
	if err := h.put(ctx, a.PublicID, u.Data, u.ContentType); err != nil {
		return nil, err
	}
	a.SecureURL = joinURL(h.publicURL, a.PublicID)
	return a, nil
}

func (h *S3Host) Transform(ctx context.Context, a *Asset, variants []Variant) (map[string]string, error) {
	out, err := h.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(a.PublicID),
	})
	if err != nil {
		return nil, fmt.Errorf("asset: fetching %s: %w", a.PublicID, err)
	}
	original, err := io.ReadAll(io.LimitReader(out.Body, MaxUploadSize+1))
	out.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("asset: reading %s: %w", a.PublicID, err)
	}

	urls := make(map[string]string, len(variants))
	for _, v := range variants {
		data, contentType, err := Resize(original, v)
		if err != nil {
			return nil, err
		}
		key := variantKey(a.PublicID, v.Name)
		if err := h.put(ctx, key, data, contentType); err != nil {
			return nil, err
		}
		urls[v.Name] = joinURL(h.publicURL, key)
	}
	return urls, nil
}

// Delete removes the original and its variants in one request. S3 does not
// report missing keys as errors.
func (h *S3Host) Delete(ctx context.Context, publicID string) error {
	keys := objectKeys(publicID)
	objects := make([]*s3.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		objects = append(objects, &s3.ObjectIdentifier{Key: aws.String(k)})
	}

	out, err := h.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(h.bucket),
		Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("asset: deleting %s: %w", publicID, err)
	}
	if len(out.Errors) > 0 {
		e := out.Errors[0]
		return fmt.Errorf("asset: deleting %s: %s: %s",
			aws.StringValue(e.Key), aws.StringValue(e.Code), aws.StringValue(e.Message))
	}
	return nil
}

func (h *S3Host) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := h.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("asset: uploading %s: %w", key, err)
	}
	return nil
}
