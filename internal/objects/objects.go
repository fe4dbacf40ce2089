// Package objects wraps S3-compatible storage for recipe images: issuing
// short-lived presigned upload targets, stamping access descriptors, and
// streaming objects back out.
package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/dukerupert/larder/internal/model"
)

const uploadTargetTTL = 15 * time.Minute

const (
	tagOwner      = "owner"
	tagVisibility = "visibility"
)

// s3Client is the subset of the S3 API the service uses, an interface for
// testability.
type s3Client interface {
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, input *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObjectTagging(ctx context.Context, input *s3.PutObjectTaggingInput, opts ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error)
	GetObjectTagging(ctx context.Context, input *s3.GetObjectTaggingInput, opts ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error)
}

type presigner interface {
	PresignPutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.PresignOptions)) (*v4PresignedRequest, error)
}

// v4PresignedRequest mirrors the fields of the SDK's presigned request we
// consume.
type v4PresignedRequest struct {
	URL string
}

// sdkPresigner adapts *s3.PresignClient to the presigner interface.
type sdkPresigner struct {
	client *s3.PresignClient
}

func (p *sdkPresigner) PresignPutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.PresignOptions)) (*v4PresignedRequest, error) {
	req, err := p.client.PresignPutObject(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return &v4PresignedRequest{URL: req.URL}, nil
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// UploadTarget is a time-bounded, write-only destination for one object.
// Nothing is recorded server-side; the signature itself enforces expiry.
type UploadTarget struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ObjectInfo describes a stored object opened for reading.
type ObjectInfo struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type Service struct {
	bucket  string
	client  s3Client
	presign presigner
}

// NewService builds a Service against real S3-compatible storage.
func NewService(cfg Config) *Service {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	client := s3.New(opts)
	return &Service{
		bucket:  cfg.Bucket,
		client:  client,
		presign: &sdkPresigner{client: s3.NewPresignClient(client)},
	}
}

// Configured reports whether storage credentials are present.
func (s *Service) Configured() bool {
	return s != nil && s.client != nil
}

// randomKey produces a date-partitioned object key.
func randomKey() string {
	d := time.Now().UTC()
	return fmt.Sprintf("uploads/%04d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.New())
}

// IssueUploadTarget returns a presigned PUT URL valid for 15 minutes.
// Writes against the URL after expiry are rejected by the store.
func (s *Service) IssueUploadTarget(ctx context.Context) (*UploadTarget, error) {
	key := randomKey()
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(uploadTargetTTL))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}
	return &UploadTarget{
		Key:       key,
		URL:       req.URL,
		ExpiresAt: time.Now().UTC().Add(uploadTargetTTL),
	}, nil
}

// Exists reports whether the object is present in the bucket.
func (s *Service) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object: %w", err)
	}
	return true, nil
}

// SetACL stamps the access descriptor on the object as tags.
func (s *Service) SetACL(ctx context.Context, key string, acl model.ObjectACL) error {
	_, err := s.client.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Tagging: &types.Tagging{
			TagSet: []types.Tag{
				{Key: aws.String(tagOwner), Value: aws.String(strconv.FormatInt(acl.OwnerID, 10))},
				{Key: aws.String(tagVisibility), Value: aws.String(acl.Visibility)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put object tagging: %w", err)
	}
	return nil
}

// GetACL reads the object's access descriptor. Returns nil when the object
// is missing or has never been stamped.
func (s *Service) GetACL(ctx context.Context, key string) (*model.ObjectACL, error) {
	out, err := s.client.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get object tagging: %w", err)
	}

	acl := model.ObjectACL{}
	found := false
	for _, tag := range out.TagSet {
		switch aws.ToString(tag.Key) {
		case tagOwner:
			owner, err := strconv.ParseInt(aws.ToString(tag.Value), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse owner tag: %w", err)
			}
			acl.OwnerID = owner
			found = true
		case tagVisibility:
			acl.Visibility = aws.ToString(tag.Value)
			found = true
		}
	}
	if !found {
		return nil, nil
	}
	return &acl, nil
}

// Download opens the object for streaming. Returns (nil, nil) when absent.
func (s *Service) Download(ctx context.Context, key string) (*ObjectInfo, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	return &ObjectInfo{
		Body:        out.Body,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
