package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/logging"
	sc "github.com/dmitrijs2005/homeshare/internal/server/config"
)

// UploadURLValidity is how long a presigned upload URL stays usable.
const UploadURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	createBucket = func(c *s3.Client, ctx context.Context, in *s3.CreateBucketInput) (*s3.CreateBucketOutput, error) {
		return c.CreateBucket(ctx, in)
	}

	putBucketPolicy = func(c *s3.Client, ctx context.Context, in *s3.PutBucketPolicyInput) (*s3.PutBucketPolicyOutput, error) {
		return c.PutBucketPolicy(ctx, in)
	}
)

// StorageService manages buckets and hands out upload and public URLs.
// Object bytes never pass through the server.
type StorageService struct {
	config *sc.Config
	logger logging.Logger
}

func NewStorageService(cfg *sc.Config, logger logging.Logger) *StorageService {
	return &StorageService{config: cfg, logger: logger.With("module", "storage_service")}
}

func (s *StorageService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func validBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case (r == '-' || r == '.') && i > 0 && i < len(name)-1:
		default:
			return false
		}
	}
	return true
}

// validObjectPath rejects empty segments and dot segments.
func validObjectPath(p string) bool {
	if p == "" {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

func publicReadPolicy(bucket string) (string, error) {
	policy := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{{
			"Effect":    "Allow",
			"Principal": map[string]any{"AWS": []string{"*"}},
			"Action":    []string{"s3:GetObject"},
			"Resource":  []string{"arn:aws:s3:::" + bucket + "/*"},
		}},
	}
	b, err := json.Marshal(policy)
	return string(b), err
}

// CreateBucket creates a bucket; public buckets get an anonymous read
// policy. An existing bucket yields common.ErrorAlreadyExists.
func (s *StorageService) CreateBucket(ctx context.Context, name string, public bool) error {
	if !validBucketName(name) {
		return fmt.Errorf("%w: invalid bucket name %q", common.ErrorValidation, name)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}

	if _, err := createBucket(client, ctx, &s3.CreateBucketInput{Bucket: aws.String(name)}); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("error creating bucket: %w", err)
	}

	if public {
		policy, err := publicReadPolicy(name)
		if err != nil {
			return err
		}
		if _, err := putBucketPolicy(client, ctx, &s3.PutBucketPolicyInput{
			Bucket: aws.String(name),
			Policy: aws.String(policy),
		}); err != nil {
			return fmt.Errorf("error setting bucket policy: %w", err)
		}
	}

	s.logger.Info(ctx, "bucket created", "bucket", name, "public", public)
	return nil
}

// CreateUploadURL presigns a PUT for bucket/path. Users may only write
// objects whose path starts with their own id.
func (s *StorageService) CreateUploadURL(ctx context.Context, userID, bucket, path, contentType string) (string, error) {
	if !validBucketName(bucket) || !validObjectPath(path) {
		return "", fmt.Errorf("%w: invalid object location", common.ErrorValidation)
	}
	if userID == "" || !strings.HasPrefix(path, userID) {
		return "", fmt.Errorf("%w: object path must start with the user id", common.ErrorForbidden)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := presignPutObject(newS3PresignClient(client), ctx, in, s3.WithPresignExpires(UploadURLValidity))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// GetPublicURL builds the anonymous URL of an object without contacting storage.
func (s *StorageService) GetPublicURL(bucket, path string) (string, error) {
	if !validBucketName(bucket) || !validObjectPath(path) {
		return "", fmt.Errorf("%w: invalid object location", common.ErrorValidation)
	}

	segs := strings.Split(path, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(s.config.S3PublicBaseURL, "/") + "/" + bucket + "/" + strings.Join(segs, "/"), nil
}
