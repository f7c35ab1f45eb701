package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/gateway"
	sc "github.com/dmitrijs2005/duet/internal/server/config"
)

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
)

const maxFilenameLen = 128

// BlobService hands out presigned upload URLs for the memories and
// voice-notes buckets, both stored as prefixes of one S3 bucket.
type BlobService struct {
	config *sc.Config
}

func NewBlobService(cfg *sc.Config) *BlobService {
	return &BlobService{config: cfg}
}

// Upload describes where a client PUTs a blob and how it is read back.
type Upload struct {
	Key       string
	UploadURL string
	PublicURL string
}

// StorageKey is the object key for filename in bucket.
func StorageKey(b gateway.Bucket, filename string) string {
	return string(b) + "/" + filename
}

func validFilename(name string) bool {
	if name == "" || len(name) > maxFilenameLen {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return false
	}
	return path.Base(name) == name
}

func (s *BlobService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
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

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignUpload returns a presigned PUT for filename in bucket b.
func (s *BlobService) PresignUpload(ctx context.Context, b gateway.Bucket, filename string) (*Upload, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: unknown bucket %q", common.ErrValidation, b)
	}
	if !validFilename(filename) {
		return nil, fmt.Errorf("%w: bad filename %q", common.ErrValidation, filename)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := StorageKey(b, filename)

	expires := s.config.PresignExpiry
	if expires <= 0 {
		expires = 15 * time.Minute
	}

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return nil, err
	}

	return &Upload{
		Key:       key,
		UploadURL: req.URL,
		PublicURL: s.PublicURL(key),
	}, nil
}

// PublicURL is the read reference for key.
func (s *BlobService) PublicURL(key string) string {
	return strings.TrimRight(s.config.S3PublicBaseURL, "/") + "/" + s.config.S3Bucket + "/" + key
}
