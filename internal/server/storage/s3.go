// Package storage hands out presigned S3 URLs for profile images and
// cleans up objects the service owns.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/google/uuid"
)

var (
	// ErrUnsupportedContentType is returned for uploads that are not images.
	ErrUnsupportedContentType = errors.New("unsupported content type")
	// ErrObjectNotFound means nothing was uploaded under the key.
	ErrObjectNotFound = errors.New("object not found")
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}

	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput) error {
		_, err := c.HeadObject(ctx, in)
		return err
	}
)

// S3Storage talks to an S3-compatible bucket (AWS or MinIO).
type S3Storage struct {
	config config.S3Config
}

func NewS3Storage(cfg config.S3Config) *S3Storage {
	return &S3Storage{config: cfg}
}

// AvatarKeyPrefix is the folder holding every image uploaded by userID.
func AvatarKeyPrefix(userID string) string {
	return "avatars/" + userID + "/"
}

// AvatarKey returns a fresh object key for userID's image.
func AvatarKey(userID, ext string) string {
	return fmt.Sprintf("%s%s%s", AvatarKeyPrefix(userID), uuid.NewString(), ext)
}

func (s *S3Storage) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.RootUser,
			s.config.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// PublicURL is the address under which key is served.
func (s *S3Storage) PublicURL(key string) string {
	return strings.TrimRight(s.config.PublicURL, "/") + "/" + key
}

// PresignAvatarUpload returns a presigned PUT for a new image of userID.
// The client must send the same Content-Type.
func (s *S3Storage) PresignAvatarUpload(ctx context.Context, userID, contentType string) (*models.AvatarUpload, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedContentType
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.Bucket
	key := AvatarKey(userID, ext)
	validity := s.config.UploadURLValidityDuration

	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, err
	}

	return &models.AvatarUpload{
		Key:       key,
		UploadURL: req.URL,
		ImageURL:  s.PublicURL(key),
		ExpiresAt: time.Now().Add(validity),
	}, nil
}

// UploadedAvatarURL returns the public URL of key once the object is in
// the bucket, and ErrObjectNotFound before that.
func (s *S3Storage) UploadedAvatarURL(ctx context.Context, key string) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.Bucket
	if err := headObject(client, ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &key}); err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return "", ErrObjectNotFound
		}
		return "", err
	}
	return s.PublicURL(key), nil
}

// DeleteAvatar removes the object behind imageURL if it lives in our
// bucket. Images hosted elsewhere (OAuth provider avatars) are ignored.
func (s *S3Storage) DeleteAvatar(ctx context.Context, imageURL string) error {
	prefix := strings.TrimRight(s.config.PublicURL, "/") + "/"
	if !strings.HasPrefix(imageURL, prefix) {
		return nil
	}
	key := strings.TrimPrefix(imageURL, prefix)

	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}

	bucket := s.config.Bucket
	return deleteObject(client, ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &key})
}
