package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/celengan/internal/common"
	sc "github.com/dmitrijs2005/celengan/internal/server/config"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const avatarURLLifetime = 15 * time.Minute

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

var avatarContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// AvatarUpload tells the client where to PUT the image and where it will
// be served from afterwards.
type AvatarUpload struct {
	UploadURL string `json:"upload_url"`
	PhotoURL  string `json:"photo_url"`
}

// AvatarService hands out presigned upload URLs for profile pictures stored
// in an S3 compatible bucket.
type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *AvatarService {
	return &AvatarService{db: db, repomanager: m, config: cfg}
}

// Enabled reports whether a bucket is configured.
func (s *AvatarService) Enabled() bool {
	return s.config.StorageEnabled()
}

// UploadURL presigns a PUT for a fresh object under avatars/<userID>/ and
// records its public URL as the user's photo.
func (s *AvatarService) UploadURL(ctx context.Context, userID, contentType string) (*AvatarUpload, error) {
	if !s.Enabled() {
		return nil, common.ErrStorageDisabled
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !avatarContentTypes[contentType] {
		return nil, common.NewValidationError("content_type", "unsupported content type %q", contentType)
	}
	if !validID(userID) {
		return nil, common.ErrorNotFound
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := avatarKey(userID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(avatarURLLifetime))
	if err != nil {
		return nil, err
	}

	photoURL := strings.TrimRight(s.config.S3PublicURL, "/") + "/" + key
	if err := s.repomanager.Users(s.db).SetPhotoURL(ctx, userID, photoURL); err != nil {
		return nil, err
	}

	return &AvatarUpload{UploadURL: req.URL, PhotoURL: photoURL}, nil
}

func avatarKey(userID string) string {
	return fmt.Sprintf("avatars/%s/%s", userID, uuid.NewString())
}

func (s *AvatarService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
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
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}
