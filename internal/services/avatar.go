package services

import (
	"context"
	"fmt"
	"time"

	appconfig "party-radar-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// AvatarService hands out pre-signed S3 PUT URLs for avatar images. The
// resulting public URL is committed to the profile separately, through
// ProfileService.UpdateAvatar.
type AvatarService struct {
	s3Client *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewAvatarService creates a new avatar storage service
func NewAvatarService(cfg appconfig.AWSConfig) (*AvatarService, error) {
	awsConfig, err := awscfg.LoadDefaultConfig(context.Background(),
		awscfg.WithRegion(cfg.Region),
		awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &AvatarService{
		s3Client: s3Client,
		bucket:   cfg.S3Bucket,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
	}, nil
}

// AvatarUploadResponse carries the pre-signed upload URL and the public URL
// the client commits once the upload succeeds
type AvatarUploadResponse struct {
	UploadURL string `json:"upload_url"`
	AvatarURL string `json:"avatar_url"`
	ExpiresIn int    `json:"expires_in"`
}

// GetUploadURL generates a pre-signed PUT URL for the caller's next avatar
func (s *AvatarService) GetUploadURL(ctx context.Context, userID, contentType string) (*AvatarUploadResponse, error) {
	key := fmt.Sprintf("avatars/%s/%s.jpg", userID, uuid.New().String())

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = 5 * time.Minute
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &AvatarUploadResponse{
		UploadURL: request.URL,
		AvatarURL: s.publicURL(key),
		ExpiresIn: 300,
	}, nil
}

func (s *AvatarService) publicURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
