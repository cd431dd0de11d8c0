package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"image-feed/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// objectUploader is the subset of the S3 client used for sharing
type objectUploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// objectPresigner is the subset of the S3 presign client used for sharing
type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error)
}

// PresignedRequest is a signed URL handed out for a shared photo
type PresignedRequest struct {
	URL string
}

type s3Presigner struct {
	client *s3.PresignClient
}

func (p s3Presigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error) {
	req, err := p.client.PresignGetObject(ctx, params, optFns...)
	if err != nil {
		return nil, err
	}
	return &PresignedRequest{URL: req.URL}, nil
}

// ShareConfig holds the S3 destination for shared photos
type ShareConfig struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	TTL       time.Duration
}

// ShareService publishes a photo's full-size image to S3 and returns a temporary link
type ShareService struct {
	images    *ImageCache
	uploader  objectUploader
	presigner objectPresigner
	bucket    string
	ttl       time.Duration
}

// NewShareService creates a share service talking to S3
func NewShareService(ctx context.Context, cfg ShareConfig, images *ImageCache) (*ShareService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newShareService(images, client, s3Presigner{client: s3.NewPresignClient(client)}, cfg.Bucket, cfg.TTL), nil
}

func newShareService(images *ImageCache, uploader objectUploader, presigner objectPresigner, bucket string, ttl time.Duration) *ShareService {
	return &ShareService{
		images:    images,
		uploader:  uploader,
		presigner: presigner,
		bucket:    bucket,
		ttl:       ttl,
	}
}

// Share uploads the photo's full image and returns a presigned download URL
func (s *ShareService) Share(ctx context.Context, photo models.Photo) (string, error) {
	data, err := s.images.Fetch(ctx, photo.FullImageURL)
	if err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	key := fmt.Sprintf("shared/%s.jpg", photo.ID)
	_, err = s.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	log.Info().
		Str("photo_id", photo.ID).
		Str("key", key).
		Dur("ttl", s.ttl).
		Msg("Photo shared")

	return req.URL, nil
}
