package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
}

// AudioStore issues presigned PUT URLs so browsers can upload session
// recordings directly to object storage.
type AudioStore struct {
	cfg     Config
	presign *s3.PresignClient
}

func NewAudioStore(cfg Config) (*AudioStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	client := s3.New(options)

	return &AudioStore{
		cfg:     cfg,
		presign: s3.NewPresignClient(client),
	}, nil
}

type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// PresignUpload returns a one-off PUT URL for a session recording.
func (s *AudioStore) PresignUpload(ctx context.Context, sessionID, contentType string, ttl time.Duration) (*UploadTarget, error) {
	if contentType == "" {
		contentType = "audio/webm"
	}

	key := fmt.Sprintf("recordings/%s/%s%s", sessionID, uuid.NewString(), extensionFor(contentType))

	presigned, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	publicURL := key
	if s.cfg.PublicBaseURL != "" {
		publicURL = strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}

	return &UploadTarget{
		UploadURL: presigned.URL,
		PublicURL: publicURL,
		Key:       key,
		ExpiresIn: int(ttl.Seconds()),
	}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "audio/webm":
		return ".webm"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	default:
		return ""
	}
}
