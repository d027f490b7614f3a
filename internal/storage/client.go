package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/kurshub/miniapp-backend/internal/config"
)

// PresignedUploadLifetime — срок жизни ссылки на загрузку. Короткий срок,
// клиент должен загрузить фото сразу после запроса
const PresignedUploadLifetime = 5 * time.Minute

// UploadTarget — пара ссылок для прямой загрузки фото из браузера:
// presigned PUT для самой загрузки и стабильный публичный URL, который
// сохраняется в прогресс
type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}

// Client обертка над S3-клиентом для R2
type Client struct {
	presignClient *s3.PresignClient
	bucket        string
	publicURL     string
}

// NewClient создает новый R2 клиент
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2Bucket == "" {
		return nil, fmt.Errorf("R2 credentials and bucket name must be set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.R2Endpoint)
	})

	return &Client{
		presignClient: s3.NewPresignClient(s3Client),
		bucket:        cfg.R2Bucket,
		publicURL:     strings.TrimRight(cfg.R2PublicURL, "/"),
	}, nil
}

// PresignPhotoUpload выдает ссылку на загрузку фото ответа. Ключ вида
// <telegram_user_id>/<uuid>-<имя файла>, чтобы загрузки одного пользователя
// лежали в одном префиксе и имена не сталкивались
func (c *Client) PresignPhotoUpload(ctx context.Context, telegramUserID int64, fileName, contentType string) (*UploadTarget, error) {
	key := fmt.Sprintf("%d/%s-%s", telegramUserID, uuid.New().String(), sanitizeFileName(fileName))

	req, err := c.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = PresignedUploadLifetime
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign photo upload: %w", err)
	}

	return &UploadTarget{
		UploadURL: req.URL,
		PublicURL: fmt.Sprintf("%s/%s", c.publicURL, key),
	}, nil
}

// sanitizeFileName оставляет от имени файла безопасную для ключа часть
func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "photo"
	}
	return b.String()
}
