// Package service holds the application logic between the HTTP handlers
// and the stores.
package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sirreidlos/e-form/internal/config"
	"github.com/sirreidlos/e-form/internal/eform/broadcast"
	"github.com/sirreidlos/e-form/internal/eform/repository"
)

// Errors the handlers translate to HTTP statuses.
var (
	ErrForbidden          = errors.New("you are not the owner of this form")
	ErrEmailTaken         = errors.New("an existing account has been made using this email")
	ErrInvalidEmail       = errors.New("malformed email format")
	ErrInvalidCredentials = errors.New("password inputted is incorrect")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrBadForm            = errors.New("invalid form definition")
)

// Services is the service bundle handed to the handlers.
type Services struct {
	Auth     *AuthService
	Form     *FormService
	Response *ResponseService
	Export   *ExportService
	Media    *MediaService
}

// NewServices wires the services. The MinIO client is optional: with no
// endpoint configured the media service is disabled and the upload
// endpoints report it as unavailable.
func NewServices(repos *repository.Repositories, rdb *redis.Client, hub *broadcast.Hub, cfg *config.Config, logger *zap.Logger) *Services {
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio unavailable, media uploads disabled", zap.Error(err))
			minioClient = nil
		}
	}

	formSvc := NewFormService(repos.Form, repos.Response, rdb, logger)
	responseSvc := NewResponseService(repos.Form, repos.Response, hub, logger)

	return &Services{
		Auth:     NewAuthService(repos.User, rdb, cfg, logger),
		Form:     formSvc,
		Response: responseSvc,
		Export:   NewExportService(repos.Form, repos.Response),
		Media:    NewMediaService(minioClient, cfg.MinIO.Bucket, logger),
	}
}

// newID returns a 32-char hex identifier.
func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
