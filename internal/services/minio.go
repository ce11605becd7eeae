package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/config"
	"ecoshop_back_end/internal/models"
)

// ImageStore conserve les photos produits et les avatars.
type ImageStore interface {
	// Upload stocke le fichier localPath sous folder et supprime toujours le fichier local.
	Upload(ctx context.Context, localPath, folder string) (models.Image, error)
	Remove(ctx context.Context, publicID string) error
}

// MinioImageStore stocke les images dans un bucket MinIO. L'id public est la clé de l'objet.
type MinioImageStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger *zap.Logger
}

func NewMinioImageStore(client *minio.Client, cfg config.MinIOConfig, logger *zap.Logger) *MinioImageStore {
	return &MinioImageStore{
		client: client,
		bucket: cfg.Bucket,
		expiry: cfg.URLExpiry,
		logger: logger,
	}
}

func (s *MinioImageStore) Upload(ctx context.Context, localPath, folder string) (models.Image, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("temp upload not removed", zap.String("path", localPath), zap.Error(err))
		}
	}()

	if s.client == nil {
		return models.Image{}, apperrors.Upstream("image store", fmt.Errorf("minio not configured"))
	}

	ext := strings.ToLower(filepath.Ext(localPath))
	key := path.Join(folder, uuid.NewString()+ext)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return models.Image{}, apperrors.Upstream("image store", fmt.Errorf("put %s: %w", key, err))
	}

	url, err := s.Presign(ctx, key)
	if err != nil {
		return models.Image{}, err
	}
	s.logger.Info("image uploaded", zap.String("public_id", key))
	return models.Image{PublicID: key, URL: url}, nil
}

func (s *MinioImageStore) Remove(ctx context.Context, publicID string) error {
	if s.client == nil || publicID == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return apperrors.Upstream("image store", fmt.Errorf("remove %s: %w", publicID, err))
	}
	return nil
}

// Presign retourne une URL de téléchargement à durée limitée pour l'objet.
func (s *MinioImageStore) Presign(ctx context.Context, publicID string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, publicID, s.expiry, nil)
	if err != nil {
		return "", apperrors.Upstream("image store", fmt.Errorf("presign %s: %w", publicID, err))
	}
	return u.String(), nil
}

func imageStoreError(err error) error {
	if errors.Is(err, apperrors.ErrUpstream) {
		return err
	}
	return apperrors.Upstream("image store", err)
}
