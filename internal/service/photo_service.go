package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/attendance-dashboard-api/pkg/errors"
)

type photoFetcher interface {
	FetchPhoto(ctx context.Context, photoID string) (*models.Photo, error)
}

// PhotoService proxies student photos from the portal.
type PhotoService struct {
	portal photoFetcher
	logger *zap.Logger
}

// NewPhotoService constructs a PhotoService.
func NewPhotoService(portal photoFetcher, logger *zap.Logger) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoService{portal: portal, logger: logger}
}

// Photo returns the image bytes for photoID.
func (s *PhotoService) Photo(ctx context.Context, photoID string) (*models.Photo, error) {
	photoID = strings.TrimSpace(photoID)
	if photoID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photoId is required")
	}
	if strings.ContainsAny(photoID, "/\\") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photoId is malformed")
	}
	photo, err := s.portal.FetchPhoto(ctx, photoID)
	if err != nil {
		s.logger.Debug("photo fetch failed", zap.String("photo_id", photoID), zap.Error(err))
		return nil, err
	}
	return photo, nil
}
