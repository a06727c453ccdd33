package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	"github.com/noah-isme/attendance-dashboard-api/pkg/response"
)

const photoMaxAgeSeconds = 3600

type photoService interface {
	Photo(ctx context.Context, photoID string) (*models.Photo, error)
}

// PhotoHandler proxies student photos.
type PhotoHandler struct {
	service photoService
}

// NewPhotoHandler constructs the handler.
func NewPhotoHandler(service photoService) *PhotoHandler {
	return &PhotoHandler{service: service}
}

// Photo godoc
// @Summary Student photo
// @Tags Photos
// @Produce image/jpeg
// @Produce image/png
// @Param photoId path string true "Photo id"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /photos/{photoId} [get]
func (h *PhotoHandler) Photo(c *gin.Context) {
	photo, err := h.service.Photo(c.Request.Context(), c.Param("photoId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Blob(c, photo.ContentType, photo.Body, photoMaxAgeSeconds)
}
