package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pulse/models"
	"pulse/store"
	"pulse/utils"
)

// MediaController streams stored media back with its content type.
type MediaController struct {
	media store.MediaSink
}

// NewMediaController creates a MediaController.
func NewMediaController(media store.MediaSink) *MediaController {
	return &MediaController{media: media}
}

// Serve resolves a media reference and writes the bytes.
func (m *MediaController) Serve(ctx *gin.Context) {
	ref := ctx.Param("ref")
	data, contentType, err := m.media.Retrieve(ctx.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "media not found")
			return
		}
		utils.Errorf("serve media %q: %v", ref, err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load media")
		return
	}
	ctx.Data(http.StatusOK, contentType, data)
}
