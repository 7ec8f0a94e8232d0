package handlers

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"resize-server/internal/config"
	domain "resize-server/internal/domain/image"
	"resize-server/internal/infrastructure/metrics"
	"resize-server/internal/interfaces/httpserver/requests"
	"resize-server/internal/interfaces/httpserver/responses"
)

// ImageHandler exposes the image resize endpoints.
type ImageHandler struct {
	cfg     *config.Config
	service *domain.Service
	log     zerolog.Logger
}

func NewImageHandler(cfg *config.Config, service *domain.Service, log zerolog.Logger) *ImageHandler {
	return &ImageHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "image-handler").Logger(),
	}
}

// Create godoc
// @Summary      Resize an image
// @Description  Uploads a new image (base64) or references an existing one by ID and stores a resized variant.
// @Tags         image
// @Accept       json
// @Produce      json
// @Param        request  body      requests.CreateImageRequest  true  "Resize request"
// @Success      200      {object}  responses.ImageResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Failure      409      {object}  responses.ErrorResponse
// @Router       /image [post]
func (h *ImageHandler) Create(c *gin.Context) {
	var req requests.CreateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleValidationError(c, err.Error())
		return
	}

	if req.Image == "" && req.ImageID == "" {
		responses.HandleValidationError(c, "image or image_id must be defined")
		return
	}
	if req.Image != "" && req.ImageID != "" {
		responses.HandleValidationError(c, "either image or image_id must be defined")
		return
	}

	width, err := strconv.Atoi(req.Width)
	if err != nil {
		responses.HandleValidationError(c, "width must be number")
		return
	}
	height, err := strconv.Atoi(req.Height)
	if err != nil {
		responses.HandleValidationError(c, "height must be number")
		return
	}

	started := time.Now()
	var result *domain.ResizeResult
	if req.Image != "" {
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			responses.HandleValidationError(c, "image must be base64 encoded")
			return
		}
		result, err = h.service.ResizeNew(c.Request.Context(), req.UserID, data, width, height)
		if err != nil {
			metrics.RecordUpload("error", int64(len(data)))
			metrics.RecordResize("error", time.Since(started).Seconds())
			h.log.Error().Err(err).Str("user_id", req.UserID).Msg("resize of new image failed")
			responses.HandleError(c, err)
			return
		}
		metrics.RecordUpload("success", int64(len(data)))
	} else {
		result, err = h.service.ResizeExisting(c.Request.Context(), req.UserID, req.ImageID, width, height)
		if err != nil {
			metrics.RecordResize("error", time.Since(started).Seconds())
			h.log.Error().Err(err).
				Str("user_id", req.UserID).
				Str("image_id", req.ImageID).
				Msg("resize of existing image failed")
			responses.HandleError(c, err)
			return
		}
	}
	metrics.RecordResize("success", time.Since(started).Seconds())

	c.JSON(http.StatusOK, responses.BuildImageResponse(req.UserID, result))
}

// ListOrigins godoc
// @Summary      List a user's images
// @Tags         image
// @Produce      json
// @Param        user_id  path      string  true  "User ID"
// @Success      200      {object}  responses.ListResponse
// @Router       /image/{user_id} [get]
func (h *ImageHandler) ListOrigins(c *gin.Context) {
	userID := c.Param("user_id")

	records, err := h.service.ListOrigins(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("list origins failed")
		responses.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.BuildOriginList(userID, records))
}

// ListSubimages godoc
// @Summary      List the resized variants of an image
// @Tags         image
// @Produce      json
// @Param        user_id   path      string  true  "User ID"
// @Param        image_id  path      string  true  "Image ID"
// @Success      200       {object}  responses.ListResponse
// @Router       /image/{user_id}/{image_id} [get]
func (h *ImageHandler) ListSubimages(c *gin.Context) {
	userID := c.Param("user_id")
	imageID := c.Param("image_id")

	records, err := h.service.ListSubimages(c.Request.Context(), userID, imageID)
	if err != nil {
		h.log.Error().Err(err).
			Str("user_id", userID).
			Str("image_id", imageID).
			Msg("list subimages failed")
		responses.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.BuildSubimageList(userID, records))
}

// GetSubimage godoc
// @Summary      Fetch resized image bytes
// @Tags         image
// @Produce      octet-stream
// @Param        user_id      path  string  true  "User ID"
// @Param        image_id     path  string  true  "Image ID"
// @Param        subimage_id  path  string  true  "Subimage ID"
// @Success      200  "binary data"
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /image/{user_id}/{image_id}/{subimage_id} [get]
func (h *ImageHandler) GetSubimage(c *gin.Context) {
	userID := c.Param("user_id")
	imageID := c.Param("image_id")
	subimageID := c.Param("subimage_id")

	data, err := h.service.GetSubimage(c.Request.Context(), userID, imageID, subimageID)
	if err != nil {
		h.log.Error().Err(err).
			Str("user_id", userID).
			Str("image_id", imageID).
			Str("subimage_id", subimageID).
			Msg("get subimage failed")
		responses.HandleError(c, err)
		return
	}

	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

// Delete godoc
// @Summary      Delete stored images
// @Description  Deletes one subimage, an image with all its subimages, or all of a user's data.
// @Tags         image
// @Accept       json
// @Produce      json
// @Param        request  body      requests.DeleteImageRequest  true  "Delete request"
// @Success      200      {object}  responses.StatusResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Router       /image [delete]
func (h *ImageHandler) Delete(c *gin.Context) {
	var req requests.DeleteImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleValidationError(c, err.Error())
		return
	}

	if req.SubimageID != "" && req.ImageID == "" {
		responses.HandleValidationError(c, "subimage_id requires image_id")
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case req.SubimageID != "":
		err = h.service.RemoveSubimage(ctx, req.UserID, req.ImageID, req.SubimageID)
	case req.ImageID != "":
		err = h.service.RemoveOrigin(ctx, req.UserID, req.ImageID)
	default:
		err = h.service.RemoveUser(ctx, req.UserID)
	}
	if err != nil {
		h.log.Error().Err(err).
			Str("user_id", req.UserID).
			Str("image_id", req.ImageID).
			Str("subimage_id", req.SubimageID).
			Msg("delete failed")
		responses.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.StatusResponse{})
}
