package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/files"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// FilesHandler handles the signed-upload file lifecycle.
type FilesHandler struct {
	*BaseHandler
	service *files.Service
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(base *BaseHandler, service *files.Service) *FilesHandler {
	return &FilesHandler{BaseHandler: base, service: service}
}

// Sign reserves quota and returns a signed upload URL.
// POST /api/v1/files/sign
func (h *FilesHandler) Sign(c *gin.Context) {
	var req dto.SignUploadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	asset, err := req.ToAsset()
	if err != nil {
		h.Error(c, err)
		return
	}

	signed, err := h.service.SignUpload(c.Request.Context(), asset)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, signed)
}

// Complete confirms the client finished uploading.
// POST /api/v1/files/complete
func (h *FilesHandler) Complete(c *gin.Context) {
	var req dto.CompleteUploadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	assetID, err := id.Parse(req.AssetID)
	if err != nil {
		h.Error(c, err)
		return
	}

	asset, err := h.service.Complete(c.Request.Context(), assetID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, asset)
}

// Get returns asset metadata.
// GET /api/v1/files/:id
func (h *FilesHandler) Get(c *gin.Context) {
	assetID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	asset, err := h.service.Get(c.Request.Context(), assetID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, asset)
}

// Delete removes the stored object and its metadata row.
// DELETE /api/v1/files/:id
func (h *FilesHandler) Delete(c *gin.Context) {
	assetID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), assetID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
