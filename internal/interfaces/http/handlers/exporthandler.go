package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/infrastructure/export"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

// ExportHandler serves /api/export.
type ExportHandler struct {
	export   exportSessionUseCase
	preview  previewSessionUseCase
	renderer documentRenderer
	logger   logger.Interface
}

func NewExportHandler(
	exportUC exportSessionUseCase,
	previewUC previewSessionUseCase,
	renderer documentRenderer,
	logger logger.Interface,
) *ExportHandler {
	return &ExportHandler{
		export:   exportUC,
		preview:  previewUC,
		renderer: renderer,
		logger:   logger,
	}
}

// Preview handles GET /api/export/:sessionId/preview.
func (h *ExportHandler) Preview(c *gin.Context) {
	s, err := h.preview.Execute(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", s)
}

// DownloadPDF handles GET /api/export/:sessionId/pdf. The session is closed
// and scheduled for deletion before the document is written, so a second
// download finds nothing.
func (h *ExportHandler) DownloadPDF(c *gin.Context) {
	sessionID := c.Param("sessionId")
	result, err := h.export.Execute(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, result.Snapshot); err != nil {
		h.logger.Errorw("failed to render export", "session_id", sessionID, "error", err)
		respondError(c, h.logger, err)
		return
	}

	filename := export.SafeFilename(result.Snapshot.NameOr("")) + h.renderer.FileExtension()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, h.renderer.ContentType(), buf.Bytes())
}
