package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lamdn/course-registration-api/internal/models"
	"github.com/lamdn/course-registration-api/internal/service"
	appErrors "github.com/lamdn/course-registration-api/pkg/errors"
	"github.com/lamdn/course-registration-api/pkg/response"
)

// ReceiptHandler exposes the paid-record export endpoints.
type ReceiptHandler struct {
	receipts *service.ReceiptService
	exports  *service.ExportService
}

// NewReceiptHandler constructs ReceiptHandler.
func NewReceiptHandler(receipts *service.ReceiptService, exports *service.ExportService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts, exports: exports}
}

// ExportRequest is the enqueue payload.
type ExportRequest struct {
	Format string `json:"format" binding:"required"`
}

// Request godoc
// @Summary Enqueue an export of paid records
// @Tags Receipts
// @Accept json
// @Produce json
// @Param payload body handler.ExportRequest true "Export format (csv or pdf)"
// @Success 202 {object} response.Envelope
// @Router /classmember/paid/export [post]
func (h *ReceiptHandler) Request(c *gin.Context) {
	if h.receipts == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "receipt exports not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	job, err := h.receipts.Request(c.Request.Context(), models.ReceiptFormat(strings.ToLower(req.Format)), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Get the status of an export job
// @Tags Receipts
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /classmember/paid/export/{id} [get]
func (h *ReceiptHandler) Status(c *gin.Context) {
	if h.receipts == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "receipt exports not configured"))
		return
	}
	job, err := h.receipts.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download an export via signed token
// @Tags Receipts
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "receipt exports not configured"))
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	_, relPath, _, err := h.exports.ParseToken(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token"))
		return
	}
	file, err := h.exports.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}
	mimeType := "text/csv"
	if filepath.Ext(relPath) == ".pdf" {
		mimeType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(relPath)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeType, file, nil)
}
