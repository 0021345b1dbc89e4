package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lamdn/course-registration-api/internal/service"
	appErrors "github.com/lamdn/course-registration-api/pkg/errors"
	"github.com/lamdn/course-registration-api/pkg/response"
)

// CartHandler exposes the registration cart endpoints.
type CartHandler struct {
	carts   *service.CartService
	proofs  *service.PaymentProofService
	metrics *service.MetricsService
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(carts *service.CartService, proofs *service.PaymentProofService, metrics *service.MetricsService) *CartHandler {
	return &CartHandler{carts: carts, proofs: proofs, metrics: metrics}
}

// ListMine godoc
// @Summary List the caller's cart
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classmember [get]
func (h *CartHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	snapshot, err := h.carts.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Filter godoc
// @Summary Filter the caller's cart by status
// @Tags Cart
// @Produce json
// @Param status query string true "Status (canonical or legacy value)"
// @Success 200 {object} response.Envelope
// @Router /classmember/filter [get]
func (h *CartHandler) Filter(c *gin.Context) {
	h.filter(c, false)
}

// FilterStrict godoc
// @Summary Filter the caller's cart by status within the relevant period
// @Tags Cart
// @Produce json
// @Param status query string true "Status (canonical or legacy value)"
// @Success 200 {object} response.Envelope
// @Router /classmember/filter-strict [get]
func (h *CartHandler) FilterStrict(c *gin.Context) {
	h.filter(c, true)
}

func (h *CartHandler) filter(c *gin.Context, strict bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.carts.Filter(c.Request.Context(), claims.UserID, c.Query("status"), strict)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Add godoc
// @Summary Add a course to the caller's cart
// @Tags Cart
// @Accept json
// @Produce json
// @Param payload body service.AddCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /classmember [post]
func (h *CartHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.AddCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.carts.Add(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Remove godoc
// @Summary Remove a course from the caller's cart
// @Tags Cart
// @Accept json
// @Produce json
// @Param payload body service.RemoveCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /classmember [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.RemoveCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.carts.Remove(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": req.CourseID}, nil)
}

// Save godoc
// @Summary Confirm the caller's current selection
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classmember/save [post]
func (h *CartHandler) Save(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	snapshot, err := h.carts.Save(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Pay godoc
// @Summary Pay all pending tuition in one transaction
// @Tags Cart
// @Accept json
// @Produce json
// @Param payload body service.PayTuitionRequest true "Payment-proof payload"
// @Success 200 {object} response.Envelope
// @Router /classmember/pay [post]
func (h *CartHandler) Pay(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.PayTuitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.carts.Pay(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil && result.PaidCount > 0 {
		h.metrics.RecordPayment(result.PaidCount)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// IssueQR godoc
// @Summary Issue a single-use payment-proof QR
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classmember/pay/qr [get]
func (h *CartHandler) IssueQR(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	proof, err := h.proofs.IssueQR(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proof, nil)
}

// ListPaid godoc
// @Summary List all paid records
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classmember/paid [get]
func (h *CartHandler) ListPaid(c *gin.Context) {
	items, err := h.carts.ListPaid(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListAll godoc
// @Summary List every cart record
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classmember/admin/all [get]
func (h *CartHandler) ListAll(c *gin.Context) {
	items, err := h.carts.ListAllAdmin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Roster godoc
// @Summary List the students registered in a course
// @Tags Cart
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /classmember/teacher/{courseId}/students [get]
func (h *CartHandler) Roster(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.Param("courseId"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}
	roster, err := h.carts.ListRoster(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}
