package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lamdn/course-registration-api/internal/service"
	appErrors "github.com/lamdn/course-registration-api/pkg/errors"
	"github.com/lamdn/course-registration-api/pkg/response"
)

// CourseHandler exposes the course catalog endpoints.
type CourseHandler struct {
	carts *service.CartService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(carts *service.CartService) *CourseHandler {
	return &CourseHandler{carts: carts}
}

// ListAvailable godoc
// @Summary List courses the caller may still register
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /course/student/all-courses [get]
func (h *CourseHandler) ListAvailable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courses, err := h.carts.ListAvailable(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}
