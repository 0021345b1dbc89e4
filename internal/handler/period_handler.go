package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lamdn/course-registration-api/internal/service"
	appErrors "github.com/lamdn/course-registration-api/pkg/errors"
	"github.com/lamdn/course-registration-api/pkg/response"
)

// PeriodHandler exposes registration-period endpoints.
type PeriodHandler struct {
	periods *service.PeriodService
}

// NewPeriodHandler constructs PeriodHandler.
func NewPeriodHandler(periods *service.PeriodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

// List godoc
// @Summary List registration periods
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registercourse [get]
func (h *PeriodHandler) List(c *gin.Context) {
	periods, err := h.periods.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// Create godoc
// @Summary Create a registration period
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body service.CreatePeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Router /registercourse [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req service.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.periods.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	// A duplicate window is a notice, not an error.
	if result.AlreadyExists {
		response.JSON(c, http.StatusOK, result, nil)
		return
	}
	response.Created(c, result)
}

// UpdateRegisterTime godoc
// @Summary Edit a period's registration window
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body service.UpdateRegisterTimeRequest true "Window edit payload"
// @Success 200 {object} response.Envelope
// @Router /registercourse/update-time [put]
func (h *PeriodHandler) UpdateRegisterTime(c *gin.Context) {
	var req service.UpdateRegisterTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.periods.UpdateRegisterTime(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Mine godoc
// @Summary Get the period the caller belongs to
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registercourse/me [get]
func (h *PeriodHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	period, err := h.periods.Mine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Nil data renders the client's empty state.
	response.JSON(c, http.StatusOK, period, nil)
}

// Detail godoc
// @Summary Get one period with its course breakdown
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /registercourse/{id} [get]
func (h *PeriodHandler) Detail(c *gin.Context) {
	detail, err := h.periods.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
