package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiftdesk/shiftdesk/internal/models"
)

// ShiftDetail is a timetable slot with its next dated occurrence
type ShiftDetail struct {
	models.RecurringShift
	NextStart time.Time `json:"nextStart"`
	NextDate  string    `json:"nextDate"`
	Taken     int64     `json:"taken"`
}

// ShiftSignupRequest picks the date of the occurrence to book
type ShiftSignupRequest struct {
	Date string `json:"date" binding:"required" validate:"datetime=2006-01-02"`
}

// CreateShiftRequest represents a new weekly slot
type CreateShiftRequest struct {
	Name        string  `json:"name" binding:"required" validate:"max=100"`
	DayOfWeek   int     `json:"dayOfWeek" binding:"required" validate:"min=1,max=7"`
	StartTime   string  `json:"startTime" binding:"required" validate:"hhmm"`
	EndTime     string  `json:"endTime" binding:"required" validate:"hhmm"`
	Capacity    int     `json:"capacity" binding:"required" validate:"min=1"`
	HoursValue  float64 `json:"hoursValue" validate:"min=0"`
	Description string  `json:"description"`
}

// @Summary List shifts
// @Description Weekly timetable with the next occurrence of each slot
// @Tags shifts
// @Produce json
// @Success 200 {array} ShiftDetail
// @Router /api/shifts [get]
func (s *Server) listShifts(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := s.shiftsService.List(ctx)
	if err != nil {
		s.respondServiceError(c, err, "Failed to list shifts")
		return
	}

	details := make([]ShiftDetail, 0, len(list))
	for i := range list {
		next, err := s.shiftsService.NextOccurrence(&list[i])
		if err != nil {
			s.respondServiceError(c, err, "Failed to compute next occurrence")
			return
		}
		date := next.Format(models.ShiftDateLayout)
		taken, err := s.shiftsService.Taken(ctx, list[i].ID, date)
		if err != nil {
			s.respondServiceError(c, err, "Failed to count signups")
			return
		}
		details = append(details, ShiftDetail{
			RecurringShift: list[i],
			NextStart:      next,
			NextDate:       date,
			Taken:          taken,
		})
	}

	c.JSON(http.StatusOK, details)
}

// @Summary Sign up for a shift
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Param request body ShiftSignupRequest true "Date"
// @Success 201 {object} models.ShiftSignup
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/shifts/{id}/signup [post]
func (s *Server) signUpShift(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req ShiftSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.validate(c, &req) {
		return
	}

	signup, err := s.shiftsService.SignUp(c.Request.Context(), c.Param("id"), sessionData.UserID, req.Date)
	if err != nil {
		s.respondServiceError(c, err, "Failed to sign up for shift")
		return
	}
	c.JSON(http.StatusCreated, signup)
}

// @Summary Cancel a shift signup
// @Tags shifts
// @Security BearerAuth
// @Param id path string true "Signup ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/shifts/signups/{id} [delete]
func (s *Server) cancelShiftSignup(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	if err := s.shiftsService.Cancel(c.Request.Context(), c.Param("id"), sessionData.UserID); err != nil {
		s.respondServiceError(c, err, "Failed to cancel shift signup")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary My shift signups
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ShiftSignup
// @Router /api/shifts/mine [get]
func (s *Server) myShifts(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	signups, err := s.shiftsService.Mine(c.Request.Context(), sessionData.UserID)
	if err != nil {
		s.respondServiceError(c, err, "Failed to list shift signups")
		return
	}
	c.JSON(http.StatusOK, signups)
}
