package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftdesk/shiftdesk/internal/models"
)

// @Summary List students
// @Description All accounts ordered by name (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} StudentDetail
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/admin/students [get]
func (s *Server) listStudents(c *gin.Context) {
	var students []models.Student
	if err := s.db.WithContext(c.Request.Context()).Order("name ASC").Find(&students).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list students")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	details := make([]*StudentDetail, len(students))
	for i := range students {
		details[i] = newStudentDetail(&students[i])
	}

	c.JSON(http.StatusOK, details)
}

// @Summary Create shift
// @Description Add a weekly slot to the timetable (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateShiftRequest true "Shift"
// @Success 201 {object} models.RecurringShift
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/shifts [post]
func (s *Server) createShift(c *gin.Context) {
	var req CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if !s.validate(c, &req) {
		return
	}

	shift := &models.RecurringShift{
		Name:        req.Name,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		HoursValue:  req.HoursValue,
		Description: req.Description,
	}
	if err := s.shiftsService.Create(c.Request.Context(), shift); err != nil {
		s.respondServiceError(c, err, "Failed to create shift")
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().Str("shift_id", shift.ID).Str("created_by", sessionData.UserID).Msg("Shift added to timetable")

	c.JSON(http.StatusCreated, shift)
}
