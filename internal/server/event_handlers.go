package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/shiftdesk/shiftdesk/internal/events"
	"github.com/shiftdesk/shiftdesk/internal/models"
	"github.com/shiftdesk/shiftdesk/internal/tasks"
)

// CreateEventRequest represents a request to publish an event
type CreateEventRequest struct {
	Title                string    `json:"title" binding:"required" validate:"max=120"`
	Description          string    `json:"description"`
	StartTime            time.Time `json:"startTime" binding:"required"`
	EndTime              time.Time `json:"endTime" binding:"required"`
	Location             string    `json:"location" binding:"required" validate:"max=200"`
	RequiredVolunteers   int       `json:"requiredVolunteers" binding:"required" validate:"min=1"`
	LeaderName           string    `json:"leaderName" validate:"max=100"`
	LeaderContact        string    `json:"leaderContact" validate:"max=100"`
	RegistrationDeadline time.Time `json:"registrationDeadline" binding:"required"`
	ImageURL             string    `json:"imageUrl" validate:"omitempty,url"`
}

// UpdateEventRequest holds optional event changes
type UpdateEventRequest struct {
	Title                *string    `json:"title" validate:"omitempty,min=1,max=120"`
	Description          *string    `json:"description"`
	StartTime            *time.Time `json:"startTime"`
	EndTime              *time.Time `json:"endTime"`
	Location             *string    `json:"location" validate:"omitempty,min=1,max=200"`
	RequiredVolunteers   *int       `json:"requiredVolunteers" validate:"omitempty,min=1"`
	Status               *string    `json:"status" validate:"omitempty,oneof=recruiting full closed finished"`
	LeaderName           *string    `json:"leaderName" validate:"omitempty,max=100"`
	LeaderContact        *string    `json:"leaderContact" validate:"omitempty,max=100"`
	RegistrationDeadline *time.Time `json:"registrationDeadline"`
	ImageURL             *string    `json:"imageUrl" validate:"omitempty,url"`
}

// @Summary List events
// @Tags events
// @Produce json
// @Param status query string false "Filter by status"
// @Param upcoming query bool false "Only events that have not ended"
// @Success 200 {array} models.Event
// @Router /api/events [get]
func (s *Server) listEvents(c *gin.Context) {
	params := events.ListParams{Status: c.Query("status")}
	if params.Status != "" && !models.ValidStatus(params.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": events.ErrInvalidStatus.Error()})
		return
	}
	if upcoming := c.Query("upcoming"); upcoming != "" {
		v, err := strconv.ParseBool(upcoming)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "upcoming must be a boolean"})
			return
		}
		params.Upcoming = v
	}

	list, err := s.eventsService.List(c.Request.Context(), params)
	if err != nil {
		s.respondServiceError(c, err, "Failed to list events")
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get event
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} map[string]interface{}
// @Router /api/events/{id} [get]
func (s *Server) getEvent(c *gin.Context) {
	event, err := s.eventsService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondServiceError(c, err, "Failed to load event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// @Summary Join event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/events/{id}/signup [post]
func (s *Server) joinEvent(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	event, err := s.eventsService.Join(c.Request.Context(), c.Param("id"), sessionData.UserID)
	if err != nil {
		s.respondServiceError(c, err, "Failed to join event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// @Summary Leave event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/events/{id}/signup [delete]
func (s *Server) leaveEvent(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	event, err := s.eventsService.Leave(c.Request.Context(), c.Param("id"), sessionData.UserID)
	if err != nil {
		s.respondServiceError(c, err, "Failed to leave event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// @Summary Publish event
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEventRequest true "Event"
// @Success 201 {object} models.Event
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/events [post]
func (s *Server) createEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if !s.validate(c, &req) {
		return
	}

	event := &models.Event{
		Title:                req.Title,
		Description:          req.Description,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		Location:             req.Location,
		RequiredVolunteers:   req.RequiredVolunteers,
		LeaderName:           req.LeaderName,
		LeaderContact:        req.LeaderContact,
		RegistrationDeadline: req.RegistrationDeadline,
		ImageURL:             req.ImageURL,
	}
	if err := s.eventsService.Create(c.Request.Context(), event); err != nil {
		s.respondServiceError(c, err, "Failed to create event")
		return
	}

	s.scheduleDeadlines(event)

	c.JSON(http.StatusCreated, event)
}

// @Summary Update event
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body UpdateEventRequest true "Changes"
// @Success 200 {object} models.Event
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/events/{id} [patch]
func (s *Server) updateEvent(c *gin.Context) {
	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if !s.validate(c, &req) {
		return
	}

	event, err := s.eventsService.Update(c.Request.Context(), c.Param("id"), events.Patch{
		Title:                req.Title,
		Description:          req.Description,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		Location:             req.Location,
		RequiredVolunteers:   req.RequiredVolunteers,
		Status:               req.Status,
		LeaderName:           req.LeaderName,
		LeaderContact:        req.LeaderContact,
		RegistrationDeadline: req.RegistrationDeadline,
		ImageURL:             req.ImageURL,
	})
	if err != nil {
		s.respondServiceError(c, err, "Failed to update event")
		return
	}

	if req.RegistrationDeadline != nil || req.EndTime != nil {
		s.scheduleDeadlines(event)
	}

	c.JSON(http.StatusOK, event)
}

// @Summary Delete event
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/events/{id} [delete]
func (s *Server) deleteEvent(c *gin.Context) {
	if err := s.eventsService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondServiceError(c, err, "Failed to delete event")
		return
	}
	c.Status(http.StatusNoContent)
}

// scheduleDeadlines enqueues the close and finish tasks for an event. The
// worker's minute scheduler covers anything that fails to enqueue here.
func (s *Server) scheduleDeadlines(event *models.Event) {
	if s.enqueuer == nil {
		return
	}

	schedule := []struct {
		build func(string) (*asynq.Task, error)
		at    time.Time
	}{
		{tasks.NewCloseRegistrationTask, event.RegistrationDeadline},
		{tasks.NewFinishEventTask, event.EndTime},
	}

	for _, item := range schedule {
		task, err := item.build(event.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to build deadline task")
			continue
		}
		info, err := s.enqueuer.Enqueue(task, asynq.ProcessAt(item.at))
		if err != nil {
			s.logger.Warn().Err(err).Str("event_id", event.ID).Str("task", task.Type()).Msg("Failed to enqueue deadline task")
			continue
		}
		s.logger.Debug().
			Str("event_id", event.ID).
			Str("task", task.Type()).
			Str("task_id", info.ID).
			Time("process_at", item.at).
			Msg("Deadline task enqueued")
	}
}
