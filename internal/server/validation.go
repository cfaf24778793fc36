package server

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/shiftdesk/shiftdesk/internal/events"
	"github.com/shiftdesk/shiftdesk/internal/shifts"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{5,15}$`)

func newValidator() *validator.Validate {
	validate := validator.New()

	// Phone numbers are the login name: digits with an optional leading +
	validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	// Wall-clock time of a weekly shift
	validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, _, err := shifts.ParseClock(fl.Field().String())
		return err == nil
	})

	return validate
}

// validate runs struct validation and writes a 400 on failure
func (s *Server) validate(c *gin.Context, req interface{}) bool {
	if err := s.validator.Struct(req); err != nil {
		s.logger.Warn().Err(err).Msg("Request validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return false
	}
	return true
}

// respondServiceError maps domain errors to HTTP statuses
func (s *Server) respondServiceError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, events.ErrEventNotFound),
		errors.Is(err, shifts.ErrShiftNotFound),
		errors.Is(err, shifts.ErrSignupNotFound):
		status = http.StatusNotFound
	case errors.Is(err, events.ErrEventFull),
		errors.Is(err, events.ErrRegistrationClosed),
		errors.Is(err, events.ErrNotSignedUp),
		errors.Is(err, shifts.ErrShiftFull),
		errors.Is(err, shifts.ErrAlreadySignedUp):
		status = http.StatusConflict
	case errors.Is(err, events.ErrInvalidStatus),
		errors.Is(err, events.ErrInvalidEventWindow),
		errors.Is(err, events.ErrCapacityBelowSignup),
		errors.Is(err, shifts.ErrInvalidShift),
		errors.Is(err, shifts.ErrInvalidDate),
		errors.Is(err, shifts.ErrWrongWeekday),
		errors.Is(err, shifts.ErrDateInPast):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg(message)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	s.logger.Debug().Err(err).Int("status", status).Msg(message)
	c.JSON(status, gin.H{"error": err.Error()})
}
