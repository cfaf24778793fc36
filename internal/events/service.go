package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shiftdesk/shiftdesk/internal/models"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrEventFull           = errors.New("event is full")
	ErrRegistrationClosed  = errors.New("registration is closed")
	ErrNotSignedUp         = errors.New("not signed up for this event")
	ErrInvalidStatus       = errors.New("invalid event status")
	ErrInvalidEventWindow  = errors.New("event must end after it starts and close registration before it ends")
	ErrCapacityBelowSignup = errors.New("required volunteers cannot be lower than current volunteers")
)

// Service owns event registration rules
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new events service
func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "events_service").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListParams filters List
type ListParams struct {
	Status   string
	Upcoming bool // only events that have not ended
}

// List returns events ordered by start time
func (s *Service) List(ctx context.Context, params ListParams) ([]models.Event, error) {
	query := s.db.WithContext(ctx).Order("start_time ASC")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Upcoming {
		query = query.Where("end_time > ?", s.now())
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Get loads a single event
func (s *Service) Get(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := models.FindByID(s.db.WithContext(ctx), id, &event); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return &event, nil
}

// Create validates and stores a new event in the recruiting state
func (s *Service) Create(ctx context.Context, event *models.Event) error {
	normalizeTimes(event)
	if err := validateWindow(event); err != nil {
		return err
	}
	event.CurrentVolunteers = 0
	if event.Status == "" {
		event.Status = models.EventStatusRecruiting
	}
	if !models.ValidStatus(event.Status) {
		return ErrInvalidStatus
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info().
		Str("event_id", event.ID).
		Str("title", event.Title).
		Time("registration_deadline", event.RegistrationDeadline).
		Msg("Event created")
	return nil
}

// Patch holds optional event changes
type Patch struct {
	Title                *string
	Description          *string
	StartTime            *time.Time
	EndTime              *time.Time
	Location             *string
	RequiredVolunteers   *int
	Status               *string
	LeaderName           *string
	LeaderContact        *string
	RegistrationDeadline *time.Time
	ImageURL             *string
}

// Update applies a patch to an event
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.FindByID(tx, id, &event); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to load event: %w", err)
		}

		applyPatch(&event, patch)
		normalizeTimes(&event)

		if patch.Status != nil && !models.ValidStatus(event.Status) {
			return ErrInvalidStatus
		}
		if event.RequiredVolunteers < event.CurrentVolunteers {
			return ErrCapacityBelowSignup
		}
		if err := validateWindow(&event); err != nil {
			return err
		}

		// Capacity changes move the event between recruiting and full unless the
		// caller set the status explicitly.
		if patch.Status == nil && patch.RequiredVolunteers != nil {
			syncCapacityStatus(&event)
		}

		if err := tx.Omit(clause.Associations).Save(&event).Error; err != nil {
			return fmt.Errorf("failed to save event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("event_id", event.ID).Str("status", event.Status).Msg("Event updated")
	return &event, nil
}

// Delete removes an event and its signups
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := models.FindByID(tx, id, &event); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to load event: %w", err)
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.EventSignup{}).Error; err != nil {
			return fmt.Errorf("failed to delete signups: %w", err)
		}
		if err := tx.Delete(&event).Error; err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		s.logger.Info().Str("event_id", id).Msg("Event deleted")
		return nil
	})
}

// Join signs a student up for an event. Joining twice is a no-op.
func (s *Service) Join(ctx context.Context, eventID, studentID string) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.FindByID(tx, eventID, &event); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to load event: %w", err)
		}

		var existing int64
		if err := tx.Model(&models.EventSignup{}).
			Where("event_id = ? AND student_id = ?", eventID, studentID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check signup: %w", err)
		}
		if existing > 0 {
			return nil
		}

		if event.Status == models.EventStatusFull || event.CurrentVolunteers >= event.RequiredVolunteers {
			return ErrEventFull
		}
		if !event.IsOpen(s.now()) {
			return ErrRegistrationClosed
		}

		signup := models.EventSignup{EventID: eventID, StudentID: studentID}
		if err := tx.Omit(clause.Associations).Create(&signup).Error; err != nil {
			return fmt.Errorf("failed to create signup: %w", err)
		}

		event.CurrentVolunteers++
		syncCapacityStatus(&event)
		if err := tx.Model(&event).Updates(map[string]interface{}{
			"current_volunteers": event.CurrentVolunteers,
			"status":             event.Status,
		}).Error; err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("event_id", eventID).
		Str("student_id", studentID).
		Int("current_volunteers", event.CurrentVolunteers).
		Msg("Student joined event")
	return &event, nil
}

// Leave withdraws a student from an event that is still taking registrations
func (s *Service) Leave(ctx context.Context, eventID, studentID string) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.FindByID(tx, eventID, &event); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to load event: %w", err)
		}

		if event.Status != models.EventStatusRecruiting && event.Status != models.EventStatusFull {
			return ErrRegistrationClosed
		}

		result := tx.Where("event_id = ? AND student_id = ?", eventID, studentID).Delete(&models.EventSignup{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete signup: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotSignedUp
		}

		if event.CurrentVolunteers > 0 {
			event.CurrentVolunteers--
		}
		syncCapacityStatus(&event)
		if err := tx.Model(&event).Updates(map[string]interface{}{
			"current_volunteers": event.CurrentVolunteers,
			"status":             event.Status,
		}).Error; err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("event_id", eventID).Str("student_id", studentID).Msg("Student left event")
	return &event, nil
}

// SignedUp reports whether the student is registered for the event
func (s *Service) SignedUp(ctx context.Context, eventID, studentID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.EventSignup{}).
		Where("event_id = ? AND student_id = ?", eventID, studentID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check signup: %w", err)
	}
	return count > 0, nil
}

// CloseRegistration closes an event whose deadline has passed. It returns false
// when there was nothing to do.
func (s *Service) CloseRegistration(ctx context.Context, eventID string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND status IN ? AND registration_deadline <= ?",
			eventID, []string{models.EventStatusRecruiting, models.EventStatusFull}, s.now()).
		Update("status", models.EventStatusClosed)
	if result.Error != nil {
		return false, fmt.Errorf("failed to close registration: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Finish marks an event finished once it has ended
func (s *Service) Finish(ctx context.Context, eventID string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND status <> ? AND end_time <= ?", eventID, models.EventStatusFinished, s.now()).
		Update("status", models.EventStatusFinished)
	if result.Error != nil {
		return false, fmt.Errorf("failed to finish event: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DueForClosing returns ids of events past their deadline that still take registrations
func (s *Service) DueForClosing(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("status IN ? AND registration_deadline <= ?",
			[]string{models.EventStatusRecruiting, models.EventStatusFull}, s.now()).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to query due events: %w", err)
	}
	return ids, nil
}

// DueForFinishing returns ids of ended events not yet marked finished
func (s *Service) DueForFinishing(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("status <> ? AND end_time <= ?", models.EventStatusFinished, s.now()).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to query ended events: %w", err)
	}
	return ids, nil
}

func validateWindow(event *models.Event) error {
	if !event.EndTime.After(event.StartTime) || event.RegistrationDeadline.After(event.EndTime) {
		return ErrInvalidEventWindow
	}
	return nil
}

// normalizeTimes stores all instants in UTC so text comparisons in SQLite order correctly
func normalizeTimes(event *models.Event) {
	event.StartTime = event.StartTime.UTC()
	event.EndTime = event.EndTime.UTC()
	event.RegistrationDeadline = event.RegistrationDeadline.UTC()
}

func syncCapacityStatus(event *models.Event) {
	switch event.Status {
	case models.EventStatusRecruiting:
		if event.CurrentVolunteers >= event.RequiredVolunteers {
			event.Status = models.EventStatusFull
		}
	case models.EventStatusFull:
		if event.CurrentVolunteers < event.RequiredVolunteers {
			event.Status = models.EventStatusRecruiting
		}
	}
}

func applyPatch(event *models.Event, p Patch) {
	if p.Title != nil {
		event.Title = *p.Title
	}
	if p.Description != nil {
		event.Description = *p.Description
	}
	if p.StartTime != nil {
		event.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		event.EndTime = *p.EndTime
	}
	if p.Location != nil {
		event.Location = *p.Location
	}
	if p.RequiredVolunteers != nil {
		event.RequiredVolunteers = *p.RequiredVolunteers
	}
	if p.Status != nil {
		event.Status = *p.Status
	}
	if p.LeaderName != nil {
		event.LeaderName = *p.LeaderName
	}
	if p.LeaderContact != nil {
		event.LeaderContact = *p.LeaderContact
	}
	if p.RegistrationDeadline != nil {
		event.RegistrationDeadline = *p.RegistrationDeadline
	}
	if p.ImageURL != nil {
		event.ImageURL = *p.ImageURL
	}
}
