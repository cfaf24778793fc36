package shifts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shiftdesk/shiftdesk/internal/models"
)

var (
	ErrShiftNotFound   = errors.New("shift not found")
	ErrInvalidShift    = errors.New("shift needs a day 1-7, HH:MM times with end after start and a positive capacity")
	ErrInvalidDate     = errors.New("date must be formatted YYYY-MM-DD")
	ErrWrongWeekday    = errors.New("date does not fall on the shift's weekday")
	ErrDateInPast      = errors.New("date is in the past")
	ErrShiftFull       = errors.New("shift is full for this date")
	ErrAlreadySignedUp = errors.New("already signed up for this shift on this date")
	ErrSignupNotFound  = errors.New("shift signup not found")
)

// ClockLayout is the HH:MM format used for shift start and end times
const ClockLayout = "15:04"

// Service manages the weekly shift timetable and dated signups
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
	now    func() time.Time
	loc    *time.Location
}

// NewService creates a shifts service. Shift times are wall-clock times in loc.
func NewService(db *gorm.DB, logger zerolog.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "shifts_service").Logger(),
		now:    time.Now,
		loc:    loc,
	}
}

// ParseClock parses an HH:MM string
func ParseClock(value string) (hour, minute int, err error) {
	t, err := time.Parse(ClockLayout, value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return t.Hour(), t.Minute(), nil
}

// NextOccurrence returns the next start of the shift strictly after from
func NextOccurrence(shift *models.RecurringShift, from time.Time) (time.Time, error) {
	hour, minute, err := ParseClock(shift.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	spec := fmt.Sprintf("%d %d * * %d", minute, hour, int(shift.Weekday()))
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse schedule %q: %w", spec, err)
	}
	return schedule.Next(from), nil
}

// NextOccurrence returns the next start of the shift in the service's timezone
func (s *Service) NextOccurrence(shift *models.RecurringShift) (time.Time, error) {
	return NextOccurrence(shift, s.now().In(s.loc))
}

// List returns the timetable ordered by weekday and start time
func (s *Service) List(ctx context.Context) ([]models.RecurringShift, error) {
	var shifts []models.RecurringShift
	if err := s.db.WithContext(ctx).
		Order("day_of_week ASC").
		Order("start_time ASC").
		Find(&shifts).Error; err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

// Get loads a single shift
func (s *Service) Get(ctx context.Context, id string) (*models.RecurringShift, error) {
	var shift models.RecurringShift
	if err := models.FindByID(s.db.WithContext(ctx), id, &shift); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}
	return &shift, nil
}

// Validate checks a shift definition
func Validate(shift *models.RecurringShift) error {
	if shift.Name == "" || shift.DayOfWeek < 1 || shift.DayOfWeek > 7 || shift.Capacity < 1 || shift.HoursValue < 0 {
		return ErrInvalidShift
	}
	sh, sm, err := ParseClock(shift.StartTime)
	if err != nil {
		return ErrInvalidShift
	}
	eh, em, err := ParseClock(shift.EndTime)
	if err != nil {
		return ErrInvalidShift
	}
	if eh*60+em <= sh*60+sm {
		return ErrInvalidShift
	}
	return nil
}

// Create stores a new recurring shift
func (s *Service) Create(ctx context.Context, shift *models.RecurringShift) error {
	if err := Validate(shift); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(shift).Error; err != nil {
		return fmt.Errorf("failed to create shift: %w", err)
	}
	s.logger.Info().
		Str("shift_id", shift.ID).
		Str("name", shift.Name).
		Int("day_of_week", shift.DayOfWeek).
		Str("start_time", shift.StartTime).
		Msg("Shift created")
	return nil
}

// Taken counts signups for one dated occurrence
func (s *Service) Taken(ctx context.Context, shiftID, date string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ShiftSignup{}).
		Where("shift_id = ? AND date = ?", shiftID, date).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count signups: %w", err)
	}
	return count, nil
}

// SignUp books a student onto the occurrence of a shift on date (YYYY-MM-DD)
func (s *Service) SignUp(ctx context.Context, shiftID, studentID, date string) (*models.ShiftSignup, error) {
	day, err := time.ParseInLocation(models.ShiftDateLayout, date, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if day.Before(today) {
		return nil, ErrDateInPast
	}

	var signup models.ShiftSignup
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shift models.RecurringShift
		if err := models.FindByID(tx, shiftID, &shift); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			return fmt.Errorf("failed to load shift: %w", err)
		}
		if day.Weekday() != shift.Weekday() {
			return ErrWrongWeekday
		}

		var mine int64
		if err := tx.Model(&models.ShiftSignup{}).
			Where("shift_id = ? AND student_id = ? AND date = ?", shiftID, studentID, date).
			Count(&mine).Error; err != nil {
			return fmt.Errorf("failed to check signup: %w", err)
		}
		if mine > 0 {
			return ErrAlreadySignedUp
		}

		var taken int64
		if err := tx.Model(&models.ShiftSignup{}).
			Where("shift_id = ? AND date = ?", shiftID, date).
			Count(&taken).Error; err != nil {
			return fmt.Errorf("failed to count signups: %w", err)
		}
		if taken >= int64(shift.Capacity) {
			return ErrShiftFull
		}

		signup = models.ShiftSignup{ShiftID: shiftID, StudentID: studentID, Date: date}
		if err := tx.Omit(clause.Associations).Create(&signup).Error; err != nil {
			return fmt.Errorf("failed to create signup: %w", err)
		}
		signup.Shift = shift
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("shift_id", shiftID).
		Str("student_id", studentID).
		Str("date", date).
		Msg("Student signed up for shift")
	return &signup, nil
}

// Cancel removes a student's own signup for an occurrence that has not passed
func (s *Service) Cancel(ctx context.Context, signupID, studentID string) error {
	var signup models.ShiftSignup
	if err := s.db.WithContext(ctx).
		Where("id = ? AND student_id = ?", signupID, studentID).
		First(&signup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSignupNotFound
		}
		return fmt.Errorf("failed to load signup: %w", err)
	}

	now := s.now().In(s.loc)
	if signup.Date < now.Format(models.ShiftDateLayout) {
		return ErrDateInPast
	}

	if err := s.db.WithContext(ctx).Delete(&signup).Error; err != nil {
		return fmt.Errorf("failed to delete signup: %w", err)
	}
	s.logger.Info().Str("signup_id", signupID).Str("student_id", studentID).Msg("Shift signup cancelled")
	return nil
}

// Mine lists a student's shift signups with their shift, earliest date first
func (s *Service) Mine(ctx context.Context, studentID string) ([]models.ShiftSignup, error) {
	var signups []models.ShiftSignup
	if err := s.db.WithContext(ctx).
		Preload("Shift").
		Where("student_id = ?", studentID).
		Order("date ASC").
		Find(&signups).Error; err != nil {
		return nil, fmt.Errorf("failed to list signups: %w", err)
	}
	return signups, nil
}
