// Package seed fills an empty database with the default admin, the weekly
// shift timetable and, optionally, demo data.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/auth"
	"github.com/shiftdesk/shiftdesk/internal/models"
	"github.com/shiftdesk/shiftdesk/internal/shifts"
)

// AdminPhone is the login of the default administrator
const AdminPhone = "admin"

//go:embed shifts.yaml
var timetableYAML []byte

type timetable struct {
	Shifts []timetableEntry `yaml:"shifts"`
}

type timetableEntry struct {
	Name        string  `yaml:"name"`
	Days        []int   `yaml:"days"`
	Start       string  `yaml:"start"`
	End         string  `yaml:"end"`
	Capacity    int     `yaml:"capacity"`
	Hours       float64 `yaml:"hours"`
	Description string  `yaml:"description"`
}

// Timetable parses a YAML timetable into one RecurringShift per listed day
func Timetable(data []byte) ([]models.RecurringShift, error) {
	var tt timetable
	if err := yaml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("failed to parse timetable: %w", err)
	}

	var result []models.RecurringShift
	for _, entry := range tt.Shifts {
		for _, day := range entry.Days {
			shift := models.RecurringShift{
				Name:        entry.Name,
				DayOfWeek:   day,
				StartTime:   entry.Start,
				EndTime:     entry.End,
				Capacity:    entry.Capacity,
				HoursValue:  entry.Hours,
				Description: entry.Description,
			}
			if err := shifts.Validate(&shift); err != nil {
				return nil, fmt.Errorf("timetable entry %q day %d: %w", entry.Name, day, err)
			}
			result = append(result, shift)
		}
	}
	return result, nil
}

// DefaultTimetable returns the embedded weekly timetable
func DefaultTimetable() ([]models.RecurringShift, error) {
	return Timetable(timetableYAML)
}

// EnsureAdmin creates the default administrator if no account uses AdminPhone
func EnsureAdmin(ctx context.Context, db *gorm.DB, password string, logger zerolog.Logger) error {
	var existing models.Student
	err := db.WithContext(ctx).Where("phone = ?", AdminPhone).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.Student{
		Name:           "Admin",
		Phone:          AdminPhone,
		PasswordHash:   hash,
		EnrollmentYear: 2020,
		IsAdmin:        true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	logger.Info().Str("phone", AdminPhone).Msg("Default admin created")
	return nil
}

// EnsureShifts loads the default timetable when no shifts exist
func EnsureShifts(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.RecurringShift{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count shifts: %w", err)
	}
	if count > 0 {
		logger.Debug().Int64("count", count).Msg("Shifts already present, skipping timetable seed")
		return nil
	}

	timetable, err := DefaultTimetable()
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Create(&timetable).Error; err != nil {
		return fmt.Errorf("failed to insert timetable: %w", err)
	}

	logger.Info().Int("count", len(timetable)).Msg("Weekly shift timetable seeded")
	return nil
}

// Options controls Run
type Options struct {
	AdminPassword string
	DemoData      bool
	DemoSeed      uint64
}

// Run applies every seed step. It is safe to call on every start.
func Run(ctx context.Context, db *gorm.DB, opts Options, logger zerolog.Logger) error {
	log := logger.With().Str("component", "seed").Logger()

	if err := EnsureAdmin(ctx, db, opts.AdminPassword, log); err != nil {
		return err
	}
	if err := EnsureShifts(ctx, db, log); err != nil {
		return err
	}
	if opts.DemoData {
		if err := Demo(ctx, db, opts.DemoSeed, log); err != nil {
			return err
		}
	}
	return nil
}
