package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/auth"
	"github.com/shiftdesk/shiftdesk/internal/models"
)

const (
	demoStudents       = 12
	demoEvents         = 6
	demoPassword       = "student123"
	minEventHours      = 1
	maxExtraHours      = 4
	maxLeadDays        = 30
	minVolunteers      = 3
	maxExtraVolunteers = 10
)

var demoLocations = []string{
	"Main hall", "North park", "City library", "Sports field", "Community center", "Riverside",
}

var demoActivities = []string{
	"cleanup", "book drive", "charity run", "tutoring session", "food bank shift", "open day guides",
}

// Demo adds fake students and recruiting events. It does nothing when demo
// students already exist.
func Demo(ctx context.Context, db *gorm.DB, seed uint64, logger zerolog.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Student{}).Where("is_admin = ?", false).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count students: %w", err)
	}
	if count > 0 {
		logger.Debug().Int64("students", count).Msg("Students present, skipping demo data")
		return nil
	}

	faker := gofakeit.New(seed)

	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	students := make([]models.Student, 0, demoStudents)
	for i := 0; i < demoStudents; i++ {
		students = append(students, models.Student{
			Name:           faker.Name(),
			Phone:          fmt.Sprintf("1%02d%s", i, faker.Numerify("#######")),
			PasswordHash:   hash,
			EnrollmentYear: 2021 + faker.IntN(4),
			ClassNumber:    1 + faker.IntN(12),
		})
	}

	now := time.Now().UTC().Truncate(time.Hour)
	events := make([]models.Event, 0, demoEvents)
	for i := 0; i < demoEvents; i++ {
		start := now.Add(time.Duration(2+faker.IntN(maxLeadDays)) * 24 * time.Hour)
		end := start.Add(time.Duration(minEventHours+faker.IntN(maxExtraHours)) * time.Hour)
		location := demoLocations[faker.IntN(len(demoLocations))]
		events = append(events, models.Event{
			Title:                fmt.Sprintf("%s %s", location, demoActivities[faker.IntN(len(demoActivities))]),
			Description:          faker.Sentence(8 + faker.IntN(8)),
			StartTime:            start,
			EndTime:              end,
			Location:             location,
			RequiredVolunteers:   minVolunteers + faker.IntN(maxExtraVolunteers),
			Status:               models.EventStatusRecruiting,
			LeaderName:           faker.Name(),
			LeaderContact:        faker.Phone(),
			RegistrationDeadline: start.Add(-24 * time.Hour),
		})
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&students).Error; err != nil {
			return fmt.Errorf("failed to insert demo students: %w", err)
		}
		if err := tx.Create(&events).Error; err != nil {
			return fmt.Errorf("failed to insert demo events: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info().
		Int("students", len(students)).
		Int("events", len(events)).
		Str("password", demoPassword).
		Msg("Demo data seeded")
	return nil
}
