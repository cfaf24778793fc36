// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shiftdesk/shiftdesk/internal/auth"
	"github.com/shiftdesk/shiftdesk/internal/models"
)

// OpenDB opens a migrated SQLite database in a per-test temp directory
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	require.NoError(t, models.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Logger returns a logger that discards output
func Logger() zerolog.Logger {
	return zerolog.Nop()
}

// CreateStudent inserts a student with the given phone and password
func CreateStudent(t *testing.T, db *gorm.DB, phone, password string, isAdmin bool) *models.Student {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	student := &models.Student{
		Name:           "Student " + phone,
		Phone:          phone,
		PasswordHash:   hash,
		EnrollmentYear: 2023,
		ClassNumber:    3,
		IsAdmin:        isAdmin,
	}
	require.NoError(t, db.Create(student).Error)
	return student
}

// CreateEvent inserts a recruiting event starting a week after now
func CreateEvent(t *testing.T, db *gorm.DB, now time.Time, required int) *models.Event {
	t.Helper()

	event := &models.Event{
		Title:                "Park cleanup",
		Description:          "Bring gloves",
		StartTime:            now.Add(7 * 24 * time.Hour),
		EndTime:              now.Add(7*24*time.Hour + 2*time.Hour),
		Location:             "North park",
		RequiredVolunteers:   required,
		Status:               models.EventStatusRecruiting,
		RegistrationDeadline: now.Add(5 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(event).Error)
	return event
}
