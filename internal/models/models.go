package models

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Event statuses
const (
	EventStatusRecruiting = "recruiting"
	EventStatusFull       = "full"
	EventStatusClosed     = "closed"
	EventStatusFinished   = "finished"
)

// ShiftDateLayout is the wire and storage format for shift signup dates
const ShiftDateLayout = "2006-01-02"

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config is a singleton holding values generated on first start
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // 64 hex chars
}

// Student is a volunteer account. Admins are students with IsAdmin set.
type Student struct {
	BaseModel
	Name           string    `json:"name" gorm:"not null"`
	Phone          string    `json:"phone" gorm:"unique;not null"`
	PasswordHash   string    `json:"-" gorm:"not null"`
	EnrollmentYear int       `json:"enrollmentYear"`
	ClassNumber    int       `json:"classNumber"`
	IsAdmin        bool      `json:"isAdmin" gorm:"not null;default:false"`
	TotalHours     float64   `json:"totalHours" gorm:"not null;default:0"`
	UpdatedAt      time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Event is a one-off volunteering activity with its own registration window
type Event struct {
	BaseModel
	Title                string    `json:"title" gorm:"type:varchar(120);not null"`
	Description          string    `json:"description" gorm:"type:text"`
	StartTime            time.Time `json:"startTime" gorm:"not null"`
	EndTime              time.Time `json:"endTime" gorm:"not null"`
	Location             string    `json:"location" gorm:"type:varchar(200);not null"`
	RequiredVolunteers   int       `json:"requiredVolunteers" gorm:"not null"`
	CurrentVolunteers    int       `json:"currentVolunteers" gorm:"not null;default:0"`
	Status               string    `json:"status" gorm:"type:varchar(20);not null;default:recruiting;index"`
	LeaderName           string    `json:"leaderName"`
	LeaderContact        string    `json:"leaderContact"`
	RegistrationDeadline time.Time `json:"registrationDeadline" gorm:"not null;index"`
	ImageURL             string    `json:"imageUrl"`
	UpdatedAt            time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// IsOpen reports whether the event accepts new volunteers at now
func (e *Event) IsOpen(now time.Time) bool {
	return e.Status == EventStatusRecruiting && now.Before(e.RegistrationDeadline)
}

// EventSignup records a student volunteering for an event
type EventSignup struct {
	BaseModel
	EventID   string `json:"eventId" gorm:"not null;uniqueIndex:idx_event_student"`
	StudentID string `json:"studentId" gorm:"not null;uniqueIndex:idx_event_student"`

	Event   Event   `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Student Student `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

// RecurringShift is a weekly duty slot, e.g. canteen help every Monday 11:40-12:00
type RecurringShift struct {
	BaseModel
	Name        string  `json:"name" gorm:"not null"`
	DayOfWeek   int     `json:"dayOfWeek" gorm:"not null;index"` // 1 = Monday ... 7 = Sunday
	StartTime   string  `json:"startTime" gorm:"type:varchar(5);not null"`
	EndTime     string  `json:"endTime" gorm:"type:varchar(5);not null"`
	Capacity    int     `json:"capacity" gorm:"not null"`
	HoursValue  float64 `json:"hoursValue" gorm:"not null"`
	Description string  `json:"description"`
}

// Weekday converts DayOfWeek to time.Weekday
func (s *RecurringShift) Weekday() time.Weekday {
	return time.Weekday(s.DayOfWeek % 7)
}

// ShiftSignup books a student onto one dated occurrence of a recurring shift
type ShiftSignup struct {
	BaseModel
	ShiftID   string `json:"shiftId" gorm:"not null;uniqueIndex:idx_shift_student_date"`
	StudentID string `json:"studentId" gorm:"not null;uniqueIndex:idx_shift_student_date"`
	Date      string `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:idx_shift_student_date;index"`

	Shift   RecurringShift `json:"shift,omitzero" gorm:"foreignKey:ShiftID;constraint:OnDelete:CASCADE"`
	Student Student        `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

// ValidStatus reports whether status is a known event status
func ValidStatus(status string) bool {
	switch status {
	case EventStatusRecruiting, EventStatusFull, EventStatusClosed, EventStatusFinished:
		return true
	}
	return false
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Config{}, &Student{}, &Event{}, &EventSignup{}, &RecurringShift{}, &ShiftSignup{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
