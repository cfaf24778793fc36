package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shiftdesk/shiftdesk/internal/cli/session"
)

// User is a student profile
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	IsAdmin        bool      `json:"isAdmin"`
	EnrollmentYear int       `json:"enrollmentYear"`
	ClassNumber    int       `json:"classNumber"`
	TotalHours     float64   `json:"totalHours"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Session converts the profile and its token into a stored session
func (u User) Session(token string) session.Session {
	return session.Session{
		ID:             u.ID,
		Name:           u.Name,
		Phone:          u.Phone,
		IsAdmin:        u.IsAdmin,
		EnrollmentYear: u.EnrollmentYear,
		ClassNumber:    u.ClassNumber,
		TotalHours:     u.TotalHours,
		Token:          token,
	}
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterRequest creates a student account
type RegisterRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	EnrollmentYear int    `json:"enrollmentYear,omitempty"`
	ClassNumber    int    `json:"classNumber,omitempty"`
}

// ProfileUpdate holds optional profile changes
type ProfileUpdate struct {
	Name           *string `json:"name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Password       *string `json:"password,omitempty"`
	EnrollmentYear *int    `json:"enrollmentYear,omitempty"`
	ClassNumber    *int    `json:"classNumber,omitempty"`
}

// Event is a one-off volunteering activity
type Event struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	StartTime            time.Time `json:"startTime"`
	EndTime              time.Time `json:"endTime"`
	Location             string    `json:"location"`
	RequiredVolunteers   int       `json:"requiredVolunteers"`
	CurrentVolunteers    int       `json:"currentVolunteers"`
	Status               string    `json:"status"`
	LeaderName           string    `json:"leaderName"`
	LeaderContact        string    `json:"leaderContact"`
	RegistrationDeadline time.Time `json:"registrationDeadline"`
	ImageURL             string    `json:"imageUrl"`
}

// EventInput is the body for creating an event
type EventInput struct {
	Title                string    `json:"title"`
	Description          string    `json:"description,omitempty"`
	StartTime            time.Time `json:"startTime"`
	EndTime              time.Time `json:"endTime"`
	Location             string    `json:"location"`
	RequiredVolunteers   int       `json:"requiredVolunteers"`
	LeaderName           string    `json:"leaderName,omitempty"`
	LeaderContact        string    `json:"leaderContact,omitempty"`
	RegistrationDeadline time.Time `json:"registrationDeadline"`
	ImageURL             string    `json:"imageUrl,omitempty"`
}

// EventPatch holds optional event changes
type EventPatch struct {
	Title                *string    `json:"title,omitempty"`
	Description          *string    `json:"description,omitempty"`
	StartTime            *time.Time `json:"startTime,omitempty"`
	EndTime              *time.Time `json:"endTime,omitempty"`
	Location             *string    `json:"location,omitempty"`
	RequiredVolunteers   *int       `json:"requiredVolunteers,omitempty"`
	Status               *string    `json:"status,omitempty"`
	RegistrationDeadline *time.Time `json:"registrationDeadline,omitempty"`
}

// ListEventsParams filters ListEvents
type ListEventsParams struct {
	Status   string
	Upcoming bool
}

// Shift is a weekly slot with its next occurrence
type Shift struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DayOfWeek   int       `json:"dayOfWeek"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Capacity    int       `json:"capacity"`
	HoursValue  float64   `json:"hoursValue"`
	Description string    `json:"description"`
	NextStart   time.Time `json:"nextStart"`
	NextDate    string    `json:"nextDate"`
	Taken       int       `json:"taken"`
}

// ShiftInput is the body for adding a weekly slot
type ShiftInput struct {
	Name        string  `json:"name"`
	DayOfWeek   int     `json:"dayOfWeek"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Capacity    int     `json:"capacity"`
	HoursValue  float64 `json:"hoursValue"`
	Description string  `json:"description,omitempty"`
}

// ShiftSignup is a booking for one dated occurrence
type ShiftSignup struct {
	ID        string `json:"id"`
	ShiftID   string `json:"shiftId"`
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
	Shift     Shift  `json:"shift"`
}

// Register creates an account and returns its token
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates with phone and password
func (c *Client) Login(ctx context.Context, phone, password string) (*AuthResponse, error) {
	body := map[string]string{"phone": phone, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the signed-in profile
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateMe changes the signed-in profile
func (c *Client) UpdateMe(ctx context.Context, update ProfileUpdate) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPatch, "/api/auth/me", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListEvents returns events ordered by start time
func (c *Client) ListEvents(ctx context.Context, params ListEventsParams) ([]Event, error) {
	query := url.Values{}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	if params.Upcoming {
		query.Set("upcoming", strconv.FormatBool(true))
	}
	path := "/api/events"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var events []Event
	if err := c.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent returns one event
func (c *Client) GetEvent(ctx context.Context, id string) (*Event, error) {
	var event Event
	if err := c.do(ctx, http.MethodGet, "/api/events/"+url.PathEscape(id), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// JoinEvent signs the current user up for an event
func (c *Client) JoinEvent(ctx context.Context, id string) (*Event, error) {
	var event Event
	if err := c.do(ctx, http.MethodPost, "/api/events/"+url.PathEscape(id)+"/signup", nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// LeaveEvent withdraws the current user from an event
func (c *Client) LeaveEvent(ctx context.Context, id string) (*Event, error) {
	var event Event
	if err := c.do(ctx, http.MethodDelete, "/api/events/"+url.PathEscape(id)+"/signup", nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListShifts returns the weekly timetable
func (c *Client) ListShifts(ctx context.Context) ([]Shift, error) {
	var shifts []Shift
	if err := c.do(ctx, http.MethodGet, "/api/shifts", nil, &shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

// SignUpShift books the occurrence of a shift on date (YYYY-MM-DD)
func (c *Client) SignUpShift(ctx context.Context, shiftID, date string) (*ShiftSignup, error) {
	var signup ShiftSignup
	body := map[string]string{"date": date}
	if err := c.do(ctx, http.MethodPost, "/api/shifts/"+url.PathEscape(shiftID)+"/signup", body, &signup); err != nil {
		return nil, err
	}
	return &signup, nil
}

// MyShifts lists the current user's shift bookings
func (c *Client) MyShifts(ctx context.Context) ([]ShiftSignup, error) {
	var signups []ShiftSignup
	if err := c.do(ctx, http.MethodGet, "/api/shifts/mine", nil, &signups); err != nil {
		return nil, err
	}
	return signups, nil
}

// CancelShiftSignup removes one of the current user's bookings
func (c *Client) CancelShiftSignup(ctx context.Context, signupID string) error {
	return c.do(ctx, http.MethodDelete, "/api/shifts/signups/"+url.PathEscape(signupID), nil, nil)
}

// AdminListStudents lists every account
func (c *Client) AdminListStudents(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/admin/students", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AdminCreateEvent publishes an event
func (c *Client) AdminCreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	var event Event
	if err := c.do(ctx, http.MethodPost, "/api/admin/events", input, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// AdminUpdateEvent changes an event
func (c *Client) AdminUpdateEvent(ctx context.Context, id string, patch EventPatch) (*Event, error) {
	var event Event
	if err := c.do(ctx, http.MethodPatch, "/api/admin/events/"+url.PathEscape(id), patch, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// AdminDeleteEvent removes an event and its signups
func (c *Client) AdminDeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/events/"+url.PathEscape(id), nil, nil)
}

// AdminCreateShift adds a weekly slot
func (c *Client) AdminCreateShift(ctx context.Context, input ShiftInput) (*Shift, error) {
	var shift Shift
	if err := c.do(ctx, http.MethodPost, "/api/admin/shifts", input, &shift); err != nil {
		return nil, err
	}
	return &shift, nil
}

// HostMetrics describes the machine the API runs on
type HostMetrics struct {
	CPUCount        int     `json:"cpuCount"`
	Goroutines      int     `json:"goroutines"`
	MemoryTotalGB   float64 `json:"memoryTotalGb"`
	MemoryUsedGB    float64 `json:"memoryUsedGb"`
	DiskTotalGB     float64 `json:"diskTotalGb"`
	DiskUsedPercent float64 `json:"diskUsedPercent"`
	DatabaseSizeMB  float64 `json:"databaseSizeMb"`
}

// SystemInfo is the admin system report
type SystemInfo struct {
	Version string      `json:"version"`
	Host    HostMetrics `json:"host"`
	Store   struct {
		Students        int64            `json:"students"`
		Events          map[string]int64 `json:"events"`
		EventSignups    int64            `json:"eventSignups"`
		RecurringShifts int64            `json:"recurringShifts"`
		ShiftSignups    int64            `json:"shiftSignups"`
	} `json:"store"`
}

// AdminSystemInfo fetches host metrics and row counts
func (c *Client) AdminSystemInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.do(ctx, http.MethodGet, "/api/admin/system", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
