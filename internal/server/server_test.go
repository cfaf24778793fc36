package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/shiftdesk/internal/config"
	"github.com/shiftdesk/shiftdesk/internal/models"
	"github.com/shiftdesk/shiftdesk/internal/seed"
	"github.com/shiftdesk/shiftdesk/internal/tasks"
	"github.com/shiftdesk/shiftdesk/internal/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []string
}

func (r *recordingEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task.Type())
	return &asynq.TaskInfo{ID: task.Type(), Type: task.Type()}, nil
}

type testServer struct {
	*Server
	enqueuer *recordingEnqueuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.OpenDB(t)
	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"http://localhost:5173"}
	cfg.Auth.JWTSecret = "test-secret-test-secret-test-secret"
	cfg.Auth.TokenTTL = time.Hour

	require.NoError(t, seed.EnsureAdmin(t.Context(), db, "admin123", testutil.Logger()))

	enqueuer := &recordingEnqueuer{}
	srv, err := NewWithDB(cfg, db, testutil.Logger(), "test", enqueuer)
	require.NoError(t, err)
	return &testServer{Server: srv, enqueuer: enqueuer}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(t *testing.T, phone, password string) LoginResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Phone: phone, Password: password}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (ts *testServer) register(t *testing.T, phone string) LoginResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		Name:           "Student " + phone,
		Phone:          phone,
		Password:       "secret1",
		EnrollmentYear: 2024,
		ClassNumber:    2,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shiftdesk-api")
}

func TestInitJWT_GeneratesAndPersistsSecret(t *testing.T) {
	db := testutil.OpenDB(t)
	cfg := &config.Config{}
	cfg.Auth.TokenTTL = time.Hour

	require.NoError(t, initJWT(cfg, db, testutil.Logger()))

	var stored models.Config
	require.NoError(t, db.First(&stored).Error)
	assert.Len(t, stored.JWTSecret, 64)

	// a second start reuses the stored secret
	require.NoError(t, initJWT(cfg, db, testutil.Logger()))
	var count int64
	require.NoError(t, db.Model(&models.Config{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	registered := ts.register(t, "13800000001")
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "13800000001", registered.User.Phone)
	assert.False(t, registered.User.IsAdmin)

	rec := ts.do(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		Name: "Dup", Phone: "13800000001", Password: "secret1",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		Name: "Bad", Phone: "not-a-phone", Password: "secret1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Phone: "13800000001", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	loggedIn := ts.login(t, "13800000001", "secret1")
	rec = ts.do(t, http.MethodGet, "/api/auth/me", nil, bearer(loggedIn.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[StudentDetail](t, rec)
	assert.Equal(t, registered.User.ID, me.ID)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestUpdateCurrentUser(t *testing.T) {
	ts := newTestServer(t)
	student := ts.register(t, "13800000002")

	name := "Renamed"
	rec := ts.do(t, http.MethodPatch, "/api/auth/me", UpdateProfileRequest{Name: &name}, bearer(student.Token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[StudentDetail](t, rec)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "13800000002", updated.Phone)

	taken := seed.AdminPhone
	rec = ts.do(t, http.MethodPatch, "/api/auth/me", UpdateProfileRequest{Phone: &taken}, bearer(student.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "admin is not a valid phone number")

	other := ts.register(t, "13800000003")
	rec = ts.do(t, http.MethodPatch, "/api/auth/me", UpdateProfileRequest{Phone: &other.User.Phone}, bearer(student.Token))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHeaders(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, seed.AdminPhone, "admin123")
	student := ts.register(t, "13800000004")

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"admin bearer", bearer(admin.Token), http.StatusOK},
		{"admin header with signed token", map[string]string{adminTokenHeader: admin.Token}, http.StatusOK},
		{"admin header with phone number", map[string]string{adminTokenHeader: seed.AdminPhone}, http.StatusUnauthorized},
		{"admin header with student token", map[string]string{adminTokenHeader: student.Token}, http.StatusUnauthorized},
		{"student bearer", bearer(student.Token), http.StatusForbidden},
		{"malformed authorization", map[string]string{"Authorization": "Token abc"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/api/admin/students", nil, tt.headers)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestEventsFlow(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, seed.AdminPhone, "admin123")
	alice := ts.register(t, "13800000005")
	bob := ts.register(t, "13800000006")

	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	rec := ts.do(t, http.MethodPost, "/api/admin/events", CreateEventRequest{
		Title:                "Beach cleanup",
		StartTime:            start,
		EndTime:              start.Add(3 * time.Hour),
		Location:             "South beach",
		RequiredVolunteers:   1,
		RegistrationDeadline: start.Add(-24 * time.Hour),
	}, bearer(admin.Token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decode[models.Event](t, rec)
	assert.Equal(t, models.EventStatusRecruiting, event.Status)
	assert.ElementsMatch(t, []string{tasks.TypeCloseRegistration, tasks.TypeFinishEvent}, ts.enqueuer.tasks)

	rec = ts.do(t, http.MethodGet, "/api/events?upcoming=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=30", rec.Header().Get("Cache-Control"))
	assert.Len(t, decode[[]models.Event](t, rec), 1)

	rec = ts.do(t, http.MethodPost, "/api/events/"+event.ID+"/signup", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/events/"+event.ID+"/signup", nil, bearer(alice.Token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.EventStatusFull, decode[models.Event](t, rec).Status)

	rec = ts.do(t, http.MethodPost, "/api/events/"+event.ID+"/signup", nil, bearer(bob.Token))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/events/"+event.ID+"/signup", nil, bearer(alice.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.EventStatusRecruiting, decode[models.Event](t, rec).Status)

	status := "pending"
	rec = ts.do(t, http.MethodPatch, "/api/admin/events/"+event.ID, UpdateEventRequest{Status: &status}, bearer(admin.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/events/"+event.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/admin/events/"+event.ID, nil, bearer(admin.Token))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/events/"+event.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShiftsFlow(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, seed.AdminPhone, "admin123")
	alice := ts.register(t, "13800000007")

	tomorrow := time.Now().AddDate(0, 0, 1)
	day := int(tomorrow.Weekday())
	if day == 0 {
		day = 7
	}

	rec := ts.do(t, http.MethodPost, "/api/admin/shifts", CreateShiftRequest{
		Name: "Canteen", DayOfWeek: day, StartTime: "25:00", EndTime: "12:00", Capacity: 1,
	}, bearer(admin.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/shifts", CreateShiftRequest{
		Name: "Canteen", DayOfWeek: day, StartTime: "11:40", EndTime: "12:00", Capacity: 1, HoursValue: 0.5,
	}, bearer(admin.Token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	shift := decode[models.RecurringShift](t, rec)

	rec = ts.do(t, http.MethodGet, "/api/shifts", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ShiftDetail](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, tomorrow.Format(models.ShiftDateLayout), list[0].NextDate)
	assert.Zero(t, list[0].Taken)

	wrongDay := tomorrow.AddDate(0, 0, 1).Format(models.ShiftDateLayout)
	rec = ts.do(t, http.MethodPost, "/api/shifts/"+shift.ID+"/signup", ShiftSignupRequest{Date: wrongDay}, bearer(alice.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/shifts/"+shift.ID+"/signup", ShiftSignupRequest{Date: list[0].NextDate}, bearer(alice.Token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	signup := decode[models.ShiftSignup](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/shifts/"+shift.ID+"/signup", ShiftSignupRequest{Date: list[0].NextDate}, bearer(admin.Token))
	assert.Equal(t, http.StatusConflict, rec.Code, "capacity is one")

	rec = ts.do(t, http.MethodGet, "/api/shifts/mine", nil, bearer(alice.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]models.ShiftSignup](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, "Canteen", mine[0].Shift.Name)

	rec = ts.do(t, http.MethodDelete, "/api/shifts/signups/"+signup.ID, nil, bearer(admin.Token))
	assert.Equal(t, http.StatusNotFound, rec.Code, "only the owner can cancel")

	rec = ts.do(t, http.MethodDelete, "/api/shifts/signups/"+signup.ID, nil, bearer(alice.Token))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSystemInfo(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, seed.AdminPhone, "admin123")
	student := ts.register(t, "13800000009")

	rec := ts.do(t, http.MethodGet, "/api/admin/system", nil, bearer(student.Token))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/admin/system", nil, bearer(admin.Token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	info := decode[SystemInfoResponse](t, rec)
	assert.Equal(t, "test", info.Version)
	assert.Positive(t, info.Host.CPUCount)
	assert.Equal(t, int64(2), info.Store.Students)
	assert.Empty(t, info.Store.Events)
}

func TestDatabaseFile(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"shiftdesk.sqlite", "shiftdesk.sqlite"},
		{"file:/var/lib/shiftdesk/db.sqlite?_pragma=busy_timeout(5000)", "/var/lib/shiftdesk/db.sqlite"},
		{":memory:", ""},
		{"file::memory:?cache=shared", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, databaseFile(tt.dsn), tt.dsn)
	}
}
