package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/shiftdesk/internal/cli/session"
	"github.com/shiftdesk/shiftdesk/internal/config"
	"github.com/shiftdesk/shiftdesk/internal/seed"
	"github.com/shiftdesk/shiftdesk/internal/server"
	"github.com/shiftdesk/shiftdesk/internal/testutil"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.OpenDB(t)
	require.NoError(t, seed.Run(context.Background(), db, seed.Options{AdminPassword: "admin123"}, testutil.Logger()))

	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"http://localhost:5173"}
	cfg.Auth.JWTSecret = "integration-secret"
	cfg.Auth.TokenTTL = time.Hour

	srv, err := server.NewWithDB(cfg, db, testutil.Logger(), "test", nil)
	require.NoError(t, err)

	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)
	return httpSrv
}

func TestIntegration_AdminFlow(t *testing.T) {
	api := newAPIServer(t)
	ctx := context.Background()
	store := session.Open(session.NewMemoryBackend(), zerolog.Nop())
	c := New(api.URL, store)

	auth, err := c.Login(ctx, seed.AdminPhone, "admin123")
	require.NoError(t, err)
	require.True(t, auth.User.IsAdmin)
	require.NoError(t, store.Login(auth.User.Session(auth.Token)))

	students, err := c.AdminListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	start := time.Now().Add(96 * time.Hour).Truncate(time.Second)
	event, err := c.AdminCreateEvent(ctx, EventInput{
		Title:                "Food bank",
		StartTime:            start,
		EndTime:              start.Add(2 * time.Hour),
		Location:             "Hall B",
		RequiredVolunteers:   5,
		RegistrationDeadline: start.Add(-time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "recruiting", event.Status)

	shifts, err := c.ListShifts(ctx)
	require.NoError(t, err)
	assert.Len(t, shifts, 18)
}

func TestIntegration_LegacyAdminSessionIsRejected(t *testing.T) {
	api := newAPIServer(t)
	ctx := context.Background()

	// An admin session persisted without a token only has the phone to send
	store := session.Open(session.NewMemoryBackend(), zerolog.Nop())
	require.NoError(t, store.Login(session.Session{Phone: seed.AdminPhone, IsAdmin: true}))
	c := New(api.URL, store)

	_, err := c.AdminListStudents(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized), "got %v", err)
}

func TestIntegration_StudentFlow(t *testing.T) {
	api := newAPIServer(t)
	ctx := context.Background()
	store := session.Open(session.NewMemoryBackend(), zerolog.Nop())
	c := New(api.URL, store)

	auth, err := c.Register(ctx, RegisterRequest{Name: "Ana", Phone: "13900000001", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, store.Login(auth.User.Session(auth.Token)))

	_, err = c.AdminListStudents(ctx)
	assert.True(t, IsStatus(err, http.StatusForbidden), "got %v", err)

	shifts, err := c.ListShifts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, shifts)

	signup, err := c.SignUpShift(ctx, shifts[0].ID, shifts[0].NextDate)
	require.NoError(t, err)
	assert.Equal(t, shifts[0].NextDate, signup.Date)

	mine, err := c.MyShifts(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, shifts[0].Name, mine[0].Shift.Name)

	require.NoError(t, c.CancelShiftSignup(ctx, signup.ID))

	name := "Ana Li"
	user, err := c.UpdateMe(ctx, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Li", user.Name)
}
