package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/shiftdesk/internal/models"
	"github.com/shiftdesk/shiftdesk/internal/testutil"
)

var testNow = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, func(d time.Duration)) {
	t.Helper()
	db := testutil.OpenDB(t)
	svc := NewService(db, testutil.Logger())
	now := testNow
	svc.now = func() time.Time { return now }
	advance := func(d time.Duration) { now = now.Add(d) }
	return svc, advance
}

func TestJoin_FillsEventAndMarksFull(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	event := testutil.CreateEvent(t, svc.db, testNow, 2)
	a := testutil.CreateStudent(t, svc.db, "1001", "pw", false)
	b := testutil.CreateStudent(t, svc.db, "1002", "pw", false)
	c := testutil.CreateStudent(t, svc.db, "1003", "pw", false)

	got, err := svc.Join(ctx, event.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentVolunteers)
	assert.Equal(t, models.EventStatusRecruiting, got.Status)

	got, err = svc.Join(ctx, event.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentVolunteers)
	assert.Equal(t, models.EventStatusFull, got.Status)

	_, err = svc.Join(ctx, event.ID, c.ID)
	assert.ErrorIs(t, err, ErrEventFull)
}

func TestJoin_IsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	event := testutil.CreateEvent(t, svc.db, testNow, 3)
	a := testutil.CreateStudent(t, svc.db, "1001", "pw", false)

	_, err := svc.Join(ctx, event.ID, a.ID)
	require.NoError(t, err)
	got, err := svc.Join(ctx, event.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentVolunteers)
}

func TestJoin_AfterDeadline(t *testing.T) {
	svc, advance := newTestService(t)
	ctx := context.Background()

	event := testutil.CreateEvent(t, svc.db, testNow, 3)
	a := testutil.CreateStudent(t, svc.db, "1001", "pw", false)

	advance(6 * 24 * time.Hour)
	_, err := svc.Join(ctx, event.ID, a.ID)
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestJoin_UnknownEvent(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Join(context.Background(), "missing", "student")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestLeave_ReopensFullEvent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	event := testutil.CreateEvent(t, svc.db, testNow, 1)
	a := testutil.CreateStudent(t, svc.db, "1001", "pw", false)

	got, err := svc.Join(ctx, event.ID, a.ID)
	require.NoError(t, err)
	require.Equal(t, models.EventStatusFull, got.Status)

	got, err = svc.Leave(ctx, event.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentVolunteers)
	assert.Equal(t, models.EventStatusRecruiting, got.Status)

	_, err = svc.Leave(ctx, event.ID, a.ID)
	assert.ErrorIs(t, err, ErrNotSignedUp)
}

func TestCloseRegistrationAndFinish(t *testing.T) {
	svc, advance := newTestService(t)
	ctx := context.Background()

	event := testutil.CreateEvent(t, svc.db, testNow, 3)

	closed, err := svc.CloseRegistration(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, closed, "deadline has not passed")

	advance(5*24*time.Hour + time.Minute)

	due, err := svc.DueForClosing(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{event.ID}, due)

	closed, err = svc.CloseRegistration(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, closed)

	closed, err = svc.CloseRegistration(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, closed, "closing twice is a no-op")

	advance(3 * 24 * time.Hour)
	due, err = svc.DueForFinishing(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{event.ID}, due)

	finished, err := svc.Finish(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, finished)

	got, err := svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusFinished, got.Status)
}

func TestCreateAndUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	event := &models.Event{
		Title:                "Library shelving",
		StartTime:            testNow.Add(48 * time.Hour),
		EndTime:              testNow.Add(50 * time.Hour),
		Location:             "Library",
		RequiredVolunteers:   4,
		RegistrationDeadline: testNow.Add(24 * time.Hour),
	}
	require.NoError(t, svc.Create(ctx, event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, models.EventStatusRecruiting, event.Status)

	bad := "pending"
	_, err := svc.Update(ctx, event.ID, Patch{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	title := "Library shelving (morning)"
	updated, err := svc.Update(ctx, event.ID, Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "Library", updated.Location)

	inverted := testNow
	_, err = svc.Update(ctx, event.ID, Patch{EndTime: &inverted})
	assert.ErrorIs(t, err, ErrInvalidEventWindow)

	require.NoError(t, svc.Delete(ctx, event.ID))
	_, err = svc.Get(ctx, event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestList_Filters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	open := testutil.CreateEvent(t, svc.db, testNow, 2)
	past := testutil.CreateEvent(t, svc.db, testNow.Add(-30*24*time.Hour), 2)
	require.NoError(t, svc.db.Model(past).Update("status", models.EventStatusFinished).Error)

	all, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	upcoming, err := svc.List(ctx, ListParams{Upcoming: true})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, open.ID, upcoming[0].ID)

	finished, err := svc.List(ctx, ListParams{Status: models.EventStatusFinished})
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, past.ID, finished[0].ID)
}
