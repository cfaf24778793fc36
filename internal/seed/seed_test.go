package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/shiftdesk/internal/auth"
	"github.com/shiftdesk/shiftdesk/internal/models"
	"github.com/shiftdesk/shiftdesk/internal/testutil"
)

func TestDefaultTimetable(t *testing.T) {
	shifts, err := DefaultTimetable()
	require.NoError(t, err)
	assert.Len(t, shifts, 18)

	perDay := map[int]int{}
	for _, s := range shifts {
		perDay[s.DayOfWeek]++
		assert.Equal(t, 2, s.Capacity)
	}
	// Monday has no gate duty
	assert.Equal(t, 2, perDay[1])
	assert.Equal(t, 4, perDay[2])
	assert.Equal(t, 4, perDay[5])
	assert.Zero(t, perDay[6])
}

func TestTimetable_RejectsInvalidEntries(t *testing.T) {
	_, err := Timetable([]byte(`
shifts:
  - name: Broken
    days: [9]
    start: "07:00"
    end: "08:00"
    capacity: 1
`))
	assert.Error(t, err)

	_, err = Timetable([]byte("shifts: [oops"))
	assert.Error(t, err)
}

func TestRun_IsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	opts := Options{AdminPassword: "s3cret"}

	require.NoError(t, Run(ctx, db, opts, testutil.Logger()))
	require.NoError(t, Run(ctx, db, opts, testutil.Logger()))

	var admins []models.Student
	require.NoError(t, db.Where("phone = ?", AdminPhone).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.True(t, admins[0].IsAdmin)
	assert.NoError(t, auth.VerifyPassword("s3cret", admins[0].PasswordHash))

	var count int64
	require.NoError(t, db.Model(&models.RecurringShift{}).Count(&count).Error)
	assert.Equal(t, int64(18), count)
}

func TestDemo(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()

	require.NoError(t, Run(ctx, db, Options{AdminPassword: "pw", DemoData: true, DemoSeed: 7}, testutil.Logger()))

	var students, events int64
	require.NoError(t, db.Model(&models.Student{}).Where("is_admin = ?", false).Count(&students).Error)
	require.NoError(t, db.Model(&models.Event{}).Count(&events).Error)
	assert.Equal(t, int64(demoStudents), students)
	assert.Equal(t, int64(demoEvents), events)

	// a second run leaves existing data alone
	require.NoError(t, Demo(ctx, db, 8, testutil.Logger()))
	require.NoError(t, db.Model(&models.Event{}).Count(&events).Error)
	assert.Equal(t, int64(demoEvents), events)
}
