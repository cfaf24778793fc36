package tasks

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTasks(t *testing.T) {
	closeTask, err := NewCloseRegistrationTask("01HEVENT")
	require.NoError(t, err)
	assert.Equal(t, TypeCloseRegistration, closeTask.Type())

	payload, err := ParseTaskPayload(closeTask)
	require.NoError(t, err)
	assert.Equal(t, "01HEVENT", payload.EventID)

	finishTask, err := NewFinishEventTask("01HEVENT")
	require.NoError(t, err)
	assert.Equal(t, TypeFinishEvent, finishTask.Type())
}

func TestParseTaskPayload_Errors(t *testing.T) {
	_, err := ParseTaskPayload(asynq.NewTask(TypeFinishEvent, []byte("{")))
	assert.Error(t, err)

	_, err = ParseTaskPayload(asynq.NewTask(TypeFinishEvent, []byte(`{}`)))
	assert.ErrorContains(t, err, "no event_id")
}
