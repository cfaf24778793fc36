package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeCloseRegistration = "event:close_registration"
	TypeFinishEvent       = "event:finish"
)

// QueueDefault is the queue deadline tasks run on
const QueueDefault = "default"

// TaskPayload is the common payload for all tasks
type TaskPayload struct {
	EventID string `json:"event_id,omitempty"`
}

func newEventTask(taskType, eventID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{
		EventID: eventID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(taskType, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewCloseRegistrationTask creates a task that closes an event's registration
// once its deadline has passed
func NewCloseRegistrationTask(eventID string) (*asynq.Task, error) {
	return newEventTask(TypeCloseRegistration, eventID)
}

// NewFinishEventTask creates a task that marks an ended event finished
func NewFinishEventTask(eventID string) (*asynq.Task, error) {
	return newEventTask(TypeFinishEvent, eventID)
}

// ParseTaskPayload parses task payload from Asynq task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.EventID == "" {
		return payload, fmt.Errorf("task %s has no event_id", task.Type())
	}
	return payload, nil
}
