package workers

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/shiftdesk/shiftdesk/internal/events"
	"github.com/shiftdesk/shiftdesk/internal/tasks"
)

// uniqueWindow keeps one pending task per event and type while the worker catches up
const uniqueWindow = 10 * time.Minute

// Enqueuer schedules tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// StartDeadlineScheduler runs a periodic check (every minute) for events past
// their registration deadline or end time, until ctx is cancelled
func StartDeadlineScheduler(ctx context.Context, client Enqueuer, svc *events.Service, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then every minute
	CheckAndEnqueueDeadlineTasks(ctx, client, svc, logger)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CheckAndEnqueueDeadlineTasks(ctx, client, svc, logger)
		}
	}
}

// CheckAndEnqueueDeadlineTasks enqueues close and finish tasks for every due
// event and returns how many were enqueued
func CheckAndEnqueueDeadlineTasks(ctx context.Context, client Enqueuer, svc *events.Service, logger zerolog.Logger) int {
	enqueued := 0

	closing, err := svc.DueForClosing(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to query events due for closing")
	}
	for _, id := range closing {
		if enqueueEventTask(client, tasks.NewCloseRegistrationTask, id, logger) {
			enqueued++
		}
	}

	finishing, err := svc.DueForFinishing(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to query ended events")
	}
	for _, id := range finishing {
		if enqueueEventTask(client, tasks.NewFinishEventTask, id, logger) {
			enqueued++
		}
	}

	if enqueued > 0 {
		logger.Info().Int("enqueued", enqueued).Msg("Deadline tasks enqueued")
	} else {
		logger.Debug().Msg("No deadlines due")
	}
	return enqueued
}

func enqueueEventTask(client Enqueuer, build func(string) (*asynq.Task, error), eventID string, logger zerolog.Logger) bool {
	task, err := build(eventID)
	if err != nil {
		logger.Error().Err(err).Str("event_id", eventID).Msg("Failed to create deadline task")
		return false
	}

	if _, err := client.Enqueue(task, asynq.Unique(uniqueWindow)); err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Debug().Str("event_id", eventID).Str("task", task.Type()).Msg("Deadline task already queued")
			return false
		}
		logger.Error().Err(err).Str("event_id", eventID).Str("task", task.Type()).Msg("Failed to enqueue deadline task")
		return false
	}
	return true
}
