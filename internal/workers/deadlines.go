package workers

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/shiftdesk/shiftdesk/internal/events"
	"github.com/shiftdesk/shiftdesk/internal/tasks"
)

// HandleCloseRegistration closes an event whose registration deadline has
// passed. Running it again, or before the deadline, is a no-op.
func HandleCloseRegistration(ctx context.Context, t *asynq.Task, svc *events.Service, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	closed, err := svc.CloseRegistration(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("failed to close registration: %w", err)
	}

	if closed {
		logger.Info().Str("event_id", payload.EventID).Msg("Registration closed")
	} else {
		logger.Debug().Str("event_id", payload.EventID).Msg("Nothing to close")
	}
	return nil
}

// HandleFinishEvent marks an ended event finished
func HandleFinishEvent(ctx context.Context, t *asynq.Task, svc *events.Service, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	finished, err := svc.Finish(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("failed to finish event: %w", err)
	}

	if finished {
		logger.Info().Str("event_id", payload.EventID).Msg("Event finished")
	}
	return nil
}
