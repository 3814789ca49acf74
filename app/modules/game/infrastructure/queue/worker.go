package gamequeue

import (
	"context"
	"fmt"
	"log/slog"

	gameevents "github.com/Black-And-White-Club/party-bot/app/modules/game/events"
	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/riverqueue/river"
)

// PhaseDeadlineWorker publishes fired deadlines. It never touches game state;
// the router handler decides whether the deadline still applies.
type PhaseDeadlineWorker struct {
	river.WorkerDefaults[PhaseDeadlineJob]
	logger    *slog.Logger
	publisher message.Publisher
}

// NewPhaseDeadlineWorker creates a worker publishing to publisher.
func NewPhaseDeadlineWorker(logger *slog.Logger, publisher message.Publisher) *PhaseDeadlineWorker {
	return &PhaseDeadlineWorker{logger: logger, publisher: publisher}
}

// Work publishes the job's deadline. A publish error fails the attempt so
// River retries it.
func (w *PhaseDeadlineWorker) Work(ctx context.Context, job *river.Job[PhaseDeadlineJob]) error {
	deadline := job.Args.PhaseDeadline

	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.RoomID(deadline.RoomID),
		attr.UUID("game_prompt_id", deadline.GamePromptID),
		attr.String("phase", string(deadline.Phase)),
	)

	msg, err := gameevents.NewMessage(ctx, deadline)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build phase deadline message", attr.Error(err))
		return err
	}

	if err := w.publisher.Publish(gameevents.PhaseDeadlineTopic, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to publish phase deadline",
			attr.Int("attempt", job.Attempt),
			attr.Error(err),
		)
		return fmt.Errorf("failed to publish phase deadline: %w", err)
	}

	logger.InfoContext(ctx, "Phase deadline published")
	return nil
}
