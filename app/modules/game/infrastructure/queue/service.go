package gamequeue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"github.com/uptrace/bun"
)

// QueueName is the dedicated River queue for game jobs.
const QueueName = "game"

// Metrics is the subset of the game metrics the queue records.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// QueueService defines the contract for phase deadline scheduling.
type QueueService interface {
	gameservice.Scheduler
	// ListJobs returns the deadline jobs of a room (for debugging)
	ListJobs(ctx context.Context, roomID uuid.UUID) ([]JobInfo, error)
	// HealthCheck verifies the queue service is healthy
	HealthCheck(ctx context.Context) error
	// Start starts the queue service
	Start(ctx context.Context) error
	// Stop stops the queue service
	Stop(ctx context.Context) error
}

// Ensure Service implements QueueService
var _ QueueService = (*Service)(nil)

// jobClient is the part of the River client the service drives.
type jobClient interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
	JobCancel(ctx context.Context, jobID int64) (*rivertype.JobRow, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Service schedules phase deadlines on River.
type Service struct {
	client  jobClient
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      bun.IDB
	metrics Metrics
	now     func() time.Time
}

// NewService creates a River-based queue service. Fired deadlines are
// published through publisher.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics Metrics, publisher message.Publisher) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_game_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	ctxLogger.Info("Initializing game queue service")

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		ctxLogger.Error("Failed to parse DSN for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		ctxLogger.Error("Failed to create pgx pool for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewPhaseDeadlineWorker(ctxLogger, publisher))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			QueueName:          {MaxWorkers: 50},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	service := newService(riverClient, bunDB, ctxLogger, metrics)
	service.pool = pool

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))

	ctxLogger.Info("Game queue service initialized successfully")
	return service, nil
}

func newService(client jobClient, db bun.IDB, logger *slog.Logger, metrics Metrics) *Service {
	return &Service{
		client:  client,
		logger:  logger,
		db:      db,
		metrics: metrics,
		now:     time.Now,
	}
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	return s.instrument(ctx, "start_service", func() error {
		s.logger.Info("Starting game queue service")
		if err := s.client.Start(ctx); err != nil {
			return fmt.Errorf("failed to start River client: %w", err)
		}
		return nil
	})
}

// Stop stops the River client and releases its pool.
func (s *Service) Stop(ctx context.Context) error {
	return s.instrument(ctx, "stop_service", func() error {
		s.logger.Info("Stopping game queue service")
		err := s.client.Stop(ctx)
		if s.pool != nil {
			s.pool.Close()
		}
		if err != nil {
			return fmt.Errorf("failed to stop River client: %w", err)
		}
		return nil
	})
}

// Schedule inserts a deadline job to run at at and returns its id.
func (s *Service) Schedule(ctx context.Context, at time.Time, deadline gameservice.PhaseDeadline) (string, error) {
	var jobID string
	err := s.instrument(ctx, "schedule_phase_deadline", func() error {
		result, err := s.client.Insert(ctx, PhaseDeadlineJob{PhaseDeadline: deadline}, &river.InsertOpts{
			Queue:       QueueName,
			ScheduledAt: at,
			UniqueOpts: river.UniqueOpts{
				ByArgs: true,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to schedule phase deadline: %w", err)
		}

		jobID = strconv.FormatInt(result.Job.ID, 10)
		s.logger.InfoContext(ctx, "Phase deadline scheduled",
			attr.ExtractCorrelationID(ctx),
			attr.RoomID(deadline.RoomID),
			attr.String("phase", string(deadline.Phase)),
			attr.String("job_id", jobID),
			attr.Duration("delay", at.Sub(s.now())),
			attr.Bool("duplicate", result.UniqueSkippedAsDuplicate),
		)
		return nil
	})
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// Cancel cancels a scheduled job. Blank, malformed, unknown or already finished
// ids are no-ops.
func (s *Service) Cancel(ctx context.Context, jobID string) error {
	if jobID == "" {
		return nil
	}

	return s.instrument(ctx, "cancel_phase_deadline", func() error {
		id, err := strconv.ParseInt(jobID, 10, 64)
		if err != nil {
			s.logger.DebugContext(ctx, "Ignoring cancel for unknown job id",
				attr.String("job_id", jobID),
				attr.Error(err),
			)
			return nil
		}

		if _, err := s.client.JobCancel(ctx, id); err != nil {
			if errors.Is(err, rivertype.ErrNotFound) {
				s.logger.DebugContext(ctx, "Phase deadline already gone", attr.String("job_id", jobID))
				return nil
			}
			return fmt.Errorf("failed to cancel job %s: %w", jobID, err)
		}

		s.logger.InfoContext(ctx, "Phase deadline cancelled",
			attr.ExtractCorrelationID(ctx),
			attr.String("job_id", jobID),
		)
		return nil
	})
}

type riverJobRow struct {
	ID          int64             `bun:"id"`
	Kind        string            `bun:"kind"`
	State       string            `bun:"state"`
	Args        map[string]string `bun:"args,type:jsonb"`
	ScheduledAt *time.Time        `bun:"scheduled_at"`
	CreatedAt   time.Time         `bun:"created_at"`
	Attempt     int16             `bun:"attempt"`
	MaxAttempts int16             `bun:"max_attempts"`
}

// ListJobs returns the deadline jobs of a room, oldest schedule first.
func (s *Service) ListJobs(ctx context.Context, roomID uuid.UUID) ([]JobInfo, error) {
	var jobs []riverJobRow
	err := s.instrument(ctx, "list_jobs", func() error {
		err := s.db.NewSelect().
			Table("river_job").
			Column("id", "kind", "state", "args", "scheduled_at", "created_at", "attempt", "max_attempts").
			Where("kind = ?", PhaseDeadlineJob{}.Kind()).
			Where("args->>'room_id' = ?", roomID.String()).
			Order("scheduled_at ASC NULLS LAST", "created_at ASC").
			Scan(ctx, &jobs)
		if err != nil {
			return fmt.Errorf("failed to query scheduled jobs: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		scheduledAt := ""
		if job.ScheduledAt != nil {
			scheduledAt = job.ScheduledAt.Format(time.RFC3339)
		}
		result[i] = JobInfo{
			ID:           job.ID,
			Kind:         job.Kind,
			RoomID:       roomID.String(),
			GamePromptID: job.Args["game_prompt_id"],
			Phase:        job.Args["phase"],
			State:        job.State,
			ScheduledAt:  scheduledAt,
			CreatedAt:    job.CreatedAt.Format(time.RFC3339),
			Attempt:      int(job.Attempt),
			MaxAttempts:  int(job.MaxAttempts),
		}
	}
	return result, nil
}

// HealthCheck verifies the River tables are reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		s.metrics.RecordOperationFailure(ctx, "health_check", "river")
		return fmt.Errorf("river client is nil")
	}

	return s.instrument(ctx, "health_check", func() error {
		var count int
		err := s.db.NewSelect().
			Table("river_job").
			ColumnExpr("COUNT(*)").
			Where("kind = ?", PhaseDeadlineJob{}.Kind()).
			Where("state IN (?, ?)", string(rivertype.JobStateAvailable), string(rivertype.JobStateScheduled)).
			Scan(ctx, &count)
		if err != nil {
			return fmt.Errorf("queue service health check failed: %w", err)
		}
		s.logger.DebugContext(ctx, "Queue service health check passed", attr.Int("pending_jobs", count))
		return nil
	})
}

// instrument records attempt, outcome and duration metrics around fn.
func (s *Service) instrument(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, operation, "river")

	err := fn()
	s.metrics.RecordOperationDuration(ctx, operation, "river", time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "Queue operation failed",
			attr.String("operation", operation),
			attr.Error(err),
		)
		s.metrics.RecordOperationFailure(ctx, operation, "river")
		return err
	}
	s.metrics.RecordOperationSuccess(ctx, operation, "river")
	return nil
}
