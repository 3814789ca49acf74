package gameservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	gamemetrics "github.com/Black-And-White-Club/party-bot/pkg/observability/metrics/game"
	"github.com/Black-And-White-Club/party-bot/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultForgivenessBuffer = 2 * time.Second
	defaultSmoothTimeout     = 10 * time.Second
	defaultAnswerTime        = 90 * time.Second
	defaultVoteTime          = 60 * time.Second
)

// Ports groups the external collaborators of the service. Every field is optional.
type Ports struct {
	Scheduler  Scheduler
	Notifier   Notifier
	Slurs      SlurPredicate
	Profanity  ProfanityPredicate
	Dictionary Dictionary
	Smoother   TextSmoother
	Chooser    gamedomain.Chooser
}

// Settings tunes game rules. Zero values select the defaults.
type Settings struct {
	MaxStars          int
	ForgivenessBuffer time.Duration
	SmoothTimeout     time.Duration
	// DefaultAnswerTime and DefaultVoteTime apply to rooms without a window of their own.
	DefaultAnswerTime time.Duration
	DefaultVoteTime   time.Duration
}

// GameService implements the Service interface.
type GameService struct {
	repo     gamedb.Repository
	logger   *slog.Logger
	metrics  gamemetrics.GameMetrics
	tracer   trace.Tracer
	db       *bun.DB
	ports    Ports
	settings Settings

	now        func() time.Time
	background sync.WaitGroup
}

// NewGameService creates a new GameService.
func NewGameService(
	repo gamedb.Repository,
	logger *slog.Logger,
	metrics gamemetrics.GameMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	ports Ports,
	settings Settings,
) *GameService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = gamemetrics.NewNoop()
	}
	if ports.Chooser == nil {
		ports.Chooser = gamedomain.NewRandomChooser()
	}
	if settings.MaxStars <= 0 {
		settings.MaxStars = gamedomain.DefaultMaxStars
	}
	if settings.ForgivenessBuffer <= 0 {
		settings.ForgivenessBuffer = defaultForgivenessBuffer
	}
	if settings.SmoothTimeout <= 0 {
		settings.SmoothTimeout = defaultSmoothTimeout
	}
	if settings.DefaultAnswerTime <= 0 {
		settings.DefaultAnswerTime = defaultAnswerTime
	}
	if settings.DefaultVoteTime <= 0 {
		settings.DefaultVoteTime = defaultVoteTime
	}
	return &GameService{
		repo:     repo,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		db:       db,
		ports:    ports,
		settings: settings,
		now:      time.Now,
	}
}

// Wait blocks until background answer smoothing has finished.
func (s *GameService) Wait() {
	s.background.Wait()
}

// -----------------------------------------------------------------------------
// Post-commit effects
// -----------------------------------------------------------------------------

type roomNotification struct {
	roomID uuid.UUID
	event  RoomEvent
}

// effects collects work that must only happen once the transaction commits.
type effects struct {
	notifications []roomNotification
	cancels       []string
	smooth        []gamedb.Answer
}

func (fx *effects) notify(roomID uuid.UUID, event RoomEvent) {
	fx.notifications = append(fx.notifications, roomNotification{roomID: roomID, event: event})
}

// disarm queues a scheduled job for cancellation and clears its handle.
func (fx *effects) disarm(jobID *string) {
	if *jobID == "" {
		return
	}
	fx.cancels = append(fx.cancels, *jobID)
	*jobID = ""
}

// flush runs the collected effects. Failures are logged and never surface.
func (s *GameService) flush(ctx context.Context, fx *effects) {
	for _, jobID := range fx.cancels {
		if s.ports.Scheduler == nil {
			break
		}
		if err := s.ports.Scheduler.Cancel(ctx, jobID); err != nil {
			s.logger.WarnContext(ctx, "Failed to cancel phase deadline",
				attr.ExtractCorrelationID(ctx),
				attr.String("job_id", jobID),
				attr.Error(err),
			)
		}
	}

	for _, n := range fx.notifications {
		if s.ports.Notifier == nil {
			break
		}
		if err := s.ports.Notifier.Notify(ctx, n.roomID, n.event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to notify room",
				attr.ExtractCorrelationID(ctx),
				attr.RoomID(n.roomID),
				attr.String("event", string(n.event.Type)),
				attr.Error(err),
			)
		}
	}

	for _, answer := range fx.smooth {
		s.smoothInBackground(ctx, answer.ID, answer.Text)
	}
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// opResult is the result shape of every GameService operation.
type opResult[S any] = results.OperationResult[S, error]

// txFunc is an operation body bound to a transaction.
type txFunc[S any] func(ctx context.Context, db bun.IDB, fx *effects) (opResult[S], error)

// execute runs fn in a transaction under telemetry and unwraps the result.
// Effects are flushed only after a successful commit. A domain failure rolls
// the transaction back.
func execute[S any](s *GameService, ctx context.Context, operationName, identifier string, fn txFunc[S]) (S, error) {
	var zero S
	fx := &effects{}

	result, err := withTelemetry(s, ctx, operationName, identifier, func(ctx context.Context) (results.OperationResult[S, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error) {
			return fn(ctx, db, fx)
		})
	})
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}

	s.flush(ctx, fx)
	return *result.Success, nil
}

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *GameService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, "GameService")

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, "GameService", time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, "GameService")
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	// Infrastructure error
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, "GameService")
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	// Domain failure
	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, "GameService")

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *GameService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {

	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr == nil && result.IsFailure() {
			return errRollback
		}
		return txErr
	})
	if errors.Is(err, errRollback) {
		return result, nil
	}

	return result, err
}

// errRollback aborts the transaction of an operation that ended in a domain failure.
var errRollback = errors.New("rollback domain failure")

// settle turns a logic error into a result. Domain errors become a Failure
// payload, anything else stays an infrastructure error and rolls back.
func settle[S any](value S, err error) (opResult[S], error) {
	if err == nil {
		return results.SuccessResult[S, error](value), nil
	}
	if isDomainError(err) {
		return results.FailureResult[S, error](err), nil
	}
	return results.OperationResult[S, error]{}, err
}

func isDomainError(err error) bool {
	switch {
	case errors.Is(err, ErrIllegalAction),
		errors.Is(err, gamedomain.ErrValidation),
		errors.Is(err, gamedomain.ErrExhaustedPromptPool),
		errors.Is(err, ErrDuplicateSubmission),
		errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrGameNotFound),
		errors.Is(err, ErrRoundNotFound),
		errors.Is(err, ErrNoActiveGame):
		return true
	}
	return false
}
