package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
	gamehandlers "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/handlers"
	gamehttp "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/http"
	gamenotifier "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/notifier"
	gamequeue "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/queue"
	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	gamerouter "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/router"
	"github.com/Black-And-White-Club/party-bot/config"
	"github.com/Black-And-White-Club/party-bot/pkg/eventbus"
	gamemetrics "github.com/Black-And-White-Club/party-bot/pkg/observability/metrics/game"
	"github.com/Black-And-White-Club/party-bot/pkg/textsmoother"
	"github.com/Black-And-White-Club/party-bot/pkg/wordlist"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// Module represents the game module.
type Module struct {
	EventBus    eventbus.EventBus
	GameService *gameservice.GameService
	Queue       gamequeue.QueueService
	GameRouter  *gamerouter.GameRouter
	HTTP        *gamehttp.Handlers
	logger      *slog.Logger
	config      *config.Config
	cancelFunc  context.CancelFunc
}

// NewGameModule creates a new instance of the Game module.
func NewGameModule(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *bun.DB,
	eventBus eventbus.EventBus,
	router *message.Router,
	registry prometheus.Registerer,
	tracer trace.Tracer,
) (*Module, error) {
	logger.Info("game.NewGameModule called")

	metrics := gamemetrics.NewNoop()
	if registry != nil {
		m, err := gamemetrics.NewPrometheus(registry, "party_bot")
		if err != nil {
			return nil, fmt.Errorf("failed to register game metrics: %w", err)
		}
		metrics = m
	}

	ports, err := newPorts(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	ports.Notifier = gamenotifier.New(eventBus, logger, tracer)

	queue, err := gamequeue.NewService(ctx, db, logger, cfg.Postgres.DSN, metrics, eventBus)
	if err != nil {
		return nil, fmt.Errorf("failed to create game queue: %w", err)
	}
	ports.Scheduler = queue

	gameService := gameservice.NewGameService(
		gamedb.NewRepository(db),
		logger,
		metrics,
		tracer,
		db,
		ports,
		gameservice.Settings{
			MaxStars:          cfg.Game.MaxStars,
			ForgivenessBuffer: cfg.Game.ForgivenessBuffer,
			SmoothTimeout:     cfg.Smoother.Timeout,
			DefaultAnswerTime: cfg.Game.AnswerWindow(),
			DefaultVoteTime:   cfg.Game.VoteWindow(),
		},
	)

	// Initialize game router.
	gameRouter := gamerouter.NewGameRouter(logger, router, eventBus, eventBus, tracer, registry)

	// Configure the router with the game handlers.
	if err := gameRouter.Configure(ctx, gamehandlers.NewGameHandlers(gameService, logger, tracer)); err != nil {
		return nil, fmt.Errorf("failed to configure game router: %w", err)
	}

	return &Module{
		EventBus:    eventBus,
		GameService: gameService,
		Queue:       queue,
		GameRouter:  gameRouter,
		HTTP:        gamehttp.NewHandlers(gameService, logger, tracer),
		logger:      logger,
		config:      cfg,
	}, nil
}

// newPorts loads the moderation lists and the optional smoother client.
func newPorts(ctx context.Context, cfg *config.Config, logger *slog.Logger) (gameservice.Ports, error) {
	var ports gameservice.Ports

	profanity, err := wordlist.LoadFileOr(cfg.Moderation.ProfanityListPath, wordlist.Profanity)
	if err != nil {
		return ports, fmt.Errorf("failed to load profanity list: %w", err)
	}
	slurs, err := wordlist.LoadFileOr(cfg.Moderation.SlurListPath, wordlist.Slurs)
	if err != nil {
		return ports, fmt.Errorf("failed to load slur list: %w", err)
	}
	dictionary, err := wordlist.LoadFileOr(cfg.Moderation.DictionaryPath, wordlist.Dictionary)
	if err != nil {
		return ports, fmt.Errorf("failed to load dictionary: %w", err)
	}
	ports.Profanity = profanity
	ports.Slurs = slurs
	ports.Dictionary = dictionary

	logger.Info("Word lists loaded",
		slog.Int("profanity", profanity.Len()),
		slog.Int("slurs", slurs.Len()),
		slog.Int("dictionary", dictionary.Len()),
	)

	smoother, err := textsmoother.New(ctx, textsmoother.Config{
		Endpoint:     cfg.Smoother.Endpoint,
		TokenURL:     cfg.Smoother.TokenURL,
		ClientID:     cfg.Smoother.ClientID,
		ClientSecret: cfg.Smoother.ClientSecret,
		Timeout:      cfg.Smoother.Timeout,
	}, logger)
	switch {
	case errors.Is(err, textsmoother.ErrNotConfigured):
		logger.Info("Text smoother disabled")
	case err != nil:
		return ports, fmt.Errorf("failed to create text smoother: %w", err)
	default:
		ports.Smoother = smoother
	}

	return ports, nil
}

// Run starts the deadline queue and blocks until ctx is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	m.logger.Info("Starting game module")

	// Create a context that can be canceled
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if err := m.Queue.Start(ctx); err != nil {
		m.logger.Error("Failed to start game queue", slog.Any("error", err))
		return
	}

	// Keep this goroutine alive until the context is canceled
	<-ctx.Done()
	m.logger.Info("Game module goroutine stopped")
}

// Close stops the queue and waits for background smoothing.
func (m *Module) Close(ctx context.Context) error {
	m.logger.Info("Stopping game module")

	// Cancel any other running operations
	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	err := m.Queue.Stop(ctx)
	m.GameService.Wait()

	m.logger.Info("Game module stopped")
	return err
}
