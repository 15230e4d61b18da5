package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizroom/internal/ai"
	"quizroom/internal/app"
	"quizroom/internal/auth"
	"quizroom/internal/config"
	"quizroom/internal/infra/memory"
	"quizroom/internal/infra/postgres"
	redisinfra "quizroom/internal/infra/redis"
	transport "quizroom/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	// Without Postgres everything runs on the in-memory store, which is good
	// enough for local development and tests.
	var (
		users     app.UserRepository
		quizzes   app.QuizRepository
		rooms     app.RoomRepository
		boards    app.LeaderboardRepository
		questions app.QuestionSource
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
		db := postgres.NewDB(cfg.Postgres.URL)
		defer db.Close()

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		users = postgres.NewUserRepository(db)
		quizzes = postgres.NewQuizRepository(db)
		rooms = postgres.NewRoomRepository(db)
		boards = postgres.NewLeaderboardRepository(db)
		questions = postgres.NewQuestionLoader(pool)
		logger.Info("using postgres storage")
	} else {
		store := memory.NewStore()
		users = store.Users()
		quizzes = store.Quizzes()
		rooms = store.Rooms()
		boards = store.Leaderboards()
		questions = store.Questions()
		logger.Warn("no postgres url configured, using in-memory storage")
	}

	var presence app.PresenceRegistry = memory.NewPresenceRegistry()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		questionTTL := config.TTLDuration(cfg.Question.CacheTTL, 10*time.Minute)
		questions = redisinfra.NewQuestionCache(client, questions, questionTTL)

		presenceTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		presence = redisinfra.NewPresenceRegistry(client, presenceTTL)
		logger.Info("redis caching enabled", "addr", cfg.Redis.Addr)
	}

	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 7*24*time.Hour)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, tokenTTL)
	generator := ai.NewGenerator(cfg.AI.GeminiAPIKey, cfg.AI.Model, logger)

	authSvc := app.NewAuthService(users, tokens, logger)
	quizSvc := app.NewQuizService(quizzes, generator, logger)
	roomSvc := app.NewRoomService(rooms, quizzes, users, boards, logger)
	gameSvc := app.NewGameService(rooms, questions, boards, logger)

	hub := transport.NewHub()
	ws := transport.NewWSHandler(tokens, authSvc, roomSvc, gameSvc, presence, hub, logger)
	api := transport.NewAPI(authSvc, quizSvc, roomSvc, tokens, hub, ws, cfg.Server.ClientOrigin, logger)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     api.Router(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would kill long-lived websocket connections.
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting quizroom server", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
