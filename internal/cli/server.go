package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/config"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/memory"
	pgloader "quiz-room-service/internal/infra/postgres"
	infraredis "quiz-room-service/internal/infra/redis"
	transport "quiz-room-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz room server",
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

	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil && cfg.Log.Level != "" {
		zerolog.SetGlobalLevel(level)
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var content app.ContentStore
	if redisClient != nil {
		content = infraredis.NewContentStore(redisClient, loader, quizTTL)
	} else {
		content = memory.NewContentStore(loader, quizTTL)
	}

	var registry app.RoomRegistry
	var scores app.ScoreStore
	var redisScores *infraredis.ScoreStore
	if redisClient != nil {
		registry = infraredis.NewRoomRegistry(redisClient, redisTTL)
		attemptTTL := config.TTLDuration(cfg.Scores.AttemptTTL, 24*time.Hour)
		redisScores = infraredis.NewScoreStore(redisClient, cfg.ScorePrefix(), attemptTTL)
		scores = redisScores
	} else {
		registry = memory.NewRoomRegistry()
		scores = memory.NewScoreStore()
	}

	hub := app.NewHub()
	service := app.NewRoomService(registry, content, scores, hub, cfg.MaxPlayers())
	wsHandler := transport.NewWSHandler(service)
	roomHandler := transport.NewRoomHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/rooms", roomHandler.CreateRoom)
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	if redisScores != nil {
		mux.HandleFunc("/standings", func(w http.ResponseWriter, r *http.Request) {
			standings, err := redisScores.Standings(r.Context(), 100)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(standings)
		})
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("module", "cli").Str("port", finalPort).Msg("starting quiz room service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("module", "cli").Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Str("module", "cli").Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Str("module", "cli").Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds a minimal quiz when no Postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warmup",
			Questions: []domain.Question{
				{
					ID:    "q1",
					Order: 1,
					Text:  "What is 2 + 2?",
					Type:  domain.SingleChoice,
					Answers: []domain.Answer{
						{ID: "a1", Text: "3", Correct: false},
						{ID: "a2", Text: "4", Correct: true, Points: 5},
						{ID: "a3", Text: "5", Correct: false},
					},
				},
				{
					ID:    "q2",
					Order: 2,
					Text:  "Which of these are prime?",
					Type:  domain.MultipleChoice,
					Answers: []domain.Answer{
						{ID: "a4", Text: "2", Correct: true, Points: 3},
						{ID: "a5", Text: "4", Correct: false},
						{ID: "a6", Text: "7", Correct: true, Points: 3},
					},
				},
			},
		},
	}
}
