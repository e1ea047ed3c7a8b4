package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyring-service/internal/app"
	"studyring-service/internal/config"
	"studyring-service/internal/infra/memory"
	"studyring-service/internal/infra/postgres"
	redisinfra "studyring-service/internal/infra/redis"
	transport "studyring-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the study-tracking server",
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
	historyTTL := config.TTLDuration(cfg.Ranking.HistoryTTL, 0) // baseline kept indefinitely by default
	postTTL := config.TTLDuration(cfg.Posts.CacheTTL, 10*time.Minute)

	// Repositories: postgres when configured, in-memory otherwise.
	var (
		users    app.UserRepository
		progress app.ProgressRepository
		source   app.RankingSource
		trends   app.TrendWriter
		posts    app.PostRepository
		answers  app.AnswerRepository
	)
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		progressRepo := postgres.NewProgressRepository(db)
		users = postgres.NewUserRepository(db)
		progress = progressRepo
		trends = progressRepo
		source = postgres.NewRankingSource(pool)
		posts = postgres.NewPostRepository(db)
		answers = postgres.NewAnswerRepository(db)
	} else {
		log.Printf("postgres not configured, using in-memory stores")
		progressStore := memory.NewProgressStore()
		postStore := memory.NewPostStore()
		users = progressStore
		progress = progressStore
		trends = progressStore
		source = progressStore
		posts = postStore
		answers = postStore
	}

	var history app.RankHistory = memory.NewRankHistory()
	if redisClient != nil {
		history = redisinfra.NewRankHistory(redisClient, historyTTL)
		posts = redisinfra.NewPostCache(redisClient, posts, postTTL)
	}

	rankingService := app.NewRankingService(source, history, trends)
	progressService := app.NewProgressService(progress, rankingService)
	userService := app.NewUserService(users)
	postService := app.NewPostService(posts, answers)
	quizService := app.NewQuizService(posts, answers, progress, rankingService)

	handler := transport.NewHandler(userService, progressService, rankingService, postService, quizService)
	wsHandler := transport.NewWSHandler(rankingService)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws/rankings", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting studyring service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
