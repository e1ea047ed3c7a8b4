package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"studyring-service/internal/app"
	"studyring-service/internal/domain"
	"studyring-service/internal/infra/postgres"
	pgmigrations "studyring-service/internal/infra/postgres/migrations"
	redisinfra "studyring-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestStudyTrackingEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	progressRepo := postgres.NewProgressRepository(db)
	userRepo := postgres.NewUserRepository(db)
	postRepo := postgres.NewPostRepository(db)
	answerRepo := postgres.NewAnswerRepository(db)
	source := postgres.NewRankingSource(pool)
	history := redisinfra.NewRankHistory(redisClient, time.Hour)
	postCache := redisinfra.NewPostCache(redisClient, postRepo, 5*time.Minute)

	rankings := app.NewRankingService(source, history, progressRepo)
	progress := app.NewProgressService(progressRepo, rankings)
	users := app.NewUserService(userRepo)
	posts := app.NewPostService(postCache, answerRepo)
	quizzes := app.NewQuizService(postCache, answerRepo, progressRepo, rankings)

	alice, err := users.Register(ctx, "Alice", "alice@example.com", "", "studying medicine")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bob, err := users.Register(ctx, "Bob", "bob@example.com", "", "")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	// Registration created the ledger row; sessions land as hour deltas.
	if _, err := progress.LogSession(ctx, alice.ID, 150); err != nil {
		t.Fatalf("log session: %v", err)
	}
	got, err := progress.Read(ctx, alice.ID)
	if err != nil {
		t.Fatalf("read progress: %v", err)
	}
	if got.Hours != 2.5 {
		t.Fatalf("expected 2.5 hours, got %v", got.Hours)
	}

	// Bob posts a quiz; Alice answers correctly and gets the award.
	quizPost, err := posts.CreatePost(ctx, "group-1", bob.ID, domain.PostContent{
		Kind: domain.KindQuiz,
		Quiz: &domain.QuizContent{
			Question:     "Capital of France?",
			Options:      []string{"Lyon", "Marseille", "Paris", "Nice"},
			CorrectIndex: 2,
			PointsAward:  50,
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	result, err := quizzes.SubmitAnswer(ctx, quizPost.ID, alice.ID, 2)
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if !result.IsCorrect || result.PointsAwarded != 50 {
		t.Fatalf("expected correct/50, got %+v", result)
	}

	// The composite primary key rejects the duplicate.
	if _, err := quizzes.SubmitAnswer(ctx, quizPost.ID, alice.ID, 1); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	// And the author cannot answer at all.
	if _, err := quizzes.SubmitAnswer(ctx, quizPost.ID, bob.ID, 2); !errors.Is(err, domain.ErrSelfAnswer) {
		t.Fatalf("expected ErrSelfAnswer, got %v", err)
	}

	ranking, err := rankings.ComputeRanking(ctx, domain.MetricPoints)
	if err != nil {
		t.Fatalf("compute ranking: %v", err)
	}
	if len(ranking.Entries) != 2 || ranking.Entries[0].User.ID != alice.ID || ranking.Entries[0].Points != 50 {
		t.Fatalf("expected alice leading with 50 points, got %+v", ranking.Entries)
	}

	// Listing shows Alice her recorded answer.
	views, err := posts.ListPosts(ctx, "group-1", alice.ID)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(views) != 1 || views[0].ViewerAnswer == nil || !views[0].ViewerAnswer.IsCorrect {
		t.Fatalf("expected answered quiz in listing, got %+v", views)
	}
}

func openBun(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "study", "POSTGRES_PASSWORD": "studypass", "POSTGRES_DB": "studydb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://study:studypass@%s:%s/studydb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
