package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talent-match/internal/config"
	"talent-match/internal/database"
	"talent-match/internal/database/migration"
	dbpostgres "talent-match/internal/database/postgres"
	"talent-match/internal/domain/matching"
	"talent-match/internal/domain/shortlist"
	"talent-match/internal/infrastructure/cache"
	"talent-match/internal/notify"
	"talent-match/internal/repository"
	"talent-match/internal/usecase"
	"talent-match/internal/ws"
	"talent-match/migrations"

	"go.uber.org/zap"
)

// Container owns every long-lived dependency of the process.
type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB    database.DB
	Redis *cache.Redis
	Hub   *ws.Hub

	Jobs       *repository.PostgresJobRepository
	Candidates *repository.PostgresCandidateRepository
	Shortlists *repository.PostgresShortlistRepository

	Matching *usecase.Matching
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := dbpostgres.Connect(connCtx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	c := &Container{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Redis:      cache.NewRedis(ctx, cfg.Redis, logger.Named("redis")),
		Hub:        ws.NewHub(logger),
		Jobs:       repository.NewPostgresJobRepository(db),
		Candidates: repository.NewPostgresCandidateRepository(db),
		Shortlists: repository.NewPostgresShortlistRepository(db),
	}

	engine, err := matching.NewEngine(cfg.Matching.EngineWeights())
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	publisher, err := c.publishers(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Matching = usecase.NewMatchingUsecase(usecase.MatchingDeps{
		Jobs:        c.Jobs,
		Candidates:  c.Candidates,
		Shortlists:  c.Shortlists,
		Engine:      engine,
		Manager:     shortlist.NewManager(cfg.Matching.DefaultMaxCandidates, nil),
		Cache:       c.Redis,
		Publisher:   publisher,
		Broadcaster: ws.NewNotifier(c.Hub),
		Logger:      logger,
		Options: usecase.MatchingOptions{
			MaxConflictRetries: cfg.Matching.MaxConflictRetries,
			LockTTL:            cfg.Matching.LockTTL,
			LockWait:           cfg.Matching.LockWait,
			Workers:            cfg.Scheduler.Workers,
		},
	})
	return c, nil
}

// publishers builds the event fan-out: Redis Pub/Sub when Redis is up,
// plus SNS when a topic is configured.
func (c *Container) publishers(ctx context.Context) (notify.Publisher, error) {
	var out notify.Multi
	if c.Redis.Available() && c.Config.Notification.RedisChannel != "" {
		out = append(out, notify.NewRedisPublisher(c.Redis.Client(), c.Config.Notification.RedisChannel))
	}
	if arn := c.Config.Notification.SNSTopicARN; arn != "" {
		p, err := notify.NewSNSPublisher(ctx, c.Config.Notification.AWSRegion, arn)
		if err != nil {
			return nil, fmt.Errorf("sns publisher: %w", err)
		}
		out = append(out, p)
		c.Logger.Info("sns hire notifications enabled", zap.String("topic", arn))
	}
	return out, nil
}

// Migrate applies pending schema migrations. MigrationsDir overrides the
// embedded files.
func (c *Container) Migrate(ctx context.Context) ([]int64, error) {
	r := migration.Runner{
		Dir:    c.Config.App.MigrationsDir,
		FS:     migrations.FS,
		Logger: c.Logger.Named("migration"),
	}
	return r.Run(ctx, c.DB.SQLDB())
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
