package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"skillmatch/internal/config"
	"skillmatch/internal/database"
	"skillmatch/internal/database/migration"
	dbpostgres "skillmatch/internal/database/postgres"
	"skillmatch/internal/database/seeder"
	"skillmatch/internal/database/sqlite"
	"skillmatch/internal/domain/matching"
	"skillmatch/internal/infrastructure/cache"
	"skillmatch/internal/infrastructure/fetcher"
	"skillmatch/internal/infrastructure/queue"
	"skillmatch/internal/infrastructure/storage"
	"skillmatch/internal/logger"
	"skillmatch/internal/pkg/jwt"
	"skillmatch/internal/repository"
	"skillmatch/internal/usecase"
	"skillmatch/migrations"
)

// Container owns every long-lived dependency of the server and the worker.
type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB      database.DB
	Vocab   matching.Vocabulary
	Matcher *matching.Matcher
	JWT     *jwt.HMACService
	Cache   *cache.Redis
	Store   storage.Store
	Fetcher *fetcher.Fetcher
	Broker  *queue.Broker

	Users    *repository.SQLUserRepository
	Matches  *repository.SQLMatchRepository
	Skills   *repository.SQLSkillRepository
	Feedback *repository.SQLFeedbackRepository

	AuthUC     *usecase.Auth
	UserUC     *usecase.User
	SkillUC    *usecase.Skill
	FeedbackUC *usecase.Feedback
	MatchingUC *usecase.Matching
}

func NewContainer(ctx context.Context, cfg config.Config, l *zap.Logger) (*Container, error) {
	if l == nil {
		l = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: l}

	db, err := OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	c.DB = db

	if err := c.init(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) init(ctx context.Context) error {
	cfg := c.Config

	n, err := Migrate(ctx, c.DB)
	if err != nil {
		return err
	}
	if n > 0 {
		c.Logger.Info("migrations applied", zap.Int("count", n), zap.String("dialect", string(c.DB.Dialect())))
	}

	vocab, err := LoadVocabulary(cfg.Matching)
	if err != nil {
		return err
	}
	c.Vocab = vocab

	seeds := seeder.Runner{Seeders: seeder.Defaults(vocab), Logger: logger.Named(c.Logger, "seeder")}
	if _, err := seeds.Run(ctx, c.DB); err != nil {
		return err
	}

	c.Matcher, err = matching.NewMatcher(vocab, cfg.Matching.Mode, cfg.Matching.Weights)
	if err != nil {
		return fmt.Errorf("build matcher: %w", err)
	}

	c.Store, err = storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	c.JWT = jwt.NewHMACService(cfg.JWT)
	c.Cache = cache.NewRedis(ctx, cfg.Redis, c.Logger)
	c.Fetcher = fetcher.New(cfg.Fetch, c.Logger)

	if cfg.Queue.Enabled() {
		c.Broker, err = queue.Dial(cfg.Queue, c.Logger)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
	}

	c.Users = repository.NewSQLUserRepository(c.DB)
	c.Matches = repository.NewSQLMatchRepository(c.DB)
	c.Skills = repository.NewSQLSkillRepository(c.DB)
	c.Feedback = repository.NewSQLFeedbackRepository(c.DB)

	deps := usecase.MatchingDeps{
		Matcher: c.Matcher,
		Matches: c.Matches,
		Store:   c.Store,
		Cache:   c.Cache,
		Fetcher: c.Fetcher,
		Logger:  c.Logger,
	}
	if c.Broker != nil {
		deps.Queue = c.Broker
	}

	c.AuthUC = usecase.NewAuthUsecase(c.Users, c.JWT)
	c.UserUC = usecase.NewUserUsecase(c.Users)
	c.SkillUC = usecase.NewSkillUsecase(c.Skills, vocab)
	c.FeedbackUC = usecase.NewFeedbackUsecase(c.Feedback)
	c.MatchingUC = usecase.NewMatchingUsecase(deps)
	return nil
}

// OpenDatabase connects to the configured driver.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (database.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return dbpostgres.Connect(ctx, cfg)
	case config.DriverSQLite, "":
		return sqlite.Open(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrations returns the runner for the embedded migrations of db's dialect.
func Migrations(db database.DB) (migration.Runner, error) {
	if db == nil {
		return migration.Runner{}, database.ErrNilDB
	}
	src, err := migrations.For(db.Dialect())
	if err != nil {
		return migration.Runner{}, err
	}
	return migration.Runner{FS: src, Dialect: db.Dialect()}, nil
}

// Migrate applies pending embedded migrations and returns how many ran.
func Migrate(ctx context.Context, db database.DB) (int, error) {
	r, err := Migrations(db)
	if err != nil {
		return 0, err
	}
	applied, err := r.Run(ctx, db.SQLDB())
	if err != nil {
		return len(applied), fmt.Errorf("migrate: %w", err)
	}
	return len(applied), nil
}

// LoadVocabulary reads SKILLS_FILE, or the embedded list when unset.
func LoadVocabulary(cfg config.MatchingConfig) (matching.Vocabulary, error) {
	if strings.TrimSpace(cfg.SkillsFile) == "" {
		return matching.DefaultVocabulary(), nil
	}
	v, err := matching.LoadVocabularyFile(cfg.SkillsFile)
	if err != nil {
		return matching.Vocabulary{}, fmt.Errorf("load skills file: %w", err)
	}
	if v.Len() == 0 {
		return matching.Vocabulary{}, fmt.Errorf("skills file %s is empty", cfg.SkillsFile)
	}
	return v, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Broker != nil {
		errs = append(errs, c.Broker.Close())
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
