// Package bootstrap wires configuration, storage and services for the command-line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rockae/internal/cache"
	"rockae/internal/config"
	"rockae/internal/database"
	"rockae/internal/notifications"
	"rockae/internal/observability"
	"rockae/internal/repository"
	"rockae/internal/service"

	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs database.ApplySchema after connecting.
	ApplySchema bool
	// SkipCache leaves the cache disabled even when REDIS_URL is set.
	SkipCache bool
}

// Services holds one instance of every domain service.
type Services struct {
	Access      *service.AccessService
	Users       *service.UserService
	Communities *service.CommunityService
	Memberships *service.MembershipService
	Plans       *service.PlanService
	Blogs       *service.BlogService
	Forums      *service.ForumService
	Chats       *service.ChatService
	Classrooms  *service.ClassroomService
	Feedback    *service.FeedbackService
	Meetings    *service.MeetingService
	Polls       *service.PollService
	Feeds       *service.PublicFeedService
	Quizzes     *service.QuizService
	Wheels      *service.WheelService
	Billing     *service.BillingService
}

// NewServices builds every service over db. c may be nil.
func NewServices(db *gorm.DB, c *cache.Cache, feePercent float64) *Services {
	tx := repository.NewTransactor(db)
	communities := repository.NewCommunityRepository(db)
	members := repository.NewMembershipRepository(db)
	plans := repository.NewPlanRepository(db)
	forums := repository.NewForumRepository(db)
	tags := repository.NewTagRepository(db)
	users := repository.NewUserRepository(db)
	feedback := repository.NewFeedbackRepository(db)
	billing := repository.NewBillingRepository(db)
	access := service.NewAccessService(members, billing)
	notifier := notifications.NewNotifier(c.Client())

	return &Services{
		Access:      access,
		Users:       service.NewUserService(tx, users, tags),
		Communities: service.NewCommunityService(tx, communities, members, plans, forums, tags, c),
		Memberships: service.NewMembershipService(tx, communities, members, users, feedback),
		Plans:       service.NewPlanService(plans, members),
		Blogs:       service.NewBlogService(repository.NewBlogRepository(db), members),
		Forums:      service.NewForumService(tx, communities, members, plans, forums, access),
		Chats:       service.NewChatService(repository.NewChatRepository(db), members).WithPublisher(notifier),
		Classrooms:  service.NewClassroomService(tx, members, plans, repository.NewClassroomRepository(db), access),
		Feedback:    service.NewFeedbackService(feedback, members),
		Meetings:    service.NewMeetingService(tx, members, plans, repository.NewMeetingRepository(db), users, access),
		Polls:       service.NewPollService(tx, members, plans, repository.NewPollRepository(db), access),
		Feeds:       service.NewPublicFeedService(members, repository.NewPublicFeedRepository(db)),
		Quizzes:     service.NewQuizService(tx, members, plans, repository.NewQuizRepository(db), access),
		Wheels:      service.NewWheelService(tx, members, repository.NewWheelRepository(db)).WithPublisher(notifier),
		Billing:     service.NewBillingService(tx, billing, plans, members, c, feePercent),
	}
}

// Runtime is a connected database and cache with services on top.
type Runtime struct {
	DB       *gorm.DB
	Cache    *cache.Cache
	Services *Services

	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, connects to the database and
// Redis, and builds the services.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	observability.Configure(cfg.Env, cfg.LogLevel)

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:  "rockae",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("schema apply failed: %w", err)
		}
	}

	var c *cache.Cache
	if !opts.SkipCache {
		c, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			// The cache is optional; services fall back to the database.
			observability.Logger.WarnContext(ctx, "redis unavailable, caching disabled", slog.Any("error", err))
			c = nil
		}
	}

	rt := &Runtime{
		DB:              db,
		Cache:           c,
		Services:        NewServices(db, c, cfg.PlatformFeePercent),
		shutdownTracing: shutdown,
	}
	if err := EnsureDevRootAdmin(ctx, cfg, rt.Services.Users); err != nil {
		return nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}
	return rt, nil
}

// Close releases the cache, the database pool and the tracer.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if err := r.Cache.Close(); err != nil {
		errs = append(errs, err)
	}
	if sqlDB, err := r.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	if r.shutdownTracing != nil {
		errs = append(errs, r.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}

// EnsureDevRootAdmin creates the DEV_ROOT_EMAIL superuser in development when it
// does not exist yet. Existing accounts are left untouched.
func EnsureDevRootAdmin(ctx context.Context, cfg *config.Config, users *service.UserService) error {
	if cfg.DevRootEmail == "" || cfg.Env != "development" {
		return nil
	}
	existing, err := users.FindByEmail(ctx, cfg.DevRootEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if _, err := users.CreateSuperuser(ctx, service.CreateUserInput{
		Email:    cfg.DevRootEmail,
		Password: cfg.DevRootPassword,
	}); err != nil {
		return err
	}
	observability.Logger.InfoContext(ctx, "development root admin created", slog.String("email", cfg.DevRootEmail))
	return nil
}
