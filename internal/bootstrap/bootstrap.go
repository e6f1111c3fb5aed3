package bootstrap

import (
	"context"
	"time"

	"forum/internal/config"
	"forum/internal/handlers"
	"forum/internal/middleware"
	"forum/internal/services"
	"forum/internal/utils"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Repositories 各实体的存储实现
type Repositories struct {
	Tags       services.TagRepositoryInterface
	Categories services.CategoryRepositoryInterface
	Types      services.ProblemTypeRepositoryInterface
	Problems   services.ProblemRepositoryInterface
	Daily      services.DailyProblemRepositoryInterface
	Comments   services.CommentRepositoryInterface
	Reports    services.ReportRepositoryInterface
	Roles      services.RoleRepositoryInterface
	Users      services.UserRepositoryInterface
}

// MySQLRepositories 基于 MySQL 的存储实现
func MySQLRepositories(db *services.Database) Repositories {
	return Repositories{
		Tags:       services.NewTagRepository(db),
		Categories: services.NewCategoryRepository(db),
		Types:      services.NewProblemTypeRepository(db),
		Problems:   services.NewProblemRepository(db),
		Daily:      services.NewDailyProblemRepository(db),
		Comments:   services.NewCommentRepository(db),
		Reports:    services.NewReportRepository(db),
		Roles:      services.NewRoleRepository(db),
		Users:      services.NewUserRepository(db),
	}
}

// Container 应用容器（简单装配）
type Container struct {
	Config *config.Config

	Tags       *services.TagService
	Categories *services.CategoryService
	Types      *services.ProblemTypeService
	Problems   *services.ProblemService
	Daily      *services.DailyProblemService
	Comments   *services.CommentService
	Reports    *services.ReportService
	Roles      *services.RoleService
	Users      *services.UserService
	Auth       *services.AuthService

	Hub          *handlers.ModerationHub
	RateLimiters *middleware.RateLimiters
	Health       *handlers.HealthHandler

	closers []func() error
	stop    chan struct{}
}

// Options 构建容器时的外部依赖
type Options struct {
	Repositories Repositories
	// Cache 为 nil 时每日一题不走缓存
	Cache services.CacheStore
	// DB / Redis 用于就绪检查，Redis 可为 nil
	DB    handlers.Pinger
	Redis handlers.Pinger
	// BcryptCost 为 0 时使用 bcrypt.DefaultCost
	BcryptCost int
}

// New 使用 MySQL 与可选的 Redis 构建容器
func New(cfg *config.Config, db *services.Database, redisClient *redis.Client) (*Container, error) {
	logger := utils.GetLogger()

	opts := Options{
		Repositories: MySQLRepositories(db),
		DB:           db,
	}

	var memCache *utils.MemoryCache
	if redisClient != nil {
		opts.Cache = services.NewRedisCacheStore(redisClient)
		opts.Redis = handlers.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		logger.Info("每日一题缓存使用 Redis", "prefix", cfg.Redis.Prefix, "ttl", cfg.Redis.TTL.String())
	} else {
		memCache = utils.NewMemoryCache(time.Minute)
		opts.Cache = services.NewMemoryCacheStore(memCache)
		logger.Info("Redis 未启用，每日一题缓存使用进程内缓存")
	}

	ctn := Build(cfg, opts)
	ctn.closers = append(ctn.closers, db.Close)
	if redisClient != nil {
		ctn.closers = append(ctn.closers, redisClient.Close)
	}
	if memCache != nil {
		ctn.closers = append(ctn.closers, func() error {
			memCache.Stop()
			return nil
		})
	}
	return ctn, nil
}

// Build 根据给定的存储组装全部服务
func Build(cfg *config.Config, opts Options) *Container {
	repos := opts.Repositories
	maxPageSize := cfg.Pagination.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = services.DefaultMaxPageSize
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	daily := repos.Daily
	if opts.Cache != nil {
		daily = services.NewCachedDailyProblemRepository(daily, opts.Cache, cfg.Redis.TTL, cfg.Redis.Prefix)
	}

	hasher := utils.NewBcryptHasher(cost)
	tags := services.NewTagService(repos.Tags)
	problems := services.NewProblemService(repos.Problems, repos.Categories, repos.Types, tags, maxPageSize)
	roles := services.NewRoleService(repos.Roles)
	users := services.NewUserService(repos.Users, roles, hasher, cfg.Moderation.ModeratorRoles)
	hub := handlers.NewModerationHub(cfg.CORS.AllowOrigins, users)

	ctn := &Container{
		Config:       cfg,
		Tags:         tags,
		Categories:   services.NewCategoryService(repos.Categories),
		Types:        services.NewProblemTypeService(repos.Types),
		Problems:     problems,
		Daily:        services.NewDailyProblemService(daily, problems),
		Comments:     services.NewCommentService(repos.Comments, repos.Problems, users, maxPageSize),
		Reports:      services.NewReportService(repos.Reports, hub, maxPageSize),
		Roles:        roles,
		Users:        users,
		Auth:         services.NewAuthService(services.NewUserCredentialService(repos.Users, hasher), services.NewJWTTokenService(cfg.JWT), users),
		Hub:          hub,
		RateLimiters: middleware.NewRateLimiters(cfg.RateLimit),
		stop:         make(chan struct{}),
	}

	ctn.Health = handlers.NewHealthHandler(opts.DB, opts.Redis)
	ctn.RateLimiters.StartCleanup(ctn.stop)
	return ctn
}

// Close 停止后台协程并释放外部连接
func (c *Container) Close() {
	logger := utils.GetLogger()

	select {
	case <-c.stop:
		return
	default:
		close(c.stop)
	}
	c.Hub.Stop()

	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			logger.Warn("释放资源失败", "error", err.Error())
		}
	}
}
