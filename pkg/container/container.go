package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"profile-server/internal/config"
	orgHandler "profile-server/internal/domains/organization/handler"
	orgRepo "profile-server/internal/domains/organization/repository"
	orgService "profile-server/internal/domains/organization/service"
	profileHandler "profile-server/internal/domains/profile/handler"
	profileRepo "profile-server/internal/domains/profile/repository"
	profileService "profile-server/internal/domains/profile/service"
	"profile-server/internal/domains/profile/validator"
	infraCache "profile-server/internal/infrastructure/cache"
	"profile-server/internal/infrastructure/database"
	"profile-server/internal/infrastructure/storage"
	"profile-server/pkg/cache"
	"profile-server/pkg/jwt"
	"profile-server/pkg/metrics"

	"github.com/hibiken/asynq"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa tất cả dependencies của api và worker
type Container struct {
	// Infrastructure
	Config        *config.Config
	DB            *database.PostgresDB // nil khi STORE_DRIVER=memory
	Cache         cache.Cache
	JWTManager    *jwt.Manager
	Metrics       *metrics.Metrics
	AsynqClient   *asynq.Client
	SnapshotStore storage.ObjectStore
	Validator     *validator.Validator

	// Repositories
	OrganizationRepo orgRepo.Repository
	ProfileRepo      profileRepo.Repository

	// Services
	OrganizationService orgService.ServiceInterface
	ProfileService      profileService.ServiceInterface

	// Handlers
	OrganizationHandler *orgHandler.OrganizationHandler
	ProfileHandler      *profileHandler.ProfileHandler
	SnapshotHandler     *profileHandler.SnapshotHandler
}

// ========================================
// CONSTRUCTOR
// ========================================

// NewContainer builds the dependency graph in order:
// config -> infrastructure -> repositories -> services -> handlers
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Printf("✅ Config loaded (Environment: %s, Store: %s)", cfg.App.Environment, cfg.Store.Driver)

	return Build(context.Background(), cfg)
}

// Build wires a container from an already loaded config
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	if err := c.initRepositories(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}
	log.Println("✅ Repositories initialized")

	c.initServices()
	log.Println("✅ Services initialized")

	c.initHandlers()
	log.Println("✅ Handlers initialized")

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.Config

	v, err := validator.New()
	if err != nil {
		return fmt.Errorf("failed to load profile schemas: %w", err)
	}
	c.Validator = v
	c.Metrics = metrics.New()
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL())

	// PostgreSQL
	if cfg.Store.Driver == config.StoreDriverPostgres {
		log.Println("🗄️  Connecting to PostgreSQL...")
		dbConfig, err := config.LoadDatabaseConfig()
		if err != nil {
			return fmt.Errorf("failed to load database config: %w", err)
		}

		db := database.NewPostgresDB(dbConfig)
		connectCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
		if err := db.Connect(connectCtx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db

		if err := db.EnsureSchema(connectCtx); err != nil {
			return err
		}
		log.Println("✅ Database connected")
	} else {
		log.Println("⚠️  Using in-memory store, data is lost on restart")
	}

	// Redis: export cache. Không critical, fallback sang memory cache
	log.Println("🔴 Connecting to Redis...")
	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(ctx); err != nil {
			log.Printf("⚠️  Redis connection failed (non-critical), using memory cache: %v", err)
			_ = rc.Close()
			c.Cache = cache.NewMemoryCache()
		} else {
			log.Println("✅ Redis connected")
			c.Cache = rc
		}
	}

	c.AsynqClient = asynq.NewClient(c.RedisOpt())

	// Snapshot archive
	c.SnapshotStore = storage.NewMemoryStorage()
	if cfg.MinIO.Enabled {
		log.Println("🪣 Connecting to MinIO...")
		store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			log.Printf("⚠️  MinIO unavailable (non-critical), snapshots kept in memory: %v", err)
		} else {
			c.SnapshotStore = store
			log.Printf("✅ MinIO connected (bucket: %s)", cfg.MinIO.Bucket)
		}
	}

	return nil
}

func (c *Container) initRepositories() error {
	if c.DB == nil {
		c.OrganizationRepo = orgRepo.NewMemoryRepository()
		c.ProfileRepo = profileRepo.NewMemoryRepository()
		return nil
	}

	pool := c.DB.Pool
	c.OrganizationRepo = orgRepo.NewPostgresRepository(pool)
	c.ProfileRepo = profileRepo.NewPostgresRepository(pool)
	return nil
}

func (c *Container) initServices() {
	c.OrganizationService = orgService.NewOrganizationService(c.OrganizationRepo)

	c.ProfileService = profileService.NewProfileService(
		c.ProfileRepo,
		c.OrganizationService, // cross-domain: org lookup + membership
		c.Validator,
		c.Cache,
		c.AsynqClient,
		c.Metrics,
		profileService.Config{
			IRIBase:          c.Config.Profile.IRIBase,
			QueryResultLimit: c.Config.Profile.QueryResultLimit,
			ExportCacheTTL:   c.Config.Profile.ExportCacheTTL,
		},
	)
}

func (c *Container) initHandlers() {
	c.OrganizationHandler = orgHandler.NewOrganizationHandler(c.OrganizationService)
	c.ProfileHandler = profileHandler.NewProfileHandler(c.ProfileService)
	c.SnapshotHandler = profileHandler.NewSnapshotHandler(c.ProfileService, c.SnapshotStore)
}

// ========================================
// HELPER METHODS
// ========================================

// RedisOpt is the asynq connection shared by client, server and scheduler
func (c *Container) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close asynq client: %v", err)
		}
	}

	if c.DB != nil {
		_ = c.DB.Close()
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis: %v", err)
		} else {
			log.Println("✅ Redis connections closed")
		}
	}

	log.Println("✅ Container cleanup completed")
}
