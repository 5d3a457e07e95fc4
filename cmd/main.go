package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"lp_builder_v1_202601/internal/controller"
	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
	"lp_builder_v1_202601/internal/router"
	"lp_builder_v1_202601/internal/service"
	"lp_builder_v1_202601/internal/task"
	"lp_builder_v1_202601/pkg/config"
	"lp_builder_v1_202601/pkg/crypto"
	"lp_builder_v1_202601/pkg/database"
	"lp_builder_v1_202601/pkg/logger"
	"lp_builder_v1_202601/pkg/ratelimit"
	"lp_builder_v1_202601/pkg/shopify"
)

func main() {
	// 1. 加载配置与日志
	cfg := config.Load()
	logger.Init(cfg.Env)
	defer logger.Sync()

	// 2. 初始化数据库
	db := initDatabase(cfg)

	// 3. 初始化依赖
	deps := initDependencies(cfg, db)
	defer deps.Services.Audit.Close()

	// 4. 启动定时任务
	tasks := initTasks(db, deps)
	defer stopTasks(tasks)

	// 5. 初始化路由
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	router.InitRoutes(r, cfg, deps.Controllers, deps.Services.Store, deps.Services.Audit, deps.Counter)

	// 6. 启动服务
	startServer(r, cfg.ServerPort)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	Counter     ratelimit.CounterStore
}

// Repositories 仓库集合
type Repositories struct {
	Store      repository.StoreRepository
	Page       repository.PageRepository
	Submission repository.SubmissionRepository
	Analytics  repository.AnalyticsRepository
	ABTest     repository.ABTestRepository
	Tracking   repository.TrackingRepository
	Audit      repository.AuditRepository
}

// Services 服务集合
type Services struct {
	Audit      *service.AuditService
	Guard      *service.Guard
	Store      *service.StoreService
	Page       *service.PageService
	Submission *service.SubmissionService
	Analytics  *service.AnalyticsService
	ABTest     *service.ABTestService
	Tracking   *service.TrackingService
	Asset      *service.AssetService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
// 事件与审计表按月分区，由 PartitionManager 建表，不走 AutoMigrate
func initDatabase(cfg *config.Config) *gorm.DB {
	db := database.InitDB(cfg.DatabaseDSN, !cfg.IsProduction(),
		&model.Store{},
		&model.Page{},
		&model.FormSubmission{},
		&model.ABTest{}, &model.ABTestVariant{},
		&model.TrackingNumber{},
	)

	pm := database.NewPartitionManager(db)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := pm.InitPartitionTables(ctx); err != nil {
		log.Fatalf("分区表初始化失败: %v", err)
	}

	return db
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Store:      repository.NewStoreRepository(db),
		Page:       repository.NewPageRepository(db),
		Submission: repository.NewSubmissionRepository(db),
		Analytics:  repository.NewAnalyticsRepository(db),
		ABTest:     repository.NewABTestRepository(db),
		Tracking:   repository.NewTrackingRepository(db),
		Audit:      repository.NewAuditRepository(db),
	}

	// -------- 基础设施 --------
	cipher := crypto.NewFieldCipher(cfg.EncryptionSecret)
	shopifyClient := shopify.NewClient(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret)
	counter := initCounter(cfg)

	// -------- 服务层 --------
	services := &Services{}
	services.Audit = service.NewAuditService(repos.Audit, logger.L())
	services.Guard = service.NewGuard(services.Audit)
	services.Store = service.NewStoreService(repos.Store, repos.Submission, shopifyClient, cipher, logger.L())
	services.Page = service.NewPageService(repos.Page, services.Guard, service.NewBlockRenderer())
	services.Submission = service.NewSubmissionService(repos.Submission, services.Guard, cipher)
	services.Analytics = service.NewAnalyticsService(repos.Analytics, services.Guard)
	services.ABTest = service.NewABTestService(repos.ABTest, services.Guard)
	services.Tracking = service.NewTrackingService(repos.Tracking, services.Guard, cipher)
	services.Asset = initAssetService(cfg, services.Guard)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:       controller.NewAuthController(cfg, services.Store, shopifyClient),
		Store:      controller.NewStoreController(services.Store),
		Page:       controller.NewPageController(services.Page),
		Submission: controller.NewSubmissionController(services.Submission),
		Analytics:  controller.NewAnalyticsController(services.Analytics),
		ABTest:     controller.NewABTestController(services.ABTest),
		Tracking:   controller.NewTrackingController(services.Tracking),
		Asset:      controller.NewAssetController(services.Asset),
		Proxy:      controller.NewProxyController(services.Page, services.Submission, services.Analytics, services.ABTest),
		Webhook:    controller.NewWebhookController(cfg.ShopifyAPISecret, services.Store),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		Counter:     counter,
	}
}

// initCounter 初始化限流计数存储
// 配了 Redis 走共享计数，否则退化为进程内计数
func initCounter(cfg *config.Config) ratelimit.CounterStore {
	if cfg.RedisAddr == "" {
		log.Println("未配置 Redis，限流计数使用进程内存储")
		return ratelimit.NewMemoryCounter()
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return ratelimit.NewRedisCounter(client)
}

// initAssetService 初始化素材服务
func initAssetService(cfg *config.Config, guard *service.Guard) *service.AssetService {
	assetSvc, err := service.NewAssetService(&service.AssetConfig{
		Provider:  cfg.StorageProvider,
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		AccessKey: cfg.StorageAccess,
		SecretKey: cfg.StorageSecret,
		CDNDomain: cfg.StorageCDN,
		BasePath:  cfg.StorageBasePath,
	}, guard)
	if err != nil {
		log.Printf("警告: 素材服务初始化失败: %v", err)
		return nil
	}
	return assetSvc
}

// ==================== 定时任务 ====================

// Tasks 任务集合
type Tasks struct {
	Partition *task.PartitionTask
	Sweep     *task.SweepTask
}

// initTasks 初始化定时任务
func initTasks(db *gorm.DB, deps *Dependencies) *Tasks {
	tasks := &Tasks{
		Partition: task.NewPartitionTask(database.NewPartitionManager(db)),
	}
	tasks.Partition.Start()

	// 清扫任务只在进程内计数时需要
	if mc, ok := deps.Counter.(*ratelimit.MemoryCounter); ok {
		tasks.Sweep = task.NewSweepTask(mc)
	} else {
		tasks.Sweep = task.NewSweepTask(nil)
	}
	tasks.Sweep.Start()

	log.Println("定时任务已启动")
	return tasks
}

func stopTasks(tasks *Tasks) {
	tasks.Partition.Stop()
	tasks.Sweep.Stop()
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, port string) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}
