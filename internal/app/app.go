package app

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"smart_lms_analytics/internal/config"
	"smart_lms_analytics/internal/controller"
	"smart_lms_analytics/internal/middleware"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/repository"
	"smart_lms_analytics/internal/service"
	"smart_lms_analytics/internal/util"
	"smart_lms_analytics/pkg/configwatcher"
	"smart_lms_analytics/pkg/database"
	"smart_lms_analytics/pkg/logger"
	"smart_lms_analytics/pkg/ml"
	"smart_lms_analytics/pkg/monitoring"
	"smart_lms_analytics/pkg/security"
	"smart_lms_analytics/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Mongo           *mongo.Client
	services        *services
	closers         []io.Closer
	tracer          interface{ Shutdown(context.Context) error }
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	student    *repository.StudentRepository
	course     *repository.CourseRepository
	project    *repository.ProjectRepository
	task       *repository.TaskRepository
	progress   *repository.ProgressRepository
	prediction *repository.PredictionRepository
	audit      *repository.AuditRepository
}

type services struct {
	storage          *service.StorageService
	recommendation   *service.RecommendationService
	prediction       *service.PredictionService
	directory        *service.StudentDirectory
	projectChatbot   *service.ProjectTaskChatbot
	analyticsChatbot *service.AnalyticsChatbot
	embedder         service.Embedder
}

type controllers struct {
	health         *controller.HealthController
	prediction     *controller.PredictionController
	recommendation *controller.RecommendationController
	chat           *controller.ChatController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(mdb *mongo.Database, db *gorm.DB, cfg *config.Config) *repositories {
	timeout := cfg.Mongo.Timeout
	repos := &repositories{
		student:    repository.NewStudentRepository(mdb, timeout),
		course:     repository.NewCourseRepository(mdb, timeout),
		project:    repository.NewProjectRepository(mdb, timeout),
		task:       repository.NewTaskRepository(mdb, timeout),
		progress:   repository.NewProgressRepository(mdb, timeout),
		prediction: repository.NewPredictionRepository(mdb, timeout),
	}
	if db != nil {
		repos.audit = repository.NewAuditRepository(db)
	}
	return repos
}

// newRecommender 规则后端返回 nil，由 RecommendationService 使用内置规则
func (a *App) newRecommender(ctx context.Context, cfg *config.Config) service.Recommender {
	switch cfg.Recommender.Backend {
	case config.RecommenderGroq, config.RecommenderLocal:
		r, err := service.NewChatRecommender(cfg.Recommender, logger.Log)
		if err != nil {
			logger.Log.Warn("LLM recommender unavailable, using rules", zap.Error(err))
			return nil
		}
		return r
	case config.RecommenderGemini:
		r, err := service.NewGeminiRecommender(ctx, cfg.Recommender, logger.Log)
		if err != nil {
			logger.Log.Warn("Gemini recommender unavailable, using rules", zap.Error(err))
			return nil
		}
		a.closers = append(a.closers, r)
		return r
	default:
		return nil
	}
}

func (a *App) newHistoryStore(cfg *config.Config) service.HistoryStore {
	if cfg.History.Backend == config.HistoryRedis && a.Redis != nil {
		return service.NewRedisHistoryStore(a.Redis, cfg.History.Limit, cfg.History.TTL)
	}
	return service.NewMemoryHistoryStore(cfg.History.Limit)
}

func (a *App) initServices(ctx context.Context, repos *repositories, artifacts *ml.Artifacts, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg, logger.Log)
	s.recommendation = service.NewRecommendationService(a.newRecommender(ctx, cfg), a.newHistoryStore(cfg), logger.Log)

	// 审计关闭时必须传入 nil 接口
	var audit service.AuditRepository
	if repos.audit != nil {
		audit = repos.audit
	}
	thresholds := model.Thresholds{High: cfg.Risk.High, Medium: cfg.Risk.Medium, Low: cfg.Risk.Low}
	s.prediction = service.NewPredictionService(artifacts, s.recommendation, audit, s.storage, thresholds, logger.Log)

	s.directory = service.NewStudentDirectory(repos.student, repos.course, repos.project,
		repos.task, repos.progress, repos.prediction, logger.Log)

	embedder, err := service.NewEmbedder(ctx, cfg.Embedding, logger.Log)
	if err != nil {
		logger.Log.Warn("Embedding backend unavailable, using lexical embedder", zap.Error(err))
		embedder = service.NewLexicalEmbedder(0)
	}
	if c, ok := embedder.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	s.embedder = embedder

	var cache service.EmbeddingCache
	if a.Redis != nil {
		cache = service.NewRedisEmbeddingCache(a.Redis, 7*24*time.Hour)
	}

	tables, err := service.LoadIntentTables(cfg.Chatbot.IntentsFile)
	if err != nil {
		logger.Log.Warn("Failed to load intents, using built-in tables", zap.Error(err))
	}
	projectIntents := service.NewIntentClassifier(util.ModuleProjectTask, tables.ProjectTask, embedder, cache, cfg.Chatbot.Threshold, logger.Log)
	analyticsIntents := service.NewIntentClassifier(util.ModuleAnalytics, tables.Analytics, embedder, cache, cfg.Chatbot.Threshold, logger.Log)
	for _, c := range []*service.IntentClassifier{projectIntents, analyticsIntents} {
		if err := c.Warmup(ctx); err != nil {
			logger.Log.Warn("Intent warmup failed, will retry on first query", zap.Error(err))
		}
	}

	s.projectChatbot = service.NewProjectTaskChatbot(s.directory, projectIntents, logger.Log)
	s.analyticsChatbot = service.NewAnalyticsChatbot(s.directory, s.prediction, s.recommendation, analyticsIntents, logger.Log)

	return s
}

func (a *App) components() map[string]controller.Pinger {
	comps := map[string]controller.Pinger{
		"mongodb": func(ctx context.Context) error { return a.Mongo.Ping(ctx, nil) },
	}
	if a.Redis != nil {
		comps["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	if a.DB != nil {
		comps["mysql"] = func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	return comps
}

func (a *App) initControllers(s *services, cfg *config.Config) *controllers {
	return &controllers{
		health:         controller.NewHealthController(s.prediction, a.components(), cfg.Server.Version),
		prediction:     controller.NewPredictionController(s.prediction),
		recommendation: controller.NewRecommendationController(s.recommendation),
		chat:           controller.NewChatController(s.projectChatbot, s.analyticsChatbot, s.recommendation.BackendName()),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

type thresholdSetter interface {
	SetThresholds(t model.Thresholds) error
}

// reloadThresholds 成功时由 SetThresholds 记日志，这里只记拒绝
func reloadThresholds(p thresholdSetter) func(*config.Config) {
	return func(newCfg *config.Config) {
		t := model.Thresholds{High: newCfg.Risk.High, Medium: newCfg.Risk.Medium, Low: newCfg.Risk.Low}
		if err := p.SetThresholds(t); err != nil {
			logger.Log.Warn("Rejected new risk thresholds", zap.Error(err))
		}
	}
}

// startBackgroundTasks 配置文件变更时更新风险阈值
func (a *App) startBackgroundTasks(ctx context.Context) {
	a.RegisterConfigCallback(reloadThresholds(a.services.prediction))

	if a.Config.File == "" {
		return
	}
	err := configwatcher.WatchConfig(ctx, a.Config.File, logger.Log, func(newCfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(newCfg)
		}
	})
	if err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)
	monitoring.Init()

	artifacts, err := ml.LoadArtifacts(ml.Paths{
		Kind:     cfg.Model.Kind,
		Model:    cfg.Model.Path,
		Scaler:   cfg.Model.ScalerPath,
		Encoders: cfg.Model.EncodersPath,
	}, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to load model artifacts", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{Config: cfg, cancel: cancel}

	mclient, mdb, err := database.InitMongo(ctx, &cfg.Mongo)
	if err != nil {
		logger.Log.Fatal("Failed to initialize mongodb", zap.Error(err))
	}
	app.Mongo = mclient

	if cfg.Audit.Enabled {
		if err := model.InitIDGenerator(cfg.Audit.NodeID); err != nil {
			logger.Log.Fatal("Failed to initialize id generator", zap.Error(err))
		}
		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		}
		app.DB = db
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		app.Redis = rdb
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("smart-lms-analytics", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	repos := app.initRepositories(mdb, app.DB, cfg)
	app.services = app.initServices(ctx, repos, artifacts, cfg)
	controllers := app.initControllers(app.services, cfg)

	router := gin.New()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(ctx)

	logger.Log.Info("Service ready",
		zap.String("model", artifacts.Kind()),
		zap.String("recommender", app.services.recommendation.BackendName()),
		zap.String("embedder", app.services.embedder.Name()))

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.close(ctx)
	logger.Log.Info("Server exiting")
}

// close 释放外部连接
func (a *App) close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Log.Warn("Failed to close client", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			logger.Log.Warn("Failed to disconnect mongodb", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
