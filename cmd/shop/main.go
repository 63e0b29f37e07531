// PizzaShop 主程序
// 功能：商品目录、购物车实时计价、由购物车下单并冻结订单快照、订单状态管理
// 架构：基于 DDD，HTTP 对外，事件经 outbox 投递到 Kafka 或 RabbitMQ
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gin-gonic/gin"
	cartapp "github.com/wyfcoding/pizzashop/internal/cart/application"
	cartmysql "github.com/wyfcoding/pizzashop/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/wyfcoding/pizzashop/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/pizzashop/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/pizzashop/internal/catalog/domain"
	catalogclient "github.com/wyfcoding/pizzashop/internal/catalog/infrastructure/client"
	catalogmysql "github.com/wyfcoding/pizzashop/internal/catalog/infrastructure/persistence/mysql"
	cataloghttp "github.com/wyfcoding/pizzashop/internal/catalog/interfaces/http"
	orderapp "github.com/wyfcoding/pizzashop/internal/order/application"
	ordermysql "github.com/wyfcoding/pizzashop/internal/order/infrastructure/persistence/mysql"
	orderredis "github.com/wyfcoding/pizzashop/internal/order/infrastructure/persistence/redis"
	orderhttp "github.com/wyfcoding/pizzashop/internal/order/interfaces/http"
	"github.com/wyfcoding/pizzashop/pkg/cache"
	"github.com/wyfcoding/pizzashop/pkg/config"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/idgen"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"github.com/wyfcoding/pizzashop/pkg/metrics"
	"github.com/wyfcoding/pizzashop/pkg/middleware"
	"github.com/wyfcoding/pizzashop/pkg/mq"
	"github.com/wyfcoding/pizzashop/pkg/outbox"
	"github.com/wyfcoding/pizzashop/pkg/ratelimit"
	"github.com/wyfcoding/pizzashop/pkg/trace"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// 已投递 outbox 消息保留时长
const outboxRetention = 7 * 24 * time.Hour

func main() {
	// 1. 加载配置
	configPath := config.GetEnv("CONFIG_PATH", "configs/shop/config.toml")
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting PizzaShop",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	if err := run(ctx, cfg); err != nil {
		logger.Fatal(context.Background(), "PizzaShop exited with error", "error", err)
	}
	logger.Info(context.Background(), "PizzaShop stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	// 3. 初始化追踪
	if cfg.Tracing.Enabled {
		shutdown, err := trace.Init(ctx, trace.Config{
			ServiceName:       cfg.ServiceName,
			ServiceVersion:    cfg.Version,
			Environment:       cfg.Environment,
			CollectorEndpoint: cfg.Tracing.CollectorEndpoint,
			SamplingRate:      cfg.Tracing.SamplingRate,
		})
		if err != nil {
			logger.Error(ctx, "Failed to initialize tracer", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error(context.Background(), "Failed to shutdown tracer", "error", err)
				}
			}()
			logger.Info(ctx, "Tracer initialized", "endpoint", cfg.Tracing.CollectorEndpoint)
		}
	}

	// 4. 初始化数据库，启动阶段依赖可能尚未就绪，指数退避重试
	database, err := connect(ctx, "database", func() (*db.DB, error) {
		return db.Init(db.Config{
			Driver:             cfg.Database.Driver,
			DSN:                cfg.Database.DSN,
			MaxOpenConns:       cfg.Database.MaxOpenConns,
			MaxIdleConns:       cfg.Database.MaxIdleConns,
			ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
			LogEnabled:         cfg.Database.LogEnabled,
			SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
			Tracing:            cfg.Tracing.Enabled,
		})
	})
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := migrate(database); err != nil {
			return err
		}
	}

	// 5. 初始化 Redis
	redisCache, err := connect(ctx, "redis", func() (*cache.RedisCache, error) {
		return cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			Prefix:       cfg.ServiceName + ":",
		})
	})
	if err != nil {
		return err
	}
	defer redisCache.Close()

	// 6. 初始化指标
	metricsInstance := metrics.New("shop")
	if err := metricsInstance.Register(); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// 7. 事件投递通道
	sender, err := newSender(ctx, cfg)
	if err != nil {
		return err
	}
	defer sender.Close()

	// 8. 初始化仓储与应用服务
	publisher := outbox.NewPublisher(database)

	pizzaRepo := catalogmysql.NewPizzaRepository(database.DB)
	toppingRepo := catalogmysql.NewToppingRepository(database.DB)
	var description catalogdomain.DescriptionSource
	if cfg.Catalog.DescriptionSourceURL != "" {
		description = catalogclient.NewDescriptionClient(cfg.Catalog.DescriptionSourceURL, time.Duration(cfg.Catalog.FetchTimeout)*time.Millisecond)
	}
	catalogCmd := catalogapp.NewCatalogCommandService(pizzaRepo, toppingRepo, publisher, database, description)
	catalogQuery := catalogapp.NewCatalogQueryService(pizzaRepo, toppingRepo)

	carts := cartapp.NewCartManager(cartmysql.NewCartRepository(database.DB), catalogQuery, publisher, database, metricsInstance)

	ids, err := idgen.NewSnowflake(cfg.Order.SnowflakeNode)
	if err != nil {
		return err
	}
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	orderReadRepo := orderredis.NewOrderRedisRepository(redisCache, time.Duration(cfg.Order.CacheTTL)*time.Second)
	orderCmd := orderapp.NewOrderCommandService(orderRepo, carts, publisher, database, ids, orderapp.Options{
		ReadRepo:       orderReadRepo,
		Idempotency:    orderredis.NewIdempotencyStore(redisCache),
		IdempotencyTTL: time.Duration(cfg.Order.IdempotencyTTL) * time.Second,
		Metrics:        metricsInstance,
	})
	orderQuery := orderapp.NewOrderQueryService(orderRepo, orderReadRepo)

	relay := outbox.NewRelay(database, sender, mq.NewDeadLetterQueue(sender, cfg.Messaging.DeadLetterTopic), metricsInstance, outbox.RelayConfig{
		Interval:    time.Duration(cfg.Messaging.RelayInterval) * time.Millisecond,
		BatchSize:   cfg.Messaging.BatchSize,
		MaxAttempts: cfg.Messaging.MaxAttempts,
		SendRetries: 3,
	})

	// 9. 创建服务器
	rateLimiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	httpServer := createHTTPServer(cfg, metricsInstance, rateLimiter,
		cataloghttp.NewCatalogHandler(catalogCmd, catalogQuery),
		carthttp.NewCartHandler(carts),
		orderhttp.NewOrderHandler(orderCmd, orderQuery),
	)
	grpcServer, healthServer := createGRPCServer(cfg)

	// 10. 启动并等待退出信号
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC address: %w", err)
		}
		logger.Info(gctx, "Starting gRPC server", "addr", addr)
		return grpcServer.Serve(listener)
	})

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = metricsInstance.NewHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
		g.Go(func() error {
			logger.Info(gctx, "Starting metrics server", "addr", metricsServer.Addr, "path", cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		return relay.Run(gctx)
	})

	g.Go(func() error {
		purgeOutbox(gctx, relay)
		return nil
	})

	// 优雅关停
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Shutting down PizzaShop")

		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "HTTP server shutdown error", "error", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error(shutdownCtx, "Metrics server shutdown error", "error", err)
			}
		}
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}

// connect 以指数退避重试建立依赖连接，最长一分钟
func connect[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	attempt := 0
	v, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := fn()
		if err != nil {
			logger.Warn(ctx, "dependency not ready", "dependency", name, "attempt", attempt, "error", err)
		}
		return v, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(time.Minute),
	)
	if err != nil {
		return v, fmt.Errorf("failed to connect to %s: %w", name, err)
	}
	return v, nil
}

func migrate(database *db.DB) error {
	models := []any{&outbox.Message{}}
	models = append(models, catalogmysql.Models()...)
	models = append(models, cartmysql.Models()...)
	models = append(models, ordermysql.Models()...)
	if err := database.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info(context.Background(), "Database migrated", "tables", len(models))
	return nil
}

// newSender 按 messaging.driver 选择 outbox 投递通道
func newSender(ctx context.Context, cfg *config.Config) (mq.Sender, error) {
	switch cfg.Messaging.Driver {
	case "kafka":
		return mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		}), nil
	case "rabbitmq":
		return connect(ctx, "rabbitmq", func() (mq.Sender, error) {
			return mq.NewAMQPPublisher(cfg.Messaging.AMQPURL, cfg.Messaging.Exchange)
		})
	default:
		logger.Warn(ctx, "event delivery disabled, outbox messages are only logged")
		return mq.NoopSender{}, nil
	}
}

// purgeOutbox 每小时清理过期的已投递消息
func purgeOutbox(ctx context.Context, relay *outbox.Relay) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := relay.Cleanup(ctx, time.Now().Add(-outboxRetention))
			if err != nil {
				logger.Error(ctx, "outbox cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "outbox cleaned", "deleted", n)
			}
		}
	}
}

// createHTTPServer 创建 HTTP 服务器
func createHTTPServer(
	cfg *config.Config,
	m *metrics.Metrics,
	rateLimiter ratelimit.RateLimiter,
	catalogHandler *cataloghttp.CatalogHandler,
	cartHandler *carthttp.CartHandler,
	orderHandler *orderhttp.OrderHandler,
) *http.Server {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 添加中间件
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.GinRequestID())
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinMetricsMiddleware(m))

	// 注册路由：限流在鉴权之后，已登录用户按用户维度计数
	auth := middleware.JWTAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	limit := middleware.RateLimitMiddleware(rateLimiter, cfg.RateLimit)

	api := router.Group("/api/v1")
	public := api.Group("", limit)
	user := api.Group("", auth, limit)
	admin := api.Group("", auth, middleware.RequireRole(middleware.RoleAdmin), limit)

	catalogHandler.RegisterRoutes(public, admin)
	cartHandler.RegisterRoutes(user)
	orderHandler.RegisterRoutes(user, admin)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}

// createGRPCServer 创建 gRPC 服务器，仅提供健康检查与反射
func createGRPCServer(cfg *config.Config) (*grpc.Server, *health.Server) {
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			middleware.GRPCLoggingInterceptor(),
			middleware.GRPCRecoveryInterceptor(),
			middleware.GRPCErrorInterceptor(),
		),
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
	}

	server := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(cfg.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	return server, healthServer
}
