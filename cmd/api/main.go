package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ContentFlow/internal/config"
	"ContentFlow/internal/handler"
	"ContentFlow/internal/logger"
	"ContentFlow/internal/metrics"
	"ContentFlow/internal/middleware"
	"ContentFlow/internal/pkg"
	"ContentFlow/internal/repository"
	"ContentFlow/internal/repository/memory"
	"ContentFlow/internal/repository/mongodb"
	"ContentFlow/internal/repository/mysql"
	redisrepo "ContentFlow/internal/repository/redis"
	"ContentFlow/internal/router"
	"ContentFlow/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "contentflow:", err)
		os.Exit(1)
	}
}

// stores 选定后端的存储实现及其关闭函数
type stores struct {
	contents repository.ContentStore
	users    repository.UserStore
	pinger   handler.Pinger
	close    func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		if err = mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		log.Info("MongoDB connected successfully", slog.String("database", cfg.MongoDatabase))
		return &stores{
			contents: mongodb.NewContentRepository(db),
			users:    mongodb.NewUserRepository(db),
			pinger:   mongodb.Pinger{Client: client},
			close:    client.Disconnect,
		}, nil

	case config.DriverMySQL:
		db, err := mysql.InitDB(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		// 自动建表
		if err = mysql.AutoMigrate(db); err != nil {
			_ = mysql.Close(db)
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("MySQL connected successfully")
		return &stores{
			contents: mysql.NewContentRepository(db),
			users:    mysql.NewUserRepository(db),
			pinger:   mysql.Pinger{DB: db},
			close:    func(context.Context) error { return mysql.Close(db) },
		}, nil

	default:
		log.Warn("using in-memory store, data is lost on restart")
		mem := memory.New()
		return &stores{
			contents: mem,
			users:    mem.Users(),
			pinger:   mem,
			close:    func(context.Context) error { return nil },
		}, nil
	}
}

// buildPublisher 按配置组合 kafka / 邮件通知，都未配置时只打日志
func buildPublisher(cfg *config.Config, log *slog.Logger) (service.EventPublisher, func() error) {
	var pubs service.MultiPublisher
	closeFn := func() error { return nil }

	if cfg.KafkaEnabled() {
		producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		pubs = append(pubs, service.KafkaPublisher{Producer: producer})
		closeFn = producer.Close
		log.Info("kafka event publishing enabled", slog.String("topic", producer.Topic()))
	}
	if smtp := cfg.SMTP(); smtp.Enabled() {
		pubs = append(pubs, service.NewMailNotifier(smtp))
		log.Info("decision email notifications enabled", slog.String("smtp_host", smtp.Host))
	}
	if len(pubs) == 0 {
		return service.LogPublisher{Logger: log}, closeFn
	}
	return pubs, closeFn
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error("close store", slog.String("error", err.Error()))
		}
	}()

	// 可选：redis 登录态
	var sessions repository.SessionStore
	if cfg.RedisEnabled() {
		rdb, err := redisrepo.Init(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		sessions = redisrepo.NewSessionRepository(rdb)
		log.Info("redis session store enabled", slog.String("addr", cfg.RedisAddr))
	}

	m := metrics.New()
	emails := service.NewEmailResolver(st.users, cfg.EmailCacheSize, cfg.EmailCacheTTL)
	tokens := pkg.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authSvc := service.NewAuthService(st.users, sessions, tokens, emails, log)

	if err = authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	downstream, closePublisher := buildPublisher(cfg, log)
	defer func() {
		if err := closePublisher(); err != nil {
			log.Error("close event publisher", slog.String("error", err.Error()))
		}
	}()
	// relay 独立于信号 ctx，HTTP 关闭完成后才停止，保证关闭期间的请求事件能投递
	relay := service.NewEventRelay(downstream, 0, log)
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	relayDone := make(chan struct{})
	go func() {
		relay.Run(relayCtx)
		close(relayDone)
	}()

	contentSvc := service.NewContentService(st.contents, emails, log,
		service.WithEvents(relay),
		service.WithRecorder(m),
	)

	limiter := middleware.NewIPLimiter(ctx,
		middleware.WithRate(cfg.AuthRatePerSec, cfg.AuthRateBurst),
		middleware.WithOnDenied(func(string) { m.IncRateLimited() }),
	)

	engine := router.InitRouter(router.Deps{
		Logger:      log,
		ClientURL:   cfg.ClientURL,
		Auth:        authSvc,
		Gate:        authSvc,
		Content:     contentSvc,
		Store:       st.pinger,
		Metrics:     m,
		AuthLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server running", slog.String("addr", srv.Addr), slog.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	stop()
	stopRelay()
	<-relayDone
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
