package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ramblathon/backend/config"
	"ramblathon/backend/internal/cache"
	"ramblathon/backend/internal/collab"
	"ramblathon/backend/internal/httpapi/handlers"
	"ramblathon/backend/internal/store"
	"ramblathon/backend/internal/ws"
)

func newLogger() (*zap.Logger, error) {
	if os.Getenv("RAMBLE_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// closer 退出时按注册的逆序关闭
type closer []func()

func (c *closer) add(fn func()) { *c = append(*c, fn) }

func (c closer) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func main() {
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	cfg, err := config.LoadServer()
	if err != nil {
		zap.S().Fatalf("init config failed: %v", err)
	}
	zap.S().Infof("config: %+v", cfg)

	if err := run(cfg); err != nil {
		zap.S().Fatalf("ramble server: %v", err)
	}
}

func run(cfg *config.ServerConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cleanup closer
	defer cleanup.run()

	var rdb redis.UniversalClient
	if len(cfg.Redis.Addrs) > 0 {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		cleanup.add(func() { _ = rdb.Close() })
	}

	var documents collab.DocumentStore
	switch cfg.Store.Driver {
	case "file":
		documents = store.NewFileStore(cfg.Store.Path, cfg.Store.BackupDir)
	case "redis":
		if rdb == nil {
			return errors.New("store driver redis needs Redis.addrs")
		}
		documents = store.NewRedisStore(rdb, cfg.Redis.Key)
	default:
		return fmt.Errorf("%w: %q", store.ErrUnknownDriver, cfg.Store.Driver)
	}

	// 未配置 mysql 时两个接口都保持 nil
	var (
		snapshots collab.SnapshotStore
		latest    handlers.LatestSnapshotter
	)
	if cfg.Mysql.DSN != "" {
		ss, err := store.OpenSnapshotStore(cfg.Mysql.DSN)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		cleanup.add(func() { _ = ss.Close() })
		snapshots, latest = ss, ss
	}

	var events *collab.KafkaDispatcher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaCfg := sarama.NewConfig()
		// SyncProducer 必须开启 Return.Successes
		kafkaCfg.Producer.Return.Successes = true
		kafkaCfg.Producer.RequiredAcks = sarama.WaitForLocal
		producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaCfg)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		cleanup.add(func() { _ = producer.Close() })

		events = collab.NewKafkaDispatcher(
			producer,
			cfg.Kafka.Topic,
			collab.NewSemaphoreControl(16),
			collab.KafkaDispatcherOptions{
				QueueSize:   10_000,
				Workers:     4,
				MaxRetry:    3,
				BaseBackoff: 50 * time.Millisecond,
				MaxBackoff:  1 * time.Second,
			},
		)
		// 先于 producer 关闭，把队列里的事件发完
		cleanup.add(events.Close)
	}

	svc := collab.NewDocumentService(documents, snapshots, events)
	hub := ws.NewHub()

	var (
		sessions cache.SessionCache
		counter  handlers.SessionCounter = hub
	)
	if rdb != nil {
		sessions = cache.NewRedisSessions(rdb)
		counter = sessions
	}
	manager := ws.NewManager(hub, svc, sessions, collab.NewSemaphoreControl(100))
	docs := handlers.NewDocumentHandler(svc, counter, latest)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ws", manager.WebSocketConnect)
	r.GET("/healthz", docs.Healthz())
	r.GET("/document", docs.Document())
	r.GET("/stats", docs.Stats())
	r.GET("/snapshots/latest", docs.LatestSnapshot())

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Running.Host, cfg.Running.Port),
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.S().Infof("ramble server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return collab.Every(gctx, cfg.Intervals.Write, func(ctx context.Context) {
			persist(ctx, svc, hub, cfg.Broadcast)
		})
	})
	g.Go(func() error {
		return collab.Every(gctx, cfg.Intervals.Backup, func(ctx context.Context) {
			if err := svc.Backup(ctx, time.Now()); err != nil {
				zap.S().Errorf("backup failed: %v", err)
			}
		})
	})

	err := g.Wait()

	// 退出前把剩余增量落盘
	finalCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, perr := svc.Persist(finalCtx); perr != nil {
		zap.S().Errorf("final persist failed: %v", perr)
	}
	zap.S().Info("ramble server stopped")
	return err
}

func persist(ctx context.Context, svc *collab.DocumentService, hub *ws.Hub, broadcast bool) {
	wrote, err := svc.Persist(ctx)
	if err != nil {
		zap.S().Errorf("write buffer failed: %v", err)
		return
	}
	if !wrote {
		zap.S().Info("buffer empty, nothing to write")
		return
	}
	if !broadcast {
		return
	}
	doc, err := svc.Snapshot(ctx)
	if err != nil {
		zap.S().Errorf("load document for broadcast: %v", err)
		return
	}
	n := hub.Broadcast(doc)
	zap.S().Infof("broadcast document (%d bytes) to %d sessions", len(doc), n)
}
