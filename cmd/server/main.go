// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"speaker-negotiator/internal/config"
	"speaker-negotiator/internal/handler"
	"speaker-negotiator/internal/negotiation"
	"speaker-negotiator/internal/pipeline"
	"speaker-negotiator/internal/repository"
	"speaker-negotiator/internal/sentiment"
	"speaker-negotiator/internal/service"
	"speaker-negotiator/pkg/database"
	"speaker-negotiator/pkg/es"
	"speaker-negotiator/pkg/events"
	"speaker-negotiator/pkg/kafka"
	"speaker-negotiator/pkg/log"
	remotesentiment "speaker-negotiator/pkg/sentiment"
	"speaker-negotiator/pkg/storage"
	"speaker-negotiator/pkg/token"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	// 1. 初始化配置
	configPath := os.Getenv("NEGOTIATOR_CONFIG")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}
	config.Init(configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. 议价引擎和情感分类器
	engine, err := negotiation.NewEngine(cfg.Negotiation)
	if err != nil {
		log.Fatal("议价配置无效", err)
	}
	var estimator sentiment.Estimator = sentiment.NewLexiconEstimator(cfg.Sentiment.Lexicon)
	if cfg.Sentiment.Provider == "remote" {
		estimator = remotesentiment.NewClient(cfg.Sentiment.Remote)
	}
	classifier := sentiment.NewClassifier(estimator)
	log.Infof("议价引擎初始化成功, matching=%s, sentiment=%s", cfg.Negotiation.Matching, cfg.Sentiment.Provider)

	// 4. Redis：会话存储和 Kafka 重试计数都依赖它
	var rdb *redis.Client
	if cfg.Session.Store == "redis" || cfg.Audit.Enabled {
		rdb, err = database.OpenRedis(ctx, cfg.Database.Redis)
		if err != nil {
			log.Fatal("Redis 初始化失败", err)
		}
		defer rdb.Close()
	}
	var sessions repository.SessionRepository
	if cfg.Session.Store == "redis" {
		sessions = repository.NewSessionRepository(rdb, cfg.Session.TTL)
	} else {
		sessions = repository.NewMemorySessionRepository(cfg.Session.TTL)
	}

	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.SessionTokenExpireHours)

	// 5. 审计链路：Kafka -> Processor -> MySQL + Elasticsearch，导出走 MinIO
	var (
		publisher  events.Publisher = events.NopPublisher{}
		recordRepo repository.NegotiationRecordRepository
		searcher   service.TurnSearcher
		uploader   service.TranscriptUploader
		producer   *kafka.Producer
	)
	consumerDone := make(chan struct{})
	if cfg.Audit.Enabled {
		db, err := database.OpenMySQL(cfg.Database.MySQL.DSN)
		if err != nil {
			log.Fatal("MySQL 初始化失败", err)
		}
		recordRepo = repository.NewNegotiationRecordRepository(db)

		turnIndex, err := es.NewTurnIndex(cfg.Elasticsearch)
		if err != nil {
			log.Fatal("Elasticsearch 初始化失败", err)
		}
		searcher = turnIndex

		transcripts, err := storage.NewTranscriptStore(ctx, cfg.MinIO)
		if err != nil {
			log.Fatal("MinIO 初始化失败", err)
		}
		uploader = transcripts

		producer = kafka.NewProducer(cfg.Kafka)
		publisher = producer

		processor := pipeline.NewProcessor(recordRepo, turnIndex)
		consumer := kafka.NewConsumer(cfg.Kafka, processor, rdb)
		go func() {
			defer close(consumerDone)
			consumer.Run(ctx)
		}()
	} else {
		close(consumerDone)
		log.Info("审计链路未启用，议价事件将被丢弃")
	}

	// 6. 初始化 Service (依赖注入)
	negotiationService := service.NewNegotiationService(engine, classifier, sessions, publisher, jwtManager, cfg.Session.MaxTurns)
	adminService := service.NewAdminService(recordRepo, searcher, uploader, sessions)
	authService := service.NewAuthService(cfg.Admin, jwtManager)

	// 7. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := handler.NewRouter(handler.Services{
		Negotiation: negotiationService,
		Admin:       adminService,
		Auth:        authService,
	}, jwtManager)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 先停消费者，再刷新生产者中尚未投递的事件
	stop()
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warnf("等待 Kafka 消费者退出超时")
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	log.Info("服务已优雅关闭")
}
