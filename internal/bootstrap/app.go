package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docuquery/internal/ai"
	"docuquery/internal/app"
	"docuquery/internal/cache"
	"docuquery/internal/config"
	"docuquery/internal/model"
	"docuquery/internal/pkg/textextract"
	mysqlClient "docuquery/internal/platform/mysql"
	rabbitmqClient "docuquery/internal/platform/rabbitmq"
	redisClient "docuquery/internal/platform/redis"
	"docuquery/internal/repository"
	"docuquery/internal/vectorstore"
	"docuquery/internal/worker"
)

type App struct {
	Config *config.Config
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Settings *app.SettingsService
	Ingest   *app.IngestService
	Query    *app.QueryService

	IngestWorker *worker.IngestWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.Document{},
		&model.Chunk{},
		&model.ChunkVector{},
		&model.QueryRecord{},
		&model.Setting{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	docRepo := repository.NewDocumentRepository(mysqlDB)
	chunkRepo := repository.NewChunkRepository(mysqlDB)
	recordRepo := repository.NewQueryRecordRepository(mysqlDB)
	settingRepo := repository.NewSettingRepository(mysqlDB)

	settingsCache := cache.NewSettingsCache(redisCli, time.Duration(cfg.Redis.SettingTTLSeconds)*time.Second)
	settings := app.NewSettingsService(settingRepo, settingsCache)
	if err := settings.SeedDefaults(cfg.RAG, cfg.LLM.Model); err != nil {
		return nil, fmt.Errorf("seed default settings failed: %w", err)
	}

	embedClient := ai.NewOpenAICompatibleClient(time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second)
	embedder, err := ai.NewEmbedder(embedClient, ai.EmbeddingConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	}, cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("configure embedder failed: %w", err)
	}

	vectors, err := vectorstore.New(mysqlDB, embedder.ModelName(), embedder.Dimension())
	if err != nil {
		return nil, fmt.Errorf("configure vector store failed: %w", err)
	}
	if foreign, err := vectors.CountForeignModel(ctx); err == nil && foreign > 0 {
		log.Printf("warning: %d stored vectors were embedded with a different model and will be ignored; re-ingest the affected documents", foreign)
	}

	publisher := rabbitmqClient.NewIngestPublisher(mqConn, cfg.RabbitMQ.IngestQueue)
	ingest := app.NewIngestService(
		docRepo,
		chunkRepo,
		settings,
		embedder,
		vectors,
		publisher,
		textextract.Extract,
		cfg.Ingest.UpsertRetries,
	)

	llmClient := ai.NewOpenAICompatibleClient(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second)
	query := app.NewQueryService(
		settings,
		embedder,
		vectors,
		chunkRepo,
		docRepo,
		recordRepo,
		llmClient,
		ai.ChatConfig{BaseURL: cfg.LLM.BaseURL, APIKey: cfg.LLM.APIKey},
	)

	ingestWorker := worker.NewIngestWorker(mqConn, ingest, cfg.RabbitMQ.IngestQueue)
	if err := ingestWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}

	return &App{
		Config:       cfg,
		MySQL:        mysqlDB,
		Redis:        redisCli,
		MQConn:       mqConn,
		Settings:     settings,
		Ingest:       ingest,
		Query:        query,
		IngestWorker: ingestWorker,
		StartedAt:    time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
