package service

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sumulas-rag/config"
	"sumulas-rag/logic/chat"
	"sumulas-rag/logic/filter"
	"sumulas-rag/logic/ingestion/loaders"
	"sumulas-rag/logic/ingestion/transform"
	"sumulas-rag/logic/pipeline"
	"sumulas-rag/logic/retrieval"
	"sumulas-rag/logic/retrieval/score"
	"sumulas-rag/storage/es"
	"sumulas-rag/storage/milvus"
	"sumulas-rag/storage/postgres"
	"sumulas-rag/storage/redis"
)

// App 进程内共享的服务，启动时构建一次
type App struct {
	Chat      *ChatService
	Retrieval *RetrievalService
	Ingestion *IngestionService

	milvusClient client.Client
	redisClient  *goredis.Client
	db           *gorm.DB
}

// NewApp 初始化所有外部依赖并组装服务
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	app := &App{}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	// 1. 初始化 DB
	db, err := postgres.InitDB(postgres.DSN(cfg.Postgres.Host, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DB, cfg.Postgres.Port))
	if err != nil {
		return nil, err
	}
	app.db = db
	repo := postgres.NewSummaryRepo(db)

	// 2. 初始化 LLM Model
	chatModel, err := chat.NewChatModel(ctx, chat.ModelConfig{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey(),
		Timeout:  cfg.LLM.Timeout(),
	})
	if err != nil {
		return nil, err
	}
	embedder, err := transform.NewEmbedder(ctx, cfg.Embedding.BaseURL, cfg.Embedding.Model, time.Duration(cfg.Embedding.TimeoutSecs)*time.Second)
	if err != nil {
		return nil, err
	}

	// 3. 全局 Milvus Client（复用）
	app.milvusClient, err = milvus.NewClient(ctx, cfg.Milvus.Addr)
	if err != nil {
		return nil, err
	}
	vecStore, err := milvus.NewStore(ctx, app.milvusClient, embedder, cfg.Retrieval.Collection)
	if err != nil {
		return nil, fmt.Errorf("Milvus 初始化失败: %w", err)
	}
	dense, err := milvus.NewSearcher(ctx, app.milvusClient, embedder, cfg.Retrieval.Collection)
	if err != nil {
		return nil, err
	}

	esIndexer, err := es.NewESIndexer(ctx, cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index)
	if err != nil {
		return nil, err
	}
	sparse := es.NewSearcher(esIndexer.GetClient(), esIndexer.Index())

	// 4. 自查询缓存（可选，不可用时降级为不缓存）
	var opts []retrieval.ConstructorOption
	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logrus.WithError(err).Warn(">>> [Redis] 不可用，自查询不缓存")
		} else {
			app.redisClient = rc
			opts = append(opts, retrieval.WithQueryCache(redis.NewQueryCache(rc, time.Duration(cfg.Redis.TTLSecs)*time.Second)))
		}
	}

	// 5. 编排
	constructor := retrieval.NewQueryConstructor(chatModel, filter.SumulaSchema(), opts...)
	retriever := retrieval.NewRetriever(dense, sparse, &retrieval.RetrieverConfig{
		CandidateFactor: cfg.Retrieval.CandidateFactor,
		MaxK:            cfg.Retrieval.MaxK,
		Fusion: &score.Config{
			DenseWeight:  cfg.Retrieval.DenseWeight,
			SparseWeight: cfg.Retrieval.SparseWeight,
		},
		Timeout: time.Duration(cfg.Retrieval.TimeoutSecs) * time.Second,
	})
	p, err := pipeline.New(pipeline.Config{
		K:          cfg.Retrieval.K,
		Collection: cfg.Retrieval.Collection,
		Formatter: filter.Formatter{
			And:   cfg.Display.And,
			Or:    cfg.Display.Or,
			Not:   cfg.Display.Not,
			Empty: cfg.Display.NoFilter,
		},
	}, constructor, retriever, chat.NewGenerator(chatModel))
	if err != nil {
		return nil, err
	}

	loader, err := loaders.NewPDFLoader(ctx)
	if err != nil {
		return nil, err
	}

	// 6. 初始化 Service (业务层)
	app.Chat = NewChatService(p)
	app.Retrieval = NewRetrievalService(p)
	app.Ingestion = NewIngestionService(repo, chatModel, loader, esIndexer, vecStore)

	ok = true
	return app, nil
}

// Close 释放连接，可重复调用
func (a *App) Close() {
	if a.milvusClient != nil {
		_ = a.milvusClient.Close()
		a.milvusClient = nil
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
		a.redisClient = nil
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		a.db = nil
	}
}
