package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sumulas-rag/vars"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LLMConfig 聊天模型（自查询、回答生成、入库抽取共用）
type LLMConfig struct {
	Provider    string `yaml:"provider"` // ollama | openai
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// APIKey 从 APIKeyEnv 指定的环境变量读取
func (c LLMConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

type EmbeddingConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type MilvusConfig struct {
	Addr string `yaml:"addr"`
}

type ElasticsearchConfig struct {
	Addresses []string `yaml:"addresses"`
	Index     string   `yaml:"index"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DB       string `yaml:"db"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLSecs  int    `yaml:"ttl_secs"`
	Enabled  bool   `yaml:"enabled"`
}

type RetrievalConfig struct {
	K               int     `yaml:"k"`
	MaxK            int     `yaml:"max_k"`
	Collection      string  `yaml:"collection"`
	CandidateFactor int     `yaml:"candidate_factor"`
	DenseWeight     float64 `yaml:"dense_weight"`
	SparseWeight    float64 `yaml:"sparse_weight"`
	TimeoutSecs     int     `yaml:"timeout_secs"`
}

type IngestionConfig struct {
	PDFDir string `yaml:"pdf_dir"`
	Cron   string `yaml:"cron"` // 为空不启动定时任务
}

// DisplayConfig 过滤条件展示用的连接词
type DisplayConfig struct {
	And      string `yaml:"and"`
	Or       string `yaml:"or"`
	Not      string `yaml:"not"`
	NoFilter string `yaml:"no_filter"`
}

// AppConfig 启动时加载一次，之后只读
type AppConfig struct {
	Server        ServerConfig        `yaml:"server"`
	LLM           LLMConfig           `yaml:"llm"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Milvus        MilvusConfig        `yaml:"milvus"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	Redis         RedisConfig         `yaml:"redis"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Ingestion     IngestionConfig     `yaml:"ingestion"`
	Display       DisplayConfig       `yaml:"display"`
	LogLevel      string              `yaml:"log_level"`
}

// Load .env -> config.yaml -> 默认值 -> 环境变量覆盖。文件不存在时只用默认值
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	var cfg AppConfig
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8081"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = vars.PROVIDER_OLLAMA
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == vars.PROVIDER_OLLAMA {
		cfg.LLM.BaseURL = vars.OLLAMA_PATH
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = vars.QWEN7B
		if cfg.LLM.Provider == vars.PROVIDER_OPENAI {
			cfg.LLM.Model = vars.GPT4MINI
		}
	}
	if cfg.LLM.APIKeyEnv == "" && cfg.LLM.Provider == vars.PROVIDER_OPENAI {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = vars.OLLAMA_PATH
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = vars.BGEM3
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 60
	}
	if cfg.Milvus.Addr == "" {
		cfg.Milvus.Addr = vars.MILVUSADDR
	}
	if len(cfg.Elasticsearch.Addresses) == 0 {
		cfg.Elasticsearch.Addresses = []string{vars.ESADDR}
	}
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = vars.PGHOST
	}
	if cfg.Postgres.Port == "" {
		cfg.Postgres.Port = vars.PGPORT
	}
	if cfg.Postgres.User == "" {
		cfg.Postgres.User = vars.PGUSER
	}
	if cfg.Postgres.Password == "" {
		cfg.Postgres.Password = vars.PGPWD
	}
	if cfg.Postgres.DB == "" {
		cfg.Postgres.DB = vars.PGDB
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = vars.REDISADDR
	}
	if cfg.Redis.TTLSecs == 0 {
		cfg.Redis.TTLSecs = 24 * 3600
	}
	if cfg.Retrieval.MaxK <= 0 {
		cfg.Retrieval.MaxK = vars.MAXK
	}
	if cfg.Retrieval.K <= 0 {
		cfg.Retrieval.K = vars.TOPK
	}
	cfg.Retrieval.K = min(cfg.Retrieval.K, cfg.Retrieval.MaxK)
	if cfg.Retrieval.Collection == "" {
		cfg.Retrieval.Collection = vars.COLLECTION
	}
	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = cfg.Retrieval.Collection
	}
	if cfg.Retrieval.CandidateFactor <= 0 {
		cfg.Retrieval.CandidateFactor = 2
	}
	if cfg.Retrieval.DenseWeight == 0 && cfg.Retrieval.SparseWeight == 0 {
		cfg.Retrieval.DenseWeight, cfg.Retrieval.SparseWeight = 0.6, 0.4
	}
	if cfg.Retrieval.TimeoutSecs == 0 {
		cfg.Retrieval.TimeoutSecs = 10
	}
	if cfg.Ingestion.PDFDir == "" {
		cfg.Ingestion.PDFDir = "sumulas"
	}
	if cfg.Display.And == "" {
		cfg.Display.And = " E "
	}
	if cfg.Display.Or == "" {
		cfg.Display.Or = " OU "
	}
	if cfg.Display.Not == "" {
		cfg.Display.Not = "NÃO"
	}
	if cfg.Display.NoFilter == "" {
		cfg.Display.NoFilter = "Nenhum filtro aplicado."
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// applyEnv 环境变量优先（支持 Docker 部署）
func applyEnv(cfg *AppConfig) {
	cfg.Server.Addr = vars.GetEnv("SERVER_ADDR", cfg.Server.Addr)
	cfg.LLM.Provider = vars.GetEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.BaseURL = vars.GetEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = vars.GetEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.Embedding.BaseURL = vars.GetEnv("OLLAMA_PATH", cfg.Embedding.BaseURL)
	cfg.Embedding.Model = vars.GetEnv("EMBED_MODEL", cfg.Embedding.Model)
	cfg.Milvus.Addr = vars.GetEnv("MILVUSADDR", cfg.Milvus.Addr)
	if addr := vars.GetEnv("ESADDR", ""); addr != "" {
		cfg.Elasticsearch.Addresses = []string{addr}
	}
	cfg.Postgres.Host = vars.GetEnv("PGHOST", cfg.Postgres.Host)
	cfg.Postgres.Port = vars.GetEnv("PGPORT", cfg.Postgres.Port)
	cfg.Postgres.User = vars.GetEnv("PGUSER", cfg.Postgres.User)
	cfg.Postgres.Password = vars.GetEnv("PGPWD", cfg.Postgres.Password)
	cfg.Postgres.DB = vars.GetEnv("PGDB", cfg.Postgres.DB)
	cfg.Redis.Addr = vars.GetEnv("REDISADDR", cfg.Redis.Addr)
	cfg.Retrieval.K = vars.GetEnvInt("RETRIEVAL_K", cfg.Retrieval.K)
	cfg.Ingestion.PDFDir = vars.GetEnv("PDF_DIR", cfg.Ingestion.PDFDir)
	cfg.Ingestion.Cron = vars.GetEnv("INGEST_CRON", cfg.Ingestion.Cron)
	cfg.LogLevel = vars.GetEnv("LOG_LEVEL", cfg.LogLevel)
}
