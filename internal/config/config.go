// Package config loads layered configuration (defaults -> YAML file ->
// environment -> explicit overrides) for the ingestion engine, mirroring
// the teacher's viper+godotenv config layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting consumed by the ingestion pipeline and CLI.
type Config struct {
	RepoPath string `mapstructure:"repo_path" yaml:"repo_path"`

	GraphStore GraphStoreConfig `mapstructure:"graph_store" yaml:"graph_store"`
	OpsStore   OpsStoreConfig   `mapstructure:"ops_store" yaml:"ops_store"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding" yaml:"embedding"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Workers    WorkersConfig    `mapstructure:"workers" yaml:"workers"`
	Batch      BatchConfig      `mapstructure:"batch" yaml:"batch"`
	Chunking   ChunkingConfig   `mapstructure:"chunking" yaml:"chunking"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

type GraphStoreConfig struct {
	URI      string `mapstructure:"uri" yaml:"uri"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// OpsStoreConfig selects the embedded store backing the job registry and
// validator audit log. Mirrors the teacher's StorageConfig{Type} switch
// between a Postgres DSN and a local SQLite file.
type OpsStoreConfig struct {
	Type        string `mapstructure:"type" yaml:"type"` // "sqlite" | "postgres"
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type EmbeddingConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"` // ML_SERVICE_URL
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`
	Model   string        `mapstructure:"model" yaml:"model"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Dims    int           `mapstructure:"dims" yaml:"dims"`
}

type CacheConfig struct {
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	RedisAddr string        `mapstructure:"redis_addr" yaml:"redis_addr"` // empty = in-process only
}

type WorkersConfig struct {
	Default int `mapstructure:"default" yaml:"default"`
	Max     int `mapstructure:"max" yaml:"max"`
}

type BatchConfig struct {
	CommitBatchSize int `mapstructure:"commit_batch_size" yaml:"commit_batch_size"`
	ChunkBatchSize  int `mapstructure:"chunk_batch_size" yaml:"chunk_batch_size"`
	EdgeBatchSize   int `mapstructure:"edge_batch_size" yaml:"edge_batch_size"`
}

type ChunkingConfig struct {
	MinChunkLength int `mapstructure:"min_chunk_length" yaml:"min_chunk_length"`
	MaxChunkLength int `mapstructure:"max_chunk_length" yaml:"max_chunk_length"`
	OverlapLines   int `mapstructure:"overlap_lines" yaml:"overlap_lines"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	JSON       bool   `mapstructure:"json" yaml:"json"`
	OutputFile string `mapstructure:"output_file" yaml:"output_file"`
}

// Default returns the baseline configuration before file/env overrides.
func Default() *Config {
	cwd, _ := os.Getwd()
	homeDir, _ := os.UserHomeDir()
	return &Config{
		RepoPath: cwd,
		GraphStore: GraphStoreConfig{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Database: "neo4j",
		},
		OpsStore: OpsStoreConfig{
			Type:       "sqlite",
			SQLitePath: filepath.Join(homeDir, ".kgraph", "ops.db"),
		},
		Embedding: EmbeddingConfig{
			Model:   "text-embedding-3-small",
			Timeout: 30 * time.Second,
			Dims:    512,
		},
		Cache: CacheConfig{
			TTL: 60 * time.Second,
		},
		Workers: WorkersConfig{
			Default: 4,
			Max:     16,
		},
		Batch: BatchConfig{
			CommitBatchSize: 500,
			ChunkBatchSize:  500,
			EdgeBatchSize:   1000,
		},
		Chunking: ChunkingConfig{
			MinChunkLength: 50,
			MaxChunkLength: 2000,
			OverlapLines:   20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads .env files, then a YAML config file (explicit path or the
// standard search locations), then applies environment variable
// overrides, exactly as the teacher's Load() layers precedence.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("KGRAPH")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".kgraph")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".kgraph"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPO_PATH"); v != "" {
		cfg.RepoPath = v
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.GraphStore.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		cfg.GraphStore.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.GraphStore.Password = v
	} else if cfg.GraphStore.Password == "" {
		// Fall back to the OS keyring rather than force an env var in
		// local/dev setups (mirrors the teacher's keychain precedence).
		if pw, err := LookupKeyringPassword(cfg.GraphStore.User); err == nil && pw != "" {
			cfg.GraphStore.Password = pw
		}
	}
	if v := os.Getenv("ML_SERVICE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.OpsStore.Type = "postgres"
		cfg.OpsStore.PostgresDSN = v
	}
}
