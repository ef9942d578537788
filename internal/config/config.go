package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY" required:"true"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDims  int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`

	// Directory scanned for source documents on ingest.
	DocsDir string `envconfig:"DOCS_DIR" default:"docs"`
	// When > 0, a background worker re-scans DocsDir at this interval.
	ScanInterval time.Duration `envconfig:"SCAN_INTERVAL" default:"0"`

	ChunkMaxChars  int `envconfig:"CHUNK_MAX_CHARS" default:"900"`
	ChunkOverlap   int `envconfig:"CHUNK_OVERLAP" default:"150"`
	ChunkMaxChunks int `envconfig:"CHUNK_MAX_CHUNKS" default:"100"`

	RetrievalTopK  int     `envconfig:"RETRIEVAL_TOP_K" default:"5"`
	ScoreThreshold float64 `envconfig:"SCORE_THRESHOLD" default:"0.45"`
	MinTopScore    float64 `envconfig:"MIN_TOP_SCORE" default:"0.60"`

	WebhookURL string `envconfig:"WEBHOOK_URL"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"mentor-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("MENTOR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasWebhook() bool {
	return c.WebhookURL != ""
}
