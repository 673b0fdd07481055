package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int               `json:"port"`
	DataDir     string            `json:"data_dir"`
	CORSOrigins []string          `json:"cors_origins"`
	LogConfig   logger.LogConfig  `json:"log_config"`
	AI          AIConfig          `json:"ai"`
	Chunking    ChunkingConfig    `json:"chunking"`
	Retrieval   RetrievalConfig   `json:"retrieval"`
	Ingest      IngestConfig      `json:"ingest"`
	FileStore   FileStoreConfig   `json:"file_store"`
	VectorIndex VectorIndexConfig `json:"vector_index"`
	// SnapshotCron schedules the periodic index/manifest snapshot job.
	// Empty disables the job; request-driven persists still run.
	SnapshotCron string `json:"snapshot_cron"`
}

type AIConfig struct {
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	EmbedModel      string `json:"embed_model"`
	MaxOutputTokens int    `json:"max_output_tokens"`
	// Temperature below zero means "use the provider's default"; an
	// explicit 0 in the config is sent to the provider as-is.
	Temperature    float64     `json:"temperature"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	EmbedCacheSize int         `json:"embed_cache_size"`
	EmbedCacheTTL  int         `json:"embed_cache_ttl_minutes"`
	Data           interface{} `json:"data"`
}

type ChunkingConfig struct {
	Size    int `json:"size"`
	Overlap int `json:"overlap"`
}

type RetrievalConfig struct {
	TopK              int `json:"top_k"`
	MaxTopK           int `json:"max_top_k"`
	ContextCharBudget int `json:"context_char_budget"`
	HistoryWindow     int `json:"history_window"`
	PreviewChars      int `json:"preview_chars"`
	ScorePrecision    int `json:"score_precision"`
}

type IngestConfig struct {
	MaxFileSizeMB     int64    `json:"max_file_size_mb"`
	AllowedExtensions []string `json:"allowed_extensions"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type VectorIndexConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// defaultConfig seeds every optional field before decoding, so an absent
// field keeps its default while an explicit zero in the file survives.
func defaultConfig() Config {
	return Config{
		LogConfig: logger.LogConfig{Level: "info"},
		AI: AIConfig{
			MaxOutputTokens: 1024,
			Temperature:     -1,
			TimeoutSeconds:  60,
			EmbedCacheSize:  10000,
			EmbedCacheTTL:   120,
		},
		Chunking: ChunkingConfig{
			Size:    800,
			Overlap: 150,
		},
		Retrieval: RetrievalConfig{
			TopK:              5,
			MaxTopK:           20,
			ContextCharBudget: 40000,
			HistoryWindow:     6,
			PreviewChars:      300,
			ScorePrecision:    4,
		},
		Ingest: IngestConfig{
			MaxFileSizeMB:     50,
			AllowedExtensions: []string{"txt", "text", "md", "markdown", "docx", "pdf"},
		},
	}
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg := defaultConfig()
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.AI.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if c.AI.EmbedModel == "" {
		return fmt.Errorf("ai.embed_model is required")
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive")
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must not be negative")
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be less than chunking.size")
	}
	if c.Retrieval.TopK <= 0 || c.Retrieval.MaxTopK <= 0 {
		return fmt.Errorf("retrieval.top_k and retrieval.max_top_k must be positive")
	}
	// FileStore and VectorIndex defaults derive from DataDir, so they are
	// filled here rather than in defaultConfig.
	if c.FileStore.Type == "" {
		c.FileStore.Type = "local"
		c.FileStore.Data = map[string]interface{}{
			"dir": filepath.Join(c.DataDir, "uploads"),
		}
	}
	if c.VectorIndex.Type == "" {
		c.VectorIndex.Type = "memory"
		c.VectorIndex.Data = map[string]interface{}{
			"path": filepath.Join(c.DataDir, "index.gob"),
		}
	}
	return nil
}

// ManifestPath is where the document manifest blob lives under the data dir.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.DataDir, "manifest.json")
}
