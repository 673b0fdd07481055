package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/quarind/docqa/internal/ai"
	"github.com/quarind/docqa/internal/config"
	"github.com/quarind/docqa/internal/embedcache"
	"github.com/quarind/docqa/internal/filestore"
	"github.com/quarind/docqa/internal/handler"
	"github.com/quarind/docqa/internal/job"
	"github.com/quarind/docqa/internal/manifest"
	"github.com/quarind/docqa/internal/middleware"
	"github.com/quarind/docqa/internal/schedule"
	"github.com/quarind/docqa/internal/service"
	"github.com/quarind/docqa/internal/vectorindex"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docqa",
		Short: "document question answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docqa server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("data_dir", cfg.DataDir),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("vector_index", cfg.VectorIndex.Type),
		zap.String("file_store", cfg.FileStore.Type),
	)
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.EmbedCacheSize,
		time.Duration(cfg.AI.EmbedCacheTTL)*time.Minute)
	generator := ai.NewGenerator(provider, cfg.AI.Model, ai.GenerateOptions{
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		Temperature:     cfg.AI.Temperature,
	}, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)

	index, err := vectorindex.New(cfg.VectorIndex)
	if err != nil {
		return fmt.Errorf("init vector index: %w", err)
	}
	defer index.Close()
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	indexSvc, err := service.NewIndexService(cfg, embedder, index, manifest.NewStore(cfg.ManifestPath()))
	if err != nil {
		return fmt.Errorf("init index service: %w", err)
	}
	if err := indexSvc.Reload(context.Background()); err != nil {
		return fmt.Errorf("reload corpus: %w", err)
	}
	ragSvc := service.NewRAGService(cfg, embedder, generator, index)

	deps := handler.RouterDeps{
		Documents: handler.NewDocumentHandler(indexSvc, store),
		Chat:      handler.NewChatHandler(ragSvc),
		Health:    handler.NewHealthHandler(indexSvc),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewScheduler()
	if cfg.SnapshotCron != "" {
		if err := scheduler.AddJob(job.NewSnapshotJob(indexSvc), cfg.SnapshotCron); err != nil {
			return fmt.Errorf("schedule snapshot job: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()
	logutil.GetLogger(context.Background()).Info("http server listening",
		zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	if err := indexSvc.Persist(context.Background()); err != nil {
		logutil.GetLogger(context.Background()).Error("final persist failed", zap.Error(err))
	}
	return nil
}
