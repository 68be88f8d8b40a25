package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/galaxy-core/internal/adapters/driven/gemini"
	"github.com/custodia-labs/galaxy-core/internal/adapters/driven/memory"
	"github.com/custodia-labs/galaxy-core/internal/adapters/driving/http"
	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/services"
	"github.com/custodia-labs/galaxy-core/internal/normalisers"
	"github.com/custodia-labs/galaxy-core/internal/postprocessors"
	"github.com/custodia-labs/galaxy-core/internal/runtime"
	"github.com/custodia-labs/galaxy-core/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutoring API",
	Long:  `Starts the HTTP API, the ingestion scheduler and, when UPLOAD_DIR is set, the drop-folder worker.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	slog.SetDefault(logger)
	logger.Info("galaxy-core starting", "version", version)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// ===== Vault persistence =====
	archive, err := openArchive(ctx, logger)
	if err != nil {
		return err
	}
	defer archive.close()

	config, err := newRuntimeConfig(archive.name)
	if err != nil {
		return err
	}

	// ===== Generation providers =====
	generators := runtime.NewServices(config)
	defer generators.Close()
	configureGenerators(ctx, generators, logger)

	// ===== Core services =====
	knowledge := memory.NewKnowledgeStore()

	ingestion := services.NewIngestionScheduler(services.IngestionConfig{
		Store:       knowledge,
		Normalisers: normalisers.DefaultRegistry(),
		Pipeline:    postprocessors.DefaultPipeline(),
		Logger:      logger.With("component", "ingestion"),
		Interval:    time.Duration(getEnvInt("INGEST_INTERVAL_MS", 400)) * time.Millisecond,
		Step:        getEnvInt("INGEST_STEP", 5),
	})
	defer ingestion.Stop()

	retrieval := services.NewRetrievalService(knowledge, getEnvInt("RETRIEVAL_CACHE_SIZE", services.DefaultRetrievalCacheSize))

	vault := services.NewVaultService(services.VaultConfig{
		Store:  archive.store,
		Lock:   archive.lock,
		Config: config,
		Logger: logger.With("component", "vault"),
	})

	answer := services.NewAnswerOrchestrator(services.AnswerConfig{
		Retrieval:    retrieval,
		Knowledge:    knowledge,
		Progress:     ingestion,
		Vault:        vault,
		Services:     generators,
		Logger:       logger.With("component", "answer"),
		TextTimeout:  time.Duration(getEnvInt("TEXT_TIMEOUT_SEC", 120)) * time.Second,
		ImageTimeout: time.Duration(getEnvInt("IMAGE_TIMEOUT_SEC", 90)) * time.Second,
	})

	// ===== Drop-folder worker (optional) =====
	if dir := getEnv("UPLOAD_DIR", ""); dir != "" {
		w := worker.NewWorker(worker.WorkerConfig{
			Ingestion: ingestion,
			UploadDir: dir,
			Logger:    logger.With("component", "worker"),
			Debounce:  getEnvDuration("UPLOAD_DEBOUNCE", worker.DefaultDebounce),
		})
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start upload worker: %w", err)
		}
		defer w.Stop()
	}

	// ===== HTTP =====
	serverCfg := http.DefaultConfig()
	serverCfg.Port = getEnvInt("PORT", serverCfg.Port)
	serverCfg.Version = version
	serverCfg.AllowedOrigins = getEnvList("CORS_ORIGINS", serverCfg.AllowedOrigins)
	serverCfg.Logger = logger

	server := http.NewServer(serverCfg, ingestion, retrieval, answer, vault, archive.pinger)
	return server.Start()
}

// configureGenerators installs the Gemini generators when an API key is set.
// The service still starts without them; asking then fails as unavailable.
func configureGenerators(ctx context.Context, generators *runtime.Services, logger *slog.Logger) {
	settings := &domain.GenerationSettings{
		APIKey:     getEnv("GEMINI_API_KEY", ""),
		TextModel:  getEnv("TEXT_MODEL", domain.DefaultTextModel),
		ImageModel: getEnv("IMAGE_MODEL", domain.DefaultImageModel),
		BaseURL:    getEnv("GEMINI_BASE_URL", ""),
	}
	if !settings.IsConfigured() {
		logger.Warn("GEMINI_API_KEY not set, answers are unavailable")
		return
	}

	factory := gemini.NewFactory(nil)

	text, err := factory.CreateTextGenerator(ctx, settings)
	if err != nil {
		logger.Error("failed to create text generator", "error", err)
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := generators.ValidateAndSetText(pingCtx, text); err != nil {
		logger.Error("text generator unreachable", "model", settings.TextModel, "error", err)
		return
	}
	logger.Info("text generator ready", "model", text.Model())

	image, err := factory.CreateImageGenerator(ctx, settings)
	if err != nil {
		logger.Error("failed to create image generator", "error", err)
		return
	}
	generators.SetImageGenerator(image)
	if image != nil {
		logger.Info("image generator ready", "model", image.Model())
	}
}
