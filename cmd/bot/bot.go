package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abelzeko/orphanage-bot/internal/api"
	"github.com/abelzeko/orphanage-bot/internal/config"
	"github.com/abelzeko/orphanage-bot/internal/integration"
	"github.com/abelzeko/orphanage-bot/internal/integration/openai"
	"github.com/abelzeko/orphanage-bot/internal/jobs"
	"github.com/abelzeko/orphanage-bot/internal/logging"
	"github.com/abelzeko/orphanage-bot/internal/metrics"
	"github.com/abelzeko/orphanage-bot/internal/repository"
	"github.com/abelzeko/orphanage-bot/internal/usecases"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger is built from config, so this one goes to stderr raw
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatalf("Bot stopped with error: %v", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	log.Info("Starting Orphanage Bot...")

	if cfg.Telegram.Token == "" {
		return errors.New("telegram token is not set (telegram.token or TELEGRAM_BOT_TOKEN)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	orphanageAPI, err := integration.NewHTTPOrphanageAPI(cfg.API.BaseURL, cfg.API.Timeout, m, log)
	if err != nil {
		return err
	}

	repo, err := repository.NewSQLiteSubmissionRepository(cfg.DB.Path)
	if err != nil {
		return errors.Wrap(err, "failed to initialize repository")
	}
	defer repo.Close()

	openAIService, err := openai.NewOpenAIService(cfg.OpenAI.APIKey)
	if errors.Is(err, openai.ErrNotConfigured) {
		log.Info("OpenAI API key not set, free-text assistant disabled")
	} else if err != nil {
		return errors.Wrap(err, "failed to initialize OpenAI service")
	}

	botAPI, err := api.ConnectBotAPI(cfg.Telegram.Token, 5*time.Minute, log)
	if err != nil {
		return err
	}

	useCase := usecases.NewOrphanageUseCase(usecases.Deps{
		API:     orphanageAPI,
		Opener:  api.NewTelegramPhotoOpener(botAPI, &http.Client{Timeout: 30 * time.Second}),
		Policy:  usecases.SubmitPolicy(cfg.Submit.Policy),
		Metrics: m,
		Log:     log,
	}, repo, openAIService)

	pruner, err := jobs.NewJournalPruner(useCase, cfg.Journal.PruneSchedule, cfg.Journal.Retention, log)
	if err != nil {
		return err
	}
	pruner.Start()
	defer pruner.Stop()

	if cfg.Status.Addr != "" {
		status := api.NewStatusServer(cfg.Status.Addr, m.Registry, log)
		go func() {
			if err := status.Start(); err != nil {
				log.Errorf("Status server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := status.Shutdown(shutdownCtx); err != nil {
				log.Warnf("Error shutting down status server: %v", err)
			}
		}()
	}

	limiter := api.NewChatLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 0)
	telegramBot := api.NewTelegramBot(botAPI, botAPI.Self.UserName, useCase, limiter, m, log)
	telegramBot.Start(ctx)
	return nil
}
