package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abelzeko/orphanage-bot/internal/config"
	"github.com/abelzeko/orphanage-bot/internal/jobs"
	"github.com/abelzeko/orphanage-bot/internal/logging"
	"github.com/abelzeko/orphanage-bot/internal/repository"
	"github.com/abelzeko/orphanage-bot/internal/usecases"
)

// pruner runs journal maintenance on its own, for deployments where the bot
// shares the database with other processes.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Orphanage journal pruner...")

	repo, err := repository.NewSQLiteSubmissionRepository(cfg.DB.Path)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	useCase := usecases.NewOrphanageUseCase(usecases.Deps{Log: log}, repo, nil)

	// Run once immediately on startup
	if err := useCase.PruneJournal(cfg.Journal.Retention); err != nil {
		log.Errorf("Initial journal pruning failed: %v", err)
	}

	c, err := jobs.NewJournalPruner(useCase, cfg.Journal.PruneSchedule, cfg.Journal.Retention, log)
	if err != nil {
		log.Fatalf("Failed to set up cron job: %v", err)
	}
	c.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	<-c.Stop().Done()
	log.Info("Pruner stopped")
}
