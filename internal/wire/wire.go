// Package wire provides dependency injection for the stagehand application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"os"
	"sync"

	cliadapter "github.com/example/stagehand/internal/adapters/cli"
	"github.com/example/stagehand/internal/adapters/exec"
	"github.com/example/stagehand/internal/adapters/filesystem"
	"github.com/example/stagehand/internal/adapters/sqlite"
	"github.com/example/stagehand/internal/app"
	"github.com/example/stagehand/internal/config"
	"github.com/example/stagehand/internal/db"
	"github.com/example/stagehand/internal/ports/primary"
)

var (
	cfg              *config.Config
	transformService primary.TransformService
	recoveryService  primary.RecoveryService
	historyService   primary.HistoryService
	once             sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// TransformService returns the singleton TransformService instance.
func TransformService() primary.TransformService {
	once.Do(initServices)
	return transformService
}

// RecoveryService returns the singleton RecoveryService instance.
func RecoveryService() primary.RecoveryService {
	once.Do(initServices)
	return recoveryService
}

// HistoryService returns the singleton HistoryService instance.
func HistoryService() primary.HistoryService {
	once.Do(initServices)
	return historyService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	home, err := db.HomeDir()
	if err != nil {
		log.Fatalf("failed to resolve stagehand home: %v", err)
	}

	// Config is optional; a missing file falls back to conventional
	// locations under the home directory.
	cfg, err = config.LoadConfig(home)
	if err != nil {
		cfg = config.DefaultConfig(home)
	}

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Secondary adapters
	stagingStore := filesystem.NewStagingStore(cfg.StagingDir, cfg.ProductionDir)
	metadataStore := filesystem.NewMetadataStore(cfg.StagingDir)
	productionStore := filesystem.NewProductionStore(cfg.ProductionDir)
	historyRepo := sqlite.NewHistoryRepository(database)
	phaseRunner := exec.NewPhaseRunner()

	// Core engine and services (primary ports implementation)
	engine := app.NewCommitEngine(stagingStore, metadataStore, productionStore, historyRepo)
	transformService = app.NewTransformService(stagingStore, metadataStore, productionStore, historyRepo, phaseRunner, engine, cfg)
	recoveryService = app.NewRecoveryService(stagingStore, metadataStore, engine)
	historyService = app.NewHistoryService(historyRepo)
}

// TransformAdapter returns a new TransformAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func TransformAdapter() *cliadapter.TransformAdapter {
	return TransformAdapterWithOutput(os.Stdout)
}

// TransformAdapterWithOutput returns a new TransformAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func TransformAdapterWithOutput(out io.Writer) *cliadapter.TransformAdapter {
	once.Do(initServices)
	return cliadapter.NewTransformAdapter(transformService, out)
}

// RecoveryAdapter returns a new RecoveryAdapter writing to stdout.
func RecoveryAdapter() *cliadapter.RecoveryAdapter {
	return RecoveryAdapterWithOutput(os.Stdout)
}

// RecoveryAdapterWithOutput returns a new RecoveryAdapter writing to the given output.
func RecoveryAdapterWithOutput(out io.Writer) *cliadapter.RecoveryAdapter {
	once.Do(initServices)
	return cliadapter.NewRecoveryAdapter(recoveryService, out)
}

// HistoryAdapter returns a new HistoryAdapter writing to stdout.
func HistoryAdapter() *cliadapter.HistoryAdapter {
	return HistoryAdapterWithOutput(os.Stdout)
}

// HistoryAdapterWithOutput returns a new HistoryAdapter writing to the given output.
func HistoryAdapterWithOutput(out io.Writer) *cliadapter.HistoryAdapter {
	once.Do(initServices)
	return cliadapter.NewHistoryAdapter(historyService, out)
}
