package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/adapter"
	"github.com/bountyforge/bountyforge/internal/common"
	"github.com/bountyforge/bountyforge/internal/eventbus"
	"github.com/bountyforge/bountyforge/internal/httpapi"
	"github.com/bountyforge/bountyforge/internal/merge"
	"github.com/bountyforge/bountyforge/internal/pipeline"
	"github.com/bountyforge/bountyforge/internal/queue"
	badgerqueue "github.com/bountyforge/bountyforge/internal/queue/badger"
	"github.com/bountyforge/bountyforge/internal/runner"
	"github.com/bountyforge/bountyforge/internal/scheduler"
	badgerstore "github.com/bountyforge/bountyforge/internal/store/badger"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string { return fmt.Sprintf("%v", *c) }
func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("BountyForge version %s\n", common.GetVersion())
		os.Exit(0)
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("bountyforge.toml"); err == nil {
			configFiles = append(configFiles, "bountyforge.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, *serverPort, *serverHost)

	logger := common.SetupLogger(config)
	common.InstallCrashHandler(config.Storage.DataDir + "/crashes")
	defer common.RecoverWithCrashFile()
	common.PrintBanner(config, logger)

	registry := adapter.Default()

	dataDir := config.Storage.DataDir
	resultDB, err := badgerstore.Open(logger, dataDir+"/results")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open result store")
	}
	defer resultDB.Close()
	resultGateway := badgerstore.NewGateway(resultDB, logger)

	jobQueue, err := badgerqueue.Open(logger, dataDir+"/queue")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open job queue")
	}
	defer jobQueue.Close()

	bus := eventbus.New()

	scannerDefaults, err := merge.LoadScannerDefaults(config.Scanners.DefaultsFile)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load scanner defaults, using canonical fallbacks")
	}

	engine := pipeline.New(registry, bus, resultGateway, logger)
	jobRunner := runner.New(engine, resultGateway, bus, scannerDefaults, logger, config.StageTimeout())

	workerPool := queue.NewWorkerPool(jobQueue, jobRunner.Handle, logger, config.PollInterval(), config.Workers.Concurrency)
	if err := workerPool.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start worker pool")
	}
	defer workerPool.Stop()

	sched := scheduler.New(logger)
	if err := sched.ScheduleAvailabilityRefresh(config.Scheduler.AvailabilitySpec, registry); err != nil {
		logger.Warn().Err(err).Msg("failed to schedule availability refresh")
	} else {
		sched.Start()
		defer sched.Stop()
	}

	server := httpapi.New(config.Server.Host, config.Server.Port, jobQueue, resultGateway, bus, registry, logger)

	common.SafeGo(logger, "httpServer", func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	})

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("BountyForge ready - press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	common.PrintShutdownBanner(logger)
	common.Stop()
}
