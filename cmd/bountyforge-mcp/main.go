package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/bountyforge/bountyforge/internal/adapter"
	"github.com/bountyforge/bountyforge/internal/common"
	badgerqueue "github.com/bountyforge/bountyforge/internal/queue/badger"
	badgerstore "github.com/bountyforge/bountyforge/internal/store/badger"
)

func main() {
	configPath := os.Getenv("BOUNTYFORGE_CONFIG")
	if configPath == "" {
		configPath = "bountyforge.toml"
	}

	config, err := common.LoadFromFiles(configPath)
	if err != nil {
		config = common.NewDefaultConfig()
	}

	logger := arbor.NewLogger().WithConsoleWriter(arbormodels.WriterConfiguration{
		Type:             arbormodels.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	resultDB, err := badgerstore.Open(logger, config.Storage.DataDir+"/results")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open result store")
	}
	defer resultDB.Close()
	resultGateway := badgerstore.NewGateway(resultDB, logger)

	jobQueue, err := badgerqueue.Open(logger, config.Storage.DataDir+"/queue")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open job queue")
	}
	defer jobQueue.Close()

	registry := adapter.Default()

	mcpServer := server.NewMCPServer(
		"bountyforge",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createSubmitScanTool(), handleSubmitScan(jobQueue, resultGateway, logger))
	mcpServer.AddTool(createGetJobTool(), handleGetJob(resultGateway, logger))
	mcpServer.AddTool(createCheckAvailabilityTool(), handleCheckAvailability(registry, logger))

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
