package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/services/kb"
	"github.com/ternarybob/colligo/internal/storage/badger"
)

func main() {
	configPath := os.Getenv("COLLIGO_CONFIG")
	if configPath == "" {
		// Fall back to defaults plus env when no config file is present
		if _, err := os.Stat("colligo.toml"); err == nil {
			configPath = "colligo.toml"
		}
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	// The knowledge base retriever is optional: document search still
	// works against local storage when no knowledge base is configured
	var retriever *kb.Retriever
	if config.Bedrock.KnowledgeBaseID != "" {
		retriever, err = kb.NewRetriever(context.Background(), config, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Knowledge base unavailable, retrieval tools disabled")
			retriever = nil
		}
	}

	mcpServer := server.NewMCPServer(
		"colligo",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createSearchDocumentsTool(), handleSearchDocuments(storageManager.DocumentStorage(), logger))
	mcpServer.AddTool(createGetDocumentTool(), handleGetDocument(storageManager.DocumentStorage(), logger))
	if retriever != nil {
		mcpServer.AddTool(createRetrieveDocumentsTool(), handleRetrieveDocuments(retriever, logger))
		mcpServer.AddTool(createKnowledgeBaseInfoTool(), handleKnowledgeBaseInfo(retriever, logger))
	}

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
