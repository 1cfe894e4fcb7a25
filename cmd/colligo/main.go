package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/agent"
	"github.com/ternarybob/colligo/internal/services/archive"
	"github.com/ternarybob/colligo/internal/services/catalog"
	"github.com/ternarybob/colligo/internal/services/fetch"
	"github.com/ternarybob/colligo/internal/services/kb"
	"github.com/ternarybob/colligo/internal/services/llm"
	"github.com/ternarybob/colligo/internal/services/parse"
	"github.com/ternarybob/colligo/internal/services/pdf"
	"github.com/ternarybob/colligo/internal/services/pipeline"
	"github.com/ternarybob/colligo/internal/services/scheduler"
	"github.com/ternarybob/colligo/internal/services/scraper"
	"github.com/ternarybob/colligo/internal/storage/badger"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	runOnce      = flag.Bool("once", false, "Run one collection and exit instead of scheduling")
	askQuestion  = flag.String("ask", "", "Ask a question over the knowledge base and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	version := common.LoadVersionFromFile()

	if *showVersion || *showVersionV {
		fmt.Printf("Colligo version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("colligo.toml"); err == nil {
			configFiles = append(configFiles, "colligo.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(version)

	if err := config.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	os.Exit(run(config, logger))
}

// run executes the selected mode and returns the process exit code.
// Split from main so deferred cleanup runs before exit.
func run(config *common.Config, logger arbor.ILogger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open storage")
		return 1
	}
	defer storage.Close()

	if *askQuestion != "" {
		return runAsk(ctx, config, storage, logger, *askQuestion)
	}

	return runCollect(ctx, config, storage, logger, *runOnce)
}

// runAsk answers a single question over the knowledge base
func runAsk(ctx context.Context, config *common.Config, storage interfaces.StorageManager, logger arbor.ILogger, question string) int {
	retriever, err := kb.NewRetriever(ctx, config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create knowledge base retriever")
		return 1
	}

	factory := llm.NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, storage.KeyValueStorage(), logger)
	defer factory.Close()

	answer, err := agent.NewAgent(retriever, factory, logger).Ask(ctx, question)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to answer question")
		return 1
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, source := range answer.Sources {
			fmt.Printf("  %s (score %.2f)\n", source.SourceURI, source.Score)
		}
	}
	return 0
}

// runCollect runs the collection pipeline once or on a schedule
func runCollect(ctx context.Context, config *common.Config, storage interfaces.StorageManager, logger arbor.ILogger, once bool) int {
	pageScraper, err := scraper.NewPageScraper(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create scraper")
		return 1
	}
	defer pageScraper.Close()

	uploader, err := archive.NewUploader(ctx, config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create S3 uploader")
		return 1
	}

	extractor := pdf.NewExtractor(logger)

	var parser *parse.Parser
	if config.Pipeline.ParseEnabled {
		parser, err = parse.NewParser(ctx, config, extractor, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Bedrock parser")
			return 1
		}
	}

	p := pipeline.NewPipeline(
		config,
		pageScraper,
		catalog.NewExtractor(config.Catalog.BaseURL, logger),
		catalog.NewSnapshotter(logger),
		fetch.NewFetcher(&config.Scraper, extractor, logger),
		uploader,
		parser,
		storage,
		logger,
	)

	if once {
		if _, err := p.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("Collection run failed")
			return 1
		}
		return 0
	}

	sched := scheduler.NewService(config.Pipeline.Schedule, func(runCtx context.Context) error {
		_, err := p.Run(runCtx)
		return err
	}, logger)

	if err := sched.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to start scheduler")
		return 1
	}

	logger.Info().
		Str("schedule", config.Pipeline.Schedule).
		Msg("Running on schedule, press Ctrl+C to stop")

	<-ctx.Done()
	sched.Stop()
	logger.Info().Msg("Shutdown complete")
	return 0
}
