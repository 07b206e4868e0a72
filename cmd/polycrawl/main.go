package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/polycrawl/internal/app"
	"github.com/IshaanNene/polycrawl/internal/config"
	"github.com/IshaanNene/polycrawl/internal/model"
	"github.com/IshaanNene/polycrawl/internal/processor"
	"github.com/IshaanNene/polycrawl/internal/processors/browser"
	"github.com/IshaanNene/polycrawl/internal/processors/media"
	"github.com/IshaanNene/polycrawl/internal/processors/webfetch"
)

var (
	cfgFile       string
	verbose       bool
	outputDir     string
	storeType     string
	depth         int
	parallelism   int
	batchSize     int
	algorithm     string
	delay         string
	userAgent     string
	enableBrowser bool
	enableMedia   bool
	mediaDir      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "polycrawl",
		Short: "polycrawl — a generic, extensible, concurrent crawling engine",
		Long: `polycrawl dispatches sessions that traverse an arbitrary graph of
crawling inputs through a bank of pluggable processors.

Features:
  - Concurrent, depth-bounded crawling sessions with BFS/DFS traversal
  - Pluggable processors: plain HTTP fetch, headless-browser fetch, media download
  - Per-processor-identity throttling and per-session memoization
  - Pluggable result stores: in-memory, one-file-per-result JSON, MongoDB`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Start one or more crawling sessions from the given seed URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCrawl,
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "store output directory (file store) or mongo URI (mongo store)")
	cmd.Flags().StringVar(&storeType, "store", "", "result store: memory, file, mongo")
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "maximum crawl depth (0 = unlimited)")
	cmd.Flags().IntVarP(&parallelism, "parallelism", "n", 0, "maximum concurrent sessions")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "items processed per traversal batch")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "traversal order: bfs, dfs")
	cmd.Flags().StringVar(&delay, "delay", "", "fixed per-processor throttle delay, e.g. 500ms")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "custom User-Agent for the HTTP fetch processor")
	cmd.Flags().BoolVar(&enableBrowser, "browser", false, "also register the headless-browser fetch processor")
	cmd.Flags().BoolVar(&enableMedia, "media", false, "also register the media download processor")
	cmd.Flags().StringVar(&mediaDir, "media-dir", "", "directory the media processor downloads into")

	return cmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := app.NewLoggerFrom(cfg.Logging, os.Stderr)

	processors := []processor.InputProcessor{
		webfetch.New(webfetch.Config{UserAgent: userAgent}, logger),
	}
	if enableBrowser {
		bp, err := browser.New(browser.Config{Stealth: true}, logger)
		if err != nil {
			logger.Warn("browser processor unavailable, continuing without it", "error", err)
		} else {
			defer bp.Close()
			processors = append(processors, bp)
		}
	}
	if enableMedia {
		dir := mediaDir
		if dir == "" {
			dir = "./media"
		}
		processors = append(processors, media.New(media.Config{OutputDir: dir}, logger))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	listener := func(ev model.CrawlerEvent) {
		defer wg.Done()
		switch e := ev.(type) {
		case model.CrawlingFinished:
			logger.Info("crawl finished", "seeds", e.InitialInputs, "result_id", e.CrawlingResultID, "duration_ms", e.CrawlingDuration.EndMs-e.CrawlingDuration.StartMs)
		case model.CrawlingFailed:
			logger.Error("crawl failed", "seeds", e.InitialInputs, "error", e.Err, "duration_ms", e.CrawlingDuration.EndMs-e.CrawlingDuration.StartMs)
		}
	}

	c, err := app.BuildCrawler(ctx, cfg, processors, logger, listener)
	if err != nil {
		return fmt.Errorf("build crawler: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		_ = c.Shutdown(context.Background())
		cancel()
	}()

	start := time.Now()
	for _, seed := range args {
		wg.Add(1)
		if _, err := c.Submit(seed); err != nil {
			wg.Done()
			logger.Warn("seed rejected", "url", seed, "error", err)
		}
	}

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Dispatcher.ShutdownGrace)
	defer shutdownCancel()
	if err := c.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown did not complete within grace period", "error", err)
	}

	fmt.Printf("crawl complete in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("polycrawl %s\n", config.Version)
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Dispatcher:\n")
			fmt.Printf("  Session Parallelism: %d\n", cfg.Dispatcher.SessionParallelism)
			fmt.Printf("  Batch Size:          %d\n", cfg.Dispatcher.BatchSize)
			fmt.Printf("  Max Crawl Depth:     %d\n", cfg.Dispatcher.MaxCrawlDepth)
			fmt.Printf("  Algorithm:           %s\n", cfg.Dispatcher.Algorithm)
			fmt.Printf("  Shutdown Grace:      %s\n", cfg.Dispatcher.ShutdownGrace)
			fmt.Printf("\nThrottle:\n")
			fmt.Printf("  Mode:                %s\n", cfg.Throttle.Mode)
			fmt.Printf("  Delay:               %s\n", cfg.Throttle.Delay)
			fmt.Printf("\nStore:\n")
			fmt.Printf("  Type:                %s\n", cfg.Store.Type)
			fmt.Printf("  File Dir:            %s\n", cfg.Store.FileDir)
			fmt.Printf("\nLogging:\n")
			fmt.Printf("  Level:               %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:              %s\n", cfg.Logging.Format)
			return nil
		},
	}
}

func applyCLIOverrides(cfg *config.Config) {
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if depth > 0 {
		cfg.Dispatcher.MaxCrawlDepth = depth
	}
	if parallelism > 0 {
		cfg.Dispatcher.SessionParallelism = parallelism
	}
	if batchSize > 0 {
		cfg.Dispatcher.BatchSize = batchSize
	}
	if algorithm != "" {
		cfg.Dispatcher.Algorithm = algorithm
	}
	if delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			cfg.Throttle.Mode = "fixed"
			cfg.Throttle.Delay = d
		}
	}
	if storeType != "" {
		cfg.Store.Type = storeType
	}
	if outputDir != "" {
		switch cfg.Store.Type {
		case "mongo":
			cfg.Store.MongoURI = outputDir
		default:
			cfg.Store.FileDir = outputDir
		}
	}
}
