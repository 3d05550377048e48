package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/hammed103/maya-news-extraction/pkg/config"
	"github.com/hammed103/maya-news-extraction/pkg/db"
	"github.com/hammed103/maya-news-extraction/pkg/dedup"
	"github.com/hammed103/maya-news-extraction/pkg/domain"
	"github.com/hammed103/maya-news-extraction/pkg/export"
	"github.com/hammed103/maya-news-extraction/pkg/llm"
	"github.com/hammed103/maya-news-extraction/pkg/pipeline"
	"github.com/hammed103/maya-news-extraction/pkg/ratelimit"
	"github.com/hammed103/maya-news-extraction/pkg/scraper"
	"github.com/hammed103/maya-news-extraction/pkg/sheets"
)

// Opts with all CLI options
type Opts struct {
	Config    string `short:"c" long:"config" env:"CONFIG" default:"mayanews.yml" description:"config file path"`
	Date      string `long:"date" env:"RUN_DATE" description:"run date override, YYYY-MM-DD (default today)"`
	DryRun    bool   `long:"dry-run" description:"run the pipeline without writing to the store"`
	Provision bool   `long:"provision" description:"write default Keywords and Prompts tables and exit"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

// exit code for fatal configuration or credential errors, the pipeline never started
const exitFatalConfig = 2

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if err := run(opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(exitFatalConfig)
	}
}

func run(opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// secrets come from the environment unless the config overrides them
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Store.Credentials == "" {
		cfg.Store.Credentials = os.Getenv("GOOGLE_CREDENTIALS_JSON")
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if cfg.Store.Credentials == "" {
		return fmt.Errorf("GOOGLE_CREDENTIALS_JSON is not set")
	}

	date := opts.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid run date %q: %w", date, err)
	}

	exporter, err := export.New(cfg.Export.Dir)
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}

	logFile, err := os.OpenFile(exporter.LogFile(date), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // log path under the export dir
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer logFile.Close() //nolint:errcheck // best-effort close on exit
	setupLog(opts.Debug, opts.NoColor, logFile, cfg.LLM.APIKey)

	log.Printf("[INFO] starting mayanews version %s, run date %s", revision, date)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	limiter := ratelimit.New()
	limiter.Register(ratelimit.ChannelProvider, cfg.RateLimit.ProviderPerMinute, cfg.RateLimit.MaxBackoff)
	limiter.Register(ratelimit.ChannelLLM, cfg.RateLimit.LLMPerMinute, cfg.RateLimit.MaxBackoff)
	limiter.Register(ratelimit.ChannelStore, 60, cfg.RateLimit.MaxBackoff)

	store, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID: cfg.Store.Spreadsheet,
		Credentials:   cfg.Store.Credentials,
		Attempts:      cfg.Retry.Attempts,
		Delay:         cfg.Retry.Delay,
	}, limiter)
	if err != nil {
		return fmt.Errorf("create store client: %w", err)
	}

	if opts.Provision {
		if err := store.Provision(ctx, config.FallbackKeywords(), config.FallbackPrompts()); err != nil {
			return fmt.Errorf("provision spreadsheet: %w", err)
		}
		return nil
	}

	provider := config.NewProvider(store, cfg.Cache.TTL)
	if err := provider.Validate(ctx); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	filterTemplate, err := provider.Prompt(ctx, domain.PromptUSArticleFilter)
	if err != nil {
		return fmt.Errorf("resolve filter prompt: %w", err)
	}
	scriptTemplate, err := provider.Prompt(ctx, domain.PromptExplainerScript)
	if err != nil {
		return fmt.Errorf("resolve script prompt: %w", err)
	}
	oneSheetTemplate, err := provider.Prompt(ctx, domain.PromptOneSheetBriefing)
	if err != nil {
		return fmt.Errorf("resolve one-sheet prompt: %w", err)
	}

	archive, err := db.New(db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close() //nolint:errcheck // best-effort close on exit

	llmClient := llm.NewClient(cfg.LLM, limiter, cfg.Retry.Attempts)

	p := pipeline.New(pipeline.Config{
		Provider:  provider,
		Retriever: scraper.New(scraper.Config{
			BaseURL:    cfg.Provider.BaseURL,
			ArticleURL: cfg.Provider.ArticleURL,
			Timeout:    cfg.Provider.Timeout,
			CutoffDays: cfg.Provider.CutoffDays,
			Attempts:   cfg.Retry.Attempts,
			Delay:      cfg.Retry.Delay,
		}, limiter),
		Filter: llm.NewFilter(llmClient, filterTemplate),
		Dedup:  dedup.New(cfg.Dedup.MinSummaryLength),
		Generator: llm.NewGenerator(llmClient, map[domain.DocumentKind]string{
			domain.ExplainerScript: scriptTemplate,
			domain.OneSheet:        oneSheetTemplate,
		}),
		Store:      store,
		Archive:    archive,
		Exporter:   exporter,
		MaxWorkers: 4,
		Historical: cfg.Dedup.Historical,
		DryRun:     opts.DryRun,
	})

	result, err := p.Run(ctx, date)
	if err != nil {
		return err
	}

	printDocuments(result.Documents)
	log.Printf("[INFO] run complete: %d articles, %s", len(result.Accepted), result.Tracker.Summary())
	return nil
}

// printDocuments echoes the generated documents to stdout, same as the
// run summary operators see in the scheduler's mail
func printDocuments(documents []domain.BriefingDocument) {
	for _, doc := range documents {
		fmt.Printf("\n%s\nGENERATED %s:\n%s\n%s\n%s\n",
			divider, doc.Kind, divider, doc.Body, divider)
	}
}

const divider = "============================================================"

func setupLog(dbg, noColor bool, logFile io.Writer, secrets ...string) {
	out := io.MultiWriter(os.Stdout, logFile)

	logOpts := []lgr.Option{lgr.Out(out), lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = append(logOpts, lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.StackTraceOnError)
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
