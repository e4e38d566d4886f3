package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/quotewise/quote-engine/pkg/cache"
	"github.com/quotewise/quote-engine/pkg/config"
	"github.com/quotewise/quote-engine/pkg/jsonutil"
	"github.com/quotewise/quote-engine/pkg/llm"
	"github.com/quotewise/quote-engine/pkg/logging"
	"github.com/quotewise/quote-engine/pkg/models"
	"github.com/quotewise/quote-engine/pkg/modelrate"
	"github.com/quotewise/quote-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

// quoteFile is the on-disk shape of one supplier quote. Rates and totals
// tolerate the currency-formatted strings spreadsheet exports produce.
type quoteFile struct {
	Supplier string `json:"supplier"`
	Items    []struct {
		models.LineItem
		Quantity jsonutil.FlexibleFloat `json:"quantity"`
		Rate     jsonutil.FlexibleFloat `json:"rate"`
		Total    jsonutil.FlexibleFloat `json:"total"`
	} `json:"items"`
}

func main() {
	mode := flag.String("mode", "", "equalisation mode override (MODEL or PEER_MEDIAN)")
	output := flag.String("output", "", "write the full result JSON to this file instead of stdout")
	flag.Parse()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("quote-engine starting",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("equalisation_mode", cfg.Equalisation.Mode),
		zap.String("remote_matcher", logging.SanitizeEndpoint(cfg.RemoteMatcher.Endpoint)))

	if flag.NArg() < 2 {
		logger.Fatal("need at least two quote files",
			zap.Int("got", flag.NArg()),
			zap.String("usage", "quote-engine [flags] quote1.json quote2.json [quote3.json ...]"))
	}
	if flag.NArg() > 5 {
		logger.Fatal("at most five quotes can be compared", zap.Int("got", flag.NArg()))
	}

	quotes := make([]models.SupplierQuote, 0, flag.NArg())
	for _, path := range flag.Args() {
		quote, err := loadQuote(path)
		if err != nil {
			logger.Fatal("failed to load quote", zap.String("path", path), zap.Error(err))
		}
		logger.Info("loaded quote",
			zap.String("supplier", quote.Supplier),
			zap.Int("items", len(quote.Items)))
		quotes = append(quotes, quote)
	}

	ctx := context.Background()
	pipeline, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}

	eqMode := models.EqualisationMode(cfg.Equalisation.Mode)
	if *mode != "" {
		eqMode = models.EqualisationMode(*mode)
	}

	result := pipeline.Run(ctx, quotes, eqMode)

	logger.Info("reconciliation complete",
		zap.Int("rows", len(result.Rows)),
		zap.Int("fills", len(result.Equalisation.EqualisationLog)),
		zap.String("confidence", string(result.Award.Confidence)))

	if err := writeResult(result, *output); err != nil {
		logger.Fatal("failed to write result", zap.Error(err))
	}
}

func buildPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*services.Pipeline, error) {
	observer := services.NewZapObserver(logger)

	var remote services.MatchStrategy
	if cfg.RemoteMatcher.Enabled() {
		client, err := llm.NewClient(&llm.Config{
			Endpoint: cfg.RemoteMatcher.Endpoint,
			Model:    cfg.RemoteMatcher.Model,
			APIKey:   cfg.RemoteMatcher.APIKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("remote matcher client: %w", err)
		}

		var store cache.Store = cache.NoopStore{}
		if cfg.Redis.Enabled() {
			redisStore, err := cache.NewRedisStore(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, logger)
			if err != nil {
				// Caching is an optimisation; run uncached rather than fail.
				logger.Warn("redis unavailable, match caching disabled", zap.Error(err))
			} else {
				store = redisStore
			}
		}

		limiter := rate.NewLimiter(rate.Limit(cfg.RemoteMatcher.RateLimit), cfg.RemoteMatcher.RateBurst)
		remote = services.NewRemoteStrategy(client, cfg.RemoteMatcher.Temperature, limiter, store, logger)
	}

	var provider modelrate.Provider
	switch cfg.ModelRates.Source {
	case "api":
		provider = modelrate.NewHTTPProvider(cfg.ModelRates.APIBaseURL, logger)
	default:
		if cfg.ModelRates.CSVPath == "" {
			logger.Warn("no model rate library configured, variance flags will be NA")
			provider = modelrate.NewTable(nil, logger)
		} else {
			table, err := modelrate.LoadCSV(cfg.ModelRates.CSVPath, logger)
			if err != nil {
				return nil, fmt.Errorf("model rate library: %w", err)
			}
			provider = table
		}
	}

	matcher := services.NewMatcher(remote, cfg.Matcher, observer, logger)

	return services.NewPipeline(
		services.NewComparisonService(matcher, cfg.Matcher.MaxConcurrent, observer, logger),
		services.NewModelRateService(provider, logger),
		services.NewEqualisationService(observer, logger),
		services.NewAwardService(cfg.Matcher.LowConfidenceThreshold, logger),
		logger,
	), nil
}

func loadQuote(path string) (models.SupplierQuote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.SupplierQuote{}, err
	}

	var file quoteFile
	if err := json.Unmarshal(data, &file); err != nil {
		return models.SupplierQuote{}, fmt.Errorf("invalid quote file: %w", err)
	}

	quote := models.SupplierQuote{
		Supplier: file.Supplier,
		Items:    make([]*models.LineItem, 0, len(file.Items)),
	}
	for i := range file.Items {
		item := file.Items[i].LineItem
		item.Quantity = float64(file.Items[i].Quantity)
		item.Rate = float64(file.Items[i].Rate)
		item.Total = float64(file.Items[i].Total)
		if item.Supplier == "" {
			item.Supplier = file.Supplier
		}
		if item.Total == 0 && item.Quantity > 0 && item.Rate > 0 {
			item.Total = item.Quantity * item.Rate
		}
		quote.Items = append(quote.Items, &item)
	}

	return quote, nil
}

func writeResult(result services.PipelineResult, path string) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	if path == "" {
		_, err = os.Stdout.Write(append(payload, '\n'))
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
