package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/pricelens/backend/config"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/catalog"
	"github.com/pricelens/backend/internal/infrastructure/llm"
	"github.com/pricelens/backend/internal/usecase"
	"github.com/pricelens/backend/internal/vocabulary"
)

// options are the command-line flags of the compare tool
type options struct {
	Catalogs  []string `short:"c" long:"catalog" required:"true" description:"Catalog CSV export as store=path (repeatable)"`
	Config    string   `long:"config" env:"PRICELENS_CONFIG" description:"Config file (default: search ., ./config, /etc/pricelens)"`
	Preset    string   `long:"preset" choice:"gated" choice:"balanced" choice:"lenient" description:"Override the configured match preset"`
	Format    string   `short:"f" long:"format" choice:"csv" choice:"json" default:"csv" description:"Output format"`
	Out       string   `short:"o" long:"out" default:"-" description:"Output file, - for stdout"`
	OnlySales bool     `long:"only-sales" description:"Keep only products on sale in at least one store"`
	Debug     bool     `long:"debug" env:"PRICELENS_MATCHING_ENABLE_DEBUG_LOGGING" description:"Log normalization and scoring traces"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("Comparison failed: %v", err)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.LoadFile(opts.Config)
	if err != nil {
		return err
	}
	if opts.Preset != "" {
		cfg.Matching.Preset = opts.Preset
	}
	if opts.Debug {
		cfg.Matching.EnableDebugLogging = true
	}

	policy, err := cfg.Matching.Policy()
	if err != nil {
		return err
	}

	vocab, err := vocabulary.Load(cfg.Vocabulary.Path)
	if err != nil {
		return err
	}

	catalogs, err := readCatalogs(opts.Catalogs)
	if err != nil {
		return err
	}

	var oracle domain.ConfirmationOracle
	if cfg.Oracle.Enabled {
		oracle = llm.NewClient(llm.Config{
			BaseURL:           cfg.Oracle.BaseURL,
			APIKey:            cfg.Oracle.APIKey,
			Model:             cfg.Oracle.Model,
			Timeout:           cfg.Oracle.Timeout,
			RequestsPerSecond: cfg.Oracle.RequestsPerSecond,
		})
	}

	svc, err := usecase.NewComparisonService(nil, usecase.ComparisonServiceConfig{
		Stores:              cfg.Stores,
		Policy:              policy,
		Vocabulary:          vocab,
		FoldDiacritics:      cfg.Matching.FoldDiacritics,
		ExcludeOutOfStock:   cfg.Matching.ExcludeOutOfStock,
		MaxPlausiblePrice:   cfg.Prices.MaxPlausible,
		Oracle:              oracle,
		MinOracleConfidence: cfg.Oracle.MinConfidence,
		Workers:             cfg.Matching.Workers,
		EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
	})
	if err != nil {
		return err
	}

	records, err := svc.Compare(ctx, catalogs)
	if err != nil {
		return err
	}
	if opts.OnlySales {
		records = usecase.FilterOnSale(records)
	}

	out, closeOut, err := openOutput(opts.Out)
	if err != nil {
		return err
	}
	defer closeOut()

	if opts.Format == "json" {
		err = svc.Emitter().WriteJSON(out, records)
	} else {
		err = svc.Emitter().WriteCSV(out, records)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s output: %w", opts.Format, err)
	}

	log.Printf("[COMPARE] Wrote %d records (%s) to %s", len(records), opts.Format, opts.Out)
	return nil
}

// parseCatalogFlag splits "store=path"
func parseCatalogFlag(value string) (store, path string, err error) {
	store, path, ok := strings.Cut(value, "=")
	store, path = strings.TrimSpace(store), strings.TrimSpace(path)
	if !ok || store == "" || path == "" {
		return "", "", fmt.Errorf("%w: catalog %q must look like store=path", domain.ErrInvalidRequest, value)
	}
	return store, path, nil
}

func readCatalogs(values []string) ([]domain.StoreCatalog, error) {
	catalogs := make([]domain.StoreCatalog, 0, len(values))
	for _, v := range values {
		store, path, err := parseCatalogFlag(v)
		if err != nil {
			return nil, err
		}
		c, err := catalog.ReadFile(path, store)
		if err != nil {
			return nil, err
		}
		log.Printf("[CATALOG] %s: %d entries from %s", store, len(c.Entries), path)
		catalogs = append(catalogs, c)
	}
	return catalogs, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close %s: %v", path, err)
		}
	}, nil
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)
}
