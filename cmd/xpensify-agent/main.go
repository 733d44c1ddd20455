package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/xpensify-agent/internal/claim"
	"github.com/zombor/xpensify-agent/internal/config"
	"github.com/zombor/xpensify-agent/internal/console"
	"github.com/zombor/xpensify-agent/internal/receipt"
	"github.com/zombor/xpensify-agent/internal/scanning"
	"github.com/zombor/xpensify-agent/internal/xpensify"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", cfg.Usage())
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if cfg.ShowVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", cfg.Usage())
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A second signal falls through to the default handler and kills the process
	go func() {
		<-ctx.Done()
		stop()
	}()

	// A failed run has already been reported and rolled back; the process still exits normally
	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		slog.Debug("Run ended with failure", "error", err)
	}
}

// run wires the components and processes the receipts folder into one claim.
// Progress and the final report go to out; project selection reads from in.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	printer := console.NewPrinter(out)

	// Initialize extractor based on type
	var extractor scanning.Extractor
	var err error
	switch cfg.Extractor {
	case config.ExtractorGemini:
		slog.Info("Initializing Gemini extractor...", "url", cfg.GeminiURL, "model", cfg.GeminiModel)
		extractor, err = scanning.NewGemini(cfg.GeminiURL, cfg.GeminiKey, cfg.GeminiModel, httpClient)
	case config.ExtractorGenAI:
		slog.Info("Initializing GenAI extractor...", "model", cfg.GeminiModel)
		extractor, err = scanning.NewGenAI(ctx, cfg.GeminiKey, cfg.GeminiModel)
	default:
		err = fmt.Errorf("%w %q", config.ErrInvalidExtractor, cfg.Extractor)
	}
	if err != nil {
		slog.Error("Failed to initialize extractor", "type", cfg.Extractor, "error", err)
		printer.Failure(err)
		return err
	}
	extractor = scanning.NewThrottled(extractor, cfg.RateLimitDelay)
	defer extractor.Close()

	api := xpensify.NewClient(cfg.BaseURL, cfg.MemberToken, httpClient)
	runner := claim.NewRunner(
		claim.NewService(api),
		extractor,
		receipt.NewFolder(cfg.ReceiptsDir),
		console.NewSelector(in, out),
		printer,
		cfg.AppURL,
	)

	result, err := runner.Run(ctx, cfg.ClaimTitle)
	if err != nil {
		printer.Failure(err)
		return err
	}

	printer.Summary(result)
	return nil
}
