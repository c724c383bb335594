package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"echowipe/internal/config"
	"echowipe/internal/detector"
	"echowipe/internal/domain"
	"echowipe/internal/service"
)

type options struct {
	mode    string
	url     string
	timeout time.Duration
	asJSON  bool
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "detect_check <audio>...",
		Short:        "Classify audio files with the configured detector",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "", "detector backend (process|http), overrides DETECTOR_MODE")
	cmd.Flags().StringVar(&opts.url, "url", "", "detector service URL, overrides DETECTOR_URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "per-file timeout, overrides DETECTOR_TIMEOUT_SECONDS")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print one JSON object per file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log classifier diagnostics")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options, files []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadDetectorConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.mode != "" {
		cfg.DetectorMode = opts.mode
	}
	if opts.url != "" {
		cfg.DetectorURL = opts.url
	}
	timeout := cfg.DetectorTimeout()
	if opts.timeout > 0 {
		timeout = opts.timeout
	}

	logger := zap.NewNop()
	if opts.verbose {
		logger, _ = zap.NewDevelopment()
		defer logger.Sync()
	}

	classifier, err := detector.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	scratch, err := os.MkdirTemp("", "detect_check-*")
	if err != nil {
		return fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	svc, err := service.NewDetectionService(logger, classifier, scratch, timeout)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range files {
		res, err := detectFile(ctx, svc, path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: ERROR %v\n", path, err)
			continue
		}
		if err := printResult(out, path, res, opts.asJSON); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func detectFile(ctx context.Context, svc *service.DetectionService, path string) (domain.DetectionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.DetectionResult{}, err
	}
	defer f.Close()
	return svc.Detect(ctx, filepath.Base(path), f)
}

func printResult(out io.Writer, path string, res domain.DetectionResult, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(out).Encode(struct {
			File string `json:"file"`
			domain.DetectionResult
		}{File: path, DetectionResult: res})
	}
	_, err := fmt.Fprintf(out, "%s: %s fake=%.6f real=%.6f\n", path, res.Label, res.Fake, res.Real)
	return err
}
