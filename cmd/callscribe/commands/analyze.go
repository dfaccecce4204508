package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jorikfon/TranscribeIt-sub001/internal/audio"
	"github.com/jorikfon/TranscribeIt-sub001/internal/cache"
	"github.com/jorikfon/TranscribeIt-sub001/internal/metrics"
	"github.com/jorikfon/TranscribeIt-sub001/internal/pipeline"
	"github.com/jorikfon/TranscribeIt-sub001/internal/transcription"
)

var (
	metricsAddr string
	exportDir   string
	compact     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <recording.wav>",
	Short: "Analyze a call recording",
	Long: `Analyze a stereo call recording: run voice activity detection per
channel, build the chronological speaker turn sequence, and compute the
compressed display timeline. The result is printed as JSON.

When a recognition endpoint is configured, each turn is transcribed and
the text is included in the output.

Examples:
  callscribe analyze call.wav
  callscribe -c configs/config.yaml analyze call.wav
  callscribe analyze --export-dir turns/ call.wav
  callscribe analyze --metrics-addr 127.0.0.1:9091 call.wav`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger := initLogger(cfg.Logging)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var mets *metrics.Metrics
		if metricsAddr != "" {
			mets = metrics.NewMetrics()

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			metricsServer := &http.Server{Addr: metricsAddr, Handler: mux}

			go func() {
				if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Metrics server failed", slog.String("error", err.Error()))
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				metricsServer.Shutdown(shutdownCtx)
			}()

			logger.Info("Metrics server started", slog.String("address", metricsAddr))
		}

		sampleCache, err := cache.New(cache.Config{
			MaxAge:     cfg.Cache.GetMaxAge(),
			MaxEntries: cfg.Cache.MaxEntries,
			MaxBytes:   cfg.Cache.MaxBytes,
		}, cache.DecodeFunc(audio.ReadFile), logger, mets)
		if err != nil {
			return fmt.Errorf("failed to create sample cache: %w", err)
		}

		rec, err := sampleCache.Get(args[0])
		if err != nil {
			return fmt.Errorf("failed to load recording: %w", err)
		}

		p, err := pipeline.New(cfg, logger, mets)
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}

		result, err := p.Process(ctx, rec)
		if err != nil {
			return err
		}

		if cfg.Transcription.Enabled() {
			client, err := transcription.NewClient(transcription.Config{
				Endpoint:   cfg.Transcription.Endpoint,
				APIKey:     cfg.Transcription.APIKey,
				Timeout:    cfg.Transcription.GetTimeout(),
				MaxRetries: cfg.Transcription.MaxRetries,
				Language:   cfg.Transcription.Language,
				Model:      cfg.Transcription.Model,
			})
			if err != nil {
				return fmt.Errorf("failed to create recognition client: %w", err)
			}

			if err := p.Transcribe(ctx, result, client); err != nil {
				return fmt.Errorf("recognition failed: %w", err)
			}
		}

		if exportDir != "" {
			if err := exportTurns(result, exportDir); err != nil {
				return err
			}
			logger.Info("Turn audio exported",
				slog.String("dir", exportDir),
				slog.Int("turns", len(result.Turns)),
			)
		}

		return printResult(result)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address during the run")
	analyzeCmd.Flags().StringVar(&exportDir, "export-dir", "", "Write each turn as a WAV file into this directory")
	analyzeCmd.Flags().BoolVar(&compact, "compact", false, "Print compact JSON instead of indented")
}

// exportTurns writes every turn's audio as a mono WAV file for spot-checking.
func exportTurns(result *pipeline.Result, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	for i, turn := range result.Turns {
		if len(turn.Samples) == 0 {
			continue
		}

		name := fmt.Sprintf("turn_%03d_%s.wav", i, turn.Speaker)
		if err := audio.WriteFile(filepath.Join(dir, name), turn.Samples, result.SampleRate); err != nil {
			return fmt.Errorf("failed to export turn %d: %w", i, err)
		}
	}

	return nil
}

func printResult(result *pipeline.Result) error {
	enc := json.NewEncoder(os.Stdout)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
