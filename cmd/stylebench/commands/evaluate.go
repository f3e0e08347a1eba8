package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-estilo/algorithms/stats"
	"github.com/RyanBlaney/sonido-estilo/dataset"
	"github.com/RyanBlaney/sonido-estilo/fingerprint"
	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/logging"
	"github.com/RyanBlaney/sonido-estilo/metrics"
	"github.com/RyanBlaney/sonido-estilo/transcode"
)

var evalFlags struct {
	train       string
	test        string
	audioRoot   string
	metric      string
	normalize   bool
	cache       bool
	workers     int
	noFFmpeg    bool
	ffmpegPath  string
	maxDuration time.Duration
	table       bool
	metricsAddr string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Train on one manifest and report accuracy on another",
	Long: `Train a nearest-neighbour recognizer on the clips of the --train manifest,
then classify every clip of the --test manifest and print the accuracy, the
distance metric and the confusion matrix.`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evalFlags.train, "train", "", "training manifest CSV (required)")
	f.StringVar(&evalFlags.test, "test", "", "test manifest CSV (required)")
	f.StringVar(&evalFlags.audioRoot, "audio-root", "", "directory relative clip paths resolve against (default: each manifest's directory)")
	f.StringVar(&evalFlags.metric, "metric", "", "distance metric: euclidean, squared_euclidean, cosine, manhattan")
	f.BoolVar(&evalFlags.normalize, "normalize", false, "L2-normalise embeddings before matching")
	f.BoolVar(&evalFlags.cache, "cache", false, "memoise embeddings for clips shared between manifests")
	f.IntVar(&evalFlags.workers, "workers", 0, "clips embedded concurrently (default GOMAXPROCS)")
	f.BoolVar(&evalFlags.noFFmpeg, "no-ffmpeg", false, "decode WAV only")
	f.StringVar(&evalFlags.ffmpegPath, "ffmpeg-path", "", "ffmpeg binary (default: ffmpeg on PATH)")
	f.DurationVar(&evalFlags.maxDuration, "max-duration", 0, "truncate clips longer than this")
	f.BoolVar(&evalFlags.table, "table", false, "render the confusion matrix as a table")
	f.StringVar(&evalFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	evaluateCmd.MarkFlagRequired("train")
	evaluateCmd.MarkFlagRequired("test")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyEvaluateFlags(cmd, cfg)
	if logLevel == "" && cfg.Log.Level != "" {
		logging.SetLevel(logging.ParseLevel(cfg.Log.Level))
	}

	logger := logging.WithFields(logging.Fields{
		"component": "stylebench",
		"function":  "evaluate",
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.NewMetrics(reg)

	if evalFlags.metricsAddr != "" {
		srv := serveMetrics(evalFlags.metricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.TargetSampleRate = cfg.Feature.SampleRate
	decoderConfig.MaxDuration = evalFlags.maxDuration
	decoderConfig.DisableFFmpeg = evalFlags.noFFmpeg
	if evalFlags.ffmpegPath != "" {
		decoderConfig.FFmpegPath = evalFlags.ffmpegPath
	}
	decoder := transcode.NewDecoder(decoderConfig)
	if err := decoder.ValidateConfig(); err != nil {
		return err
	}
	if !evalFlags.noFFmpeg {
		if err := decoder.CheckFFmpeg(ctx); err != nil {
			logger.Error(err, "FFmpeg preflight failed")
			return fmt.Errorf("%w (pass --no-ffmpeg to decode WAV only)", err)
		}
	}

	trainSet, err := loadSplit(ctx, evalFlags.train, decoder)
	if err != nil {
		return fmt.Errorf("training set: %w", err)
	}
	testSet, err := loadSplit(ctx, evalFlags.test, decoder)
	if err != nil {
		return fmt.Errorf("test set: %w", err)
	}

	pipeline, err := fingerprint.NewPipeline(cfg, m)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	start := time.Now()
	if err := pipeline.Train(ctx, trainSet); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	report, err := pipeline.Evaluate(ctx, testSet)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	logger.Info("Evaluation complete", logging.Fields{
		"train_samples": len(trainSet),
		"test_samples":  len(testSet),
		"accuracy":      report.Accuracy,
		"elapsed":       time.Since(start).String(),
	})

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.String())
	if evalFlags.table {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderConfusionTable(report.Confusion))
	}
	return nil
}

// applyEvaluateFlags overrides config values with explicitly set flags
func applyEvaluateFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("metric") {
		cfg.Recognizer.Metric = stats.DistanceMetric(evalFlags.metric)
	}
	if flags.Changed("normalize") {
		cfg.Recognizer.Normalize = evalFlags.normalize
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = evalFlags.cache
	}
	if flags.Changed("workers") {
		cfg.Feature.Workers = evalFlags.workers
	}
}

func loadSplit(ctx context.Context, manifest string, decoder *transcode.Decoder) ([]dataset.LabelledWaveform, error) {
	ds, err := dataset.LoadManifest(manifest, evalFlags.audioRoot)
	if err != nil {
		return nil, err
	}
	return ds.Load(ctx, decoder)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving metrics", logging.Fields{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "Metrics server failed")
		}
	}()
	return srv
}
