package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/cadence/internal/config"
	"github.com/zsiec/cadence/internal/convert"
	"github.com/zsiec/cadence/internal/logger"
	"github.com/zsiec/cadence/internal/server"
	"github.com/zsiec/cadence/internal/video"
	"github.com/zsiec/cadence/internal/y4m"
	"github.com/zsiec/cadence/pkg/version"
)

func main() {
	var (
		configPath  string
		inputPath   string
		outputPath  string
		fps         string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&inputPath, "i", "-", "Input Y4M file (- for stdin)")
	flag.StringVar(&outputPath, "o", "-", "Output Y4M file (- for stdout)")
	flag.StringVar(&fps, "fps", "", "Target frame rate, overrides config (e.g. 50 or 30000/1001)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	// Show version and exit if requested
	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg = config.Default()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if fps != "" {
		cfg.Convert.FPS = fps
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithField("version", version.GetInfo().Short()).Info("Starting Cadence frame rate converter")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	// Start metrics server if enabled
	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics, log)
	}

	if err := run(ctx, cfg, log, inputPath, outputPath); err != nil {
		log.WithError(err).Fatal("Conversion failed")
	}

	log.Info("Conversion complete")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger, inputPath, outputPath string) error {
	in, closeIn, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	reader, err := y4m.NewReader(in)
	if err != nil {
		return fmt.Errorf("opening input stream: %w", err)
	}
	header := reader.Header()

	targetRate, err := video.ParseRational(cfg.Convert.FPS)
	if err != nil {
		return fmt.Errorf("parsing target rate: %w", err)
	}

	conv, err := convert.New(convert.Config{
		TargetRate:        targetRate,
		InterpStart:       cfg.Convert.InterpStart,
		InterpEnd:         cfg.Convert.InterpEnd,
		SceneThreshold:    cfg.Convert.SceneThreshold,
		SceneChangeDetect: cfg.Convert.SceneChangeDetect,
		Workers:           cfg.Convert.Workers,
		PoolSize:          cfg.Convert.FramePoolSize,
	}, header.Format, header.Width, header.Height, header.TimeBase(),
		logger.NewLogrusAdapter(logrus.NewEntry(log)))
	if err != nil {
		return fmt.Errorf("creating converter: %w", err)
	}
	defer conv.Close()

	// The admin server reports live stats for this session.
	if cfg.Server.Enabled {
		srv := server.New(&cfg.Server, log, conv)
		go func() {
			if err := srv.Start(ctx); err != nil {
				log.WithError(err).Error("Admin server error")
			}
		}()
	}

	outHeader := header
	outHeader.FrameRate = targetRate
	writer, err := y4m.NewWriter(out, outHeader)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, err := reader.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}

		outputs, err := conv.Push(frame)
		if werr := writeFrames(writer, outputs); werr != nil {
			return werr
		}
		if err != nil {
			return fmt.Errorf("converting frame: %w", err)
		}
	}

	// Drain the trailing candidate within the final window.
	final, err := conv.Flush()
	if err != nil {
		return fmt.Errorf("flushing: %w", err)
	}
	if final != nil {
		if err := writeFrames(writer, []*video.Frame{final}); err != nil {
			return err
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	stats := conv.Stats()
	logger.WithSession(log, conv.SessionID()).WithFields(logrus.Fields{
		"frames_in":  stats.FramesIn,
		"frames_out": stats.FramesOut,
		"cloned":     stats.Cloned,
		"blended":    stats.Blended,
		"dropped":    stats.Dropped,
		"scene_cuts": stats.SceneCuts,
	}).Info("Session finished")

	return nil
}

func writeFrames(writer *y4m.Writer, frames []*video.Frame) error {
	for _, frame := range frames {
		err := writer.WriteFrame(frame)
		frame.Release()
		if err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
	}
	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// startMetricsServer starts the Prometheus metrics server
func startMetricsServer(cfg config.MetricsConfig, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	entry := logger.WithComponent(log, "metrics")
	addr := fmt.Sprintf(":%d", cfg.Port)
	entry.WithField("addr", addr).Info("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		entry.WithError(err).Error("Metrics server error")
	}
}
