// Package main is the entry point for the nyx gesture daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nyxhci/nyx/internal/appconfig"
	"github.com/nyxhci/nyx/internal/executor"
	"github.com/nyxhci/nyx/internal/executor/script"
	"github.com/nyxhci/nyx/internal/logging"
	"github.com/nyxhci/nyx/internal/pipeline"
	"github.com/nyxhci/nyx/internal/profile"
	"github.com/nyxhci/nyx/internal/profile/loader"
	"github.com/nyxhci/nyx/internal/profile/watcher"
	"github.com/nyxhci/nyx/internal/source/ws"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	configPath  string
	profilePath string
	logLevel    string
	check       bool
	showVersion bool
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to daemon configuration file")
	flag.StringVar(&opts.profilePath, "profile", "", "path to profile document (overrides config)")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.BoolVar(&opts.check, "check", false, "validate the profile document and exit")
	flag.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	flag.Parse()
	return opts
}

func run() int {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("nyxd %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := appconfig.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.profilePath != "" {
		cfg.ProfilePath = opts.profilePath
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.check {
		return checkProfile(cfg.ProfilePath)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer log.Sync()

	return serve(cfg, log)
}

// checkProfile validates a profile document and reports skipped
// entries without starting the daemon.
func checkProfile(path string) int {
	doc, err := loader.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	_, verrs := profile.NewRuntime(doc)
	for _, ve := range verrs {
		fmt.Fprintf(os.Stderr, "warning: %v\n", ve)
	}
	fmt.Printf("%s: ok (%d gestures, %d voice commands, %d entries skipped)\n",
		doc.ProfileName, len(doc.Gestures), len(doc.VoiceCommands), len(verrs))
	if len(verrs) > 0 {
		return 2
	}
	return 0
}

func serve(cfg appconfig.Config, log *zap.Logger) int {
	doc, err := loader.Load(cfg.ProfilePath)
	if err != nil {
		log.Error("profile load failed", zap.Error(err))
		return 1
	}
	rt, verrs := profile.NewRuntime(doc, profile.WithLogger(log))
	for _, ve := range verrs {
		log.Warn("profile entry skipped", zap.String("entry", ve.Entry), zap.String("field", ve.Field))
	}

	in := pipeline.New(rt, pipeline.Config{
		DetectionQueueSize: cfg.Pipeline.DetectionQueueSize,
		GestureQueueSize:   cfg.Pipeline.GestureQueueSize,
		ActionQueueSize:    cfg.Pipeline.ActionQueueSize,
		SendTimeout:        cfg.Pipeline.SendTimeout(),
		MaxGestureAge:      cfg.Pipeline.MaxGestureAge(),
		FusionEnabled:      cfg.Pipeline.FusionEnabled,
		DebounceEnabled:    cfg.Pipeline.DebounceEnabled,
	}, pipeline.WithLogger(log))
	in.SetFusionWindow(cfg.Pipeline.FusionWindow())
	in.SetDebounceWindow(cfg.Pipeline.DebounceWindow())

	if cfg.DetectorURL != "" {
		src := ws.New("remote", cfg.DetectorURL, ws.WithLogger(log))
		if err := in.RegisterDetector(src); err != nil {
			log.Error("detector registration failed", zap.Error(err))
			return 1
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := in.Start(ctx); err != nil {
		log.Error("pipeline start failed", zap.Error(err))
		return 1
	}
	defer in.Stop()

	engine := script.NewEngine(
		script.WithTimeout(cfg.Pipeline.ScriptTimeout()),
		script.WithLogger(log))
	runner := executor.NewRunner(executor.WithLogger(log))
	runner.Register("script", engine)
	runner.Start(ctx, in.Actions())
	defer runner.Wait()

	var w *watcher.Watcher
	if cfg.WatchProfile {
		w, err = watcher.New(cfg.ProfilePath, rt, watcher.WithLogger(log))
		if err != nil {
			log.Warn("profile watch unavailable", zap.Error(err))
		} else {
			if err := w.Start(); err == nil {
				defer w.Close()
			}
		}
	}

	log.Info("nyxd running",
		zap.String("version", version),
		zap.String("profile", rt.Name()),
		zap.String("path", cfg.ProfilePath))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case sig := <-signals:
			log.Info("shutting down", zap.String("signal", sig.String()))
			cancel()
			return 0
		case <-ticker.C:
			s := in.Stats()
			if s.Overflows() > 0 {
				log.Warn("pipeline degraded",
					zap.Uint64("overflows", s.Overflows()),
					zap.Uint64("authorized", s.Authorized),
					zap.Uint64("suppressed", s.Suppressed))
			}
		}
	}
}
