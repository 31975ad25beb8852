package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/lixenwraith/sketchwall/asset"
	"github.com/lixenwraith/sketchwall/audio"
	"github.com/lixenwraith/sketchwall/config"
	"github.com/lixenwraith/sketchwall/core"
	"github.com/lixenwraith/sketchwall/engine"
	"github.com/lixenwraith/sketchwall/ingest"
	"github.com/lixenwraith/sketchwall/render"
	"github.com/lixenwraith/sketchwall/service"
	"github.com/lixenwraith/sketchwall/status"
	"github.com/lixenwraith/sketchwall/terminal"
	"github.com/lixenwraith/sketchwall/vmath"
)

var (
	configPath     = flag.String("config", "", "Config file (.toml, .yaml)")
	variantFlag    = flag.String("variant", "", "Engine variant: flock, drift")
	debugFlag      = flag.Bool("debug", false, "Enable debug logging to the log file")
	colorModeFlag  = flag.String("color", "", "Color mode: auto, truecolor, 256")
	watchFlag      = flag.String("watch", "", "Directory polled for new images")
	stdinFlag      = flag.Bool("stdin", false, "Read JSON line arrivals from stdin")
	backgroundFlag = flag.String("background", "", "Background frame directory, GIF or image")
	profileFlag    = flag.String("profile", "", "Profile mode: cpu, mem, trace")
	snapshotFlag   = flag.String("snapshot", "", "Write the last frame as PNG on exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath, *variantFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if p := startProfile(*profileFlag); p != nil {
		defer p.Stop()
	}

	if err := run(cfg, log); err != nil {
		log.Error("sketchwall failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "sketchwall: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags overrides file settings with explicitly set flags
func applyFlags(cfg *config.Config) {
	if *debugFlag {
		cfg.Logging.Enabled = true
		cfg.Logging.Level = "debug"
	}
	if *colorModeFlag != "" {
		cfg.Render.Color = *colorModeFlag
	}
	if *watchFlag != "" {
		cfg.Ingest.WatchDir = *watchFlag
	}
	if *stdinFlag {
		cfg.Ingest.Stdin = true
	}
	if *backgroundFlag != "" {
		cfg.Background.Path = *backgroundFlag
	}
}

func startProfile(mode string) interface{ Stop() } {
	opts := []func(*profile.Profile){profile.ProfilePath("."), profile.NoShutdownHook}
	switch mode {
	case "cpu":
		return profile.Start(append(opts, profile.CPUProfile)...)
	case "mem":
		return profile.Start(append(opts, profile.MemProfileAllocs)...)
	case "trace":
		return profile.Start(append(opts, profile.TraceProfile)...)
	}
	return nil
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := vmath.NewFastRand(uint64(seed))

	compOpts, err := cfg.CompositorOptions()
	if err != nil {
		return err
	}
	colorMode, err := terminal.ParseColorMode(cfg.Render.Color)
	if err != nil {
		return err
	}

	screen, err := terminal.OpenScreen()
	if err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	reg := status.NewRegistry()
	var presenter render.Presenter = terminal.NewPresenter(screen, colorMode, reg, cfg.Render.HUD)
	if *snapshotFlag != "" {
		presenter = render.Multi{presenter, render.Snapshot{Path: *snapshotFlag}}
	}

	var background asset.Background = asset.NoBackground{}
	if cfg.Background.Path != "" {
		loop := asset.NewFrameLoop(cfg.Background.Path, cfg.Background.FPS, cfg.Engine.MaxDimension, log)
		loop.Load(ctx)
		background = loop
	}

	eng := engine.New(engine.Options{
		Capacity:      cfg.Engine.Capacity,
		CellSize:      cfg.Flock.CellSize,
		MaxFrameDelta: cfg.Engine.MaxFrameDelta,
		DecodeWorkers: cfg.Engine.DecodeWorkers,
		DecodeTimeout: cfg.Engine.DecodeTimeout,
		Seed:          rng.Next(),
		Strategy:      cfg.Strategy(seed, rng),
		Decoder:       asset.NewImageDecoder(cfg.Engine.MaxDimension),
		Background:    background,
		Compositor:    render.NewCompositor(compOpts),
		Presenter:     presenter,
		Frames:        engine.NewTickerSource(cfg.Engine.FrameInterval),
		Registry:      reg,
	}, log)

	var services []service.Service
	engineDeps := []string(nil)
	if cfg.Audio.Enabled {
		chimes := audio.NewChimeManager(cfg.Audio.SampleRate, cfg.Audio.Volume, log)
		eng.Register(chimes)
		engineDeps = append(engineDeps, "audio")
		services = append(services, service.Func{
			ID: "audio",
			OnStart: func(context.Context) error {
				if err := chimes.Initialize(); err != nil {
					// Non-fatal, the wall runs without sound
					log.Warn("audio unavailable", zap.Error(err))
				}
				return nil
			},
			OnStop: func() error { chimes.Cleanup(); return nil },
		})
	}

	services = append(services, service.Func{
		ID:   "engine",
		Deps: engineDeps,
		OnStart: func(context.Context) error {
			eng.Start()
			return nil
		},
		OnStop: func() error { eng.Stop(); return nil },
	})

	pump := terminal.NewPump(screen, eng, log)
	services = append(services, service.Func{
		ID:      "terminal",
		Deps:    []string{"engine"},
		OnStart: func(context.Context) error { pump.Start(); return nil },
	})

	if cfg.Ingest.Stdin {
		lines := ingest.NewLineReader(os.Stdin, eng, log)
		services = append(services, ingestService("ingest.stdin", lines.Run, log))
	}
	if cfg.Ingest.WatchDir != "" {
		watcher := ingest.NewDirWatcher(cfg.Ingest.WatchDir, cfg.Ingest.PollInterval, eng, log)
		services = append(services, ingestService("ingest.watch", watcher.Run, log))
	}

	log.Info("starting",
		zap.String("variant", cfg.Engine.Variant),
		zap.Int("capacity", cfg.Engine.Capacity),
		zap.String("color", colorMode.String()),
		zap.Int64("seed", seed))
	hub := service.NewHub(log)
	if err := hub.RegisterAll(services...); err != nil {
		eng.Stop()
		return err
	}
	if err := hub.StartAll(ctx); err != nil {
		eng.Stop()
		return err
	}

	select {
	case <-ctx.Done():
	case <-pump.Quit():
	case <-eng.Done():
	}
	stop()
	hub.StopAll()
	return nil
}

// ingestService runs an ingest source until ctx ends; any other exit is logged
func ingestService(id string, run func(ctx context.Context) error, log *zap.Logger) service.Func {
	return service.Func{
		ID:   id,
		Deps: []string{"engine"},
		OnStart: func(ctx context.Context) error {
			core.Go(func() {
				if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn("ingest stopped", zap.String("source", id), zap.Error(err))
				}
			})
			return nil
		},
	}
}
