package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"glidecomp/internal/api"
	"glidecomp/pkg/config"
	"glidecomp/pkg/core"
	"glidecomp/pkg/db"
	"glidecomp/pkg/db/maintenance"
	"glidecomp/pkg/logging"
	"glidecomp/pkg/olc"
	"glidecomp/pkg/polar"
	"glidecomp/pkg/probe"
	"glidecomp/pkg/sim"
	"glidecomp/pkg/sim/mocksim"
	"glidecomp/pkg/store"
	"glidecomp/pkg/tracker"
	"glidecomp/pkg/version"
)

const defaultConfigPath = "configs/glidecomp.yaml"

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
)

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("GlideComp Started", "version", version.Version, "rule", appCfg.OLC.Rule, "handicap", appCfg.OLC.Handicap)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := maintenance.Run(ctx, st, dbConn, time.Duration(appCfg.OLC.CheckpointMaxAge)); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	cfgProv := config.NewProvider(appCfg, st)

	glidePolar, err := polar.New(appCfg.Polar.Points[0], appCfg.Polar.Points[1], appCfg.Polar.Points[2])
	if err != nil {
		return fmt.Errorf("failed to build glide polar: %w", err)
	}

	if err := probe.AnalyzeResults(probe.Run(ctx, []probe.Probe{
		probe.Database(dbConn),
		probe.Polar(glidePolar),
	})); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	engine, err := initEngine(ctx, cfgProv, glidePolar)
	if err != nil {
		return err
	}

	simClient, err := initializeSimClient(ctx, cfgProv, glidePolar)
	if err != nil {
		return fmt.Errorf("failed to initialize sim client: %w", err)
	}
	defer simClient.Close()

	tr := tracker.New()
	flight := core.NewFlight()

	// API handlers (telemetry must exist before the scheduler to receive updates)
	telH := api.NewTelemetryHandler(flight)
	hub := api.NewStreamHub(engine)

	sched := core.NewScheduler(cfgProv, simClient, telH)
	if appCfg.OLC.Enabled {
		sched.AddJob(core.NewCheckpointRestorationJob(st, engine, flight, time.Duration(appCfg.OLC.CheckpointMaxAge)))
		sched.AddJob(core.NewIngestionJob(cfgProv, engine, flight))
		sched.AddJob(core.NewScoringJob(ctx, cfgProv, engine, flight, tr, hub))
		sched.AddJob(core.NewLandingJob(core.NewFlightDebriefer(engine, flight, st)))
		core.NewCheckpointPersistenceJob(st, engine, flight, time.Duration(appCfg.OLC.CheckpointInterval)).Start(ctx)
	} else {
		slog.Warn("OLC scoring disabled in config")
	}

	// Only the mock glider has an adjustable clock
	scaler, _ := simClient.(api.TimeScaler)

	srv := api.NewServer(appCfg.Server.Address, api.Handlers{
		Telemetry: telH,
		OLC:       api.NewOLCHandler(engine, flight, tr),
		Settings:  api.NewSettingsHandler(cfgProv, engine, scaler),
		Stats:     api.NewStatsHandler(tr),
		Stream:    hub,
	}, cancel)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		sched.Start(egCtx)
		return nil
	})
	eg.Go(func() error {
		return runServerLifecycle(egCtx, srv, time.Duration(appCfg.Server.ShutdownTimeout))
	})

	err = eg.Wait()
	slog.Info("GlideComp stopped")
	return err
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

// initEngine builds the optimizer from the file config and the runtime overrides.
func initEngine(ctx context.Context, cfgProv config.Provider, p *polar.Polar) (*olc.Engine, error) {
	appCfg := cfgProv.AppConfig()
	settings := olc.DefaultSettings()
	settings.Capacity = appCfg.OLC.MaxPoints
	settings.SprintWindow = time.Duration(appCfg.OLC.SprintWindow)
	settings.Handicap = cfgProv.Handicap(ctx)

	rule, err := olc.ParseRule(cfgProv.OLCRule(ctx))
	if err != nil {
		slog.Warn("Ignoring stored contest rule", "error", err)
		rule, _ = olc.ParseRule(appCfg.OLC.Rule)
	}
	settings.Rule = rule

	engine, err := olc.NewEngine(settings, p, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create scoring engine: %w", err)
	}
	slog.Info("Scoring engine ready", "rule", settings.Rule, "handicap", settings.Handicap, "capacity", settings.Capacity)
	return engine, nil
}

func initializeSimClient(ctx context.Context, cfgProv config.Provider, p *polar.Polar) (sim.Client, error) {
	switch src := cfgProv.SimProvider(ctx); src {
	case "mock":
		m := cfgProv.AppConfig().Sim.Mock
		heading := m.StartHeading
		slog.Info("Using Mock Glider", "time_scale", cfgProv.MockTimeScale(ctx))
		return mocksim.NewClient(mocksim.Config{
			StartLat:       m.StartLat,
			StartLon:       m.StartLon,
			StartAlt:       m.StartAlt,
			StartHeading:   &heading,
			DurationParked: time.Duration(m.DurationParked),
			ReleaseAlt:     m.ReleaseAlt,
			CloudBase:      m.CloudBase,
			ThermalClimb:   m.ThermalClimb,
			CruiseSpeed:    float64(m.CruiseSpeed),
			LegLength:      float64(m.LegLength),
			TimeScale:      cfgProv.MockTimeScale(ctx),
			Polar:          p,
		}), nil
	default:
		return nil, fmt.Errorf("unknown sim provider %q", src)
	}
}

func runServerLifecycle(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
