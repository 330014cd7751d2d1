package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wherecode/command-console/internal/config"
	"github.com/wherecode/command-console/internal/console"
	"github.com/wherecode/command-console/internal/feed"
	"github.com/wherecode/command-console/internal/health"
	"github.com/wherecode/command-console/internal/hierarchy"
	"github.com/wherecode/command-console/internal/lifecycle"
	"github.com/wherecode/command-console/internal/metrics"
	"github.com/wherecode/command-console/internal/notify"
	"github.com/wherecode/command-console/internal/presets"
	"github.com/wherecode/command-console/internal/retry"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("control_center", cfg.ControlCenterURL).
		Str("listen_addr", cfg.ConsoleListenAddr).
		Dur("poll_interval", cfg.PollInterval).
		Msg("starting command console")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Control center client
	client := hierarchy.NewClient(cfg.ControlCenterURL, cfg.ControlCenterToken, cfg.RequestTimeout, logger)

	// Probe the control center before serving. Transient failures are
	// retried; the console still starts when the upstream stays down, with
	// readiness reporting the outage.
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 30*time.Second)
	if err := retry.Do(probeCtx, retry.DefaultConfig(), func(ctx context.Context) error {
		_, err := client.Healthz(ctx)
		return err
	}); err != nil {
		logger.Warn().Err(err).Msg("control center unreachable at startup")
	}
	cancelProbe()

	// Health checker + prober
	checker := health.NewChecker(logger)
	checker.Register("control_center", func(ctx context.Context) health.Status {
		if _, err := client.Healthz(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})
	checker.Register("action_layer", func(ctx context.Context) health.Status {
		if _, err := client.ActionLayerHealth(ctx); err != nil {
			// The control center can be up while the action layer is not.
			return health.StatusDegraded
		}
		return health.StatusOK
	})
	prober := health.NewProber(checker, cfg.HealthProbeInterval, logger)
	prober.Start()
	defer prober.Stop()

	// Metrics, feed, lifecycle controller
	m := metrics.New()
	eventLog := feed.NewLog(cfg.FeedCapacity)
	controller := lifecycle.New(client, eventLog, m, cfg.PollInterval, logger)

	if cfg.SlackEnabled() {
		notifier := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackApprovalChannel, logger)
		controller.SetNotifier(notifier)
		logger.Info().Str("channel", cfg.SlackApprovalChannel).Msg("Slack approval notifications enabled")
	} else {
		logger.Info().Msg("Slack not configured, approval gates only visible in the feed")
	}

	// Command presets
	ps, err := presets.Load(cfg.PresetsPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.PresetsPath).Msg("failed to load presets")
	}
	if ps.Len() > 0 {
		logger.Info().Int("count", ps.Len()).Msg("command presets loaded")
	}

	// Operator API server
	handlers := console.NewHandlers(client, controller, eventLog, ps, checker, logger)
	server := console.NewServer(console.ServerConfig{
		ListenAddr: cfg.ConsoleListenAddr,
		AuthConfig: console.AuthConfig{
			Mode:      cfg.ConsoleAuthMode,
			APIKey:    cfg.ConsoleAPIKey,
			JWTSecret: cfg.ConsoleJWTSecret,
		},
		RateLimit: console.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, m, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("operator API server error")
		}
	}()

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	controller.CancelTracking()
	prober.Stop()
	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	logger.Info().Msg("command console stopped")
}
