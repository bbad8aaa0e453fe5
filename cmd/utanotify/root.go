// Command utanotify drives the incident notification core from the command
// line: validate alert content against a channel's rules, probe channel
// connectivity, or dispatch an alert.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/channels/email"
	"github.com/morrisonak/uta-notify-sub001/pkg/channels/push"
	"github.com/morrisonak/uta-notify-sub001/pkg/channels/signage"
	"github.com/morrisonak/uta-notify-sub001/pkg/channels/simulated"
	"github.com/morrisonak/uta-notify-sub001/pkg/channels/sms"
	"github.com/morrisonak/uta-notify-sub001/pkg/channels/social"
	"github.com/morrisonak/uta-notify-sub001/pkg/config"
	"github.com/morrisonak/uta-notify-sub001/pkg/delivery"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger/adapters"
	"github.com/morrisonak/uta-notify-sub001/pkg/telemetry"
)

// app holds the wired components the subcommands share.
type app struct {
	cfg       *config.Config
	logger    logger.Logger
	registry  *channel.Registry
	store     delivery.Store
	tracker   *delivery.Tracker
	telemetry *telemetry.Provider
}

type rootFlags struct {
	configPath string
	logLevel   string
	logJSON    bool
	testMode   bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "utanotify",
		Short:         "Incident notification channel delivery",
		Long:          "utanotify validates, formats and dispatches transit incident alerts over email, SMS, social posts, push notifications and digital signage.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.logJSON, "log-json", false, "emit structured JSON logs")
	cmd.PersistentFlags().BoolVar(&flags.testMode, "test-mode", false, "route sends through the simulated adapter")

	cmd.AddCommand(
		newSendCommand(flags),
		newValidateCommand(flags),
		newHealthCommand(flags),
	)
	return cmd
}

// buildApp loads config and wires the registry, store and tracker.
func buildApp(flags *rootFlags) (*app, error) {
	var cfg *config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.testMode {
		cfg.TestMode = true
	}

	level := logger.ParseLevel(cfg.LogLevel)
	var log logger.Logger
	if flags.logJSON {
		log = adapters.NewZerologAdapter(zerolog.New(os.Stderr).With().Timestamp().Logger(), level)
	} else {
		log = logger.New(level)
	}

	tel, err := telemetry.NewProvider(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("telemetry setup: %w", err)
	}

	registry := channel.NewRegistry(log, func(t channel.Type) channel.Adapter {
		return simulated.New(t, log)
	})
	for _, adapter := range []channel.Adapter{
		email.New(log),
		sms.New(log),
		social.New(log),
		push.New(log),
		signage.New(log),
	} {
		if cfg.ChannelConfig(adapter.Name()) == nil {
			continue
		}
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}

	var store delivery.Store
	if cfg.Redis != nil {
		store, err = delivery.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
	} else {
		store = delivery.NewMemoryStore()
	}

	tracker := delivery.NewTracker(registry, store, log,
		delivery.WithRetryPolicy(delivery.RetryPolicy{
			BackoffSchedule: cfg.Retry.Backoff,
			MaxRetries:      *cfg.Retry.MaxRetries,
		}),
		delivery.WithSendTimeout(cfg.Retry.SendTimeout),
		delivery.WithTelemetry(tel),
	)

	return &app{
		cfg:       cfg,
		logger:    log,
		registry:  registry,
		store:     store,
		tracker:   tracker,
		telemetry: tel,
	}, nil
}

// close releases app resources.
func (a *app) close() {
	_ = a.store.Close()
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.telemetry.Shutdown(ctx)
	}
}

// parseChannel resolves a channel flag value.
func parseChannel(name string) (channel.Type, error) {
	t := channel.Type(name)
	if !channel.IsKnownType(t) {
		return "", fmt.Errorf("unknown channel %q, expected one of %v", name, channel.KnownTypes())
	}
	return t, nil
}
