package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bacnet-alarm-relay/internal/config"
	domain "bacnet-alarm-relay/internal/domain/alarm"
	"bacnet-alarm-relay/internal/logger"
	"bacnet-alarm-relay/internal/metrics"
	"bacnet-alarm-relay/internal/notify"
	repo "bacnet-alarm-relay/internal/repository/alarmlog"
	"bacnet-alarm-relay/internal/sensor"
	"bacnet-alarm-relay/internal/web"
)

// Options controls the alarm-relay process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override.
	ListenAddress string
	// AlarmLogFile provides an optional override for the CSV audit log path.
	AlarmLogFile string
}

const (
	// readHeaderTimeout bounds slow intake clients.
	readHeaderTimeout = 5 * time.Second
	// shutdownTimeout bounds the graceful HTTP shutdown.
	shutdownTimeout = 10 * time.Second
	// sweepFactor scales the alert interval into the limiter sweep cadence
	// and the idle age at which a source is evicted.
	sweepFactor = 10
)

// Run starts the relay and blocks until the context is canceled or the
// server stops. The audit log is opened before the intake starts listening,
// so every accepted event can be recorded.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-relay")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyLogLevel(ctx, settings.LogLevel)

	// Command line options override config values.
	logFile := settings.AlarmLogFile
	if opts.AlarmLogFile != "" {
		logFile = opts.AlarmLogFile
	}

	listenAddress := settings.ListenAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	metrics.Init()

	alarmLog, err := repo.NewFileRepository(logFile)
	if err != nil {
		return fmt.Errorf("open alarm log: %w", err)
	}

	defer func() {
		if err := alarmLog.Close(); err != nil {
			logger.Errorf(ctx, "Failed to close alarm log: %v", err)
		}
	}()

	limiter := domain.NewLimiter(settings.AlertInterval)
	dispatcher := notify.NewDispatcher(buildChannels(ctx, settings)...)

	if dispatcher.ChannelCount() == 0 {
		logger.Warn(ctx, "No notification channels configured, alarms will only be logged")
	}

	svc := newService(alarmLog, limiter, dispatcher, time.Now)

	// The heartbeat and the sweeper are independent of alarm intake.
	point := sensor.New(&settings.Sensor)
	go point.Run(ctx)
	go sweepLimiter(ctx, limiter, time.Now,
		sweepFactor*settings.AlertInterval, sweepFactor*settings.AlertInterval)

	//nolint:exhaustruct // Remaining server fields keep their defaults.
	httpServer := &http.Server{
		Addr:              listenAddress,
		Handler:           web.NewServer(svc, point).Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.InfoKV(ctx, "Alarm relay listening",
		"listen_address", listenAddress,
		"alarm_log", logFile,
		"alert_interval", settings.AlertInterval,
		"channels", dispatcher.ChannelCount())

	// Done channel is closed after Shutdown finishes to ensure we block
	// until in-flight intake requests complete before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf(ctx, "HTTP shutdown: %v", err)
		}

		close(done)
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "HTTP server stopped")

	return nil
}

// applyLogLevel configures the global logger from settings.
func applyLogLevel(ctx context.Context, level string) {
	if level == "" {
		return
	}

	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, keeping default", "log_level", level)

		return
	}

	logger.SetLevel(parsed)
}

// buildChannels constructs the closed set of configured notification channels.
func buildChannels(ctx context.Context, settings *config.Config) []notify.Channel {
	var channels []notify.Channel

	if settings.SMS.Enabled() {
		channels = append(channels, notify.NewSMSChannel(&settings.SMS))
		logger.InfoKV(ctx, "SMS channel enabled",
			"gateway", settings.SMS.GatewayURL, "recipients", len(settings.SMS.Recipients))
	}

	if settings.Email.Enabled() {
		channels = append(channels, notify.NewEmailChannel(&settings.Email))
		logger.InfoKV(ctx, "Email channel enabled",
			"smtp_host", settings.Email.Host, "recipients", len(settings.Email.Recipients))
	}

	return channels
}
