package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full runtime configuration of the alarm relay.
// It is loaded and validated once at startup, before the pipeline
// starts accepting events.
type Config struct {
	// ListenAddress is the HTTP address the intake and ops API binds to.
	ListenAddress string `yaml:"listen_addr"`
	// AlarmLogFile is the path of the append-only CSV alarm log.
	AlarmLogFile string `yaml:"alarm_log_file"`
	// AlertInterval is the minimum interval between notifications
	// for the same alarm source. Events inside the window are suppressed.
	AlertInterval time.Duration `yaml:"alert_interval"`
	// LogLevel is the minimum level for console logging (debug..fatal).
	LogLevel string `yaml:"log_level"`
	// Sensor configures the simulated temperature point.
	Sensor SensorConfig `yaml:"sensor"`
	// SMS configures the SMS gateway channel.
	SMS SMSConfig `yaml:"sms"`
	// Email configures the SMTP channel.
	Email EmailConfig `yaml:"email"`
}

// SensorConfig describes the simulated temperature point and its heartbeat.
type SensorConfig struct {
	// HeartbeatInterval is the cadence of temperature value publication.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// MinTemperature is the lower bound of the simulated value, in Celsius.
	MinTemperature float64 `yaml:"min_temperature"`
	// MaxTemperature is the upper bound of the simulated value, in Celsius.
	MaxTemperature float64 `yaml:"max_temperature"`
}

// SMSConfig describes the router-hosted SMS gateway and its recipients.
type SMSConfig struct {
	// GatewayURL is the base URL of the SMS gateway (e.g. http://192.168.0.1).
	GatewayURL string `yaml:"gateway_url"`
	// Username authenticates against the gateway (HTTP basic auth).
	Username string `yaml:"username"`
	// Password authenticates against the gateway (HTTP basic auth).
	Password string `yaml:"password"`
	// Recipients is the list of destination phone numbers.
	// An empty list disables the channel.
	Recipients []string `yaml:"recipients"`
	// Timeout bounds a single gateway call.
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether the SMS channel should be constructed.
func (c *SMSConfig) Enabled() bool {
	return len(c.Recipients) > 0
}

// EmailConfig describes the SMTP server, sender credentials and recipients.
type EmailConfig struct {
	// Host is the SMTP server hostname.
	Host string `yaml:"host"`
	// Port is the SMTP server port.
	Port int `yaml:"port"`
	// Username is the authenticated sender account.
	Username string `yaml:"username"`
	// Password is the sender account password (app password for most providers).
	Password string `yaml:"password"`
	// From is the envelope sender address. Defaults to Username.
	From string `yaml:"from"`
	// Recipients is the list of destination addresses.
	// An empty list disables the channel.
	Recipients []string `yaml:"recipients"`
}

// Enabled reports whether the email channel should be constructed.
func (c *EmailConfig) Enabled() bool {
	return len(c.Recipients) > 0
}

const (
	// DefaultConfigFilename is the default filename for relay settings.
	DefaultConfigFilename = "alarm-relay-settings.yaml"

	// DefaultAlarmLogFilename is the default filename for the CSV alarm log.
	DefaultAlarmLogFilename = "alarm_log.csv"

	// DefaultListenAddress is the default HTTP listen address.
	DefaultListenAddress = ":47808"

	// DefaultAlertInterval is the minimum interval between alerts per source.
	DefaultAlertInterval = 5 * time.Minute

	// DefaultHeartbeatInterval is the cadence of temperature publication.
	DefaultHeartbeatInterval = 5 * time.Second

	// DefaultSMSTimeout bounds a single SMS gateway call.
	DefaultSMSTimeout = 10 * time.Second

	// DefaultSMTPPort is the default SMTP submission port.
	DefaultSMTPPort = 587

	// DefaultMinTemperature is the lower simulated temperature bound.
	DefaultMinTemperature = 20.0

	// DefaultMaxTemperature is the upper simulated temperature bound.
	DefaultMaxTemperature = 25.0

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errSMSGatewayRequired is returned when SMS recipients are configured
	// without a gateway address.
	errSMSGatewayRequired = errors.New("sms gateway URL must be provided when sms recipients are set")
	// errSMTPHostRequired is returned when email recipients are configured
	// without an SMTP server.
	errSMTPHostRequired = errors.New("smtp host must be provided when email recipients are set")
	// errTemperatureBounds is returned when the simulated range is inverted.
	errTemperatureBounds = errors.New("min temperature must be below max temperature")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file carries gateway and SMTP credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling defaults for optional ones. Invalid values are rejected here so the
// pipeline never starts on a half-usable configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.AlarmLogFile == "" {
		cfg.AlarmLogFile = DefaultAlarmLogFilename
	}

	if cfg.AlertInterval <= 0 {
		cfg.AlertInterval = DefaultAlertInterval
	}

	if err := validateSensor(&cfg.Sensor); err != nil {
		return err
	}

	if err := validateSMS(&cfg.SMS); err != nil {
		return err
	}

	return validateEmail(&cfg.Email)
}

// validateSensor fills heartbeat and range defaults and checks the bounds.
func validateSensor(sensor *SensorConfig) error {
	if sensor.HeartbeatInterval <= 0 {
		sensor.HeartbeatInterval = DefaultHeartbeatInterval
	}

	if sensor.MinTemperature == 0 && sensor.MaxTemperature == 0 {
		sensor.MinTemperature = DefaultMinTemperature
		sensor.MaxTemperature = DefaultMaxTemperature
	}

	if sensor.MinTemperature >= sensor.MaxTemperature {
		return errTemperatureBounds
	}

	return nil
}

// validateSMS checks the gateway address of an enabled SMS channel.
func validateSMS(sms *SMSConfig) error {
	if !sms.Enabled() {
		return nil
	}

	if sms.GatewayURL == "" {
		return errSMSGatewayRequired
	}

	if _, err := url.ParseRequestURI(sms.GatewayURL); err != nil {
		return fmt.Errorf("invalid sms gateway URL: %w", err)
	}

	if sms.Timeout <= 0 {
		sms.Timeout = DefaultSMSTimeout
	}

	return nil
}

// validateEmail checks the SMTP settings of an enabled email channel.
func validateEmail(email *EmailConfig) error {
	if !email.Enabled() {
		return nil
	}

	if email.Host == "" {
		return errSMTPHostRequired
	}

	if email.Port <= 0 {
		email.Port = DefaultSMTPPort
	}

	if email.From == "" {
		email.From = email.Username
	}

	return nil
}
