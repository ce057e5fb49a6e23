package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	ierr "github.com/amshq/amscore/internal/errors"
)

// RunMode controls encoder and verbosity defaults
type RunMode string

const (
	RunModeDevelopment RunMode = "development"
	RunModeProduction  RunMode = "production"
)

// LogLevel is a zap-compatible level string
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Configuration is loaded once at job start and injected into the
// services that need it. It is never read from ambient global state.
type Configuration struct {
	Deployment  DeploymentConfig  `mapstructure:"deployment" validate:"required"`
	Logging     LoggingConfig     `mapstructure:"logging" validate:"required"`
	Lifecycle   LifecycleConfig   `mapstructure:"lifecycle" validate:"required"`
	Recognition RecognitionConfig `mapstructure:"recognition" validate:"required"`
}

type DeploymentConfig struct {
	Mode RunMode `mapstructure:"mode" validate:"required"`
}

type LoggingConfig struct {
	Level LogLevel `mapstructure:"level" validate:"required"`
}

// LifecycleConfig carries the fallback grace/suspend/terminate windows
// in days. A plan-level override always wins; these apply only when the
// plan leaves a window unset.
type LifecycleConfig struct {
	DefaultGraceDays     int `mapstructure:"default_grace_days" validate:"gte=0"`
	DefaultSuspendDays   int `mapstructure:"default_suspend_days" validate:"gte=0"`
	DefaultTerminateDays int `mapstructure:"default_terminate_days" validate:"gte=0"`
}

// RecognitionConfig controls revenue recognition scheduling
type RecognitionConfig struct {
	// DefaultPeriods is the number of monthly entries a schedule is
	// split into when the plan does not specify its own split
	DefaultPeriods int `mapstructure:"default_periods" validate:"gt=0"`

	// MaterialityThreshold is the absolute adjustment amount above
	// which a second-party approval is required
	MaterialityThreshold decimal.Decimal `mapstructure:"materiality_threshold"`
}

// NewConfig loads configuration from config.yaml and AMSCORE_* env vars
func NewConfig() (*Configuration, error) {
	// Optional .env for local development; ignore if absent
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("AMSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read configuration file").
				Mark(ierr.ErrSystem)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decimalDecodeHook())); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to unmarshal configuration").
			Mark(ierr.ErrSystem)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// NewDefaultConfig returns a configuration suitable for tests and
// one-off scripts without a config file
func NewDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: RunModeDevelopment},
		Logging:    LoggingConfig{Level: LogLevelInfo},
		Lifecycle: LifecycleConfig{
			DefaultGraceDays:     30,
			DefaultSuspendDays:   60,
			DefaultTerminateDays: 90,
		},
		Recognition: RecognitionConfig{
			DefaultPeriods:       1,
			MaterialityThreshold: decimal.NewFromInt(100),
		},
	}
}

// Validate checks structural tags plus the lifecycle window ordering
// invariant shared with plan definitions
func (c *Configuration) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return ierr.WithError(err).
			WithHint("Configuration validation failed").
			Mark(ierr.ErrValidation)
	}

	lc := c.Lifecycle
	if lc.DefaultGraceDays >= lc.DefaultSuspendDays ||
		lc.DefaultSuspendDays >= lc.DefaultTerminateDays {
		return ierr.NewError("invalid lifecycle defaults").
			WithHint("Grace days must be less than suspend days, which must be less than terminate days").
			WithReportableDetails(map[string]any{
				"default_grace_days":     lc.DefaultGraceDays,
				"default_suspend_days":   lc.DefaultSuspendDays,
				"default_terminate_days": lc.DefaultTerminateDays,
			}).
			Mark(ierr.ErrValidation)
	}

	if c.Recognition.MaterialityThreshold.IsNegative() {
		return ierr.NewError("invalid materiality threshold").
			WithHint("Materiality threshold cannot be negative").
			Mark(ierr.ErrValidation)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(RunModeProduction))
	v.SetDefault("logging.level", string(LogLevelInfo))
	v.SetDefault("lifecycle.default_grace_days", 30)
	v.SetDefault("lifecycle.default_suspend_days", 60)
	v.SetDefault("lifecycle.default_terminate_days", 90)
	v.SetDefault("recognition.default_periods", 1)
	v.SetDefault("recognition.materiality_threshold", "100")
}
