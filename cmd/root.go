package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/swwwjjw/barometer-pulkovo/internal/dashboard"
	"github.com/swwwjjw/barometer-pulkovo/internal/fetcher"
	"github.com/swwwjjw/barometer-pulkovo/internal/logger"
	"github.com/swwwjjw/barometer-pulkovo/internal/roles"
	"github.com/swwwjjw/barometer-pulkovo/internal/salary"
	"github.com/swwwjjw/barometer-pulkovo/internal/stats"
	"github.com/swwwjjw/barometer-pulkovo/internal/store"
)

const (
	app = "barometer"

	defaultListen = ":8000"
)

type Config struct {
	Data      store.Config   `mapstructure:"data"`
	Salary    salary.Config  `mapstructure:"salary"`
	Outliers  OutliersConfig `mapstructure:"outliers"`
	Aggregate stats.Config   `mapstructure:"aggregate"`
	Roles     []roles.Role   `mapstructure:"roles"`
	Fetch     fetcher.Config `mapstructure:"fetch"`
	Server    ServerConfig   `mapstructure:"server"`
	TokenFile string         `mapstructure:"token-file"`
	UserAgent string         `mapstructure:"user-agent"`
}

type OutliersConfig struct {
	// Enabled is the default of filter_outliers when a query does not set it.
	Enabled          bool    `mapstructure:"enabled"`
	RoleMultiplier   float64 `mapstructure:"role-multiplier"`
	GlobalMultiplier float64 `mapstructure:"global-multiplier"`
	GlobalLowDivisor float64 `mapstructure:"global-low-divisor"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "barometer serves salary statistics for hh.ru vacancies grouped by role",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("token-file", "BARO_TOKEN_FILE"); err != nil {
		log.Fatalf("binding BARO_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("server.listen", "BARO_LISTEN"); err != nil {
		log.Fatalf("binding BARO_LISTEN environment variable: %v", err)
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is barometer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.backend", store.BackendFile)
	v.SetDefault("data.dir", store.DefaultDir)
	v.SetDefault("data.sqlite-path", store.DefaultSQLitePath)

	v.SetDefault("salary.primary-currency", salary.DefaultCurrency)
	v.SetDefault("salary.multipliers", map[string]any{
		salary.ModeShift: 20,
		salary.ModeHour:  156,
	})

	v.SetDefault("outliers.enabled", true)
	v.SetDefault("outliers.role-multiplier", dashboard.DefaultRoleMultiplier)
	v.SetDefault("outliers.global-multiplier", dashboard.DefaultGlobalMultiplier)
	v.SetDefault("outliers.global-low-divisor", dashboard.DefaultGlobalLowDivisor)

	aggregate := stats.DefaultConfig()
	v.SetDefault("aggregate.buckets", aggregate.Buckets)
	v.SetDefault("aggregate.fallback-width", aggregate.FallbackWidth)
	v.SetDefault("aggregate.designated-employer", aggregate.DesignatedEmployer)
	v.SetDefault("aggregate.unknown-label", aggregate.UnknownLabel)
	v.SetDefault("aggregate.no-experience-label", aggregate.NoExperienceLabel)

	fetch := fetcher.DefaultConfig()
	v.SetDefault("fetch.enabled", fetch.Enabled)
	v.SetDefault("fetch.interval", fetch.Interval)
	v.SetDefault("fetch.on-start", fetch.OnStart)
	v.SetDefault("fetch.area", fetch.Area)
	v.SetDefault("fetch.per-page", fetch.PerPage)
	v.SetDefault("fetch.max-pages", fetch.MaxPages)
	v.SetDefault("fetch.requests-per-second", fetch.RequestsPerSecond)
	v.SetDefault("fetch.concurrency", fetch.Concurrency)

	v.SetDefault("server.listen", defaultListen)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults are enough to run, so only an explicit or broken config is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	if len(config.Roles) == 0 {
		config.Roles = roles.Defaults()
	}
	if config.Aggregate.ExperienceLevels == nil {
		config.Aggregate.ExperienceLevels = stats.DefaultConfig().ExperienceLevels
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the value ranges viper cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Data.Backend) {
	case "", store.BackendFile, store.BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("data.backend: unknown backend %q", c.Data.Backend))
	}

	if c.Aggregate.Buckets <= 0 {
		errs = append(errs, errors.New("aggregate.buckets must be positive"))
	}
	if c.Aggregate.FallbackWidth <= 0 {
		errs = append(errs, errors.New("aggregate.fallback-width must be positive"))
	}
	if c.Outliers.RoleMultiplier <= 0 || c.Outliers.GlobalMultiplier <= 0 {
		errs = append(errs, errors.New("outliers multipliers must be positive"))
	}
	if c.Outliers.GlobalLowDivisor < 0 {
		errs = append(errs, errors.New("outliers.global-low-divisor must not be negative"))
	}
	for mode, m := range c.Salary.Multipliers {
		if m <= 0 {
			errs = append(errs, fmt.Errorf("salary.multipliers.%s must be positive", mode))
		}
	}
	for i, role := range c.Roles {
		if strings.TrimSpace(role.Name) == "" || len(role.Matcher()) == 0 {
			errs = append(errs, fmt.Errorf("roles[%d]: name and ids are required", i))
		}
	}
	if c.Fetch.Enabled && c.Fetch.Interval <= 0 {
		errs = append(errs, errors.New("fetch.interval must be positive when fetching is enabled"))
	}

	return errors.Join(errs...)
}

func (c *Config) dashboardConfig() dashboard.Config {
	return dashboard.Config{
		Salary:           c.Salary,
		Aggregate:        c.Aggregate,
		RoleMultiplier:   c.Outliers.RoleMultiplier,
		GlobalMultiplier: c.Outliers.GlobalMultiplier,
		GlobalLowDivisor: c.Outliers.GlobalLowDivisor,
	}
}

// setup builds the logger and the config shared by every command.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(app, viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return logger, config
}
