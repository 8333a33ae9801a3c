package appconf

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all the configuration settings for the process.
type Config struct {
	Port      int    `yaml:"port" validate:"gt=0,lt=65536"`
	EnvName   string `yaml:"env" validate:"oneof=development test production"`
	RateLimit int    `yaml:"rateLimit" validate:"gte=0"`
	Timezone  string `yaml:"timezone" validate:"required"`

	DBPath     string `yaml:"dbPath" validate:"required"`
	StaticGTFS string `yaml:"staticGtfs"`

	VehiclePositionsURL     string `yaml:"vehiclePositionsUrl" validate:"omitempty,url"`
	TripUpdatesURL          string `yaml:"tripUpdatesUrl" validate:"omitempty,url"`
	RealTimeAuthHeaderKey   string `yaml:"realTimeAuthHeaderKey"`
	RealTimeAuthHeaderValue string `yaml:"realTimeAuthHeaderValue"`
	FeedTimeoutSeconds      int    `yaml:"feedTimeoutSeconds" validate:"gte=0"`

	ScheduleWindowMinutes int  `yaml:"scheduleWindowMinutes" validate:"gt=0"`
	FanoutLimit           int  `yaml:"fanoutLimit" validate:"gt=0"`
	LookupCacheSize       int  `yaml:"lookupCacheSize" validate:"gt=0"`
	MetricsEnabled        bool `yaml:"metricsEnabled"`
	Verbose               bool `yaml:"verbose"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Port:                  4000,
		EnvName:               "development",
		RateLimit:             100,
		Timezone:              "America/Toronto",
		DBPath:                "ntta.db",
		ScheduleWindowMinutes: 120,
		FanoutLimit:           5,
		LookupCacheSize:       4096,
		MetricsEnabled:        true,
	}
}

// Env returns the parsed operating environment.
func (c Config) Env() Environment {
	return EnvFlagToEnvironment(c.EnvName)
}

// Location loads the agency time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ScheduleWindow is the half-width of the schedule window around now.
func (c Config) ScheduleWindow() time.Duration {
	return time.Duration(c.ScheduleWindowMinutes) * time.Minute
}

// FeedTimeout is the per-fetch deadline, zero when unset.
func (c Config) FeedTimeout() time.Duration {
	return time.Duration(c.FeedTimeoutSeconds) * time.Second
}

// Load builds the configuration from defaults, an optional YAML file, a .env
// file and the process environment, in that order, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the time zone.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.EnvName, "NTTA_ENV")
	setString(&cfg.Timezone, "NTTA_TIMEZONE")
	setString(&cfg.DBPath, "NTTA_DB_PATH")
	setString(&cfg.StaticGTFS, "NTTA_STATIC_GTFS")
	setString(&cfg.VehiclePositionsURL, "NTTA_VEHICLE_POSITIONS_URL")
	setString(&cfg.TripUpdatesURL, "NTTA_TRIP_UPDATES_URL")
	setString(&cfg.RealTimeAuthHeaderKey, "NTTA_REALTIME_AUTH_HEADER_KEY")
	setString(&cfg.RealTimeAuthHeaderValue, "NTTA_REALTIME_AUTH_HEADER_VALUE")

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &cfg.Port},
		{"NTTA_RATE_LIMIT", &cfg.RateLimit},
		{"NTTA_FEED_TIMEOUT_SECONDS", &cfg.FeedTimeoutSeconds},
		{"NTTA_SCHEDULE_WINDOW_MINUTES", &cfg.ScheduleWindowMinutes},
		{"NTTA_FANOUT_LIMIT", &cfg.FanoutLimit},
		{"NTTA_LOOKUP_CACHE_SIZE", &cfg.LookupCacheSize},
	}
	for _, i := range ints {
		v := os.Getenv(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", i.key, v)
		}
		*i.dst = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"NTTA_METRICS_ENABLED", &cfg.MetricsEnabled},
		{"NTTA_VERBOSE", &cfg.Verbose},
	}
	for _, b := range bools {
		v := os.Getenv(b.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %q", b.key, v)
		}
		*b.dst = parsed
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
