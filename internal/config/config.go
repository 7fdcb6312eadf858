package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds every setting of the service
type Config struct {
	Database struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Telegram struct {
		Token    string  `mapstructure:"token"`
		AdminIDs []int64 `mapstructure:"admin_ids"`
		Debug    bool    `mapstructure:"debug"`
	} `mapstructure:"telegram"`
	Scheduler struct {
		Enabled bool `mapstructure:"enabled"`
		// Reminders go out at the learner's hour; the job itself runs every Interval
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"scheduler"`
	Study struct {
		DailyGoal    int    `mapstructure:"daily_goal"`
		TotalItems   int    `mapstructure:"total_items"`
		HistoryLimit int    `mapstructure:"history_limit"`
		QuizSize     int    `mapstructure:"quiz_size"`
		Timezone     string `mapstructure:"timezone"`
	} `mapstructure:"study"`
	Log struct {
		Mode string `mapstructure:"mode"`
	} `mapstructure:"log"`
}

const envPrefix = "CIVICS"

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "civicsbot.db")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_ids", []int64{})
	v.SetDefault("telegram.debug", false)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", time.Hour)
	v.SetDefault("study.daily_goal", 20)
	v.SetDefault("study.total_items", 128)
	v.SetDefault("study.history_limit", 100)
	v.SetDefault("study.quiz_size", 10)
	v.SetDefault("study.timezone", "UTC")
	v.SetDefault("log.mode", "dev")
}

// LoadDotEnv loads a .env file when one exists
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "failed to load %s", p)
		}
	}
	return nil
}

// Load reads config.yaml from path (or the working directory) and CIVICS_* environment variables.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the token is commonly exported without the prefix
	_ = v.BindEnv("telegram.token", envPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable fallback
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return errors.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is empty")
	}
	if c.Study.DailyGoal < 1 {
		return errors.Errorf("study.daily_goal must be at least 1, got %d", c.Study.DailyGoal)
	}
	if c.Study.TotalItems < 1 {
		return errors.Errorf("study.total_items must be at least 1, got %d", c.Study.TotalItems)
	}
	if c.Study.HistoryLimit < 1 {
		return errors.Errorf("study.history_limit must be at least 1, got %d", c.Study.HistoryLimit)
	}
	if c.Study.QuizSize < 1 {
		return errors.Errorf("study.quiz_size must be at least 1, got %d", c.Study.QuizSize)
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval < time.Minute {
		return errors.Errorf("scheduler.interval %s is shorter than a minute", c.Scheduler.Interval)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the study timezone used for day boundaries
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Study.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown timezone %q", c.Study.Timezone)
	}
	return loc, nil
}
