package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ZIPDEMO_LOG_LEVEL.
const EnvPrefix = "ZIPDEMO"

// Config holds application configuration.
type Config struct {
	Animation AnimationConfig `mapstructure:"animation"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Log       LogConfig       `mapstructure:"log"`
	UI        UIConfig        `mapstructure:"ui"`

	// File is where the config was (or would be) read from.
	File string `mapstructure:"-"`
}

// AnimationConfig holds phase timing.
type AnimationConfig struct {
	HighlightDelay time.Duration `mapstructure:"highlight_delay"`
	MoveDuration   time.Duration `mapstructure:"move_duration"`
	Speed          float64       `mapstructure:"speed"`
}

// JournalConfig holds trace journal settings.
type JournalConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TraceLimit int  `mapstructure:"trace_limit"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	AltScreen   bool   `mapstructure:"alt_screen"`
	ShowDocs    bool   `mapstructure:"show_docs"`
	Keybindings string `mapstructure:"keybindings"`
}

// Path returns the config file location: $ZIPDEMO_CONFIG or
// ~/.config/zipdemo/config.toml.
func Path() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "zipdemo", "config.toml")
}

func setDefaults(v *viper.Viper, file string) {
	v.SetDefault("animation.highlight_delay", 500*time.Millisecond)
	v.SetDefault("animation.move_duration", 500*time.Millisecond)
	v.SetDefault("animation.speed", 1.0)
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.trace_limit", 12)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", filepath.Join(os.Getenv("HOME"), ".local", "state", "zipdemo", "zipdemo.log"))
	v.SetDefault("ui.alt_screen", true)
	v.SetDefault("ui.show_docs", true)
	v.SetDefault("ui.keybindings", filepath.Join(filepath.Dir(file), "keybindings.toml"))
}

// Load reads configuration from Path() and env.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads configuration from file, which may be missing. A .env file
// in the working directory is loaded first; variables already set win. Env
// var overrides use prefix ZIPDEMO_.
func LoadFrom(file string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, file)

	v.SetConfigType("toml")
	v.SetConfigFile(file)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read config %s: %w", file, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.File = file
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Animation.HighlightDelay < 0 || c.Animation.MoveDuration < 0 {
		return fmt.Errorf("config: animation durations must not be negative")
	}
	if c.Animation.Speed <= 0 {
		return fmt.Errorf("config: animation.speed must be positive, got %v", c.Animation.Speed)
	}
	if c.Journal.TraceLimit < 0 {
		return fmt.Errorf("config: journal.trace_limit must not be negative")
	}
	return nil
}

// Save writes cfg to cfg.File (or Path() when unset), creating the config
// directory if needed. The save command uses it to keep the animation speed.
func Save(cfg Config) error {
	path := cfg.File
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("animation.highlight_delay", cfg.Animation.HighlightDelay.String())
	v.Set("animation.move_duration", cfg.Animation.MoveDuration.String())
	v.Set("animation.speed", cfg.Animation.Speed)
	v.Set("journal.enabled", cfg.Journal.Enabled)
	v.Set("journal.trace_limit", cfg.Journal.TraceLimit)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("log.output", cfg.Log.Output)
	v.Set("ui.alt_screen", cfg.UI.AltScreen)
	v.Set("ui.show_docs", cfg.UI.ShowDocs)
	v.Set("ui.keybindings", cfg.UI.Keybindings)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
