package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"stageport.dev/stageport/internal/scheduler"
)

// DefaultContainerID is the id of the stage's own portal layer
const DefaultContainerID = "stageport-portals"

// DefaultDebounce is the quiet period of the debounced commit strategy
const DefaultDebounce = 120 * time.Millisecond

// Config holds application configuration
type Config struct {
	Stage   StageConfig   `mapstructure:"stage"`
	Manager ManagerConfig `mapstructure:"manager"`
	Log     LogConfig     `mapstructure:"log"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// StageConfig holds dispatcher settings
type StageConfig struct {
	DefaultContainer string  `mapstructure:"default_container"`
	DeferInitialPass bool    `mapstructure:"defer_initial_pass"`
	ZeroPriority     float64 `mapstructure:"zero_priority"`
}

// ManagerConfig holds container manager settings
type ManagerConfig struct {
	CommitStrategy string        `mapstructure:"commit_strategy"`
	Debounce       time.Duration `mapstructure:"debounce"`
}

// LogConfig holds file logging settings
type LogConfig struct {
	File string `mapstructure:"file"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Stage: StageConfig{
			DefaultContainer: DefaultContainerID,
			DeferInitialPass: true,
		},
		Manager: ManagerConfig{
			CommitStrategy: string(scheduler.KindImmediate),
			Debounce:       DefaultDebounce,
		},
	}
}

// Load reads configuration from file and env. path overrides the config file
// location; otherwise STAGEPORT_CONFIG is used, then the user config dir.
// Env var overrides use prefix STAGEPORT_.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("STAGEPORT_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, ".config", "stageport"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("STAGEPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	c.File = v.ConfigFileUsed()
	if c.Stage.DefaultContainer == "" {
		c.Stage.DefaultContainer = DefaultContainerID
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("stage.default_container", d.Stage.DefaultContainer)
	v.SetDefault("stage.defer_initial_pass", d.Stage.DeferInitialPass)
	v.SetDefault("stage.zero_priority", d.Stage.ZeroPriority)
	v.SetDefault("manager.commit_strategy", d.Manager.CommitStrategy)
	v.SetDefault("manager.debounce", d.Manager.Debounce)
	v.SetDefault("log.file", d.Log.File)
}

// Validate reports settings that cannot be used
func (c Config) Validate() error {
	if _, err := scheduler.ParseKind(c.Manager.CommitStrategy); err != nil {
		return fmt.Errorf("manager.commit_strategy: %w", err)
	}
	if c.Manager.Debounce < 0 {
		return fmt.Errorf("manager.debounce must not be negative, got %s", c.Manager.Debounce)
	}
	if strings.TrimSpace(c.Stage.DefaultContainer) != c.Stage.DefaultContainer {
		return fmt.Errorf("stage.default_container %q has surrounding whitespace", c.Stage.DefaultContainer)
	}
	return nil
}

// Strategy returns the parsed commit strategy
func (c Config) Strategy() (scheduler.Kind, error) {
	return scheduler.ParseKind(c.Manager.CommitStrategy)
}

// Lines returns the effective settings as sorted "key = value" lines
func (c Config) Lines() []string {
	file := c.File
	if file == "" {
		file = "(none)"
	}
	logFile := c.Log.File
	if logFile == "" {
		logFile = "(default)"
	}
	return []string{
		"config file = " + file,
		"log.file = " + logFile,
		"manager.commit_strategy = " + c.Manager.CommitStrategy,
		"manager.debounce = " + c.Manager.Debounce.String(),
		"stage.default_container = " + c.Stage.DefaultContainer,
		fmt.Sprintf("stage.defer_initial_pass = %t", c.Stage.DeferInitialPass),
		fmt.Sprintf("stage.zero_priority = %g", c.Stage.ZeroPriority),
	}
}
