package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load creates a configuration by instantiating a ConfigLoader with the
// provided options and invoking its Load method.
func Load(opts ...ConfigLoaderOption) (*Config, error) {
	loader := NewConfigLoader(opts...)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// ConfigLoader reads and merges configuration from a config file,
// environment variables (SEQUOR_ prefix) and a .env file.
type ConfigLoader struct {
	lock       sync.Mutex
	configFile string
}

// ConfigLoaderOption is a functional option for a ConfigLoader.
type ConfigLoaderOption func(*ConfigLoader)

// WithConfigFile sets an explicit configuration file path.
func WithConfigFile(configFile string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.configFile = configFile
	}
}

func NewConfigLoader(options ...ConfigLoaderOption) *ConfigLoader {
	loader := &ConfigLoader{}
	for _, option := range options {
		option(loader)
	}
	return loader
}

// Load initializes viper, reads the configuration sources and returns a
// validated Config.
func (l *ConfigLoader) Load() (*Config, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	// A .env next to the working directory is a convenience for local
	// runs; a missing file is not an error.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("SEQUOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l.setDefaults(v)

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Remote: Remote{
			BaseURL:           v.GetString("remote.baseurl"),
			Email:             v.GetString("remote.email"),
			Password:          v.GetString("remote.password"),
			RequestsPerSecond: v.GetFloat64("remote.requestspersecond"),
			PageSize:          v.GetInt("remote.pagesize"),
		},
		Run: Run{
			Timeout:        v.GetDuration("run.timeout"),
			MaxWorkers:     v.GetInt("run.maxworkers"),
			StrictWarnings: v.GetBool("run.strictwarnings"),
			LockDir:        v.GetString("run.lockdir"),
		},
		Log: Log{
			Format: v.GetString("log.format"),
			Debug:  v.GetBool("log.debug"),
			Quiet:  v.GetBool("log.quiet"),
		},
		Metrics: Metrics{
			Addr: v.GetString("metrics.addr"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *ConfigLoader) setDefaults(v *viper.Viper) {
	v.SetDefault("remote.requestspersecond", 10.0)
	v.SetDefault("remote.pagesize", 100)
	v.SetDefault("run.maxworkers", 1)
	v.SetDefault("run.lockdir", os.TempDir())
	v.SetDefault("log.format", "text")
}
