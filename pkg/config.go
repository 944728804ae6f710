package pkg

import (
	"errors"
	"os"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DefaultConfigPath    = "/etc/psdiff/psdiff.yaml"
	DefaultOverridePath  = "/etc/psdiff/local.yaml"
	DefaultFragmentsPath = "/etc/psdiff/psdiff.d"
)

type Config struct {
	Snapshot    string        `mapstructure:"snapshot"`
	Override    string        `mapstructure:"override"`
	Fragments   string        `mapstructure:"fragments"`
	Lister      string        `mapstructure:"lister"`
	Timeout     time.Duration `mapstructure:"timeout"`
	LogLevel    string        `mapstructure:"log_level"`
	MetricsFile string        `mapstructure:"metrics_file"`
}

func NewConfig() *Config {
	return &Config{
		Snapshot:  DefaultSnapshotPath,
		Override:  DefaultOverridePath,
		Fragments: DefaultFragmentsPath,
		Lister:    "ps",
		Timeout:   30 * time.Second,
		LogLevel:  "warning",
	}
}

// LoadConfig reads the YAML config file at path, with PSDIFF_* environment
// variables taking precedence. A missing file is only an error when it is
// not the default path.
func LoadConfig(path string) (*Config, error) {
	defaults := NewConfig()
	v := viper.New()
	v.SetDefault("snapshot", defaults.Snapshot)
	v.SetDefault("override", defaults.Override)
	v.SetDefault("fragments", defaults.Fragments)
	v.SetDefault("lister", defaults.Lister)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("metrics_file", defaults.MetricsFile)

	v.SetEnvPrefix("PSDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil || path != DefaultConfigPath || !errors.Is(err, os.ErrNotExist) {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, pkgerrors.Wrapf(err, "read config %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, pkgerrors.Wrapf(err, "decode config %s", path)
	}
	return cfg, nil
}
