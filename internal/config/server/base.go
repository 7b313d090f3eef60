package server

import (
	"fmt"

	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	Campaign        string `mapstructure:"campaign"         yaml:"campaign"`

	Log      LogServerConfig      `mapstructure:"log"      yaml:"log"`
	Metadata MetadataServerConfig `mapstructure:"metadata" yaml:"metadata"`
	Auth     AuthServerConfig     `mapstructure:"auth"     yaml:"auth"`
	Settings SettingsServerConfig `mapstructure:"settings" yaml:"settings"`
}

// AuthServerConfig identifies the operator writing comments
type AuthServerConfig struct {
	User string `mapstructure:"user" yaml:"user"`
}

// SettingsServerConfig controls how campaign data is presented
type SettingsServerConfig struct {
	ShowHidden   bool `mapstructure:"show_hidden"  yaml:"show_hidden"`
	BlueTeam     bool `mapstructure:"blue_team"    yaml:"blue_team"`
	Presentation bool `mapstructure:"presentation" yaml:"presentation"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *BaseServerConfig) Validate() error {
	switch cfg.Metadata.Type {
	case "sqlite":
		if cfg.Metadata.SQLite.Path == "" {
			return fmt.Errorf("metadata.sqlite.path is required for the sqlite metadata store")
		}
	default:
		return fmt.Errorf("unsupported metadata store type '%s'", cfg.Metadata.Type)
	}
	return nil
}
