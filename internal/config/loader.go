package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".savegame"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix, e.g. SAVEGAME_MAX_SAVE_SLOTS.
const envPrefix = "SAVEGAME"

// Load reads configuration from defaults, the config file and SAVEGAME_*
// environment variables, in increasing precedence. If configPath is empty
// the file is searched for in the working directory and $HOME; a missing
// file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("auto_save_enabled", d.AutoSaveEnabled)
	v.SetDefault("max_save_slots", d.MaxSaveSlots)
	v.SetDefault("author.name", d.Author.Name)
	v.SetDefault("author.email", d.Author.Email)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.ignore", d.Watch.Ignore)
}
