package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// configFileName is the per-project configuration file, looked up in the
// working directory first and the home directory second. Flags always win
// over file values.
const configFileName = ".sceneforge.toml"

// Config holds file-based defaults for the generate command plus cache
// backend settings.
type Config struct {
	// Generate defaults, mirroring the generate command's flags.
	ComponentName string `toml:"component_name"`
	KeepNames     bool   `toml:"keep_names"`
	KeepGroups    bool   `toml:"keep_groups"`
	Meta          bool   `toml:"meta"`
	Types         bool   `toml:"types"`
	Shadows       bool   `toml:"shadows"`
	Precision     int    `toml:"precision"`
	PrintWidth    int    `toml:"print_width"`
	Instancing    string `toml:"instancing"`

	// Cache settings. RedisURL switches the backend from the local file
	// cache to Redis; CacheDir relocates the file cache.
	CacheDir string `toml:"cache_dir"`
	RedisURL string `toml:"redis_url"`
}

// defaultConfig returns the built-in defaults applied before any file or
// flag values.
func defaultConfig() Config {
	return Config{
		ComponentName: "Model",
		Precision:     2,
		PrintWidth:    120,
		Instancing:    "none",
	}
}

// loadConfig reads the configuration file, if one exists. A missing file is
// not an error; a malformed one is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
		if path == "" {
			return cfg, nil
		}
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// findConfigFile searches the working directory and the home directory.
func findConfigFile() string {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName
	}
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// cacheDir returns the cache directory, honoring the config override.
func cacheDir(cfg Config) (string, error) {
	if cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "sceneforge"), nil
}
