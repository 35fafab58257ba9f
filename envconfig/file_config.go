package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Config represents the TOML configuration structure
type Config struct {
	Server struct {
		Host        string   `toml:"host"`
		MaxParallel int      `toml:"max_parallel"`
		Origins     []string `toml:"origins"`
	} `toml:"server"`

	Train struct {
		Rounds *int   `toml:"rounds"`
		Marker string `toml:"marker"`
		Model  string `toml:"model"`
	} `toml:"train"`

	Logging struct {
		Debug bool `toml:"debug"`
	} `toml:"logging"`
}

var (
	configOnce sync.Once
	config     *Config
	configPath string
)

// GetConfigPaths returns the list of possible config file paths for the current OS
func GetConfigPaths() []string {
	var paths []string

	if p := os.Getenv("SUBWORD_CONFIG"); p != "" {
		return []string{p}
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			paths = append(paths, filepath.Join(appData, "subword", "config.toml"))
		}
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			paths = append(paths, filepath.Join(xdgConfig, "subword", "config.toml"))
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "subword", "config.toml"),
			filepath.Join(home, ".subword", "config.toml"),
		)
	}

	return paths
}

// loadConfig loads the first available configuration file
func loadConfig(paths []string) (*Config, string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			var cfg Config
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, "", fmt.Errorf("error parsing config file %s: %w", path, err)
			}
			return &cfg, path, nil
		}
	}
	return nil, "", nil
}

// GetConfigValue returns the value for a given environment variable key from the config file
func GetConfigValue(key string) string {
	configOnce.Do(func() {
		var err error
		config, configPath, err = loadConfig(GetConfigPaths())
		if err != nil {
			slog.Warn("failed to load config file", "error", err)
		} else if config != nil {
			slog.Debug("loaded config file", "path", configPath)
		}
	})

	if config == nil {
		return ""
	}

	switch key {
	case "SUBWORD_HOST":
		return config.Server.Host
	case "SUBWORD_ORIGINS":
		return strings.Join(config.Server.Origins, ",")
	case "SUBWORD_MAX_PARALLEL":
		if config.Server.MaxParallel > 0 {
			return fmt.Sprintf("%d", config.Server.MaxParallel)
		}
	case "SUBWORD_ROUNDS":
		if config.Train.Rounds != nil {
			return fmt.Sprintf("%d", *config.Train.Rounds)
		}
	case "SUBWORD_MARKER":
		return config.Train.Marker
	case "SUBWORD_MODEL":
		return config.Train.Model
	case "SUBWORD_DEBUG":
		if config.Logging.Debug {
			return "true"
		}
	}

	return ""
}

// resetConfigFile forgets the loaded config file so the next lookup reads
// it again.
func resetConfigFile() {
	configOnce = sync.Once{}
	config, configPath = nil, ""
}

// GenerateExampleConfig returns a commented example TOML configuration
func GenerateExampleConfig() string {
	return `# subword configuration file
# Environment variables take precedence over values set here.

[server]
# Network binding address (default: "127.0.0.1:11435")
host = "127.0.0.1:11435"
# Words segmented concurrently per request (default: 0 = GOMAXPROCS)
max_parallel = 0
# Extra origins allowed to call the API from a browser
origins = []

[train]
# Number of merges to learn (default: 10)
rounds = 10
# End-of-word marker; must not occur in the corpus (default: "_")
marker = "_"
# Default merges file for segment and serve
model = "/path/to/merges.txt"

[logging]
# Enable debug logging (default: false)
debug = false
`
}
