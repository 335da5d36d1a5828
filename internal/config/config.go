package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultServer              = "http://localhost:8080"
	DefaultLogLevel            = "warn"
	DefaultPollInterval        = 300 * time.Millisecond
	DefaultNotifyDuration      = 6 * time.Second
	DefaultStopMessageDuration = 2 * time.Second
)

// VoiceConfig holds timings for the voice monitor.
type VoiceConfig struct {
	PollInterval        time.Duration `yaml:"poll_interval"`
	NotifyDuration      time.Duration `yaml:"notify_duration"`
	StopMessageDuration time.Duration `yaml:"stop_message_duration"`
}

// ExplorerConfig holds settings for the explorer TUI.
type ExplorerConfig struct {
	// Welcome shows a greeting notification when the explorer opens.
	Welcome bool `yaml:"welcome"`
}

// Config holds voxfs configuration
type Config struct {
	Server   string         `yaml:"server"`
	StateDir string         `yaml:"state_dir"`
	LogLevel string         `yaml:"log_level"`
	Voice    VoiceConfig    `yaml:"voice"`
	Explorer ExplorerConfig `yaml:"explorer"`
}

type fileVoiceConfig struct {
	PollInterval        string `yaml:"poll_interval"`
	NotifyDuration      string `yaml:"notify_duration"`
	StopMessageDuration string `yaml:"stop_message_duration"`
}

type fileExplorerConfig struct {
	Welcome *bool `yaml:"welcome"`
}

type fileConfig struct {
	Server    string             `yaml:"server"`
	ServerURL string             `yaml:"server_url"`
	StateDir  string             `yaml:"state_dir"`
	LogLevel  string             `yaml:"log_level"`
	Voice     fileVoiceConfig    `yaml:"voice"`
	Explorer  fileExplorerConfig `yaml:"explorer"`
}

// configFile is the name of the config file
const configFile = "config.yaml"

// repoDirName is the directory holding a repo-local config
const repoDirName = ".voxfs"

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:   DefaultServer,
		StateDir: DefaultStateDir(),
		LogLevel: DefaultLogLevel,
		Voice: VoiceConfig{
			PollInterval:        DefaultPollInterval,
			NotifyDuration:      DefaultNotifyDuration,
			StopMessageDuration: DefaultStopMessageDuration,
		},
		Explorer: ExplorerConfig{Welcome: true},
	}
}

// Load loads configuration with the following precedence (highest first):
// 1. Repo-local .voxfs/config.yaml in the current directory
// 2. Parent .voxfs/config.yaml files (searched upward from cwd)
// 3. Environment variables
// 4. Global ~/.config/voxfs/config.yaml
// 5. Built-in defaults
func Load() (*Config, error) {
	cfg := Default()

	// Load global config first (lowest precedence)
	globalPath := globalConfigPath()
	if globalPath != "" {
		if err := loadFromFile(globalPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Apply environment variables (higher precedence than global config)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// Load repo-local config files (highest precedence)
	repoPaths, err := findRepoConfigs()
	if err != nil {
		return nil, err
	}
	for _, repoPath := range repoPaths {
		if err := loadFromFile(repoPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return cfg, nil
}

// RepoConfigDir returns the path to .voxfs directory if found, empty string otherwise
func RepoConfigDir() string {
	paths, _ := findRepoConfigs()
	if len(paths) == 0 {
		return ""
	}
	return filepath.Dir(paths[len(paths)-1])
}

// findRepoConfigs searches upward from cwd for .voxfs/config.yaml files.
// Returned paths are ordered from furthest ancestor to closest (highest precedence last).
func findRepoConfigs() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	dir := cwd
	var paths []string
	for {
		configPath := filepath.Join(dir, repoDirName, configFile)
		if _, err := os.Stat(configPath); err == nil {
			paths = append(paths, configPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}

	return paths, nil
}

// globalConfigDir returns ~/.config/voxfs
func globalConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "voxfs")
}

// globalConfigPath returns the path to global config
func globalConfigPath() string {
	dir := globalConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, configFile)
}

// DefaultStateDir is where sessions, pid and log files live unless configured
func DefaultStateDir() string {
	if dir := globalConfigDir(); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "voxfs")
}

// loadFromFile loads config from a YAML file, merging into existing cfg.
// A relative state_dir resolves against the repo root for .voxfs/config.yaml
// and against the file's own directory otherwise.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fileCfg fileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	configDir := filepath.Dir(path)
	baseDir := configDir
	if filepath.Base(configDir) == repoDirName {
		baseDir = filepath.Dir(configDir)
	}

	server := fileCfg.Server
	if server == "" {
		server = fileCfg.ServerURL
	}
	if server != "" {
		cfg.Server = server
	}
	if fileCfg.StateDir != "" {
		cfg.StateDir = ExpandPath(fileCfg.StateDir, baseDir)
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if err := mergeDuration(&cfg.Voice.PollInterval, fileCfg.Voice.PollInterval, "voice.poll_interval"); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := mergeDuration(&cfg.Voice.NotifyDuration, fileCfg.Voice.NotifyDuration, "voice.notify_duration"); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := mergeDuration(&cfg.Voice.StopMessageDuration, fileCfg.Voice.StopMessageDuration, "voice.stop_message_duration"); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if fileCfg.Explorer.Welcome != nil {
		cfg.Explorer.Welcome = *fileCfg.Explorer.Welcome
	}

	return nil
}

// mergeDuration overwrites dst when raw is set. Durations must be positive.
func mergeDuration(dst *time.Duration, raw, key string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	*dst = d
	return nil
}

// applyEnv applies environment variables to config
func applyEnv(cfg *Config) error {
	if v := os.Getenv("VOXFS_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("VOXFS_STATE_DIR"); v != "" {
		cfg.StateDir = ExpandPath(v, "")
	}
	if v := os.Getenv("VOXFS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if err := mergeDuration(&cfg.Voice.PollInterval, os.Getenv("VOXFS_POLL_INTERVAL"), "VOXFS_POLL_INTERVAL"); err != nil {
		return err
	}
	if err := mergeDuration(&cfg.Voice.NotifyDuration, os.Getenv("VOXFS_NOTIFY_DURATION"), "VOXFS_NOTIFY_DURATION"); err != nil {
		return err
	}
	return nil
}

// ExpandPath expands ~ and makes path absolute relative to base
func ExpandPath(path, base string) string {
	if path == "" {
		return ""
	}

	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}

	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}

	return path
}
