package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Library describes the media tree and the sidecar conventions inside it.
type Library struct {
	RootDir         string   `toml:"root_dir"`
	SidecarExt      string   `toml:"sidecar_ext"`
	CompanionFile   string   `toml:"companion_file"`
	CreateCompanion bool     `toml:"create_companion"`
	RemapRatings    bool     `toml:"remap_ratings"`
	RatingValues    []string `toml:"rating_values"`
	RatingTarget    string   `toml:"rating_target"`
}

// Dates holds the fixed values written into date-added fields.
type Dates struct {
	// FixedTime is the time of day appended to every derived release date.
	FixedTime string `toml:"fixed_time"`
	// DefaultAdded is inserted after <title> when a sidecar has no <dateadded> tag.
	DefaultAdded string `toml:"default_added"`
}

// Backup contains snapshot naming and safety settings.
type Backup struct {
	Suffix         string `toml:"suffix"`
	DirectoryGuard bool   `toml:"directory_guard"`
}

// Logging contains configuration for per-run log files.
type Logging struct {
	Dir           string `toml:"dir"`
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Journal configures the SQLite run history.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Metrics configures the Prometheus textfile export written after each run.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Emby contains configuration for the post-run library refresh.
type Emby struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
}

// Notifications configures ntfy delivery of run reports.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-library.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for nfodate.
//
// Configuration sections by subsystem:
//   - Library: root directory, sidecar extension, companion file, rating remap
//   - Dates: fixed time of day and the default date-added value
//   - Backup: snapshot suffix and the directory-wide guard
//   - Logging: per-run log file location, format, level and retention
//   - Journal: SQLite run history
//   - Metrics: Prometheus textfile export
//   - Emby: media server library refresh
//   - Notifications: ntfy run reports
type Config struct {
	Library Library `toml:"library"`
	Dates   Dates   `toml:"dates"`
	Backup  Backup  `toml:"backup"`
	Logging Logging `toml:"logging"`
	Journal Journal `toml:"journal"`
	Metrics Metrics `toml:"metrics"`
	Emby    Emby    `toml:"emby"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("nfodate.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// SetRoot overrides the library root directory, typically from a CLI flag.
func (c *Config) SetRoot(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("library.root_dir: %w", err)
	}
	c.Library.RootDir = expanded
	return nil
}

// RootDir returns the configured library root or an error explaining how to set it.
func (c *Config) RootDir() (string, error) {
	if c == nil || strings.TrimSpace(c.Library.RootDir) == "" {
		return "", errors.New("library.root_dir is not set; pass --root, export NFODATE_ROOT or edit the config file (create with 'nfodate config init')")
	}
	return c.Library.RootDir, nil
}

// LogDir returns the directory that receives per-run log files. It defaults to
// the library root so each run leaves its log next to the files it touched.
func (c *Config) LogDir() string {
	if dir := strings.TrimSpace(c.Logging.Dir); dir != "" {
		return dir
	}
	return c.Library.RootDir
}

// EnsureDirectories creates the directories nfodate writes into outside the library.
func (c *Config) EnsureDirectories() error {
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) != "" {
		dir := filepath.Dir(c.Journal.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal directory %q: %w", dir, err)
		}
	}
	if dir := strings.TrimSpace(c.Logging.Dir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory %q: %w", dir, err)
		}
	}
	return nil
}

// RatingMap returns the configured source→target rating substitutions, or nil
// when remapping is disabled.
func (c *Config) RatingMap() map[string]string {
	if !c.Library.RemapRatings {
		return nil
	}
	out := make(map[string]string, len(c.Library.RatingValues))
	for _, value := range c.Library.RatingValues {
		out[value] = c.Library.RatingTarget
	}
	return out
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
