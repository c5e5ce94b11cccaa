package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	c.normalizeDates()
	c.normalizeBackup()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeEmby()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizeLibrary() error {
	if strings.TrimSpace(c.Library.RootDir) == "" {
		if value, ok := os.LookupEnv("NFODATE_ROOT"); ok {
			c.Library.RootDir = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Library.RootDir, err = expandPath(strings.TrimSpace(c.Library.RootDir)); err != nil {
		return fmt.Errorf("library.root_dir: %w", err)
	}

	ext := strings.ToLower(strings.TrimSpace(c.Library.SidecarExt))
	if ext == "" {
		ext = defaultSidecarExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Library.SidecarExt = ext

	c.Library.CompanionFile = strings.TrimSpace(c.Library.CompanionFile)
	if c.Library.CompanionFile == "" {
		c.Library.CompanionFile = defaultCompanionFile
	}

	c.Library.RatingTarget = strings.TrimSpace(c.Library.RatingTarget)
	if c.Library.RatingTarget == "" {
		c.Library.RatingTarget = defaultRatingTarget
	}
	values := make([]string, 0, len(c.Library.RatingValues))
	seen := make(map[string]struct{}, len(c.Library.RatingValues))
	for _, value := range c.Library.RatingValues {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	c.Library.RatingValues = values
	return nil
}

func (c *Config) normalizeDates() {
	c.Dates.FixedTime = strings.TrimSpace(c.Dates.FixedTime)
	if c.Dates.FixedTime == "" {
		c.Dates.FixedTime = defaultFixedTime
	}
	c.Dates.DefaultAdded = strings.Join(strings.Fields(c.Dates.DefaultAdded), " ")
	if c.Dates.DefaultAdded == "" {
		c.Dates.DefaultAdded = defaultDateAdded
	}
}

func (c *Config) normalizeBackup() {
	c.Backup.Suffix = strings.TrimSpace(c.Backup.Suffix)
	if c.Backup.Suffix == "" {
		c.Backup.Suffix = defaultBackupSuffix
	}
	if !strings.HasPrefix(c.Backup.Suffix, ".") {
		c.Backup.Suffix = "." + c.Backup.Suffix
	}
}

func (c *Config) normalizeLogging() error {
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	return nil
}

func (c *Config) normalizeJournal() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = defaultJournalPath
	}
	var err error
	if c.Journal.Path, err = expandPath(strings.TrimSpace(c.Journal.Path)); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetrics() error {
	var err error
	if c.Metrics.TextfilePath, err = expandPath(strings.TrimSpace(c.Metrics.TextfilePath)); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeEmby() {
	if c.Emby.APIKey == "" {
		if value, ok := os.LookupEnv("NFODATE_EMBY_API_KEY"); ok {
			c.Emby.APIKey = value
		}
	}
	c.Emby.URL = strings.TrimRight(strings.TrimSpace(c.Emby.URL), "/")
	c.Emby.APIKey = strings.TrimSpace(c.Emby.APIKey)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}
