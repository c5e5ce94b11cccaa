package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateDates(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateEmby(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if strings.ContainsAny(c.Library.CompanionFile, `/\`) {
		return fmt.Errorf("library.companion_file must be a file name, got %q", c.Library.CompanionFile)
	}
	if c.Library.RemapRatings && len(c.Library.RatingValues) == 0 {
		return errors.New("library.rating_values must include at least one rating when library.remap_ratings is true")
	}
	return nil
}

func (c *Config) validateDates() error {
	if _, err := time.Parse(fixedTimeLayout, c.Dates.FixedTime); err != nil {
		return fmt.Errorf("dates.fixed_time must use HH:MM:SS, got %q", c.Dates.FixedTime)
	}
	if _, err := time.Parse(dateAddedLayout, c.Dates.DefaultAdded); err != nil {
		return fmt.Errorf("dates.default_added must use YYYY-MM-DD HH:MM:SS, got %q", c.Dates.DefaultAdded)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func (c *Config) validateEmby() error {
	if !c.Emby.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Emby.URL) == "" {
		return errors.New("emby.url must be set when emby.enabled is true")
	}
	if strings.TrimSpace(c.Emby.APIKey) == "" {
		return errors.New("emby.api_key must be set when emby.enabled is true (or set NFODATE_EMBY_API_KEY)")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) URL, got %q", topic)
	}
	return nil
}
