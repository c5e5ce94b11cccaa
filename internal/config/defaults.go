package config

const (
	defaultConfigPath       = "~/.config/nfodate/config.toml"
	defaultSidecarExt       = ".nfo"
	defaultCompanionFile    = "movie.xml"
	defaultRatingTarget     = "PG-13"
	defaultFixedTime        = "13:52:00"
	defaultDateAdded        = "2024-10-01 13:52:00"
	defaultBackupSuffix     = ".bak"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 90
	defaultJournalPath      = "~/.local/share/nfodate/journal.db"
	defaultNtfyTimeout      = 10

	fixedTimeLayout = "15:04:05"
	dateAddedLayout = "2006-01-02 15:04:05"
)

var defaultRatingValues = []string{"12A", "15", "12"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Library: Library{
			SidecarExt:      defaultSidecarExt,
			CompanionFile:   defaultCompanionFile,
			CreateCompanion: true,
			RemapRatings:    true,
			RatingValues:    append([]string(nil), defaultRatingValues...),
			RatingTarget:    defaultRatingTarget,
		},
		Dates: Dates{
			FixedTime:    defaultFixedTime,
			DefaultAdded: defaultDateAdded,
		},
		Backup: Backup{
			Suffix: defaultBackupSuffix,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Journal: Journal{
			Enabled: true,
			Path:    defaultJournalPath,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}
