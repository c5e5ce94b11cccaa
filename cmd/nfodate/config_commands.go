package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"nfodate/internal/config"
)

const maskedSecret = "********"

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or scaffold the configuration file",
		Args:  rejectArgs,
	}
	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigValidateCommand(ctx),
		newConfigShowCommand(ctx),
	)
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		pathFlag  string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Args:        rejectArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(pathFlag)
			if err != nil {
				return err
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set library.root_dir (or NFODATE_ROOT) before the first run.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&pathFlag, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// initTarget resolves --path, falling back to the default location.
func initTarget(raw string) (string, error) {
	if raw = strings.TrimSpace(raw); raw == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(raw)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and summarise the effective settings",
		Args:  rejectArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			writeConfigOverview(out, cfg, ctx.configPath, ctx.configExists, shouldColorize(out))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func writeConfigOverview(w io.Writer, cfg *config.Config, path string, exists bool, colorize bool) {
	for _, line := range renderSectionHeader("Configuration", colorize) {
		fmt.Fprintln(w, line)
	}
	line := func(label string, kind statusKind, msg string) {
		fmt.Fprintln(w, renderStatusLine(label, kind, msg, colorize))
	}

	if exists {
		line("File", statusOK, path)
	} else {
		line("File", statusWarn, path+" (missing, defaults used)")
	}
	if root, err := cfg.RootDir(); err != nil {
		line("Root", statusWarn, err.Error())
	} else {
		line("Root", statusOK, root)
	}
	guard := "per file"
	if cfg.Backup.DirectoryGuard {
		guard = "per directory"
	}
	line("Backups", statusInfo, fmt.Sprintf("suffix %s, guard %s", cfg.Backup.Suffix, guard))
	line("Logs", statusInfo, fmt.Sprintf("%s (%s, %d days)", cfg.LogDir(), cfg.Logging.Format, cfg.Logging.RetentionDays))
	line("Journal", enabledKind(cfg.Journal.Enabled), enabledText(cfg.Journal.Enabled, cfg.Journal.Path))
	line("Metrics", enabledKind(cfg.Metrics.TextfilePath != ""), enabledText(cfg.Metrics.TextfilePath != "", cfg.Metrics.TextfilePath))
	line("Emby", enabledKind(cfg.Emby.Enabled), enabledText(cfg.Emby.Enabled, cfg.Emby.URL))
	line("Notifications", enabledKind(cfg.Notifications.NtfyTopic != ""), enabledText(cfg.Notifications.NtfyTopic != "", cfg.Notifications.NtfyTopic))
}

func enabledKind(on bool) statusKind {
	if on {
		return statusOK
	}
	return statusInfo
}

func enabledText(on bool, detail string) string {
	if !on {
		return "disabled"
	}
	return detail
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  rejectArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			redacted := *cfg
			if redacted.Emby.APIKey != "" {
				redacted.Emby.APIKey = maskedSecret
			}
			data, err := toml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# effective configuration from %s\n", ctx.configPath)
			_, err = out.Write(data)
			return err
		},
	}
}
