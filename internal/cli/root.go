// Package cli implements the vcfbot command line: the bot server and the
// offline conversion and history commands.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ignite/vcfbot/internal/config"
	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/pkg/logger"
	"github.com/ignite/vcfbot/internal/service/upload"
)

const defaultConfigPath = "config/config.yaml"

var (
	configPath  string
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vcfbot",
	Short: "Telegram bot converting phone lists and contact cards",
	Long: `vcfbot - a Telegram bot that converts between plain phone lists (.txt)
and contact cards (.vcf), splits and merges them.

Run "vcfbot serve" for the bot, or "vcfbot convert" to run the same
conversions on local files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Config file path")
}

// loadConfig reads the config file named by --config. The default path may
// be missing, in which case defaults plus environment overrides apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.LoadFromEnv(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())
	return cfg, nil
}

// uploadConfig maps the config section onto the aggregator settings.
// Unknown mode names are logged and skipped.
func uploadConfig(c config.UploadConfig) upload.Config {
	out := upload.Config{
		QuietPeriod:  c.QuietPeriod(),
		CheckDelay:   c.CheckDelay(),
		MaxFiles:     make(map[domain.Mode]int, len(c.MaxFiles)),
		MaxFileBytes: c.MaxFileBytes,
	}
	for name, n := range c.MaxFiles {
		mode := domain.Mode(name)
		if !mode.CollectsUploads() {
			logger.Warn("ignoring max_files for unknown mode", "mode", name)
			continue
		}
		out.MaxFiles[mode] = n
	}
	return out
}
