// Package main provides the CLI entrypoint for bible365.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bible365/bible365/internal/bible"
	"github.com/bible365/bible365/internal/config"
	"github.com/bible365/bible365/internal/model"
	"github.com/bible365/bible365/internal/session"
)

const (
	defaultLogLevel  = "warn"
	defaultLogFormat = "text"
)

var (
	globalUser      string
	globalBiblePath string
	globalTeamID    int
	globalTeamName  string
	globalThreshold float64
	globalResume    bool
	globalCategory  string
	globalLogLevel  string
	globalLogFormat string
	globalNoUpload  bool
	globalUploadURL string

	readSpeechURL string

	listenSpeechURL string
	listenAdvance   bool

	progressTUI   bool
	progressMode  string
	progressColor bool

	resetKeepCounts bool
	resetMode       string

	seedHoldout string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bible365",
		Short:         "Read the Bible aloud and track progress verse by verse",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalUser, "user", "", "user id scoping local progress and uploads")
	flags.StringVar(&globalBiblePath, "bible", config.DefaultBiblePath(), "path to the verse dataset (JSON)")
	flags.IntVar(&globalTeamID, "team-id", 0, "read as a member of this team (0 = personal)")
	flags.StringVar(&globalTeamName, "team-name", "", "team display name")
	flags.Float64Var(&globalThreshold, "threshold", session.DefaultThreshold, "share of words that completes a verse (0-1]")
	flags.BoolVar(&globalResume, "resume", true, "start at the last read verse when no position is given")
	flags.StringVar(&globalCategory, "category", string(bible.CategoryWhole), "book category: whole, old, new, gospels, psalms-proverbs")
	flags.StringVar(&globalLogLevel, "log-level", defaultLogLevel, "log level: debug, info, warn, error")
	flags.StringVar(&globalLogFormat, "log-format", defaultLogFormat, "log format: text, json")
	flags.BoolVar(&globalNoUpload, "no-upload", false, "do not share progress with the remote service")
	flags.StringVar(&globalUploadURL, "upload-url", "", "base url of the remote progress service")

	readCmd := newReadCmd()
	rootCmd.RunE = readCmd.RunE
	rootCmd.Flags().AddFlagSet(readCmd.Flags())

	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(newListenCmd())
	rootCmd.AddCommand(newProgressCmd())
	rootCmd.AddCommand(newBooksCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadConfig merges the config file into unset flags and returns the result.
func loadConfig(cmd *cobra.Command) (model.Config, config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "user", &globalUser, fileCfg.Reading.User)
	applyStringConfig(cmd, "bible", &globalBiblePath, fileCfg.Reading.BiblePath)
	applyIntConfig(cmd, "team-id", &globalTeamID, fileCfg.Reading.TeamID)
	applyStringConfig(cmd, "team-name", &globalTeamName, fileCfg.Reading.TeamName)
	applyFloatConfig(cmd, "threshold", &globalThreshold, fileCfg.Reading.Threshold)
	applyBoolConfig(cmd, "resume", &globalResume, fileCfg.Reading.Resume)
	applyStringConfig(cmd, "category", &globalCategory, fileCfg.Reading.Category)
	applyStringConfig(cmd, "log-level", &globalLogLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &globalLogFormat, fileCfg.Log.Format)
	applyStringConfig(cmd, "upload-url", &globalUploadURL, fileCfg.Upload.BaseURL)

	uploadEnabled := fileCfg.Upload.Enabled == nil || *fileCfg.Upload.Enabled
	if globalNoUpload {
		uploadEnabled = false
	}

	cfg := model.Config{
		User:                strings.TrimSpace(globalUser),
		Threshold:           globalThreshold,
		BiblePath:           globalBiblePath,
		TeamID:              globalTeamID,
		TeamName:            globalTeamName,
		UploadEnabled:       uploadEnabled && strings.TrimSpace(globalUploadURL) != "",
		UploadBaseURL:       strings.TrimSpace(globalUploadURL),
		UploadToken:         fileCfg.UploadToken(),
		ResumeFromLastRead:  globalResume,
		DefaultBookCategory: globalCategory,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, config.FileConfig{}, err
	}
	return cfg, fileCfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		return fmt.Errorf("--threshold must be in (0, 1]")
	}
	if cfg.TeamID < 0 {
		return fmt.Errorf("--team-id must be >= 0")
	}
	if cfg.BiblePath == "" {
		return fmt.Errorf("--bible must not be empty")
	}
	if _, ok := bible.ParseCategory(cfg.DefaultBookCategory); !ok {
		return fmt.Errorf("unknown --category %q", cfg.DefaultBookCategory)
	}
	return nil
}

// modeFromConfig returns the team mode when a team id is configured.
func modeFromConfig(cfg model.Config) model.Mode {
	if cfg.TeamID > 0 {
		return model.Team{ID: cfg.TeamID, Name: cfg.TeamName}
	}
	return model.Personal{}
}

// resolveMode parses an explicit --mode value, falling back to the config.
// A team key matching the configured team keeps its display name.
func resolveMode(value string, cfg model.Config) (model.Mode, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return modeFromConfig(cfg), nil
	}
	mode, err := model.ParseModeKey(value)
	if err != nil {
		return nil, err
	}
	if team, ok := mode.(model.Team); ok && team.ID == cfg.TeamID {
		team.Name = cfg.TeamName
		return team, nil
	}
	return mode, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# bible365 configuration
# Uncomment a value to enable it. CLI flags override config values.

[reading]
# user = "me@example.com"  # Scopes local progress and uploads
# threshold = %.2f          # Share of words that completes a verse (0-1]
# bible-path = %q
# team-id = 0               # Read as a team member (0 = personal)
# team-name = ""
# resume = true             # Start at the last read verse
# category = %q        # whole, old, new, gospels, psalms-proverbs

[upload]
# enabled = true
# base-url = "https://example.com"
# token = ""                # Or set %s

[log]
# level = %q
# format = %q
`,
		session.DefaultThreshold,
		config.DefaultBiblePath(),
		bible.CategoryWhole,
		config.TokenEnv,
		defaultLogLevel,
		defaultLogFormat,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
