// Package config provides CLI commands for managing mindnode configuration.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	appconfig "github.com/Iron-Ham/mindnode/internal/config"
)

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath
var execCommand = exec.Command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify mindnode configuration",
	Long: `View or modify mindnode configuration.

Without arguments, shows the effective configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  mindnode config set storage.backend sqlite
  mindnode config set layout.direction LR
  mindnode config set server.allowed_origins http://localhost:5173,http://127.0.0.1:5173

Valid keys:
  storage.backend          - Storage backend: file, sqlite, memory
  storage.dir              - Directory for board state and logs
  storage.key              - Name of the state document
  layout.direction         - Default layout direction: TB or LR
  import.description       - Description for imported plans without one
  autosave.debounce_ms     - Quiet period before canvas edits are written
  watch.enabled            - Reload boards changed by another process (true/false)
  watch.debounce_ms        - Quiet period before reloading
  server.addr              - Listen address for 'mindnode serve'
  server.allowed_origins   - Comma-separated CORS origins
  logging.enabled          - Write a debug log (true/false)
  logging.level            - Log level: debug, info, warn, error
  logging.max_size_mb      - Rotate the log at this size
  logging.max_backups      - Rotated logs to keep
  logging.compress         - Gzip rotated logs (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/mindnode/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in your editor",
	Long: `Open the config file in your preferred editor.

Uses $EDITOR environment variable, or falls back to common editors (vim, nano, vi).
If no config file exists, creates one with default values first.`,
	RunE: runConfigEdit,
}

var configResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset configuration to defaults",
	Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.

Examples:
  mindnode config reset                   # Reset all to defaults
  mindnode config reset layout.direction  # Reset only layout.direction`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigReset,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configResetCmd)
}

// Register adds all config-related commands to the given parent command.
// This is the main entry point for integrating the config subpackage with
// the root command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// keyTypes lists the settable keys and how their values are parsed.
var keyTypes = map[string]string{
	"storage.backend":        "string",
	"storage.dir":            "string",
	"storage.key":            "string",
	"layout.direction":       "string",
	"import.description":     "string",
	"autosave.debounce_ms":   "int",
	"watch.enabled":          "bool",
	"watch.debounce_ms":      "int",
	"server.addr":            "string",
	"server.allowed_origins": "list",
	"logging.enabled":        "bool",
	"logging.level":          "string",
	"logging.max_size_mb":    "int",
	"logging.max_backups":    "int",
	"logging.compress":       "bool",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(appconfig.Get())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func parseValue(key, value string) (any, error) {
	keyType, ok := keyTypes[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'mindnode config set --help' to see valid keys", key)
	}
	switch keyType {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return b, nil
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		return n, nil
	case "list":
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		return value, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	typed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	previous := viper.Get(key)
	viper.Set(key, typed)
	if _, err := appconfig.Load(); err != nil {
		viper.Set(key, previous)
		return err
	}

	if err := writeConfig(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typed)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", appconfig.ConfigFile())
	return nil
}

// writeConfig saves the effective configuration to the user's config file.
func writeConfig() error {
	if err := os.MkdirAll(appconfig.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	cfg, err := appconfig.Load()
	if err != nil {
		return err
	}
	return writeConfigFile(appconfig.ConfigFile(), cfg)
}

const configHeader = `# mindnode configuration
#
# Every key can also be set with a MINDNODE_ environment variable,
# e.g. MINDNODE_STORAGE_BACKEND=sqlite for storage.backend.

`

func writeConfigFile(path string, cfg *appconfig.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	content := append([]byte(configHeader), data...)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := appconfig.ConfigDir()
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'mindnode config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := writeConfigFile(configFile, appconfig.Default()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := appconfig.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(appconfig.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/mindnode/config.yaml\n")
	fmt.Fprintln(out, "\nEnvironment variables: MINDNODE_* (e.g., MINDNODE_STORAGE_BACKEND)")
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "Config file doesn't exist, creating with defaults...")
		if err := runConfigInit(cmd, args); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"vim", "nano", "vi"} {
			if _, err := execLookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set $EDITOR environment variable")
	}

	editorCmd := execCommand(editor, configFile)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config file saved: %s\n", configFile)
	return nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	defaults := appconfig.Default()
	defaultValues := map[string]any{
		"storage.backend":        defaults.Storage.Backend,
		"storage.dir":            defaults.Storage.Dir,
		"storage.key":            defaults.Storage.Key,
		"layout.direction":       defaults.Layout.Direction,
		"import.description":     defaults.Import.Description,
		"autosave.debounce_ms":   defaults.Autosave.DebounceMs,
		"watch.enabled":          defaults.Watch.Enabled,
		"watch.debounce_ms":      defaults.Watch.DebounceMs,
		"server.addr":            defaults.Server.Addr,
		"server.allowed_origins": defaults.Server.AllowedOrigins,
		"logging.enabled":        defaults.Logging.Enabled,
		"logging.level":          defaults.Logging.Level,
		"logging.max_size_mb":    defaults.Logging.MaxSizeMB,
		"logging.max_backups":    defaults.Logging.MaxBackups,
		"logging.compress":       defaults.Logging.Compress,
	}

	if len(args) == 1 {
		key := args[0]
		v, ok := defaultValues[key]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s", key)
		}
		viper.Set(key, v)
		if err := writeConfig(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to %v\n", key, v)
		return nil
	}

	for key, v := range defaultValues {
		viper.Set(key, v)
	}
	if err := writeConfig(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Reset all configuration to defaults")
	return nil
}
