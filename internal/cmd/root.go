package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/mindnode/internal/cmd/config"
	appconfig "github.com/Iron-Ham/mindnode/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "mindnode",
	Short: "Visual planning boards from AI-authored plans",
	Long: `Mindnode keeps planning boards of tasks, notes, milestones and decisions.

Plans written by an AI assistant can be imported as JSON and are laid out
automatically. Boards are stored locally and served to the browser canvas
with 'mindnode serve'.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/mindnode/config.yaml)")
	rootCmd.PersistentFlags().String("backend", "", "storage backend: file, sqlite or memory")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for board state and logs")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", "", "password for locked boards")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("storage.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("storage.dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	config.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath("$HOME/.config/mindnode")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MINDNODE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., MINDNODE_STORAGE_BACKEND for storage.backend
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
