package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"hackersky/internal/config"
	"hackersky/internal/logging"
	"hackersky/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	appCfg  config.Config
)

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "hackersky",
	Short:         "Post trending Hacker News stories to Bluesky",
	Long:          "Ranks the Hacker News front page by hotness and posts the top stories that were not posted before, with a link card and thumbnail.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("app.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	v := viper.GetViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/hackersky")
		v.AddConfigPath("configs")
	}
	v.SetEnvPrefix("HACKERSKY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	configUsed := ""
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		configUsed = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing config: %v\n", err)
		os.Exit(1)
	}

	appCfg.FillDefaults()
	log := logging.Setup(appCfg.App.LogLevel)
	if configUsed != "" {
		log.Debug("using config file", "path", configUsed)
	}

	store, err := secrets.Load(appCfg.App.SecretsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading secrets: %v\n", err)
		os.Exit(1)
	}
	appCfg.ApplySecrets(store)
}

// bindEnvKeys registers every config key with viper so AutomaticEnv can
// override keys that are absent from the config file.
func bindEnvKeys(v *viper.Viper) {
	for _, k := range []string{
		"app.log_level", "app.secrets_file",
		"feed.url", "feed.count", "feed.timeout",
		"pipeline.top_n", "pipeline.recent_posts", "pipeline.workers", "pipeline.interval", "pipeline.dry_run",
		"thumbnail.max_bytes", "thumbnail.scale", "thumbnail.min_dimension", "thumbnail.format",
		"thumbnail.quality", "thumbnail.max_download_bytes", "thumbnail.timeout", "thumbnail.user_agent",
		"thumbnail.use_page_summary",
		"bluesky.base_url", "bluesky.handle", "bluesky.password", "bluesky.timeout",
		"redis.enabled", "redis.addr", "redis.username", "redis.password", "redis.db", "redis.key", "redis.retention",
		"openai.api_key", "openai.model", "openai.base_url", "openai.language",
	} {
		_ = v.BindEnv(k)
	}
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}
