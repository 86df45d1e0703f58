package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/comunikime/jarvis/constants/lipgloss"
)

// AIProviderConfig groups the chat provider settings.
type AIProviderConfig struct {
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
	ApiKey   string `mapstructure:"api_key"`
}

// GitHubConfig groups the repository retriever settings.
type GitHubConfig struct {
	Token string `mapstructure:"token"`
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`
}

// Config represents the structure of the configuration file
type Config struct {
	Version          string            `mapstructure:"version"`
	Theme            string            `mapstructure:"theme"`
	LogLevel         string            `mapstructure:"log_level"`
	LogDir           string            `mapstructure:"log_dir"`
	Voice            bool              `mapstructure:"voice"`
	EnableCache      bool              `mapstructure:"enable_cache"`
	CacheDir         string            `mapstructure:"cache_dir"`
	CacheMaxAge      time.Duration     `mapstructure:"cache_max_age"`
	AIProviderConfig *AIProviderConfig `mapstructure:"ai_provider_config"`
	GitHub           *GitHubConfig     `mapstructure:"github"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:     "1.0.0",
	Theme:       "dracula",
	LogLevel:    "info",
	LogDir:      "",
	Voice:       false,
	EnableCache: true,
	CacheDir:    "",
	CacheMaxAge: 24 * time.Hour,
	AIProviderConfig: &AIProviderConfig{
		Provider: "openai",
		BaseURL:  "",
		Model:    "gpt-4o-mini",
		ApiKey:   "",
	},
	GitHub: &GitHubConfig{},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	// A .env next to the binary keeps API keys out of the shell profile.
	_ = godotenv.Load()

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		viper.SetConfigName("jarvis-config")
		viper.AddConfigPath(cwd)

		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				fmt.Println(lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	bindFlags(rootCmd)

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("log_level", DefaultConfig.LogLevel)
	viper.SetDefault("log_dir", DefaultConfig.LogDir)
	viper.SetDefault("voice", DefaultConfig.Voice)
	viper.SetDefault("enable_cache", DefaultConfig.EnableCache)
	viper.SetDefault("cache_dir", DefaultConfig.CacheDir)
	viper.SetDefault("cache_max_age", DefaultConfig.CacheMaxAge)
	viper.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	viper.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	viper.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	viper.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
	viper.SetDefault("github.token", DefaultConfig.GitHub.Token)
	viper.SetDefault("github.owner", DefaultConfig.GitHub.Owner)
	viper.SetDefault("github.repo", DefaultConfig.GitHub.Repo)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("voice", "JARVIS_VOICE")
	_ = viper.BindEnv("enable_cache", "ENABLE_CACHE")
	_ = viper.BindEnv("cache_dir", "JARVIS_CACHE_DIR")
	_ = viper.BindEnv("cache_max_age", "JARVIS_CACHE_MAX_AGE")
	_ = viper.BindEnv("ai_provider_config.base_url", "BASE_URL")
	_ = viper.BindEnv("ai_provider_config.model", "MODEL")
	_ = viper.BindEnv("ai_provider_config.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("github.token", "GITHUB_TOKEN")
	_ = viper.BindEnv("github.owner", "GITHUB_OWNER")
	_ = viper.BindEnv("github.repo", "GITHUB_REPO")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log_level"))
	_ = viper.BindPFlag("voice", rootCmd.PersistentFlags().Lookup("voice"))
	_ = viper.BindPFlag("enable_cache", rootCmd.PersistentFlags().Lookup("enable_cache"))
	_ = viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache_dir"))
	_ = viper.BindPFlag("cache_max_age", rootCmd.PersistentFlags().Lookup("cache_max_age"))
	_ = viper.BindPFlag("ai_provider_config.base_url", rootCmd.PersistentFlags().Lookup("base_url"))
	_ = viper.BindPFlag("ai_provider_config.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("ai_provider_config.api_key", rootCmd.PersistentFlags().Lookup("api_key"))
	_ = viper.BindPFlag("github.token", rootCmd.PersistentFlags().Lookup("github_token"))
	_ = viper.BindPFlag("github.owner", rootCmd.PersistentFlags().Lookup("github_owner"))
	_ = viper.BindPFlag("github.repo", rootCmd.PersistentFlags().Lookup("github_repo"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set customize theme for rendering code blocks. (e.g., 'dracula', 'light', 'dark')")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "Console log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("voice", DefaultConfig.Voice, "Enable voice input and spoken replies")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Enable or disable response and analysis caching")
	rootCmd.PersistentFlags().String("cache_dir", DefaultConfig.CacheDir, "Override the cache directory (default ~/.jarvis/cache)")
	rootCmd.PersistentFlags().Duration("cache_max_age", DefaultConfig.CacheMaxAge, "Maximum age of cache entries before expiry")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	// AI Provider configuration
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of the AI provider.")
	rootCmd.PersistentFlags().String("model", DefaultConfig.AIProviderConfig.Model, "The name of the model used for chat completions, such as 'gpt-4o-mini'.")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.AIProviderConfig.ApiKey, "The API key used to authenticate with the AI service provider.")

	// GitHub retriever configuration
	rootCmd.PersistentFlags().String("github_token", "", "GitHub token for the repository retriever")
	rootCmd.PersistentFlags().String("github_owner", "", "GitHub repository owner")
	rootCmd.PersistentFlags().String("github_repo", "", "GitHub repository name")
}
