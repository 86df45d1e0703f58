package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/comunikime/jarvis/audio"
	"github.com/comunikime/jarvis/cache_manager"
	"github.com/comunikime/jarvis/code_analyzer"
	"github.com/comunikime/jarvis/code_analyzer/models"
	"github.com/comunikime/jarvis/config"
	"github.com/comunikime/jarvis/constants/lipgloss"
	"github.com/comunikime/jarvis/github_retriever"
	"github.com/comunikime/jarvis/log_manager"
	provider_contracts "github.com/comunikime/jarvis/providers/contracts"
	openai_provider "github.com/comunikime/jarvis/providers/openai"
	"github.com/comunikime/jarvis/token_management"
	tokens_contracts "github.com/comunikime/jarvis/token_management/contracts"
)

// RootDependencies holds the dependencies shared by all subcommands.
type RootDependencies struct {
	Config          *config.Config
	Cwd             string
	Logger          *slog.Logger
	CloseLogger     func()
	TokenManagement tokens_contracts.ITokenManagement
	Analyzer        *code_analyzer.CodeAnalyzer
	AnalysisCache   *cache_manager.Manager[models.ProjectAnalysis]
	ResponseCache   *cache_manager.Manager[string]
	ChatClient      provider_contracts.IChatClient
	GitHub          *github_retriever.Retriever
	Audio           *audio.Engine
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "jarvis",
	Short: "Jarvis is a personal AI assistant for your terminal.",
	Long: `Jarvis is a session-based personal assistant. Ask questions by voice or text,
point it at a codebase to get code-aware answers, and let it pull context from
your GitHub repositories. Replies and project analyses are cached locally so
repeated questions are instant and free.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

// handleRootCommand loads configuration and wires every dependency the
// subcommands share. Optional collaborators (chat provider, GitHub, audio)
// degrade to nil or disabled rather than aborting startup.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	deps := &RootDependencies{Cwd: cwd}
	deps.Config = config.LoadConfigs(rootCmd, cwd)

	logger, closeLogger, err := log_manager.New(log_manager.Options{
		LogDir:       deps.Config.LogDir,
		ConsoleLevel: log_manager.LevelFromString(deps.Config.LogLevel),
		FileLevel:    slog.LevelDebug,
	})
	if err != nil {
		// The console handler still works; note the degraded state and go on.
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("File logging unavailable: %v", err)))
	}
	deps.Logger = logger
	deps.CloseLogger = closeLogger

	deps.TokenManagement = token_management.NewTokenManager()

	if deps.Config.EnableCache {
		deps.AnalysisCache = newNamespaceCache[models.ProjectAnalysis](deps, "code_analysis")
		deps.ResponseCache = newNamespaceCache[string](deps, "openai")
	}

	deps.Analyzer = code_analyzer.NewCodeAnalyzer(deps.AnalysisCache, logger)

	if apiKey := deps.Config.AIProviderConfig.ApiKey; apiKey != "" {
		meta, metaErr := openai_provider.NewMetaStore("")
		if metaErr != nil {
			logger.Error("failed to open session metadata store", "error", metaErr)
		}
		client, clientErr := openai_provider.NewClient(openai_provider.Config{
			APIKey:          apiKey,
			Model:           deps.Config.AIProviderConfig.Model,
			BaseURL:         deps.Config.AIProviderConfig.BaseURL,
			Cache:           deps.ResponseCache,
			Meta:            meta,
			TokenManagement: deps.TokenManagement,
			Logger:          logger,
		})
		if clientErr != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error initializing chat provider: %v", clientErr)))
			return nil
		}
		deps.ChatClient = client
	}

	deps.GitHub = github_retriever.NewRetriever(
		deps.Config.GitHub.Token,
		deps.Config.GitHub.Owner,
		deps.Config.GitHub.Repo,
		logger,
	)

	deps.Audio = audio.New(audio.Options{Logger: logger})

	return deps
}

// newNamespaceCache opens one cache tier under the configured root. Cache
// failures only disable caching; the assistant keeps working.
func newNamespaceCache[T any](deps *RootDependencies, namespace string) *cache_manager.Manager[T] {
	dir := deps.Config.CacheDir
	if dir == "" {
		var err error
		dir, err = cache_manager.DefaultDir(namespace)
		if err != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Cache disabled: %v", err)))
			return nil
		}
	} else {
		dir = filepath.Join(dir, namespace)
	}

	return cache_manager.New[T](dir, deps.Config.CacheMaxAge, deps.Logger)
}
