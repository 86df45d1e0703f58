package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/comunikime/jarvis/code_analyzer"
	"github.com/comunikime/jarvis/constants/lipgloss"
	"github.com/comunikime/jarvis/utils"
)

const codeTokenBudget = 2000

// codeCmd: jarvis code
var codeCmd = &cobra.Command{
	Use:   "code [question]",
	Short: "Ask a question about the code in the current directory.",
	Long: `The 'code' subcommand answers questions about the project in the current
working directory. The project structure is analyzed once and cached; the most
relevant functions and classes are ranked against the question and sent to the
assistant as context, so answers refer to the actual code.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.CloseLogger()

		path, _ := cmd.Flags().GetString("path")
		handleCodeCommand(rootDependencies, path, strings.Join(args, " "))
	},
}

func init() {
	codeCmd.Flags().String("path", "", "Analyze this directory instead of the current one")
	rootCmd.AddCommand(codeCmd)
}

func handleCodeCommand(rootDependencies *RootDependencies, path string, question string) {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if rootDependencies.ChatClient == nil {
		fmt.Println(lipgloss.Red.Render("No API key configured. Set OPENAI_API_KEY or pass --api_key."))
		return
	}

	if strings.TrimSpace(question) == "" {
		fmt.Println(lipgloss.Red.Render("A question is required, e.g. jarvis code \"where is the cache invalidated?\""))
		return
	}

	if path == "" {
		path = rootDependencies.Cwd
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)

	spinnerLoadContext, _ := spinner.Start("Analyzing project...")

	analysis := rootDependencies.Analyzer.CachedAnalyzeProject(path)

	spinnerLoadContext.Stop()
	fmt.Print("\r")

	if analysis.Summary.TotalFiles == 0 {
		fmt.Println(lipgloss.Yellow.Render("No analyzable source files found."))
		return
	}

	summaryBox := lipgloss.BoxStyle.Render(fmt.Sprintf(
		"Files: %d   Functions: %d   Classes: %d",
		analysis.Summary.TotalFiles,
		analysis.Summary.TotalFunctions,
		analysis.Summary.TotalClasses,
	))
	fmt.Println(summaryBox)

	functions, classes := code_analyzer.Rank(analysis, question)
	prompt := code_analyzer.AssemblePrompt(functions, classes, question, codeTokenBudget, rootDependencies.TokenManagement)

	spinnerThinking, _ := spinner.Start("Thinking...")

	reply, err := rootDependencies.ChatClient.SendMessage(ctx, prompt, "")

	spinnerThinking.Stop()
	fmt.Print("\r")

	if err != nil {
		if ctx.Err() != nil {
			fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
			return
		}
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	if renderErr := utils.RenderAndPrintMarkdownWithContext(ctx, reply, "markdown", rootDependencies.Config.Theme); renderErr != nil {
		if renderErr == context.Canceled {
			return
		}
		fmt.Println(reply)
	}

	rootDependencies.TokenManagement.DisplayTokens(
		rootDependencies.Config.AIProviderConfig.Provider,
		rootDependencies.Config.AIProviderConfig.Model,
	)
}
