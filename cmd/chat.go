package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/comunikime/jarvis/constants/lipgloss"
	"github.com/comunikime/jarvis/utils"
)

// chatCmd: jarvis chat
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation with Jarvis.",
	Long: `The 'chat' subcommand starts a session-based conversation with the assistant.
Questions can be typed or spoken when voice mode is enabled, and replies are read
aloud in addition to being printed. Repeating a question within the cache window
returns the cached reply without calling the AI provider.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.CloseLogger()

		imagePath, _ := cmd.Flags().GetString("image")
		handleChatCommand(rootDependencies, imagePath)
	},
}

func init() {
	chatCmd.Flags().String("image", "", "Attach an image file to the first message")
	rootCmd.AddCommand(chatCmd)
}

func handleChatCommand(rootDependencies *RootDependencies, imagePath string) {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if rootDependencies.ChatClient == nil {
		fmt.Println(lipgloss.Red.Render("No API key configured. Set OPENAI_API_KEY or pass --api_key."))
		return
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)

	reader := bufio.NewReader(os.Stdin)

	voice := rootDependencies.Config.Voice && rootDependencies.Audio.Available()
	if rootDependencies.Config.Voice && !voice {
		fmt.Println(lipgloss.Yellow.Render("Voice tools not found, falling back to text."))
	}

	chatOptionsBox := lipgloss.BoxStyle.Render("/help  Help for chat subcommand")
	fmt.Println(chatOptionsBox)

	greeting := "Hello! I am Jarvis. How can I help you today?"
	fmt.Println(lipgloss.BlueSky.Render(greeting))
	if voice {
		_ = rootDependencies.Audio.Speak(ctx, greeting)
	}

	for {
		select {
		case <-ctx.Done():
			return

		default:
			userInput, err := readUserTurn(ctx, rootDependencies, reader, voice)

			if err != nil {
				if err == context.Canceled {
					fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
					return
				}
				fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
				continue
			}

			if userInput == "" {
				fmt.Print("\r")
				continue
			}

			isSubcommand, exit := findChatSubCommand(userInput, rootDependencies)
			if isSubcommand {
				continue
			}
			if exit {
				return
			}

			spinnerThinking, _ := spinner.Start("Thinking...")

			// An attached image rides along with the first message only.
			reply, err := rootDependencies.ChatClient.SendMessage(ctx, userInput, imagePath)
			imagePath = ""

			spinnerThinking.Stop()
			fmt.Print("\r")

			if err != nil {
				if ctx.Err() != nil {
					fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
					return
				}
				fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
				continue
			}

			if renderErr := utils.RenderAndPrintMarkdownWithContext(ctx, reply, "markdown", rootDependencies.Config.Theme); renderErr != nil {
				if renderErr == context.Canceled {
					return
				}
				fmt.Println(reply)
			}

			if voice {
				if speakErr := rootDependencies.Audio.Speak(ctx, reply); speakErr != nil && speakErr != context.Canceled {
					rootDependencies.Logger.Error("speech failed", "error", speakErr)
				}
			}
		}
	}
}

// readUserTurn obtains one user turn, by microphone in voice mode and from
// stdin otherwise. A failed recording falls back to typed input.
func readUserTurn(ctx context.Context, rootDependencies *RootDependencies, reader *bufio.Reader, voice bool) (string, error) {
	if voice {
		fmt.Println(lipgloss.Gray.Render("Listening..."))
		transcript, err := rootDependencies.Audio.Listen(ctx)
		if err == nil && transcript != "" {
			fmt.Println(lipgloss.BlueSky.Render("> ") + transcript)
			return transcript, nil
		}
		if err == context.Canceled {
			return "", err
		}
		if err != nil {
			rootDependencies.Logger.Error("voice input failed, falling back to text", "error", err)
		}
	}
	return utils.InputPromptWithContext(ctx, reader)
}

// findChatSubCommand handles the slash commands of the chat session.
func findChatSubCommand(command string, rootDependencies *RootDependencies) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/help":
		helpBox := lipgloss.BoxStyle.Render(`/help     Show this help
/tokens   Show token usage and cost for this session
/new      Start a new conversation thread
/clear    Clear the screen
exit      Leave the chat (also: quit, bye)`)
		fmt.Println(helpBox)
		return true, false

	case "/tokens":
		rootDependencies.TokenManagement.DisplayTokens(
			rootDependencies.Config.AIProviderConfig.Provider,
			rootDependencies.Config.AIProviderConfig.Model,
		)
		return true, false

	case "/new":
		rootDependencies.ChatClient.ResetConversation()
		rootDependencies.TokenManagement.ClearToken()
		fmt.Println(lipgloss.Green.Render("✓ Started a new conversation."))
		return true, false

	case "/clear":
		fmt.Print("\033[2J\033[H")
		return true, false

	case "exit", "quit", "bye", "goodbye":
		fmt.Println(lipgloss.BlueSky.Render("Goodbye!"))
		return false, true
	}
	return false, false
}
