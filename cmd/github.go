package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comunikime/jarvis/constants/lipgloss"
)

// githubCmd: jarvis github
var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "Inspect the configured GitHub repository.",
	Long: `The 'github' subcommand reads from the repository configured via
--github_owner/--github_repo (or GITHUB_OWNER/GITHUB_REPO). It can list files,
show recent commits and list pull requests.`,
}

var githubCommitsCmd = &cobra.Command{
	Use:   "commits",
	Short: "Show recent commits",
	Run: func(cmd *cobra.Command, args []string) {
		withRetriever(cmd, func(ctx context.Context, deps *RootDependencies) error {
			n, _ := cmd.Flags().GetInt("count")
			commits, err := deps.GitHub.GetRecentCommits(ctx, n)
			if err != nil {
				return err
			}
			for _, c := range commits {
				short := c.SHA
				if len(short) > 7 {
					short = short[:7]
				}
				fmt.Printf("%s  %s  (%s)\n", lipgloss.Yellow.Render(short), firstLine(c.Commit.Message), c.Commit.Author.Name)
			}
			return nil
		})
	},
}

var githubPullsCmd = &cobra.Command{
	Use:   "prs",
	Short: "List pull requests",
	Run: func(cmd *cobra.Command, args []string) {
		withRetriever(cmd, func(ctx context.Context, deps *RootDependencies) error {
			state, _ := cmd.Flags().GetString("state")
			n, _ := cmd.Flags().GetInt("count")
			prs, err := deps.GitHub.GetPullRequests(ctx, state, n)
			if err != nil {
				return err
			}
			for _, pr := range prs {
				fmt.Printf("#%d  %s  [%s]  @%s\n", pr.Number, pr.Title, pr.State, pr.User.Login)
			}
			return nil
		})
	},
}

var githubFilesCmd = &cobra.Command{
	Use:   "files [path]",
	Short: "List files in the repository",
	Run: func(cmd *cobra.Command, args []string) {
		withRetriever(cmd, func(ctx context.Context, deps *RootDependencies) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			ext, _ := cmd.Flags().GetString("ext")
			files, err := deps.GitHub.ListFiles(ctx, path, ext)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Println(f.Path)
			}
			return nil
		})
	},
}

func init() {
	githubCommitsCmd.Flags().Int("count", 10, "Number of commits to show")
	githubPullsCmd.Flags().String("state", "open", "PR state: open, closed, all")
	githubPullsCmd.Flags().Int("count", 10, "Number of pull requests to show")
	githubFilesCmd.Flags().String("ext", "", "Only list files with this extension (e.g. '.py')")

	githubCmd.AddCommand(githubCommitsCmd, githubPullsCmd, githubFilesCmd)
	rootCmd.AddCommand(githubCmd)
}

func withRetriever(cmd *cobra.Command, fn func(ctx context.Context, deps *RootDependencies) error) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}
	defer rootDependencies.CloseLogger()

	if !rootDependencies.GitHub.IsEnabled() {
		fmt.Println(lipgloss.Yellow.Render("GitHub is not configured. Set GITHUB_OWNER and GITHUB_REPO."))
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := fn(ctx, rootDependencies); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
