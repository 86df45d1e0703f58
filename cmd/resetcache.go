package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/comunikime/jarvis/cache_manager"
	"github.com/comunikime/jarvis/constants/lipgloss"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the local caches for Jarvis",
	Long: `The 'reset-cache' command removes cached entries from the local cache tiers.
This includes cached AI replies and cached project analyses.
Use this command to clear corrupted cache or when experiencing cache-related issues.`,
	Run: func(cmd *cobra.Command, args []string) {
		var force bool
		var stats bool
		var olderThan time.Duration

		force, _ = cmd.Flags().GetBool("force")
		stats, _ = cmd.Flags().GetBool("stats")
		olderThan, _ = cmd.Flags().GetDuration("older_than")

		handleResetCacheCommand(force, stats, olderThan, cmd)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")
	resetCacheCmd.Flags().Duration("older_than", 0, "Only remove entries older than this (default removes everything)")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool, showStats bool, olderThan time.Duration, cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}
	defer rootDependencies.CloseLogger()

	caches := map[string]interface {
		Stats() cache_manager.Snapshot
		Clear(maxAge time.Duration) int
	}{}
	if rootDependencies.AnalysisCache != nil {
		caches["code_analysis"] = rootDependencies.AnalysisCache
	}
	if rootDependencies.ResponseCache != nil {
		caches["openai"] = rootDependencies.ResponseCache
	}

	if len(caches) == 0 {
		fmt.Println(lipgloss.Yellow.Render("Cache is disabled. No cache to reset."))
		return
	}

	if showStats {
		fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
		for name, c := range caches {
			snapshot := c.Stats()
			fmt.Printf("  [%s]\n", name)
			fmt.Printf("    Directory:  %s\n", snapshot.CacheDir)
			fmt.Printf("    Files:      %d\n", snapshot.FileCount)
			fmt.Printf("    Total Size: %.2f MB\n", float64(snapshot.TotalSizeBytes)/(1024*1024))
			fmt.Printf("    Hit Rate:   %.1f%%\n", snapshot.HitRatePercent)
		}
		return
	}

	if !force {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Are you sure you want to reset the Jarvis caches? (y/N): ")
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Resetting caches...")

	// Without --older_than the sweep matches every entry.
	maxAge := olderThan
	if maxAge <= 0 {
		maxAge = time.Nanosecond
	}

	removed := 0
	for _, c := range caches {
		removed += c.Clear(maxAge)
	}

	spinnerInstance.Stop()
	fmt.Print("\r")
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Cache reset complete. Removed %d entries.", removed)))
}
