package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/dpratama/clipd/internal"
)

// analyzeCmd runs the full pipeline for one video and prints the clip
// suggestions, without going through the HTTP server.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [URL]",
	Short: "Find viral clip candidates in a video",
	Example: `  # Analyze a video and print clip suggestions
  clipd analyze "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Machine-readable output
  clipd analyze "https://youtu.be/tAP1eZYEuKA" --json

  # Copy the result to the clipboard
  clipd analyze "https://youtu.be/tAP1eZYEuKA" --copy

  # Use a different clip model
  clipd analyze "https://youtu.be/tAP1eZYEuKA" --model gpt-4o`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.ValidateOpenAIRequirements(cmd, config); err != nil {
			return err
		}

		app := internal.NewApp(config)
		if err := internal.HandlePromptFlag(cmd, app); err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		toClipboard, _ := cmd.Flags().GetBool("copy")

		showStatus := internal.IsTerminal() && !config.Verbose && !asJSON
		result, err := app.AnalyzeWithStatus(cmd.Context(), args[0], showStatus)
		if err != nil {
			return err
		}

		if asJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}
			fmt.Println(string(data))
			if toClipboard {
				if err := clipboard.WriteAll(string(data)); err != nil {
					return fmt.Errorf("copying result to clipboard: %w", err)
				}
			}
			return nil
		}

		report := formatAnalysis(result)
		if internal.IsTerminal() {
			rendered, err := internal.RenderMarkdown(report)
			if err == nil {
				report = rendered
			}
		}
		fmt.Println(report)

		if toClipboard {
			if err := clipboard.WriteAll(formatAnalysis(result)); err != nil {
				return fmt.Errorf("copying result to clipboard: %w", err)
			}
			fmt.Println("Result copied to clipboard")
		}

		return nil
	},
}

// formatAnalysis renders an analysis result as markdown.
func formatAnalysis(result *internal.AnalysisResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", result.VideoTitle))
	sb.WriteString(fmt.Sprintf("Session: `%s`\n\n", result.VideoID))

	for _, clip := range result.Clips {
		sb.WriteString(fmt.Sprintf("## %d. %s\n\n", clip.ID, clip.Title))
		sb.WriteString(fmt.Sprintf("- **Range:** %ds - %ds (%ds)\n", clip.Start, clip.End, clip.Duration()))
		sb.WriteString(fmt.Sprintf("- **Why:** %s\n", clip.Reason))
		if clip.HighlightQuote != "" {
			sb.WriteString(fmt.Sprintf("- **Quote:** %q\n", clip.HighlightQuote))
		}
		if clip.HookText != "" {
			sb.WriteString(fmt.Sprintf("- **Hook:** %s\n", clip.HookText))
		}
		if clip.SocialCaption != "" {
			sb.WriteString(fmt.Sprintf("- **Caption:** %s\n", clip.SocialCaption))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Transcript preview: %s\n", result.FullTextPreview))
	return sb.String()
}

func init() {
	internal.AddOpenAIFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "Print the result as JSON")
	analyzeCmd.Flags().Bool("copy", false, "Copy the result to the clipboard")
	rootCmd.AddCommand(analyzeCmd)
}
