package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dpratama/clipd/internal"
)

// clipCmd cuts a single clip straight from a video URL, skipping analysis.
var clipCmd = &cobra.Command{
	Use:   "clip [URL] [start] [end]",
	Short: "Cut a clip from a video by start and end seconds",
	Example: `  # Cut the segment from 30s to 75s
  clipd clip "https://www.youtube.com/watch?v=tAP1eZYEuKA" 30 75`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("start must be an integer: %w", err)
		}
		end, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("end must be an integer: %w", err)
		}

		app := internal.NewApp(config)
		sessionID := app.Sessions().Create(args[0])

		clipPath, err := app.Extract(cmd.Context(), sessionID, start, end)
		if err != nil {
			return err
		}

		fmt.Println(clipPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clipCmd)
}
