package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oicomi/oicomi/adapter/cli"
)

var (
	addEstimate int
	addURLs     []string
	addPriority bool
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long: `Add a task with a title and an estimated duration in minutes.

Examples:
  oicomi task add "Write weekly report" -e 45
  oicomi task add "Review PR" -e 30 -u https://example.com/pr/42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		t, err := app.Store.Add(cmd.Context(), args[0], addEstimate, addURLs)
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}

		if addPriority {
			if err := app.Store.Update(cmd.Context(), t.ID(), taskPriorityPatch(true)); err != nil {
				return fmt.Errorf("failed to prioritize task: %w", err)
			}
		}

		fmt.Printf("Task added: %s\n", t.ID())
		fmt.Printf("  title: %s\n", t.Title())
		fmt.Printf("  estimate: %d minutes\n", t.EstimatedTime())
		return nil
	},
}

func init() {
	addCmd.Flags().IntVarP(&addEstimate, "estimate", "e", 25, "estimated duration in minutes")
	addCmd.Flags().StringSliceVarP(&addURLs, "url", "u", nil, "related URL (repeatable)")
	addCmd.Flags().BoolVar(&addPriority, "priority", false, "mark as priority")
}
