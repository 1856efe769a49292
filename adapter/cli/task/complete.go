package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oicomi/oicomi/adapter/cli"
)

var completeCmd = &cobra.Command{
	Use:   "complete [task-id]",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		t, err := resolve(app.Store, args[0])
		if err != nil {
			return err
		}
		if err := app.Store.Complete(cmd.Context(), t.ID()); err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}

		fmt.Printf("Completed: %s\n", t.Title())
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [task-id]",
	Short: "Move a completed task back to the active list",
	Long: `Restore a completed task. The task keeps its original creation
time, so it returns to its old position in the list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		t, err := resolve(app.Store, args[0])
		if err != nil {
			return err
		}
		if err := app.Store.Restore(cmd.Context(), t.ID()); err != nil {
			return fmt.Errorf("failed to restore task: %w", err)
		}

		fmt.Printf("Restored: %s\n", t.Title())
		return nil
	},
}
