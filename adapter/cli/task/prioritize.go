package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oicomi/oicomi/adapter/cli"
)

var prioritizeOff bool

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize [task-id]",
	Short: "Mark a task as priority",
	Long:  `Priority tasks sort ahead of the rest of the active list.`,
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
		if err := app.Store.Update(cmd.Context(), t.ID(), taskPriorityPatch(!prioritizeOff)); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		if prioritizeOff {
			fmt.Printf("Priority cleared: %s\n", t.Title())
		} else {
			fmt.Printf("Priority set: %s\n", t.Title())
		}
		return nil
	},
}

func init() {
	prioritizeCmd.Flags().BoolVar(&prioritizeOff, "off", false, "clear the priority mark")
}
