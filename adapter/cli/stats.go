package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		stats := app.Store.Stats()
		fmt.Printf("Total tasks:          %d\n", stats.TotalTasks)
		fmt.Printf("Completed today:      %d\n", stats.TodayCompleted)
		fmt.Printf("Completed this week:  %d\n", stats.WeekCompleted)
		return nil
	},
}

func init() {
	AddCommand(statsCmd)
}
