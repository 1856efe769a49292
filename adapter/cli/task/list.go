package task

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oicomi/oicomi/adapter/cli"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
)

var listCompleted bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List active tasks, priority tasks first. Use --completed to list
completed tasks, most recent first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		var tasks []*task.Task
		if listCompleted {
			tasks = app.Store.CompletedView()
		} else {
			tasks = app.Store.ActiveView()
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks")
			return nil
		}

		for _, t := range tasks {
			printTask(t)
		}
		return nil
	},
}

func printTask(t *task.Task) {
	var marks []string
	if t.IsPriority() {
		marks = append(marks, "priority")
	}
	if t.IsActive() {
		marks = append(marks, "active")
	}
	suffix := ""
	if len(marks) > 0 {
		suffix = " [" + strings.Join(marks, ", ") + "]"
	}

	shortID := t.ID().String()[:8]
	if t.IsCompleted() && t.CompletedAt() != nil {
		fmt.Printf("%s  %s (%dm)  done %s%s\n",
			shortID, t.Title(), t.EstimatedTime(),
			t.CompletedAt().Local().Format("Jan 2 15:04"), suffix)
		return
	}
	fmt.Printf("%s  %s (%dm)%s\n", shortID, t.Title(), t.EstimatedTime(), suffix)
}

func init() {
	listCmd.Flags().BoolVar(&listCompleted, "completed", false, "list completed tasks")
}
