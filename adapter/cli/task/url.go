package task

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oicomi/oicomi/adapter/cli"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
)

var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Manage a task's reference URLs",
}

var urlAddCmd = &cobra.Command{
	Use:   "add [task-id] [url]",
	Short: "Attach a URL to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		t, err := resolve(app.Store, args[0])
		if err != nil {
			return err
		}
		t.AddURL(args[1])

		urls := t.URLs()
		if err := app.Store.Update(cmd.Context(), t.ID(), task.Patch{URLs: &urls}); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		fmt.Printf("URL added to %s\n", t.Title())
		return nil
	},
}

var urlRemoveCmd = &cobra.Command{
	Use:   "remove [task-id] [index]",
	Short: "Detach a URL from a task by its list position",
	Long:  `Remove the URL at the given position, counted from 1 as shown by "task url list".`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		t, err := resolve(app.Store, args[0])
		if err != nil {
			return err
		}

		position, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid url position %q", args[1])
		}
		if err := t.RemoveURL(position - 1); err != nil {
			return err
		}

		urls := t.URLs()
		if err := app.Store.Update(cmd.Context(), t.ID(), task.Patch{URLs: &urls}); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		fmt.Printf("URL removed from %s\n", t.Title())
		return nil
	},
}

var urlListCmd = &cobra.Command{
	Use:   "list [task-id]",
	Short: "List a task's URLs",
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

		urls := t.URLs()
		if len(urls) == 0 {
			fmt.Println("No URLs")
			return nil
		}
		for i, u := range urls {
			fmt.Printf("%d. %s\n", i+1, u)
		}
		return nil
	},
}

func init() {
	urlCmd.AddCommand(urlAddCmd)
	urlCmd.AddCommand(urlRemoveCmd)
	urlCmd.AddCommand(urlListCmd)
}
