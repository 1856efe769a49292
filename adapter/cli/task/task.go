package task

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oicomi/oicomi/internal/productivity/domain/task"
	"github.com/oicomi/oicomi/internal/productivity/store"
)

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  `Add, list, complete, and time your tasks.`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(completeCmd)
	Cmd.AddCommand(restoreCmd)
	Cmd.AddCommand(prioritizeCmd)
	Cmd.AddCommand(urlCmd)
	Cmd.AddCommand(startCmd)
}

func taskPriorityPatch(priority bool) task.Patch {
	return task.Patch{IsPriority: &priority}
}

// resolve finds a task by full id or unambiguous id prefix.
func resolve(st *store.Store, ref string) (*task.Task, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return st.Get(id)
	}

	var match *task.Task
	all := append(st.ActiveView(), st.CompletedView()...)
	for _, t := range all {
		if strings.HasPrefix(t.ID().String(), ref) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous task id prefix %q", ref)
			}
			match = t
		}
	}
	if match == nil {
		return nil, task.ErrNotFound
	}
	return match, nil
}
