package task

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oicomi/oicomi/adapter/cli"
	"github.com/oicomi/oicomi/internal/timer"
)

var startCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Run the countdown timer for a task",
	Long: `Start a countdown for the task's estimated duration. When the
timer expires you decide whether to complete the task, take a 5-minute
break, or keep the task open.

Keys while running: p pause, r resume, q quit.
Keys after expiry: c complete, b break, q quit.`,
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

		if err := app.Store.SetActive(cmd.Context(), t.ID()); err != nil {
			return fmt.Errorf("failed to activate task: %w", err)
		}
		app.Machine.Start(t.ID(), t.EstimatedTime())
		fmt.Printf("Timer started: %s (%dm)\n", t.Title(), t.EstimatedTime())

		keys := readKeys()
		defer app.Machine.Reset()

		render := time.NewTicker(250 * time.Millisecond)
		defer render.Stop()

		for {
			select {
			case <-cmd.Context().Done():
				return nil

			case key := <-keys:
				if done, err := handleKey(app, key); done || err != nil {
					fmt.Println()
					return err
				}

			case <-render.C:
				snap := app.Machine.Snapshot()
				switch snap.State {
				case timer.StateRunning, timer.StatePaused:
					printCountdown(snap, t.Title())
				case timer.StateBreakRunning:
					printCountdown(snap, "break")
				case timer.StateExpired:
					fmt.Printf("\nTime is up. [c]omplete, [b]reak, or [q]uit? ")
					if done, err := handleKey(app, <-keys); done || err != nil {
						return err
					}
				case timer.StateBreakExpired:
					fmt.Println("\nBreak over.")
					return nil
				case timer.StateIdle:
					return nil
				}
			}
		}
	},
}

func printCountdown(snap timer.Snapshot, label string) {
	state := ""
	if !snap.IsRunning {
		state = " (paused)"
	}
	fmt.Printf("\r%s  %02d:%02d%s ", label, snap.TimeLeft/60, snap.TimeLeft%60, state)
}

// handleKey applies a single key press; done means the loop should exit.
func handleKey(app *cli.App, key string) (bool, error) {
	switch key {
	case "p":
		_ = app.Machine.Pause()
	case "r":
		_ = app.Machine.Resume()
	case "c":
		if err := app.Machine.ConfirmCompletion(); err != nil {
			return true, fmt.Errorf("failed to complete task: %w", err)
		}
		fmt.Println("Task completed.")
		return true, nil
	case "b":
		if err := app.Machine.StartBreak(); err != nil {
			return true, fmt.Errorf("failed to start break: %w", err)
		}
	case "q":
		return true, nil
	}
	return false, nil
}

// readKeys delivers one lowercase key per entered line.
func readKeys() <-chan string {
	ch := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if line == "" {
				continue
			}
			ch <- line[:1]
		}
	}()
	return ch
}
