package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var memoCmd = &cobra.Command{
	Use:   "memo [text]",
	Short: "Show or set the memo",
	Long: `Without arguments, prints the memo. With arguments, replaces
the memo content.

Examples:
  oicomi memo
  oicomi memo "call the dentist tomorrow"`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		if len(args) == 0 {
			m := app.Store.Memo()
			if m == nil || m.Content == "" {
				fmt.Println("(no memo)")
				return nil
			}
			fmt.Println(m.Content)
			return nil
		}

		m, err := app.Store.SetMemo(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("failed to save memo: %w", err)
		}
		fmt.Printf("Memo saved at %s\n", m.LastUpdated.Local().Format("15:04:05"))
		return nil
	},
}

func init() {
	AddCommand(memoCmd)
}
