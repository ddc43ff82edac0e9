package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qdash/qdash/internal/ui"
)

// varsCmd lists a dashboard's variables
var varsCmd = &cobra.Command{
	Use:   "vars <id|config>",
	Short: "List a dashboard's query variables",
	Long: `Show each declared variable with its type, default, and current value.

Examples:
  qdash vars sales.yaml
  qdash vars set sales.yaml region emea
  qdash vars reset sales.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		variables, err := newClient().Variables(args[0])
		if err != nil {
			return err
		}
		if len(variables) == 0 {
			fmt.Println("No variables declared")
			return nil
		}

		rows := make([][]string, len(variables))
		for i, v := range variables {
			rows[i] = []string{
				v.Key,
				v.Kind.String(),
				v.Default.Display(),
				v.Current.Display(),
				v.Description,
			}
		}
		fmt.Println(ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "KEY", Width: 16},
			{Title: "TYPE", Width: 8},
			{Title: "DEFAULT", Width: 20},
			{Title: "CURRENT", Width: 20},
			{Title: "DESCRIPTION", Width: 30},
		}, rows))
		return nil
	},
}

// varsSetCmd updates one variable and refreshes immediately
var varsSetCmd = &cobra.Command{
	Use:   "set <id|config> <key> <value>",
	Short: "Set a variable and refresh the dashboard",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().SetVariable(args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", args[1], args[2])
		return nil
	},
}

// varsResetCmd restores all variables to their defaults
var varsResetCmd = &cobra.Command{
	Use:   "reset <id|config>",
	Short: "Reset all variables to their defaults",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().ResetVariables(args[0]); err != nil {
			return err
		}
		fmt.Println("variables reset")
		return nil
	},
}

func init() {
	varsCmd.AddCommand(varsSetCmd)
	varsCmd.AddCommand(varsResetCmd)
	rootCmd.AddCommand(varsCmd)
}
