package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sqlCmd prints the query with variables substituted
var sqlCmd = &cobra.Command{
	Use:   "sql <id|config>",
	Short: "Show the query with current variable values",
	Long: `Print the dashboard's query after template substitution, exactly as
the next refresh will execute it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sql, err := newClient().ResolvedSQL(args[0])
		if err != nil {
			return err
		}
		fmt.Println(sql)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sqlCmd)
}
