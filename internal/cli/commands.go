package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/qdash/qdash/internal/control"
	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/supervisor"
	"github.com/qdash/qdash/internal/ui"
)

// startCmd asks the daemon to start a dashboard
var startCmd = &cobra.Command{
	Use:   "start <config>",
	Short: "Start a dashboard on the running daemon",
	Long: `Load a dashboard config and start its refresh loop on the daemon.

Starting a config that is already running restarts it.

Examples:
  qdash start sales.yaml
  qdash start dashboards/latency.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newClient().Start(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("started %s\n", st.ConfigPath)
		fmt.Printf("id:       %s\n", st.ID)
		fmt.Printf("artifact: %s\n", st.ArtifactPath)
		return nil
	},
}

// stopCmd stops a dashboard by id or config path
var stopCmd = &cobra.Command{
	Use:   "stop [id|config]",
	Short: "Stop a dashboard and remove its artifact",
	Long: `Stop a dashboard's refresh loop and remove its artifact. With no
argument, stops the only running dashboard.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		id, err := resolveTarget(c, args)
		if err != nil {
			return err
		}
		if err := c.Stop(id); err != nil {
			return err
		}
		fmt.Printf("stopped %s\n", id)
		return nil
	},
}

// restartCmd triggers an immediate refresh
var restartCmd = &cobra.Command{
	Use:   "restart [id|config]",
	Short: "Refresh a dashboard immediately",
	Long: `Trigger an immediate refresh and reset the countdown. The regular
schedule continues from now. With no argument, refreshes the only running
dashboard.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		id, err := resolveTarget(c, args)
		if err != nil {
			return err
		}
		if err := c.Restart(id); err != nil {
			return err
		}
		fmt.Printf("refreshing %s\n", id)
		return nil
	},
}

// resolveTarget picks the dashboard a command addresses: the explicit
// argument when given, otherwise the only running instance.
func resolveTarget(c *control.Client, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	statuses, err := c.List()
	if err != nil {
		return "", err
	}
	switch len(statuses) {
	case 0:
		return "", errors.New(errors.ErrNotFound,
			"No dashboards running",
			"Start one with 'qdash start <config>'")
	case 1:
		return statuses[0].ID, nil
	default:
		return "", errors.New(errors.ErrConfig,
			fmt.Sprintf("%d dashboards running; pick one", len(statuses)),
			"Pass an id or config path; see 'qdash list'")
	}
}

// listCmd shows every running dashboard
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List running dashboards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses, err := newClient().List()
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Println("No dashboards running")
			return nil
		}

		rows := make([][]string, len(statuses))
		for i, st := range statuses {
			rows[i] = []string{
				ui.StateSymbol(string(st.State)) + " " + string(st.State),
				st.ID,
				st.DatabaseType,
				st.ChartType,
				st.Interval.String(),
				fmt.Sprintf("%ds", st.CountdownSeconds),
				st.ConfigPath,
			}
		}
		fmt.Println(ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "STATE", Width: 12},
			{Title: "ID", Width: 36},
			{Title: "DB", Width: 9},
			{Title: "CHART", Width: 9},
			{Title: "INTERVAL", Width: 8},
			{Title: "NEXT", Width: 5},
			{Title: "CONFIG", Width: 40},
		}, rows))
		return nil
	},
}

// statusCmd shows one dashboard in detail
var statusCmd = &cobra.Command{
	Use:   "status <id|config>",
	Short: "Show one dashboard's status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newClient().Status(args[0])
		if err != nil {
			return err
		}
		printStatus(st)
		return nil
	},
}

func printStatus(st supervisor.Status) {
	stateStyle := lipgloss.NewStyle().Foreground(ui.StateColor(string(st.State)))

	fmt.Printf("id:            %s\n", st.ID)
	fmt.Printf("config:        %s\n", st.ConfigPath)
	fmt.Printf("state:         %s\n", stateStyle.Render(ui.StateSymbol(string(st.State))+" "+string(st.State)))
	fmt.Printf("database:      %s\n", st.DatabaseType)
	fmt.Printf("chart:         %s\n", st.ChartType)
	fmt.Printf("interval:      %s\n", st.Interval)
	fmt.Printf("artifact:      %s\n", st.ArtifactPath)
	fmt.Printf("started:       %s\n", st.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("next refresh:  %ds\n", st.CountdownSeconds)
	fmt.Printf("refreshes:     %d (errors: %d)\n", st.RefreshCount, st.ErrorCount)
	if st.LastError != "" {
		fmt.Printf("last error:    %s\n", st.LastError)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
}
