// Package cli wires the qdash command surface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qdash/qdash/internal/control"
	"github.com/qdash/qdash/internal/publish"
)

// socketFlag overrides the control socket path for every command.
var socketFlag string

var rootCmd = &cobra.Command{
	Use:   "qdash",
	Short: "Background data-refresh dashboards for your terminal",
	Long: `qdash runs dashboard queries on a schedule and publishes rendered
terminal charts as plain-text artifacts.

Define a dashboard in YAML (database URL, query, chart), start it with
'qdash serve' or 'qdash start', and read the artifact from any tool that
can tail a file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error. Structured
// errors already carry their own formatting.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// socketPath resolves the control socket: the --socket flag when set,
// otherwise the default next to the artifact directory.
func socketPath() string {
	if socketFlag != "" {
		return socketFlag
	}
	return filepath.Join(publish.DefaultDir(), control.SocketName)
}

func newClient() *control.Client {
	return control.NewClient(socketPath())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "control socket path (default: artifact dir)")
}
