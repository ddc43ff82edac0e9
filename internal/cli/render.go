package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/render"
	"github.com/qdash/qdash/internal/template"
	"github.com/qdash/qdash/internal/vars"
)

// renderCmd executes a dashboard once and prints the artifact
var renderCmd = &cobra.Command{
	Use:   "render <config>",
	Short: "Execute a dashboard once and print the chart",
	Long: `Run the dashboard's query a single time and print the rendered chart
to stdout. No daemon is involved; useful for debugging a config.

Examples:
  qdash render sales.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := renderOnce(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	},
}

func renderOnce(ctx context.Context, configPath string) (string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}

	decls := make([]vars.Decl, len(cfg.Query.Args))
	for i, arg := range cfg.Query.Args {
		decls[i] = vars.Decl{
			Key:         arg.Key,
			Type:        arg.Type,
			Default:     arg.Default,
			Description: arg.Description,
		}
	}
	store, err := vars.NewStore(decls)
	if err != nil {
		return "", err
	}

	query, err := template.Resolve(cfg.Query.SQL, store, cfg.Database.Type)
	if err != nil {
		return "", err
	}

	queryCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	result, err := db.Execute(queryCtx, cfg.Database.Type, cfg.Database.URL, query)
	if err != nil {
		return "", err
	}

	opts := render.Options{}
	if store.Len() > 0 {
		opts.Variables = store.Snapshot()
	}
	return render.Render(result, cfg, opts)
}

func init() {
	rootCmd.AddCommand(renderCmd)
}
