package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/qdash/qdash/internal/control"
	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/logger"
	"github.com/qdash/qdash/internal/supervisor"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve [config...]",
	Short: "Run the dashboard daemon in the foreground",
	Long: `Start the refresh daemon: a supervisor for dashboard instances plus a
control API on a unix socket. Config files given as arguments are started
immediately; more can be added later with 'qdash start'.

Examples:
  qdash serve
  qdash serve dashboards/*.yaml
  qdash serve --watch sales.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand(args, serveWatch)
	},
}

func serveCommand(configs []string, watch bool) error {
	log := logger.Default()
	sup := supervisor.New(supervisor.Options{})
	defer sup.StopAll()

	svc := control.NewService(socketPath(), sup)
	if err := svc.Start(); err != nil {
		return err
	}
	defer svc.Close()

	for _, path := range configs {
		st, err := sup.Start(path)
		if err != nil {
			return err
		}
		fmt.Printf("started %s -> %s\n", st.ConfigPath, st.ArtifactPath)
	}

	if watch {
		watcher, err := watchConfigs(sup, configs, log)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	fmt.Printf("qdash daemon listening on %s\n", svc.SocketPath())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Println("shutting down")
	return nil
}

// watchConfigs restarts a dashboard whenever its config file is rewritten.
// Watching the parent directory survives the rename dance editors do on
// save.
func watchConfigs(sup *supervisor.Supervisor, configs []string, log logger.Logger) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot create file watcher", "")
	}

	watched := make(map[string]bool, len(configs))
	dirs := make(map[string]bool)
	for _, path := range configs {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot watch "+dir, "")
		}
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				abs, err := filepath.Abs(event.Name)
				if err != nil || !watched[abs] {
					continue
				}
				log.Info("config changed, restarting %s", abs)
				if _, err := sup.Start(abs); err != nil {
					log.Error("restart after config change failed: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watcher: %v", err)
			}
		}
	}()

	return watcher, nil
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "restart dashboards when their config files change")
	rootCmd.AddCommand(serveCmd)
}
