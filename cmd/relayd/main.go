// Command relayd is the scene relay daemon. It loads its configuration,
// resolves the host backend, binds the command socket and executes incoming
// commands on the designated host thread until SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/mfulz/scenerelay/internal/backend"

	"github.com/mfulz/scenerelay/internal/configd"
	"github.com/mfulz/scenerelay/internal/configloader"
	"github.com/mfulz/scenerelay/internal/daemon"
	"github.com/mfulz/scenerelay/internal/logging"
)

var (
	configPath string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:           "relayd",
	Short:         "Scene relay daemon",
	Long:          `relayd accepts JSON commands over TCP and runs them against the scene host, one tick after they arrive.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configd.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.Listen = listenAddr
		}

		if err := logging.Init(cfg.Logger); err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		defer logging.Sync()
		configloader.RegisterConfig(cfg)
		logging.Log.Infof("[relayd] Configuration loaded, host=%s listen=%s", cfg.Host, cfg.Listen)

		d, err := daemon.New(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := d.Run(ctx, nil); err != nil {
			return err
		}
		logging.Log.Infof("[relayd] Shutdown complete. Exiting.")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to relayd.yaml")
	rootCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "override listen address (host:port)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Log.Errorf("[relayd] %v", err)
		logging.Sync()
		os.Exit(1)
	}
}
