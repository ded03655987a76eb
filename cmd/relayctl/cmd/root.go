// Package cmd provides the relayctl subcommands. Each scene command opens
// one connection, writes one message and returns; nothing is read back.
package cmd

import (
	"context"
	"fmt"

	"github.com/mfulz/scenerelay/internal/configcli"
	"github.com/mfulz/scenerelay/internal/configloader"
	"github.com/mfulz/scenerelay/internal/controlcli"
	"github.com/mfulz/scenerelay/internal/logging"
	"github.com/mfulz/scenerelay/protocol"
)

// Options holds the global flags.
var Options struct {
	ConfigPath string
	Addr       string
	User       string
}

// Setup loads relayctl.yaml, applies flag overrides and initializes logging.
func Setup() error {
	cfg, err := configcli.LoadConfig(Options.ConfigPath)
	if err != nil {
		return err
	}
	if Options.Addr != "" {
		cfg.Addr = Options.Addr
	}
	if Options.User != "" {
		cfg.User = Options.User
	}
	if err := logging.Init(cfg.Logger); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	logging.Log.Debugf("[relayctl] addr=%s user=%s", cfg.Addr, cfg.User)
	return nil
}

func sender() *controlcli.Sender {
	return controlcli.NewSender(configloader.MustGetConfig[*configcli.Config]())
}

func send(ctx context.Context, command string, params protocol.Params) error {
	cfg := configloader.MustGetConfig[*configcli.Config]()
	if err := sender().Send(ctx, command, params); err != nil {
		return err
	}
	fmt.Printf("Sent %s to %s\n", command, cfg.Addr)
	return nil
}
