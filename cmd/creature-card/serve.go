package main

import (
	"github.com/spf13/cobra"

	"github.com/menta2k/creature-card/internal/logger"
	"github.com/menta2k/creature-card/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the card page over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		cc := newCreatureCard(cfg)
		log := logger.Entry(ctx).WithField("component", "server")
		return server.New(cfg.Server.Addr, cc.Refresher(), log).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
}
