package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/menta2k/creature-card/pkg/card"
	"github.com/menta2k/creature-card/pkg/types"
)

var (
	showIDFlag   int
	showColsFlag int
	showRowsFlag int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a card to the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		cc := newCreatureCard(cfg)

		refresh := cc.Refresh
		if showIDFlag > 0 {
			refresh = func(ctx context.Context) (types.Card, error) {
				return cc.RefreshID(ctx, showIDFlag)
			}
		}
		result, err := refresh(ctx)
		if err != nil {
			return err
		}

		img, err := cc.Processor().Load(ctx, result.Record.Sprite)
		if err != nil {
			return errors.Wrap(err, "decode sprite")
		}
		img = cc.Processor().Upscale(img, cfg.Trimmer.DisplayScale)

		return card.RenderANSI(os.Stdout, result.Record, img, showColsFlag, showRowsFlag)
	},
}

func init() {
	showCmd.Flags().IntVar(&showIDFlag, "id", 0, "identifier to show instead of a random one")
	showCmd.Flags().IntVar(&showColsFlag, "cols", 40, "terminal columns used for the sprite")
	showCmd.Flags().IntVar(&showRowsFlag, "rows", 20, "terminal rows used for the sprite")
}
