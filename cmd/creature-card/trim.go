package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/menta2k/creature-card/internal/logger"
	"github.com/menta2k/creature-card/internal/utils"
	"github.com/menta2k/creature-card/pkg/trimmer"
)

var (
	trimOutFlag   string
	trimDebugFlag bool
)

var trimCmd = &cobra.Command{
	Use:   "trim <file|url|data-uri>",
	Short: "Trim the transparent border off an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		ref := args[0]
		cc := newCreatureCard(cfg)
		proc := cc.Processor()

		result, err := cc.TrimRef(ctx, ref)
		if errors.Is(err, trimmer.ErrEmptyImage) {
			return errors.Wrapf(err, "%s has no visible pixels", utils.RefBaseName(ref))
		}
		if err != nil {
			return err
		}

		out := trimOutFlag
		if out == "" {
			out = utils.GenerateOutputFilename(ref, ".", "", "_trimmed", cfg.Trimmer.Format)
		}
		if err := utils.EnsureDir(filepath.Dir(out)); err != nil {
			return err
		}

		format := utils.GetFileExtension(out)
		if format == "" {
			format = cfg.Trimmer.Format
		}
		img := proc.Upscale(result.Image, cfg.Trimmer.DisplayScale)
		if err := proc.SaveImage(img, out, format, cfg.Trimmer.Quality, cfg.Trimmer.Lossless); err != nil {
			return errors.Wrapf(err, "save %s", out)
		}

		log := logger.Entry(ctx).WithFields(logrus.Fields{
			"source": fmt.Sprintf("%dx%d", result.Source.Dx(), result.Source.Dy()),
			"box":    fmt.Sprintf("%d,%d-%d,%d", result.Box.Left, result.Box.Top, result.Box.Right, result.Box.Bottom),
		})
		if info, err := os.Stat(out); err == nil {
			log = log.WithField("size", utils.FormatFileSize(info.Size()))
		}
		log.Infof("wrote %s", out)

		if trimDebugFlag {
			src, err := proc.Load(ctx, ref)
			if err != nil {
				return err
			}
			dbgPath := utils.GenerateOutputFilename(out, filepath.Dir(out), "", "_debug", "png")
			if err := proc.SaveImage(proc.CreateDebugOverlay(src, result.Box), dbgPath, "png", 100, true); err != nil {
				log.WithError(err).Warn("debug overlay save failed")
			} else {
				log.Infof("wrote %s", dbgPath)
			}
		}
		return nil
	},
}

func init() {
	trimCmd.Flags().StringVarP(&trimOutFlag, "output", "o", "", "output file; the extension picks the format (png, webp, jpg)")
	trimCmd.Flags().BoolVar(&trimDebugFlag, "debug", false, "also write the source with the bounding box drawn on it")
}
