package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	creaturecard "github.com/menta2k/creature-card"
	"github.com/menta2k/creature-card/internal/config"
	"github.com/menta2k/creature-card/internal/logger"
	"github.com/menta2k/creature-card/internal/utils"
)

// CLI flags
var (
	configFlag   string
	envFileFlag  string
	logLevelFlag string
	apiURLFlag   string
	maxIDFlag    int
	formatFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "creature-card",
	Short: "Show a random creature as a styled card",
	Long: `Creature Card fetches a random creature from a public catalog, trims the
transparent border off its sprite and shows it as a card, either as a web
page or directly in the terminal.

Examples:
  creature-card serve --addr :8080
  creature-card show --id 25
  creature-card trim https://example.test/sprite.png -o sprite.png`,
	SilenceUsage: true,
	Version:      creaturecard.Version,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFlag, "config", "c", "", "config file (json or yaml); defaults to "+config.GetConfigPath()+" when present")
	pf.StringVar(&envFileFlag, "env-file", ".env", "dotenv file with CREATURE_CARD_* overrides")
	pf.StringVar(&logLevelFlag, "log-level", "", "log level: debug|info|warn|error")
	pf.StringVar(&apiURLFlag, "api-url", "", "catalog base URL")
	pf.IntVar(&maxIDFlag, "max-id", 0, "highest identifier picked at random")
	pf.StringVar(&formatFlag, "format", "", "trimmed sprite encoding: png|webp")

	rootCmd.AddCommand(serveCmd, showCmd, trimCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves settings from the config file, the environment and
// finally the command line
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	path := configFlag
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.LoadEnv(envFileFlag); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevelFlag
	}
	if flags.Changed("api-url") {
		cfg.Catalog.BaseURL = apiURLFlag
	}
	if flags.Changed("max-id") {
		cfg.Catalog.MaxID = maxIDFlag
	}
	if flags.Changed("format") {
		cfg.Trimmer.Format = formatFlag
	}
	if flags.Changed("addr") {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// setup loads the configuration and returns a signal-aware context carrying
// the configured logger
func setup(cmd *cobra.Command) (context.Context, context.CancelFunc, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	l := logger.New(cfg.Log.Level)
	log.SetLevel(l.GetLevel())
	log.SetFormatter(l.Formatter)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	ctx = logger.WithLogEntry(ctx, log.NewEntry(l))
	return ctx, cancel, cfg, nil
}

func newCreatureCard(cfg *config.Config) *creaturecard.CreatureCard {
	return creaturecard.NewWithConfig(cfg.CatalogClientConfig(), cfg.ProcessorConfig())
}
