package cmd

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/jmcleod/marketplace/internal/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	configPath string
	storeFlag  string
	dataDir    string
	dsnFlag    string
	seedFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "marketplace",
	Short: "Marketplace is a session-gated classifieds front end",
	Long: `A classifieds marketplace server. Every request passes through a session
gate that redirects anonymous visitors to /login and forwards the signed-in
user's identity to the handlers behind it.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	memguard.Purge()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	pf.StringVar(&storeFlag, "store", "", "Catalog store driver: memory, bbolt or postgres")
	pf.StringVar(&dataDir, "data-dir", "", "Directory for the bbolt store")
	pf.StringVar(&dsnFlag, "dsn", "", "Postgres connection string (prefer DATABASE_URL)")
	pf.BoolVar(&seedFlag, "seed", false, "Load the sample catalog into embedded stores on start")
}

// loadConfig layers command-line flags over config.Load and validates the
// result once, so a flag can repair a bad file or environment value.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Driver = storeFlag
	}
	if flags.Changed("data-dir") {
		cfg.Store.DataDir = dataDir
	}
	if flags.Changed("dsn") {
		cfg.Store.SetDSN(dsnFlag)
	}
	if flags.Changed("seed") {
		cfg.Store.Seed = seedFlag
	}
	if flags.Changed("port") {
		cfg.SetPort(port)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
