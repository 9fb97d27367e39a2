package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/etopay/sigilwallet/internal/network"
	"github.com/etopay/sigilwallet/internal/sdk"
	"github.com/etopay/sigilwallet/internal/sdkconfig"
	"github.com/etopay/sigilwallet/internal/sdklog"
	"github.com/etopay/sigilwallet/internal/userrepo"
)

// BuildInfo carries ldflags-injected version metadata into the version command.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level flag/state variables
var (
	homeDir    string
	username   string
	networkKey string
	buildInfo  BuildInfo

	core *sdk.SDK
	log  *sdklog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sigilwallet",
	Short: "A multi-chain, share-custody wallet CLI",
	Long: `sigilwallet is a terminal demo of the wallet-secret core: a Shamir-split
mnemonic, PIN/password-wrapped backups, and EVM/ERC-20/Stardust chain
access, all driven through the internal/sdk façade.

Example:
  sigilwallet wallet create --user alice
  sigilwallet --user alice --network sepolia address new
  sigilwallet --user alice --network sepolia balance`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if log != nil {
			_ = log.Close()
		}
	},
}

// Execute runs the root command with buildInfo attached for the version command.
func Execute(info BuildInfo) error {
	buildInfo = info
	err := rootCmd.Execute()
	if err != nil {
		formatErr(err)
		return err
	}
	return nil
}

func formatErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func initGlobals() error {
	home := homeDir
	if home == "" {
		home = sdkconfig.DefaultHome()
	}
	if strings.HasPrefix(home, "~/") {
		if userHome, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(userHome, home[2:])
		}
	}

	cfgPath := sdkconfig.Path(home)
	cfg, err := sdkconfig.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		cfg = sampleConfig()
		if saveErr := sdkconfig.Save(cfg, cfgPath); saveErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write default config: %v\n", saveErr)
		} else {
			fmt.Fprintf(os.Stderr, "Wrote a starter config to %s — edit it to add your RPC endpoints.\n", cfgPath)
		}
	}

	log, err = sdklog.New(sdklog.ParseLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		log = sdklog.Null()
	}

	repo, err := userrepo.NewFileRepository(filepath.Join(home, "users"))
	if err != nil {
		return err
	}

	core = sdk.New(repo, log)
	if err := core.SetConfig(cfg); err != nil {
		return err
	}

	if username != "" {
		if err := core.InitUser(username); err != nil {
			return err
		}
	}
	if networkKey != "" {
		if err := core.SetNetwork(networkKey); err != nil {
			return err
		}
	}
	return nil
}

// sampleConfig is the starter config written on first run: one public
// Sepolia RPC so `wallet create`/`address new` work without any setup.
func sampleConfig() *sdkconfig.Config {
	return &sdkconfig.Config{
		Networks: map[string]sdkconfig.NetworkConfig{
			"sepolia": {
				Network: network.Network{
					Key: "sepolia", DisplaySymbol: "ETH", Protocol: network.ProtocolEvm,
					ChainID: 11155111, CoinType: 60, Decimals: 18,
				},
				Endpoint: "https://rpc.sepolia.org",
			},
		},
		Logging: sdkconfig.LoggingConfig{Level: "error", File: ""},
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("sigilwallet version %s\n", buildInfo.Version)
		cmd.Printf("  commit: %s\n", buildInfo.Commit)
		cmd.Printf("  built:  %s\n", buildInfo.Date)
	},
}

//nolint:gochecknoinits // cobra CLI pattern requires init for flag/command registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "sigilwallet data directory (default: ~/.sigilwallet)")
	rootCmd.PersistentFlags().StringVar(&username, "user", "", "active username")
	rootCmd.PersistentFlags().StringVar(&networkKey, "network", "", "active network key, as configured in config.yaml")
	rootCmd.AddCommand(versionCmd)
}
