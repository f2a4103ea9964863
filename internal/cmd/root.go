// Package cmd implements the mks command line interface: business-day and
// SQ-date queries, session checks, cache management, and the API server.
package cmd

import (
	"github.com/spf13/cobra"

	"marketsched/internal/config"
	"marketsched/internal/jpx"
	"marketsched/internal/market"
	"marketsched/internal/util"
	"marketsched/pkg/marketsched"
)

// Persistent flags shared by every subcommand.
var (
	flagConfig string
	flagMarket string
	flagFormat string
)

// NewRootCommand builds the mks root command with all subcommands attached.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "mks",
		Short:   "Market schedule queries for Japanese index derivatives",
		Long:    `mks answers business-day, SQ-date, and trading-session queries from locally cached JPX reference data.`,
		Version: version,
		// Usage text on a failed lookup is noise; errors carry the details.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVarP(&flagMarket, "market", "m", jpx.MarketID, "Market ID")
	root.PersistentFlags().StringVarP(&flagFormat, "format", "f", "json", "Output format: json, text, table")

	root.AddCommand(BDCommand())
	root.AddCommand(SQCommand())
	root.AddCommand(SessionCommand())
	root.AddCommand(CacheCommand())
	root.AddCommand(ServeCommand())
	root.AddCommand(versionCommand(version))

	return root
}

func versionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mks version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("mks %s\n", version)
		},
	}
}

// newService loads the configuration and wires a Service for one command
// invocation.
func newService() (*marketsched.Service, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	return marketsched.New(cfg, util.NewLogger(cfg.Logging.Level))
}

// selectedMarket resolves the --market flag against the registry.
func selectedMarket() (*marketsched.Service, market.Market, error) {
	svc, err := newService()
	if err != nil {
		return nil, nil, err
	}
	m, err := svc.Market(flagMarket)
	if err != nil {
		return nil, nil, err
	}
	return svc, m, nil
}
