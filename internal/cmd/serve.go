package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"marketsched/internal/config"
	"marketsched/internal/httpapi"
	"marketsched/internal/util"
	"marketsched/pkg/marketsched"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calendar API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// Flags
var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config host:port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	log := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(log)

	svc, err := marketsched.New(cfg, log)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	server := httpapi.NewServer(svc, log)
	log.Info("serving calendar API", "addr", addr)
	return http.ListenAndServe(addr, server.Handler())
}

// ServeCommand returns the serve command for registration.
func ServeCommand() *cobra.Command {
	return serveCmd
}
