package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"marketsched/internal/domain"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"ss"},
	Short:   "Trading session queries",
}

var sessionNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Show the current trading session",
	Args:  cobra.NoArgs,
	RunE:  runSessionNow,
}

var sessionAtCmd = &cobra.Command{
	Use:   "at <datetime>",
	Short: "Show the trading session at an RFC 3339 instant",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionAt,
}

var sessionTradingCmd = &cobra.Command{
	Use:   "trading [datetime]",
	Short: "Check whether trading is open now or at an instant",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionTrading,
}

func init() {
	sessionCmd.AddCommand(sessionNowCmd)
	sessionCmd.AddCommand(sessionAtCmd)
	sessionCmd.AddCommand(sessionTradingCmd)
}

func runSessionNow(cmd *cobra.Command, args []string) error {
	return reportSession(time.Now())
}

func runSessionAt(cmd *cobra.Command, args []string) error {
	at, err := domain.ParseDateTime(args[0])
	if err != nil {
		return err
	}
	return reportSession(at)
}

func runSessionTrading(cmd *cobra.Command, args []string) error {
	at := time.Now()
	if len(args) == 1 {
		var err error
		at, err = domain.ParseDateTime(args[0])
		if err != nil {
			return err
		}
	}
	return reportSession(at)
}

func reportSession(at time.Time) error {
	_, m, err := selectedMarket()
	if err != nil {
		return err
	}
	session := m.Session(at)
	return printResult(struct {
		Market    string `json:"market" yaml:"market"`
		At        string `json:"at" yaml:"at"`
		LocalTime string `json:"local_time" yaml:"local_time"`
		Session   string `json:"session" yaml:"session"`
		IsTrading bool   `json:"is_trading" yaml:"is_trading"`
	}{
		m.ID(),
		at.Format(time.RFC3339),
		at.In(m.Timezone()).Format(time.RFC3339),
		string(session),
		session.IsTrading(),
	})
}

// SessionCommand returns the session command for registration.
func SessionCommand() *cobra.Command {
	return sessionCmd
}
