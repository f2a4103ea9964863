package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"marketsched/internal/domain"
	"marketsched/internal/util"
)

var sqCmd = &cobra.Command{
	Use:   "sq",
	Short: "SQ (special quotation) date queries",
}

var sqGetCmd = &cobra.Command{
	Use:   "get <year> <month>",
	Short: "Show the SQ date for a contract period",
	Args:  cobra.ExactArgs(2),
	RunE:  runSQGet,
}

var sqIsCmd = &cobra.Command{
	Use:   "is <date>",
	Short: "Check whether a date is its period's SQ date",
	Args:  cobra.ExactArgs(1),
	RunE:  runSQIs,
}

var sqYearCmd = &cobra.Command{
	Use:   "year <year>",
	Short: "List all SQ dates in a year",
	Args:  cobra.ExactArgs(1),
	RunE:  runSQYear,
}

func init() {
	sqCmd.AddCommand(sqGetCmd)
	sqCmd.AddCommand(sqIsCmd)
	sqCmd.AddCommand(sqYearCmd)
}

func runSQGet(cmd *cobra.Command, args []string) error {
	_, m, err := selectedMarket()
	if err != nil {
		return err
	}
	cm, err := domain.ParseContractMonth(args[0] + "-" + padMonth(args[1]))
	if err != nil {
		return err
	}
	sq, err := m.SQDate(cm.Year, cm.Month)
	if err != nil {
		return err
	}
	return printResult(struct {
		Market        string `json:"market" yaml:"market"`
		ContractMonth string `json:"contract_month" yaml:"contract_month"`
		SQDate        string `json:"sq_date" yaml:"sq_date"`
	}{m.ID(), cm.YYYYMM(), domain.DateKey(sq)})
}

func runSQIs(cmd *cobra.Command, args []string) error {
	_, m, err := selectedMarket()
	if err != nil {
		return err
	}
	date, err := domain.ParseDate(args[0])
	if err != nil {
		return err
	}
	ok, err := m.IsSQDate(date)
	if err != nil {
		return err
	}
	return printResult(struct {
		Market   string `json:"market" yaml:"market"`
		Date     string `json:"date" yaml:"date"`
		IsSQDate bool   `json:"is_sq_date" yaml:"is_sq_date"`
	}{m.ID(), domain.DateKey(date), ok})
}

func runSQYear(cmd *cobra.Command, args []string) error {
	_, m, err := selectedMarket()
	if err != nil {
		return err
	}
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	dates, err := m.SQDatesForYear(year)
	if err != nil {
		return err
	}

	if flagFormat == "table" {
		tp := util.NewTablePrinter()
		tp.Header("MONTH", "SQ DATE")
		for _, d := range dates {
			tp.Row(d.Month().String(), domain.DateKey(d))
		}
		tp.Flush()
		return nil
	}

	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, domain.DateKey(d))
	}
	return printResult(struct {
		Market  string   `json:"market" yaml:"market"`
		Year    int      `json:"year" yaml:"year"`
		SQDates []string `json:"sq_dates" yaml:"sq_dates"`
	}{m.ID(), year, keys})
}

// padMonth turns "3" into "03" so the YYYY-MM contract month form parses.
func padMonth(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// SQCommand returns the sq command for registration.
func SQCommand() *cobra.Command {
	return sqCmd
}
