package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"marketsched/internal/domain"
	"marketsched/internal/util"
)

var bdCmd = &cobra.Command{
	Use:   "bd",
	Short: "Business day queries",
}

var bdIsCmd = &cobra.Command{
	Use:   "is <date>",
	Short: "Check whether a date is a business day",
	Args:  cobra.ExactArgs(1),
	RunE:  runBDIs,
}

var bdNextCmd = &cobra.Command{
	Use:   "next <date>",
	Short: "Find the next business day strictly after a date",
	Args:  cobra.ExactArgs(1),
	RunE:  runBDNext,
}

var bdPrevCmd = &cobra.Command{
	Use:   "prev <date>",
	Short: "Find the previous business day strictly before a date",
	Args:  cobra.ExactArgs(1),
	RunE:  runBDPrev,
}

var bdListCmd = &cobra.Command{
	Use:   "list",
	Short: "List business days in an inclusive date range",
	RunE:  runBDList,
}

var bdCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count business days in an inclusive date range",
	RunE:  runBDCount,
}

// Flags
var (
	bdStart string
	bdEnd   string
)

func init() {
	for _, c := range []*cobra.Command{bdListCmd, bdCountCmd} {
		c.Flags().StringVar(&bdStart, "start", "", "Range start date, YYYY-MM-DD (required)")
		c.Flags().StringVar(&bdEnd, "end", "", "Range end date, YYYY-MM-DD (required)")
		c.MarkFlagRequired("start")
		c.MarkFlagRequired("end")
	}

	bdCmd.AddCommand(bdIsCmd)
	bdCmd.AddCommand(bdNextCmd)
	bdCmd.AddCommand(bdPrevCmd)
	bdCmd.AddCommand(bdListCmd)
	bdCmd.AddCommand(bdCountCmd)
}

func runBDIs(cmd *cobra.Command, args []string) error {
	_, m, err := selectedMarket()
	if err != nil {
		return err
	}
	date, err := domain.ParseDate(args[0])
	if err != nil {
		return err
	}
	ok, err := m.IsBusinessDay(date)
	if err != nil {
		return err
	}
	return printResult(struct {
		Market        string `json:"market" yaml:"market"`
		Date          string `json:"date" yaml:"date"`
		IsBusinessDay bool   `json:"is_business_day" yaml:"is_business_day"`
	}{m.ID(), domain.DateKey(date), ok})
}

func runBDNext(cmd *cobra.Command, args []string) error {
	return runBDAdjacent(args[0], true)
}

func runBDPrev(cmd *cobra.Command, args []string) error {
	return runBDAdjacent(args[0], false)
}

func runBDAdjacent(arg string, forward bool) error {
	_, m, err := selectedMarket()
	if err != nil {
		return err
	}
	date, err := domain.ParseDate(arg)
	if err != nil {
		return err
	}
	result := date
	if forward {
		result, err = m.NextBusinessDay(date)
	} else {
		result, err = m.PreviousBusinessDay(date)
	}
	if err != nil {
		return err
	}
	return printResult(struct {
		Market      string `json:"market" yaml:"market"`
		From        string `json:"from" yaml:"from"`
		BusinessDay string `json:"business_day" yaml:"business_day"`
	}{m.ID(), domain.DateKey(date), domain.DateKey(result)})
}

func runBDList(cmd *cobra.Command, args []string) error {
	_, m, err := selectedMarket()
	if err != nil {
		return err
	}
	start, end, err := parseRange()
	if err != nil {
		return err
	}
	days, err := m.BusinessDays(start, end)
	if err != nil {
		return err
	}

	if flagFormat == "table" {
		tp := util.NewTablePrinter()
		tp.Header("DATE", "WEEKDAY")
		for _, d := range days {
			tp.Row(domain.DateKey(d), d.Weekday().String())
		}
		tp.Flush()
		return nil
	}

	keys := make([]string, 0, len(days))
	for _, d := range days {
		keys = append(keys, domain.DateKey(d))
	}
	return printResult(struct {
		Market string   `json:"market" yaml:"market"`
		Start  string   `json:"start" yaml:"start"`
		End    string   `json:"end" yaml:"end"`
		Days   []string `json:"days" yaml:"days"`
		Count  int      `json:"count" yaml:"count"`
	}{m.ID(), domain.DateKey(start), domain.DateKey(end), keys, len(keys)})
}

func runBDCount(cmd *cobra.Command, args []string) error {
	_, m, err := selectedMarket()
	if err != nil {
		return err
	}
	start, end, err := parseRange()
	if err != nil {
		return err
	}
	count, err := m.CountBusinessDays(start, end)
	if err != nil {
		return err
	}
	return printResult(struct {
		Market string `json:"market" yaml:"market"`
		Start  string `json:"start" yaml:"start"`
		End    string `json:"end" yaml:"end"`
		Count  int    `json:"count" yaml:"count"`
	}{m.ID(), domain.DateKey(start), domain.DateKey(end), count})
}

func parseRange() (start, end time.Time, err error) {
	start, err = domain.ParseDate(bdStart)
	if err != nil {
		return start, end, fmt.Errorf("--start: %w", err)
	}
	end, err = domain.ParseDate(bdEnd)
	if err != nil {
		return start, end, fmt.Errorf("--end: %w", err)
	}
	return start, end, nil
}

// BDCommand returns the bd command for registration.
func BDCommand() *cobra.Command {
	return bdCmd
}
