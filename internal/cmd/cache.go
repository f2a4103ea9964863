package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"marketsched/internal/domain"
	"marketsched/internal/util"
	"marketsched/pkg/marketsched"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local JPX reference data cache",
}

var cacheUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch and store reference data that is absent or expired",
	Args:  cobra.NoArgs,
	RunE:  runCacheUpdate,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache state per data kind",
	Args:  cobra.NoArgs,
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [kind]",
	Short: "Clear one data kind, or everything when no kind is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

// Flags
var (
	cacheForce bool
	cacheYears []int
)

func init() {
	cacheUpdateCmd.Flags().BoolVar(&cacheForce, "force", false, "Refetch even when the cache is still valid")
	cacheUpdateCmd.Flags().IntSliceVar(&cacheYears, "years", nil, "SQ-date years to fetch (default: current and next year)")

	cacheCmd.AddCommand(cacheUpdateCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheUpdate(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	status, err := svc.UpdateCache(cmd.Context(), marketsched.UpdateOptions{
		Force: cacheForce,
		Years: cacheYears,
	})
	if err != nil {
		return err
	}
	return printStatus(status)
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	return printStatus(svc.CacheStatus())
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		if err := svc.ClearAllCaches(); err != nil {
			return err
		}
		fmt.Println("Cleared all cached data.")
		return nil
	}
	kind := domain.DataKind(args[0])
	if err := svc.ClearCache(kind); err != nil {
		return err
	}
	fmt.Printf("Cleared %s.\n", kind)
	return nil
}

func printStatus(status map[domain.DataKind]domain.CacheInfo) error {
	if flagFormat == "table" {
		tp := util.NewTablePrinter()
		tp.Header("KIND", "VALID", "RECORDS", "FETCHED", "EXPIRES")
		for _, kind := range domain.AllDataKinds() {
			info := status[kind]
			records, fetched, expires := "-", "-", "-"
			if info.RecordCount != nil {
				records = strconv.Itoa(*info.RecordCount)
			}
			if info.FetchedAt != nil {
				fetched = info.FetchedAt.UTC().Format(time.RFC3339)
			}
			if info.ExpiresAt != nil {
				expires = info.ExpiresAt.UTC().Format(time.RFC3339)
			}
			tp.Row(string(kind), strconv.FormatBool(info.IsValid), records, fetched, expires)
		}
		tp.Flush()
		return nil
	}

	entries := make(map[string]domain.CacheInfo, len(status))
	for kind, info := range status {
		entries[string(kind)] = info
	}
	return printResult(entries)
}

// CacheCommand returns the cache command for registration.
func CacheCommand() *cobra.Command {
	return cacheCmd
}
