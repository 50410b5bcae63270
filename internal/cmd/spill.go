package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var spillCmd = &cobra.Command{
	Use:   "spill",
	Short: "Work with spilled search results",
}

var spillGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Read a spilled result file back",
	Long: `Read a spill file and print its matches as JSON.

The path must be absolute, inside the configured output directory, and
carry the logai- filename prefix. Files above the size cap are refused.

Example:
  logai spill get /tmp/log-ai/<session>/logai-search-20260824-153000-auth-a1b2c3d4.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSpillGet,
}

var spillSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete spill files older than the retention window",
	Args:  cobra.NoArgs,
	RunE:  runSpillSweep,
}

var (
	spillMaxBytes  int64
	spillRetention time.Duration
)

func init() {
	rootCmd.AddCommand(spillCmd)
	spillCmd.AddCommand(spillGetCmd)
	spillCmd.AddCommand(spillSweepCmd)

	spillGetCmd.Flags().Int64Var(&spillMaxBytes, "max-bytes", 0, "Size cap override (0 = configured default)")
	spillSweepCmd.Flags().DurationVar(&spillRetention, "retention", 0, "Retention override (0 = configured default)")
}

func runSpillGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close(ctx)

	maxBytes := eng.cfg.Output.ReadMaxBytes
	if spillMaxBytes > 0 {
		maxBytes = spillMaxBytes
	}

	res, err := eng.store.Read(args[0], maxBytes)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Spill read failed", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Matches)
}

func runSpillSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close(ctx)

	retention := eng.cfg.Output.Retention
	if spillRetention > 0 {
		retention = spillRetention
	}

	removed, err := eng.store.Sweep(ctx, retention)
	if err != nil {
		eng.log.Error("sweep failed", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Sweep failed", err)
	}

	fmt.Printf("removed %d spill file(s) older than %s\n", removed, retention)
	return nil
}
