package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/FFengIll/psdiff/pkg"
)

var (
	showMissing = false
	showExtra   = false
	showRetry   = false
	metricsFile = ""
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show processes missing from or extra to the snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		expected, err := pkg.NewStore(config.Snapshot).Read()
		if err != nil {
			return err
		}

		delays := []time.Duration(nil)
		if showRetry {
			delays = pkg.RetryDelays
		}
		changes, err := pkg.CompareWithRetry(cmd.Context(), expected, captureText, delays)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("metrics-file") {
			config.MetricsFile = metricsFile
		}
		if config.MetricsFile != "" {
			if err := pkg.WriteMetrics(config.MetricsFile, changes, time.Now()); err != nil {
				return err
			}
		}

		switch {
		case showMissing && !showExtra:
			changes = pkg.Missing(changes)
		case showExtra && !showMissing:
			changes = pkg.Extra(changes)
		}
		for _, line := range changes {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		log.WithField("changes", len(changes)).Infoln("comparison done")
		if len(changes) > 0 {
			return errDifferences
		}
		return nil
	},
}

func init() {
	flags := showCmd.Flags()
	flags.BoolVarP(&showMissing, "missing", "m", false, "only show processes missing from the running tree")
	flags.BoolVarP(&showExtra, "extra", "e", false, "only show processes not in the snapshot")
	flags.BoolVarP(&showRetry, "retry", "r", false, "compare again a few times before reporting differences")
	flags.StringVar(&metricsFile, "metrics-file", "", "write prometheus textfile metrics to this path")
}
