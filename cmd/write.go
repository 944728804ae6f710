package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FFengIll/psdiff/pkg"
)

var writeVerbose = false

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Store the filtered running process tree as the expected state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := pkg.NewStore(config.Snapshot)
		text, err := captureText(cmd.Context())
		if err != nil {
			return err
		}
		if writeVerbose {
			old, err := store.Read()
			if err != nil {
				return err
			}
			for _, line := range pkg.Changes(pkg.Diff(old, text)) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
		}
		if err := store.Write(text); err != nil {
			return err
		}
		log.WithField("snapshot", store.Path).Infoln("snapshot stored")
		return nil
	},
}

func init() {
	writeCmd.Flags().BoolVarP(&writeVerbose, "verbose", "v", false, "print the changes being written")
}
