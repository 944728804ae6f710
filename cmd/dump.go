package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FFengIll/psdiff/pkg"
)

var dumpJSON = false

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the filtered running process tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := takeSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		if dumpJSON {
			data, err := root.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), pkg.Serialize(root))
		return nil
	},
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpJSON, "json", false, "print the tree as JSON")
}
