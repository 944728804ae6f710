package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/FFengIll/psdiff/pkg"
)

var manualUser = "root"

var manualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Edit the stored snapshot by hand",
}

var manualAddCmd = &cobra.Command{
	Use:   "add CMDLINE",
	Short: "Add an expected child of init",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line := manualLine(args)
		if err := pkg.NewStore(config.Snapshot).AddLine(line); err != nil {
			return err
		}
		log.WithField("line", line).Infoln("line added")
		return nil
	},
}

var manualRemoveCmd = &cobra.Command{
	Use:   "remove CMDLINE",
	Short: "Remove an expected child of init",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line := manualLine(args)
		if err := pkg.NewStore(config.Snapshot).RemoveLine(line); err != nil {
			return err
		}
		log.WithField("line", line).Infoln("line removed")
		return nil
	},
}

func manualLine(args []string) string {
	return pkg.FormatLine(pkg.ManualDepth, strings.Join(args, " "), manualUser)
}

func init() {
	manualCmd.AddCommand(manualAddCmd)
	manualCmd.AddCommand(manualRemoveCmd)
	manualCmd.PersistentFlags().StringVarP(&manualUser, "user", "u", "root", "user the process runs as")
}
