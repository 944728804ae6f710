package main

import (
	"github.com/spf13/cobra"

	"github.com/FFengIll/psdiff/pkg"
)

var (
	graphOutput = "psdiff.dot"
	graphFormat = "dot"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Render the filtered running process tree with graphviz",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := takeSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		render := pkg.NewDotRender()
		defer render.Close()
		return render.Write(root, graphOutput, graphFormat)
	},
}

func init() {
	flags := graphCmd.Flags()
	flags.StringVarP(&graphOutput, "output", "o", "psdiff.dot", "output file")
	flags.StringVarP(&graphFormat, "format", "f", "dot", "output format: dot, png or svg")
}
