package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/bagger"
)

var showNodes bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <bag-dir>",
	Short: "Verify an exploded bag and print its metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := bagger.Inspect(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "BagIt %s at %s\n\n", in.Version, in.Root)
		for _, name := range in.Info.Names() {
			for _, v := range in.Info.Get(name) {
				fmt.Fprintf(out, "%s: %s\n", name, v)
			}
		}

		fmt.Fprintf(out, "\nChecked %d entries in %s\n", in.Report.Checked, strings.Join(in.Report.Manifests, ", "))
		for _, m := range in.Report.Mismatches {
			fmt.Fprintf(out, "  MISMATCH %s\n", m.String())
		}

		if in.State != nil {
			fmt.Fprintf(out, "\nState: package %s, %d nodes, format %s\n", in.State.Package, len(in.State.Nodes), in.State.Format)
			if showNodes {
				printNodes(out, in)
			}
		}

		if !in.Report.Valid() {
			return errors.New("bag is invalid")
		}
		return nil
	},
}

func printNodes(w io.Writer, in *bagger.Inspection) {
	for _, n := range in.State.Nodes {
		mark := ""
		if n.Ignored {
			mark = " (ignored)"
		}
		fmt.Fprintf(w, "  %d %s -> %s%s\n", n.ID, n.Name, n.Identifier, mark)
	}
}

func init() {
	inspectCmd.Flags().BoolVar(&showNodes, "nodes", false, "List the nodes recorded in the package state")
	rootCmd.AddCommand(inspectCmd)
}
