package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/tables"
)

func (a *app) inspectCmd() *cobra.Command {
	var resolveRows bool
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize streams and tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := loadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSummary(out, asm)
			if resolveRows {
				return a.printResolved(cmd, asm)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&resolveRows, "resolve", "r", false, "resolve rows into entities and list types")
	return cmd
}

func printSummary(w io.Writer, asm *assembly.Assembly) {
	if asm.Root != nil {
		fmt.Fprintf(w, "Version: %s\n", asm.Root.Version)
		fmt.Fprintf(w, "Streams:\n")
		for _, s := range asm.Root.Payloads() {
			fmt.Fprintf(w, "  %-10s %8d bytes\n", s.Name, len(s.Data))
		}
	}
	h := asm.Tables.Header
	fmt.Fprintf(w, "Tables stream %s v%d.%d, heap sizes 0x%02x\n",
		asm.TablesStreamName(), h.MajorVersion, h.MinorVersion, h.HeapSizes)
	for _, id := range tables.AllTables() {
		if n := asm.RowCount(id); n > 0 {
			fmt.Fprintf(w, "  %-24s %6d\n", id, n)
		}
	}
}

func (a *app) printResolved(cmd *cobra.Command, asm *assembly.Assembly) error {
	res, err := asm.Resolve(cmd.Context(), a.cfg.ResolveOptions())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	reg := res.Registry
	fmt.Fprintf(w, "Types:\n")
	for t := range reg.TypeDefs.All() {
		base := ""
		if e, ok := t.Extends.Get(); ok && e != nil {
			base = " : " + e.Token().String()
		}
		fmt.Fprintf(w, "  %s %s%s (%d fields, %d methods)\n",
			t.Token(), t.FullName(), base, len(t.Fields), len(t.Methods))
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "error: %v\n", e)
	}
	return nil
}
