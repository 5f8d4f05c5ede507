package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/cilmeta/tables"
)

func (a *app) dumpCmd() *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print table rows",
		Long: `Print every row of the selected tables, or of all tables.

Example:
  cilmeta dump app.dll --table TypeDef --table Field`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := loadFile(args[0])
			if err != nil {
				return err
			}
			ids, err := selectTables(names)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, id := range ids {
				rows, err := asm.Tables.Rows(id)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					continue
				}
				header, err := columnNames(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s (%d)\n", id, len(rows))
				for _, row := range rows {
					fmt.Fprintf(w, "  %s\n", formatRow(header, rowCells(asm, row)))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&names, "table", "t", nil, "table to print (repeatable)")
	return cmd
}

func selectTables(names []string) ([]tables.TableID, error) {
	if len(names) == 0 {
		return tables.AllTables(), nil
	}
	ids := make([]tables.TableID, 0, len(names))
	for _, n := range names {
		id, ok := tables.TableByName(n)
		if !ok {
			return nil, fmt.Errorf("unknown table %q", n)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
