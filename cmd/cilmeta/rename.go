package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/tables"
)

func (a *app) renameCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "rename <file> <Namespace.Type> <NewName>",
		Short: "Rename a type definition and write the metadata root",
		Long: `Rename a type definition. Only the metadata root is written; an
enclosing PE image is not rebuilt.

Example:
  cilmeta rename app.dll Sample.Widget Gadget -o app.meta`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			asm, err := loadFile(args[0])
			if err != nil {
				return err
			}
			tok, err := renameType(assembly.NewBuilderContext(asm), args[1], args[2])
			if err != nil {
				return err
			}
			out, err := a.write(cmd, asm, nil, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s, wrote %d bytes\n", tok, len(out.Bytes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "metadata root output file")
	return cmd
}

// renameType points the TypeDef named fullName at a new name string. The
// old string is left in place since other rows may share it.
func renameType(ctx *assembly.BuilderContext, fullName, newName string) (tables.Token, error) {
	ns, name := "", fullName
	if i := strings.LastIndexByte(fullName, '.'); i >= 0 {
		ns, name = fullName[:i], fullName[i+1:]
	}
	asm := ctx.Assembly()
	rows, err := ctx.LiveRows(tables.TypeDef)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		td := row.(*tables.TypeDefRaw)
		gotName, _ := assembly.StringAt(asm, td.TypeName)
		gotNS, _ := assembly.StringAt(asm, td.TypeNamespace)
		if gotName != name || gotNS != ns {
			continue
		}
		idx, err := ctx.StringGetOrAdd(newName)
		if err != nil {
			return 0, err
		}
		updated := tables.CloneRow(td).(*tables.TypeDefRaw)
		updated.TypeName = idx
		if err := ctx.TableRowUpdate(tables.TypeDef, td.RID, updated); err != nil {
			return 0, err
		}
		return td.Token, nil
	}
	return 0, fmt.Errorf("type %s not found", fullName)
}
